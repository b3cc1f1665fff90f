package logging

import (
	"bytes"
	"encoding/json"
	"log/slog"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"pricescout/internal/config"
)

func TestParseLevel(t *testing.T) {
	assert.Equal(t, slog.LevelDebug, ParseLevel("DEBUG"))
	assert.Equal(t, slog.LevelWarn, ParseLevel("warning"))
	assert.Equal(t, slog.LevelError, ParseLevel(" error "))
	assert.Equal(t, slog.LevelInfo, ParseLevel(""))
	assert.Equal(t, slog.LevelInfo, ParseLevel("verbose"))
}

func TestNewWithWriter(t *testing.T) {
	t.Run("json handler filters by level", func(t *testing.T) {
		var buf bytes.Buffer
		logger := NewWithWriter(config.LogConfig{Level: "warn", Format: "json"}, &buf)

		logger.Info("hidden")
		logger.Warn("Competitor fetch failed", "provider", "http")

		lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
		require.Len(t, lines, 1)
		var entry map[string]any
		require.NoError(t, json.Unmarshal([]byte(lines[0]), &entry))
		assert.Equal(t, "Competitor fetch failed", entry["msg"])
		assert.Equal(t, "http", entry["provider"])
	})

	t.Run("text handler", func(t *testing.T) {
		var buf bytes.Buffer
		logger := NewWithWriter(config.LogConfig{Format: "text"}, &buf)
		logger.Info("Price changed", "newPrice", "98.17")
		assert.Contains(t, buf.String(), "msg=\"Price changed\"")
		assert.Contains(t, buf.String(), "newPrice=98.17")
	})
}
