package competitor

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"pricescout/internal/config"
	"pricescout/internal/model"
)

// ErrFetch marks any failure to obtain a competitor dataset.
var ErrFetch = errors.New("competitor fetch failed")

// Provider defines the standard interface for competitor data sources.
type Provider interface {
	Name() string
	// Fetch returns one complete dataset for the query.
	Fetch(ctx context.Context, query model.CompetitorQuery) (model.RawDataset, error)
}

// NewProvider creates a provider based on the configured kind.
func NewProvider(logger *slog.Logger, cfg config.CompetitorsConfig) (Provider, error) {
	switch cfg.Provider {
	case "http":
		return NewHTTPProvider(logger, cfg.URL, cfg.Timeout), nil
	case "websocket":
		return NewWebSocketProvider(logger, cfg.URL, cfg.Timeout), nil
	default:
		return nil, fmt.Errorf("unknown competitor provider: %s", cfg.Provider)
	}
}
