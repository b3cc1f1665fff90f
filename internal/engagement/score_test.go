package engagement

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"pricescout/internal/model"
)

func TestScore(t *testing.T) {
	tests := []struct {
		name      string
		views     int64
		purchases int64
		want      float64
	}{
		{"no engagement", 0, 0, 0},
		{"views and purchases", 250, 8, 6.5},
		{"views capped at five", 10_000, 0, 5},
		{"purchases capped at five", 0, 40, 5},
		{"both capped", 1_000_000, 1_000_000, 10},
		{"fifty views and one purchase", 50, 1, 1},
		{"negative counters treated as zero", -10, -3, 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.InDelta(t, tt.want, Score(tt.views, tt.purchases), 1e-9)
		})
	}
}

func TestScoreIsReproducible(t *testing.T) {
	first := Score(250, 8)
	for i := 0; i < 5; i++ {
		Score(int64(i*1000), int64(i))
		assert.Equal(t, first, Score(250, 8))
	}
}

func TestSnapshot(t *testing.T) {
	s := Snapshot(model.EngagementCounters{ViewCount: 250, PurchaseCount: 8})
	assert.Equal(t, int64(250), s.ViewCount)
	assert.InDelta(t, 6.5, s.PopularityScore, 1e-9)
}
