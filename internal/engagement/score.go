// Package engagement derives the popularity score from engagement counters.
package engagement

import (
	"math"

	"pricescout/internal/model"
)

const (
	viewsPerPoint     = 100.0
	pointsPerPurchase = 0.5
	maxViewPoints     = 5.0
	maxPurchasePoints = 5.0
	MaxScore          = 10.0
)

// Score blends views and purchases into a value in [0, MaxScore]. Each
// counter contributes at most five points. It depends on the counters only.
func Score(views, purchases int64) float64 {
	if views < 0 {
		views = 0
	}
	if purchases < 0 {
		purchases = 0
	}
	viewPoints := math.Min(float64(views)/viewsPerPoint, maxViewPoints)
	purchasePoints := math.Min(float64(purchases)*pointsPerPurchase, maxPurchasePoints)
	return math.Min(viewPoints+purchasePoints, MaxScore)
}

// Snapshot recomputes the score for the given counters.
func Snapshot(c model.EngagementCounters) model.EngagementSnapshot {
	return model.EngagementSnapshot{
		EngagementCounters: c,
		PopularityScore:    Score(c.ViewCount, c.PurchaseCount),
	}
}
