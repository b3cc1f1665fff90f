// Package metrics holds the Prometheus collectors of the pricing engine.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// Competitor dataset fetches partitioned by provider and outcome
	CompetitorFetches = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "pricescout_competitor_fetches_total",
			Help: "Competitor dataset fetches by provider and outcome",
		},
		[]string{"provider", "outcome"},
	)

	// Offers kept per aggregated dataset
	AggregatedOffers = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "pricescout_aggregated_offers",
			Help:    "Number of valid competitor offers per refresh",
			Buckets: []float64{0, 1, 2, 5, 10, 20, 50, 100},
		},
	)

	PriceAnalyses = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "pricescout_price_analyses_total",
			Help: "Price analyses by competitiveness tier",
		},
		[]string{"tier"},
	)

	Recommendations = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "pricescout_recommendations_total",
			Help: "Price recommendations by basis",
		},
		[]string{"basis"},
	)

	PriceChanges = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "pricescout_price_changes_total",
			Help: "Price history entries appended",
		},
	)

	// Optimistic concurrency conflicts partitioned by operation
	UpdateConflicts = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "pricescout_update_conflicts_total",
			Help: "Product record version conflicts by operation",
		},
		[]string{"operation"},
	)

	// Best-effort engagement updates that failed and were swallowed
	EngagementFailures = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "pricescout_engagement_failures_total",
			Help: "Engagement counter updates that failed",
		},
		[]string{"event"},
	)
)
