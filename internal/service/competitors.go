package service

import (
	"context"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"pricescout/internal/competitor"
	"pricescout/internal/metrics"
	"pricescout/internal/model"
)

// RefreshCompetitors fetches a new dataset for the product, aggregates it and
// replaces the cached snapshot. A failed fetch yields an empty snapshot for
// the caller and leaves the cached one in place.
func (s *PriceService) RefreshCompetitors(ctx context.Context, productID uuid.UUID) (competitor.Snapshot, error) {
	p, err := s.repo.GetProduct(ctx, productID)
	if err != nil {
		return competitor.Snapshot{}, err
	}

	query := model.CompetitorQuery{ProductID: p.ID, ProductName: p.Name, Keywords: p.Keywords}
	raw, err := s.provider.Fetch(ctx, query)
	if err != nil {
		metrics.CompetitorFetches.WithLabelValues(s.provider.Name(), "error").Inc()
		s.logger.Warn("Competitor fetch failed, continuing without data",
			"provider", s.provider.Name(),
			"productId", productID,
			"error", err,
		)
		return competitor.Snapshot{ProductID: productID, Offers: []model.CompetitorOffer{}, FetchedAt: s.now()}, nil
	}
	metrics.CompetitorFetches.WithLabelValues(s.provider.Name(), "ok").Inc()

	offers := s.aggregator.Aggregate(raw)
	metrics.AggregatedOffers.Observe(float64(len(offers)))

	snapshot := competitor.Snapshot{ProductID: productID, Offers: offers, FetchedAt: s.now()}
	if err := s.cache.Store(ctx, snapshot); err != nil {
		s.logger.Warn("Failed to cache competitor snapshot", "productId", productID, "error", err)
	}
	s.logger.Info("Competitor data refreshed", "productId", productID, "offers", len(offers))
	return snapshot, nil
}

// CompetitorOffers returns the cached snapshot, refreshing it when missing.
func (s *PriceService) CompetitorOffers(ctx context.Context, productID uuid.UUID) (competitor.Snapshot, error) {
	snapshot, ok, err := s.cache.Load(ctx, productID)
	if err != nil {
		s.logger.Warn("Failed to load competitor snapshot", "productId", productID, "error", err)
	}
	if ok {
		return snapshot, nil
	}
	return s.RefreshCompetitors(ctx, productID)
}

// Insight analyzes the product's effective price against its competitor
// snapshot and recommends a price using the stored cost. Only a missing
// product is returned as an error; any other failure marks the insight as
// not available.
func (s *PriceService) Insight(ctx context.Context, productID uuid.UUID) (Insight, error) {
	p, err := s.repo.GetProduct(ctx, productID)
	if err != nil {
		return Insight{}, err
	}
	insight := Insight{ProductID: productID, YourPrice: p.CurrentPrice}

	snapshot, err := s.CompetitorOffers(ctx, productID)
	if err != nil {
		s.logger.Warn("Competitor offers not available", "productId", productID, "error", err)
		return insight, nil
	}
	insight.FetchedAt = snapshot.FetchedAt

	analysis, err := s.Analyze(snapshot.Offers, insight.YourPrice)
	if err != nil {
		s.logger.Warn("Price analysis not available", "productId", productID, "error", err)
		return insight, nil
	}

	cost := decimal.Zero
	if p.Cost.Valid {
		cost = p.Cost.Decimal
	}
	rec, err := s.Recommend(analysis, cost)
	if err != nil {
		s.logger.Warn("Price recommendation not available", "productId", productID, "error", err)
		return insight, nil
	}

	insight.Available = true
	insight.Analysis = &analysis
	insight.Recommendation = &rec
	return insight, nil
}
