package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"pricescout/internal/competitor"
	"pricescout/internal/config"
	"pricescout/internal/database"
	"pricescout/internal/engagement"
	"pricescout/internal/ledger"
	"pricescout/internal/metrics"
	"pricescout/internal/model"
	"pricescout/internal/pricing"
)

// NewProduct carries the pricing fields of a product being created.
type NewProduct struct {
	Name      string
	Keywords  string
	BasePrice decimal.Decimal
	SalePrice decimal.NullDecimal
	Cost      decimal.NullDecimal
}

// PriceUpdate replaces the base and sale price of a product.
type PriceUpdate struct {
	BasePrice decimal.Decimal
	SalePrice decimal.NullDecimal
	Reason    string
}

// Insight is the competitor analysis and recommendation shown for a product.
// Available is false when no analysis could be produced.
type Insight struct {
	ProductID      uuid.UUID                  `json:"productId"`
	YourPrice      decimal.Decimal            `json:"yourPrice"`
	Available      bool                       `json:"available"`
	Analysis       *model.PriceAnalysis       `json:"analysis,omitempty"`
	Recommendation *model.PriceRecommendation `json:"recommendation,omitempty"`
	FetchedAt      time.Time                  `json:"fetchedAt"`
}

// PriceService runs the competitor pipeline and applies price and
// engagement updates to stored products.
type PriceService struct {
	logger     *slog.Logger
	repo       database.Repository
	provider   competitor.Provider
	cache      competitor.SnapshotCache
	aggregator *pricing.Aggregator
	policy     pricing.Policy
	ledger     ledger.Ledger
	retries    int
	now        func() time.Time
}

// NewPriceService creates a new instance of the PriceService.
func NewPriceService(logger *slog.Logger, repo database.Repository, provider competitor.Provider, cache competitor.SnapshotCache, cfg *config.Config) *PriceService {
	return &PriceService{
		logger:     logger,
		repo:       repo,
		provider:   provider,
		cache:      cache,
		aggregator: pricing.NewAggregator(logger, cfg.Competitors.Marketplaces),
		policy:     pricing.PolicyFromConfig(cfg.Pricing),
		ledger:     ledger.New(cfg.Pricing.HistoryLimit),
		retries:    cfg.Pricing.UpdateRetries,
		now:        func() time.Time { return time.Now().UTC() },
	}
}

// Analyze compares yourPrice against offers using the configured policy.
func (s *PriceService) Analyze(offers []model.CompetitorOffer, yourPrice decimal.Decimal) (model.PriceAnalysis, error) {
	analysis, err := pricing.Analyze(offers, yourPrice, s.policy)
	if err != nil {
		return model.PriceAnalysis{}, err
	}
	metrics.PriceAnalyses.WithLabelValues(string(analysis.Tier)).Inc()
	return analysis, nil
}

// Recommend derives a recommended price. A zero cost means unknown.
func (s *PriceService) Recommend(analysis model.PriceAnalysis, cost decimal.Decimal) (model.PriceRecommendation, error) {
	rec, err := pricing.Recommend(analysis, cost, s.policy)
	if err != nil {
		return model.PriceRecommendation{}, err
	}
	metrics.Recommendations.WithLabelValues(string(rec.Basis)).Inc()
	return rec, nil
}

// CreateProduct stores a new product with its initial price history entry.
func (s *PriceService) CreateProduct(ctx context.Context, in NewProduct) (model.Product, error) {
	if !in.BasePrice.IsPositive() {
		return model.Product{}, fmt.Errorf("%w: base price must be positive, got %s", pricing.ErrInvalidInput, in.BasePrice)
	}
	if in.SalePrice.Valid && in.SalePrice.Decimal.IsNegative() {
		return model.Product{}, fmt.Errorf("%w: sale price must not be negative", pricing.ErrInvalidInput)
	}
	if in.Cost.Valid && in.Cost.Decimal.IsNegative() {
		return model.Product{}, fmt.Errorf("%w: cost must not be negative", pricing.ErrInvalidInput)
	}

	now := s.now()
	effective := model.EffectivePrice(in.BasePrice, in.SalePrice)
	p := model.Product{
		ID:           uuid.New(),
		Name:         in.Name,
		Keywords:     in.Keywords,
		BasePrice:    in.BasePrice,
		SalePrice:    in.SalePrice,
		CurrentPrice: effective,
		Cost:         in.Cost,
		PriceHistory: s.ledger.Initial(effective, now),
		Version:      1,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	if err := s.repo.CreateProduct(ctx, &p); err != nil {
		return model.Product{}, err
	}

	s.logger.Info("Product created", "productId", p.ID, "effectivePrice", effective)
	return p, nil
}

// RecordPriceChange stores newEffectivePrice as the product's current price
// and prepends it to the price history. An unchanged price leaves the record
// untouched and returns the existing history.
func (s *PriceService) RecordPriceChange(ctx context.Context, productID uuid.UUID, newEffectivePrice decimal.Decimal, reason string) ([]model.PriceHistoryEntry, error) {
	if !newEffectivePrice.IsPositive() {
		return nil, fmt.Errorf("%w: effective price must be positive, got %s", pricing.ErrInvalidInput, newEffectivePrice)
	}

	var changed bool
	p, err := s.mutate(ctx, "record_price_change", productID, func(p *model.Product) bool {
		changed = s.applyPrice(p, newEffectivePrice, reason)
		return changed
	})
	if err != nil {
		return nil, err
	}
	if changed {
		s.priceChanged(p)
	}
	return p.PriceHistory, nil
}

// UpdatePricing replaces base and sale price and records a history entry
// when the resulting effective price differs from the stored one.
func (s *PriceService) UpdatePricing(ctx context.Context, productID uuid.UUID, update PriceUpdate) (model.Product, error) {
	if !update.BasePrice.IsPositive() {
		return model.Product{}, fmt.Errorf("%w: base price must be positive, got %s", pricing.ErrInvalidInput, update.BasePrice)
	}
	if update.SalePrice.Valid && update.SalePrice.Decimal.IsNegative() {
		return model.Product{}, fmt.Errorf("%w: sale price must not be negative", pricing.ErrInvalidInput)
	}

	var priceChanged bool
	p, err := s.mutate(ctx, "update_pricing", productID, func(p *model.Product) bool {
		fieldsChanged := !p.BasePrice.Equal(update.BasePrice) || !sameNull(p.SalePrice, update.SalePrice)
		p.BasePrice = update.BasePrice
		p.SalePrice = update.SalePrice
		priceChanged = s.applyPrice(p, model.EffectivePrice(p.BasePrice, p.SalePrice), update.Reason)
		return fieldsChanged || priceChanged
	})
	if err != nil {
		return model.Product{}, err
	}
	if priceChanged {
		s.priceChanged(p)
	}
	return p, nil
}

func (s *PriceService) applyPrice(p *model.Product, price decimal.Decimal, reason string) bool {
	now := s.now()
	history, changed := s.ledger.Record(p.CurrentPrice, p.PriceHistory, price, reason, now)
	if !changed {
		return false
	}
	p.CurrentPrice = price
	p.PriceHistory = history
	p.LastPriceUpdate = &now
	return true
}

func (s *PriceService) priceChanged(p model.Product) {
	metrics.PriceChanges.Inc()
	s.logger.Info("Price changed",
		"productId", p.ID,
		"newPrice", p.CurrentPrice,
		"reason", p.PriceHistory[0].Reason,
		"historyLength", len(p.PriceHistory),
	)
}

// RecordView increments the view counter and recomputes the popularity
// score. Failures are logged and reported through ok only.
func (s *PriceService) RecordView(ctx context.Context, productID uuid.UUID) (snapshot model.EngagementSnapshot, ok bool) {
	return s.recordEngagement(ctx, "view", productID, func(c *model.EngagementCounters) {
		c.ViewCount++
	})
}

// RecordPurchase increments the purchase counter and recomputes the
// popularity score. Like RecordView it never surfaces an error.
func (s *PriceService) RecordPurchase(ctx context.Context, productID uuid.UUID) (snapshot model.EngagementSnapshot, ok bool) {
	return s.recordEngagement(ctx, "purchase", productID, func(c *model.EngagementCounters) {
		c.PurchaseCount++
	})
}

func (s *PriceService) recordEngagement(ctx context.Context, event string, productID uuid.UUID, bump func(*model.EngagementCounters)) (model.EngagementSnapshot, bool) {
	p, err := s.mutate(ctx, "record_"+event, productID, func(p *model.Product) bool {
		bump(&p.EngagementCounters)
		p.PopularityScore = engagement.Score(p.ViewCount, p.PurchaseCount)
		return true
	})
	if err != nil {
		metrics.EngagementFailures.WithLabelValues(event).Inc()
		s.logger.Warn("Failed to record engagement", "event", event, "productId", productID, "error", err)
		return model.EngagementSnapshot{}, false
	}
	return engagement.Snapshot(p.EngagementCounters), true
}

// mutate applies fn to a freshly read product and writes it back with a
// version check, re-reading and reapplying fn after each conflict.
func (s *PriceService) mutate(ctx context.Context, op string, productID uuid.UUID, fn func(p *model.Product) bool) (model.Product, error) {
	for attempt := 1; attempt <= s.retries; attempt++ {
		p, err := s.repo.GetProduct(ctx, productID)
		if err != nil {
			return model.Product{}, fmt.Errorf("%s %s: %w", op, productID, err)
		}
		if !fn(&p) {
			return p, nil
		}

		err = s.repo.UpdateProduct(ctx, &p)
		if err == nil {
			return p, nil
		}
		if !errors.Is(err, database.ErrConflict) {
			return model.Product{}, fmt.Errorf("%s %s: %w", op, productID, err)
		}
		metrics.UpdateConflicts.WithLabelValues(op).Inc()
		s.logger.Debug("Version conflict, retrying with fresh state", "operation", op, "productId", productID, "attempt", attempt)
	}
	return model.Product{}, fmt.Errorf("%s %s after %d attempts: %w", op, productID, s.retries, database.ErrConflict)
}

func sameNull(a, b decimal.NullDecimal) bool {
	if a.Valid != b.Valid {
		return false
	}
	return !a.Valid || a.Decimal.Equal(b.Decimal)
}
