package model

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// RawDataset is the scraper payload keyed by marketplace, one undecoded
// section per marketplace. Sections are decoded by the aggregator so a
// malformed marketplace never poisons the others.
type RawDataset map[string]json.RawMessage

// CompetitorQuery identifies the product a competitor dataset is requested for.
type CompetitorQuery struct {
	ProductID   uuid.UUID `json:"productId"`
	ProductName string    `json:"productName"`
	Keywords    string    `json:"keywords"`
}

// CompetitorOffer is a single priced listing found on a marketplace.
type CompetitorOffer struct {
	Price  decimal.Decimal `json:"price"`
	Source string          `json:"source"`
	Title  string          `json:"title"`
	URL    string          `json:"url"`
}

// AnalyzedOffer is a competitor offer with its percentage delta against our price.
type AnalyzedOffer struct {
	CompetitorOffer
	DifferencePercent decimal.Decimal `json:"differencePercent"`
}

// Tier buckets how our price compares to the market.
type Tier string

const (
	TierExcellent Tier = "excellent"
	TierGood      Tier = "good"
	TierFair      Tier = "fair"
	TierPoor      Tier = "poor"
	TierUnknown   Tier = "unknown"
)

// PriceRange holds the cheapest and most expensive competitor prices.
type PriceRange struct {
	Min decimal.Decimal `json:"min"`
	Max decimal.Decimal `json:"max"`
}

// PriceAnalysis is the result of comparing our price against competitor offers.
type PriceAnalysis struct {
	LowestOffer  *AnalyzedOffer  `json:"lowestOffer"`
	Offers       []AnalyzedOffer `json:"offers"`
	AveragePrice decimal.Decimal `json:"averagePrice"`
	PriceRange   PriceRange      `json:"priceRange"`
	Tier         Tier            `json:"tier"`
}

// RecommendationBasis records which rule produced a recommended price.
type RecommendationBasis string

const (
	BasisCompetitiveness RecommendationBasis = "competitiveness"
	BasisMarginFloor     RecommendationBasis = "margin_floor"
	BasisNoData          RecommendationBasis = "no_data"
)

// PriceRecommendation is the suggested price derived from a PriceAnalysis.
// RecommendedPrice is null when there was no competitor data to work from.
type PriceRecommendation struct {
	RecommendedPrice      decimal.NullDecimal `json:"recommendedPrice"`
	Reason                string              `json:"reason"`
	Basis                 RecommendationBasis `json:"basis"`
	Tier                  Tier                `json:"tier"`
	ProfitMarginPercent   decimal.NullDecimal `json:"profitMarginPercent"`
	ReferenceAveragePrice decimal.Decimal     `json:"referenceAveragePrice"`
}

// PriceHistoryEntry is one immutable price change.
type PriceHistoryEntry struct {
	Price     decimal.Decimal `json:"price"`
	Timestamp time.Time       `json:"timestamp"`
	Reason    string          `json:"reason"`
}

// EngagementCounters are the cumulative view and purchase counts of a product.
type EngagementCounters struct {
	ViewCount     int64 `json:"viewCount"`
	PurchaseCount int64 `json:"purchaseCount"`
}

// EngagementSnapshot is returned after a counter update.
type EngagementSnapshot struct {
	EngagementCounters
	PopularityScore float64 `json:"popularityScore"`
}

// Product is the stored record the engine reads and mutates.
type Product struct {
	ID              uuid.UUID           `db:"id" json:"id"`
	Name            string              `db:"name" json:"name"`
	Keywords        string              `db:"keywords" json:"keywords"`
	BasePrice       decimal.Decimal     `db:"base_price" json:"basePrice"`
	SalePrice       decimal.NullDecimal `db:"sale_price" json:"salePrice"`
	CurrentPrice    decimal.Decimal     `db:"current_price" json:"currentPrice"`
	Cost            decimal.NullDecimal `db:"cost" json:"cost"`
	PriceHistory    []PriceHistoryEntry `db:"price_history" json:"priceHistory"`
	EngagementCounters
	PopularityScore float64    `db:"popularity_score" json:"popularityScore"`
	LastPriceUpdate *time.Time `db:"last_price_update" json:"lastPriceUpdate,omitempty"`
	Version         int64      `db:"version" json:"version"`
	CreatedAt       time.Time  `db:"created_at" json:"createdAt"`
	UpdatedAt       time.Time  `db:"updated_at" json:"updatedAt"`
}

// EffectivePrice returns the price actually charged: the sale price when
// set and positive, otherwise the base price.
func EffectivePrice(base decimal.Decimal, sale decimal.NullDecimal) decimal.Decimal {
	if sale.Valid && sale.Decimal.IsPositive() {
		return sale.Decimal
	}
	return base
}

// DiscountPercent is derived from base and current price on every call.
func (p Product) DiscountPercent() decimal.Decimal {
	if !p.BasePrice.IsPositive() || !p.CurrentPrice.LessThan(p.BasePrice) {
		return decimal.Zero
	}
	return p.BasePrice.Sub(p.CurrentPrice).Div(p.BasePrice).Mul(decimal.NewFromInt(100)).Round(2)
}
