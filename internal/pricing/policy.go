package pricing

import (
	"errors"

	"github.com/shopspring/decimal"
	"pricescout/internal/config"
)

// ErrInvalidInput is returned for a non-positive own price or a negative cost.
var ErrInvalidInput = errors.New("invalid pricing input")

// Policy holds the thresholds and factors used by Analyze and Recommend.
type Policy struct {
	// FairBand is the multiplier over the most expensive offer up to which
	// a price still counts as fair.
	FairBand decimal.Decimal
	// MinMarkup is the multiplier over cost below which no price is recommended.
	MinMarkup decimal.Decimal

	ExcellentMinFactor decimal.Decimal
	ExcellentAvgFactor decimal.Decimal
	GoodAvgFactor      decimal.Decimal
	FairAvgFactor      decimal.Decimal
}

// DefaultPolicy returns a 5% fair band and a 15% minimum markup.
func DefaultPolicy() Policy {
	return Policy{
		FairBand:           decimal.RequireFromString("1.05"),
		MinMarkup:          decimal.RequireFromString("1.15"),
		ExcellentMinFactor: decimal.RequireFromString("0.95"),
		ExcellentAvgFactor: decimal.RequireFromString("0.9"),
		GoodAvgFactor:      decimal.RequireFromString("0.95"),
		FairAvgFactor:      decimal.RequireFromString("0.98"),
	}
}

// PolicyFromConfig converts the configured factors to decimals.
func PolicyFromConfig(cfg config.PricingConfig) Policy {
	return Policy{
		FairBand:           decimal.NewFromFloat(cfg.FairBandMultiplier),
		MinMarkup:          decimal.NewFromFloat(cfg.MinMarkupMultiplier),
		ExcellentMinFactor: decimal.NewFromFloat(cfg.ExcellentMinFactor),
		ExcellentAvgFactor: decimal.NewFromFloat(cfg.ExcellentAvgFactor),
		GoodAvgFactor:      decimal.NewFromFloat(cfg.GoodAvgFactor),
		FairAvgFactor:      decimal.NewFromFloat(cfg.FairAvgFactor),
	}
}
