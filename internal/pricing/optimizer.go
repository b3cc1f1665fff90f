package pricing

import (
	"fmt"

	"github.com/shopspring/decimal"
	"pricescout/internal/model"
)

const (
	reasonNoData     = "No competitor data available for price optimization"
	reasonExcellent  = "Your price is already competitive but could be optimized for better profitability"
	reasonGood       = "Maintain competitive edge with a price slightly below market average"
	reasonFair       = "Adjust price to be more competitive against market average"
	reasonPoor       = "Consider reducing price to match market average for better competitiveness"
	reasonUnknown    = "Align with market average based on available data"
	reasonMarginRule = "Price set to maintain minimum profit margin based on cost"
)

// Recommend turns an analysis into a recommended price. A zero cost means
// the cost is unknown and disables the margin floor; a negative cost is
// rejected. Without a lowest offer no price is recommended.
func Recommend(analysis model.PriceAnalysis, cost decimal.Decimal, policy Policy) (model.PriceRecommendation, error) {
	if cost.IsNegative() {
		return model.PriceRecommendation{}, fmt.Errorf("%w: cost must not be negative, got %s", ErrInvalidInput, cost)
	}

	rec := model.PriceRecommendation{
		Tier:                  analysis.Tier,
		ReferenceAveragePrice: analysis.AveragePrice.Round(2),
	}
	if analysis.LowestOffer == nil {
		rec.Basis = model.BasisNoData
		rec.Reason = reasonNoData
		return rec, nil
	}

	avg := analysis.AveragePrice
	var price decimal.Decimal
	switch analysis.Tier {
	case model.TierExcellent:
		price = decimal.Min(
			analysis.PriceRange.Min.Mul(policy.ExcellentMinFactor),
			avg.Mul(policy.ExcellentAvgFactor),
		)
		rec.Reason = reasonExcellent
	case model.TierGood:
		price = avg.Mul(policy.GoodAvgFactor)
		rec.Reason = reasonGood
	case model.TierFair:
		price = avg.Mul(policy.FairAvgFactor)
		rec.Reason = reasonFair
	case model.TierPoor:
		price = avg
		rec.Reason = reasonPoor
	default:
		price = avg
		rec.Reason = reasonUnknown
	}
	rec.Basis = model.BasisCompetitiveness

	if cost.IsPositive() {
		floor := cost.Mul(policy.MinMarkup)
		if price.LessThan(floor) {
			price = floor
			rec.Reason = reasonMarginRule
			rec.Basis = model.BasisMarginFloor
		}
		margin := price.Sub(cost).Div(price).Mul(hundred)
		rec.ProfitMarginPercent = decimal.NewNullDecimal(margin.Round(2))
	}

	rec.RecommendedPrice = decimal.NewNullDecimal(price.Round(2))
	return rec, nil
}
