package pricing

import (
	"fmt"
	"slices"

	"github.com/shopspring/decimal"
	"pricescout/internal/model"
)

var hundred = decimal.NewFromInt(100)

// Analyze compares yourPrice against the offers. The returned offers are
// sorted ascending by price, ties kept in input order. An empty offer list
// yields TierUnknown with no lowest offer and zero average and range.
func Analyze(offers []model.CompetitorOffer, yourPrice decimal.Decimal, policy Policy) (model.PriceAnalysis, error) {
	if !yourPrice.IsPositive() {
		return model.PriceAnalysis{}, fmt.Errorf("%w: own price must be positive, got %s", ErrInvalidInput, yourPrice)
	}

	analyzed := make([]model.AnalyzedOffer, 0, len(offers))
	for _, o := range offers {
		if o.Price.IsNegative() {
			continue
		}
		analyzed = append(analyzed, model.AnalyzedOffer{
			CompetitorOffer:   o,
			DifferencePercent: o.Price.Sub(yourPrice).Div(yourPrice).Mul(hundred),
		})
	}
	slices.SortStableFunc(analyzed, func(a, b model.AnalyzedOffer) int {
		return a.Price.Cmp(b.Price)
	})

	result := model.PriceAnalysis{
		Offers:       analyzed,
		AveragePrice: decimal.Zero,
		PriceRange:   model.PriceRange{Min: decimal.Zero, Max: decimal.Zero},
		Tier:         model.TierUnknown,
	}
	if len(analyzed) == 0 {
		return result, nil
	}

	lowest := analyzed[0]
	result.LowestOffer = &lowest

	sum := decimal.Zero
	for _, o := range analyzed {
		sum = sum.Add(o.Price)
	}
	result.AveragePrice = sum.Div(decimal.NewFromInt(int64(len(analyzed))))
	result.PriceRange = model.PriceRange{
		Min: analyzed[0].Price,
		Max: analyzed[len(analyzed)-1].Price,
	}
	result.Tier = classify(yourPrice, result.AveragePrice, result.PriceRange, policy)
	return result, nil
}

func classify(yourPrice, average decimal.Decimal, r model.PriceRange, policy Policy) model.Tier {
	switch {
	case yourPrice.LessThan(r.Min):
		return model.TierExcellent
	case yourPrice.LessThan(average):
		return model.TierGood
	case yourPrice.LessThanOrEqual(r.Max.Mul(policy.FairBand)):
		return model.TierFair
	default:
		return model.TierPoor
	}
}
