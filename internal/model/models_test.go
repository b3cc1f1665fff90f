package model

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
)

func TestEffectivePrice(t *testing.T) {
	base := decimal.NewFromInt(500)
	tests := []struct {
		name string
		sale decimal.NullDecimal
		want string
	}{
		{"no sale", decimal.NullDecimal{}, "500"},
		{"active sale", decimal.NewNullDecimal(decimal.NewFromInt(450)), "450"},
		{"zero sale", decimal.NewNullDecimal(decimal.Zero), "500"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.True(t, EffectivePrice(base, tt.sale).Equal(decimal.RequireFromString(tt.want)))
		})
	}
}

func TestProduct_DiscountPercent(t *testing.T) {
	p := Product{BasePrice: decimal.NewFromInt(300), CurrentPrice: decimal.NewFromInt(200)}
	assert.True(t, p.DiscountPercent().Equal(decimal.RequireFromString("33.33")))

	p.CurrentPrice = decimal.NewFromInt(300)
	assert.True(t, p.DiscountPercent().IsZero())

	p.CurrentPrice = decimal.NewFromInt(350)
	assert.True(t, p.DiscountPercent().IsZero())

	// a direct price change with no sale price still counts as a discount
	p = Product{BasePrice: decimal.NewFromInt(200), CurrentPrice: decimal.NewFromInt(80)}
	assert.True(t, p.DiscountPercent().Equal(decimal.NewFromInt(60)))
}
