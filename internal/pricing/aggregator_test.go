package pricing

import (
	"encoding/json"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"pricescout/internal/config"
	"pricescout/internal/model"
)

var testMarketplaces = []config.MarketplaceConfig{
	{Key: "amazon", Label: "Amazon"},
	{Key: "flipkart", Label: "Flipkart"},
}

func dataset(t *testing.T, raw string) model.RawDataset {
	t.Helper()
	var ds model.RawDataset
	require.NoError(t, json.Unmarshal([]byte(raw), &ds))
	return ds
}

func TestAggregator_Aggregate(t *testing.T) {
	agg := NewAggregator(discardLogger(), testMarketplaces)

	t.Run("labels and concatenates in marketplace order", func(t *testing.T) {
		offers := agg.Aggregate(dataset(t, `{
			"flipkart": {"products": [{"price": 90, "title": "Phone F", "url": "https://f.example/1"}]},
			"amazon":   {"products": [
				{"price": 100, "title": "Phone A", "url": "https://a.example/1"},
				{"price": "85.50", "title": "Phone A2", "url": "https://a.example/2"}
			]}
		}`))

		require.Len(t, offers, 3)
		assert.Equal(t, "Amazon", offers[0].Source)
		assertDecimal(t, "100", offers[0].Price)
		assert.Equal(t, "Amazon", offers[1].Source)
		assertDecimal(t, "85.5", offers[1].Price)
		assert.Equal(t, "Flipkart", offers[2].Source)
		assert.Equal(t, "https://f.example/1", offers[2].URL)
	})

	t.Run("drops invalid prices", func(t *testing.T) {
		offers := agg.Aggregate(dataset(t, `{
			"amazon": {"products": [
				{"price": null, "title": "null"},
				{"title": "missing"},
				{"price": "abc", "title": "text"},
				{"price": "NaN", "title": "nan"},
				{"price": "Inf", "title": "inf"},
				{"price": -5, "title": "negative"},
				{"price": true, "title": "bool"},
				{"price": "", "title": "empty"},
				{"price": 0, "title": "zero"},
				{"price": 12.5, "title": "ok"}
			]}
		}`))

		require.Len(t, offers, 2)
		assert.Equal(t, "zero", offers[0].Title)
		assert.Equal(t, "ok", offers[1].Title)
	})

	t.Run("keeps duplicates across sources", func(t *testing.T) {
		offers := agg.Aggregate(dataset(t, `{
			"amazon":   {"products": [{"price": 10, "title": "Same", "url": "https://same"}]},
			"flipkart": {"products": [{"price": 10, "title": "Same", "url": "https://same"}]}
		}`))
		assert.Len(t, offers, 2)
	})

	t.Run("malformed or missing sections yield no offers", func(t *testing.T) {
		offers := agg.Aggregate(dataset(t, `{
			"amazon": "blocked by captcha",
			"ebay": {"products": [{"price": 10}]}
		}`))
		assert.Empty(t, offers)
		assert.NotNil(t, offers)
	})

	t.Run("one bad section does not affect another", func(t *testing.T) {
		offers := agg.Aggregate(dataset(t, `{
			"amazon": {"products": {"price": 10}},
			"flipkart": {"products": [{"price": 20, "title": "F"}]}
		}`))
		require.Len(t, offers, 1)
		assert.Equal(t, "Flipkart", offers[0].Source)
	})

	t.Run("nil dataset", func(t *testing.T) {
		assert.Empty(t, agg.Aggregate(nil))
	})
}

func TestListingValidator(t *testing.T) {
	v, err := newListingValidator()
	require.NoError(t, err)

	tests := []struct {
		name  string
		price float64
		ok    bool
	}{
		{"positive", 10, true},
		{"zero", 0, true},
		{"negative", -1, false},
		{"nan", math.NaN(), false},
		{"positive infinity", math.Inf(1), false},
		{"negative infinity", math.Inf(-1), false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := v.Struct(listingInput{Price: tt.price})
			if tt.ok {
				assert.NoError(t, err)
			} else {
				assert.Error(t, err)
			}
		})
	}

	assert.NotPanics(t, func() { NewAggregator(discardLogger(), nil) })
}
