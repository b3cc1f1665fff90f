package pricing

import (
	"bytes"
	"encoding/json"
	"fmt"
	"log/slog"
	"math"
	"reflect"
	"strconv"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/shopspring/decimal"
	"pricescout/internal/config"
	"pricescout/internal/model"
)

// rawSection is the per-marketplace block produced by the scraper.
type rawSection struct {
	Products []rawListing `json:"products"`
}

type rawListing struct {
	Price json.RawMessage `json:"price"`
	Title string          `json:"title"`
	URL   string          `json:"url"`
}

// listingInput is the typed boundary a raw listing must pass before it
// becomes a CompetitorOffer.
type listingInput struct {
	Price float64 `validate:"finite,gte=0"`
	Title string  `validate:"max=1024"`
	URL   string  `validate:"max=4096"`
}

// Aggregator flattens a RawDataset into a single list of offers.
type Aggregator struct {
	logger       *slog.Logger
	marketplaces []config.MarketplaceConfig
	validate     *validator.Validate
}

// NewAggregator creates an Aggregator for the given marketplaces. The order
// of marketplaces fixes the order of the aggregated offers.
func NewAggregator(logger *slog.Logger, marketplaces []config.MarketplaceConfig) *Aggregator {
	v, err := newListingValidator()
	if err != nil {
		panic(fmt.Sprintf("pricing: listing validator: %v", err))
	}
	return &Aggregator{
		logger:       logger,
		marketplaces: marketplaces,
		validate:     v,
	}
}

// Aggregate keeps every listing with a finite non-negative price, labels it
// with its marketplace and concatenates the results. Duplicates are kept.
func (a *Aggregator) Aggregate(raw model.RawDataset) []model.CompetitorOffer {
	offers := make([]model.CompetitorOffer, 0)
	for _, mp := range a.marketplaces {
		section, ok := raw[mp.Key]
		if !ok || len(section) == 0 {
			continue
		}

		var parsed rawSection
		if err := json.Unmarshal(section, &parsed); err != nil {
			a.logger.Debug("Skipping malformed marketplace section", "marketplace", mp.Key, "error", err)
			continue
		}

		kept := 0
		for _, item := range parsed.Products {
			offer, ok := a.toOffer(item, mp.Label)
			if !ok {
				continue
			}
			offers = append(offers, offer)
			kept++
		}
		a.logger.Debug("Aggregated marketplace offers",
			"marketplace", mp.Key,
			"received", len(parsed.Products),
			"kept", kept,
		)
	}
	return offers
}

func newListingValidator() (*validator.Validate, error) {
	v := validator.New()
	err := v.RegisterValidation("finite", func(fl validator.FieldLevel) bool {
		if fl.Field().Kind() != reflect.Float64 {
			return false
		}
		f := fl.Field().Float()
		return !math.IsNaN(f) && !math.IsInf(f, 0)
	})
	if err != nil {
		return nil, err
	}
	return v, nil
}

func (a *Aggregator) toOffer(item rawListing, source string) (model.CompetitorOffer, bool) {
	text, ok := priceText(item.Price)
	if !ok {
		return model.CompetitorOffer{}, false
	}
	f, err := strconv.ParseFloat(text, 64)
	if err != nil {
		return model.CompetitorOffer{}, false
	}

	input := listingInput{Price: f, Title: item.Title, URL: item.URL}
	if err := a.validate.Struct(input); err != nil {
		return model.CompetitorOffer{}, false
	}

	price, err := decimal.NewFromString(text)
	if err != nil {
		return model.CompetitorOffer{}, false
	}
	return model.CompetitorOffer{
		Price:  price,
		Source: source,
		Title:  item.Title,
		URL:    item.URL,
	}, true
}

// priceText extracts the numeric text of a price that may arrive as a JSON
// number or as a quoted string.
func priceText(raw json.RawMessage) (string, bool) {
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 || bytes.Equal(raw, []byte("null")) {
		return "", false
	}
	if raw[0] == '"' {
		var s string
		if err := json.Unmarshal(raw, &s); err != nil {
			return "", false
		}
		s = strings.TrimSpace(s)
		return s, s != ""
	}
	var n json.Number
	if err := json.Unmarshal(raw, &n); err != nil {
		return "", false
	}
	return n.String(), true
}
