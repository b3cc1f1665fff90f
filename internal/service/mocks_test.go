package service

import (
	"context"
	"io"
	"log/slog"

	"github.com/google/uuid"
	"github.com/stretchr/testify/mock"
	"pricescout/internal/competitor"
	"pricescout/internal/config"
	"pricescout/internal/model"
)

type MockRepository struct {
	mock.Mock
}

func (m *MockRepository) Migrate(ctx context.Context) error {
	args := m.Called(ctx)
	return args.Error(0)
}

func (m *MockRepository) CreateProduct(ctx context.Context, p *model.Product) error {
	args := m.Called(ctx, p)
	return args.Error(0)
}

func (m *MockRepository) GetProduct(ctx context.Context, id uuid.UUID) (model.Product, error) {
	args := m.Called(ctx, id)
	return args.Get(0).(model.Product), args.Error(1)
}

func (m *MockRepository) UpdateProduct(ctx context.Context, p *model.Product) error {
	args := m.Called(ctx, p)
	return args.Error(0)
}

type MockProvider struct {
	mock.Mock
}

func (m *MockProvider) Name() string {
	return "mock"
}

func (m *MockProvider) Fetch(ctx context.Context, query model.CompetitorQuery) (model.RawDataset, error) {
	args := m.Called(ctx, query)
	ds, _ := args.Get(0).(model.RawDataset)
	return ds, args.Error(1)
}

type MockCache struct {
	mock.Mock
}

func (m *MockCache) Load(ctx context.Context, productID uuid.UUID) (competitor.Snapshot, bool, error) {
	args := m.Called(ctx, productID)
	return args.Get(0).(competitor.Snapshot), args.Bool(1), args.Error(2)
}

func (m *MockCache) Store(ctx context.Context, snapshot competitor.Snapshot) error {
	args := m.Called(ctx, snapshot)
	return args.Error(0)
}

func testLogger() *slog.Logger {
	return slog.New(slog.NewJSONHandler(io.Discard, nil))
}

func testConfig() *config.Config {
	return &config.Config{
		Pricing: config.PricingConfig{
			HistoryLimit:        10,
			FairBandMultiplier:  1.05,
			MinMarkupMultiplier: 1.15,
			ExcellentMinFactor:  0.95,
			ExcellentAvgFactor:  0.9,
			GoodAvgFactor:       0.95,
			FairAvgFactor:       0.98,
			UpdateRetries:       5,
		},
		Competitors: config.CompetitorsConfig{
			Provider: "http",
			Marketplaces: []config.MarketplaceConfig{
				{Key: "amazon", Label: "Amazon"},
				{Key: "flipkart", Label: "Flipkart"},
			},
		},
	}
}
