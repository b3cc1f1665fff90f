package database

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"pricescout/internal/model"
)

func TestMemoryRepository(t *testing.T) {
	ctx := context.Background()
	repo := NewMemoryRepository()

	p := newTestProduct()
	require.NoError(t, repo.CreateProduct(ctx, &p))
	assert.Equal(t, int64(1), p.Version)

	t.Run("duplicate create fails", func(t *testing.T) {
		dup := p
		assert.Error(t, repo.CreateProduct(ctx, &dup))
	})

	t.Run("returned copies are independent", func(t *testing.T) {
		got, err := repo.GetProduct(ctx, p.ID)
		require.NoError(t, err)
		got.PriceHistory[0].Reason = "mutated"

		again, err := repo.GetProduct(ctx, p.ID)
		require.NoError(t, err)
		assert.Equal(t, "Initial pricing", again.PriceHistory[0].Reason)
	})

	t.Run("version check", func(t *testing.T) {
		a, err := repo.GetProduct(ctx, p.ID)
		require.NoError(t, err)
		b := a

		a.PriceHistory = append([]model.PriceHistoryEntry{{Price: decimal.NewFromInt(1)}}, a.PriceHistory...)
		require.NoError(t, repo.UpdateProduct(ctx, &a))
		assert.Equal(t, int64(2), a.Version)

		b.ViewCount = 10
		assert.ErrorIs(t, repo.UpdateProduct(ctx, &b), ErrConflict)

		got, err := repo.GetProduct(ctx, p.ID)
		require.NoError(t, err)
		assert.Len(t, got.PriceHistory, 2)
		assert.Equal(t, int64(0), got.ViewCount)
	})

	t.Run("not found", func(t *testing.T) {
		_, err := repo.GetProduct(ctx, uuid.New())
		assert.ErrorIs(t, err, ErrNotFound)

		missing := model.Product{ID: uuid.New()}
		assert.ErrorIs(t, repo.UpdateProduct(ctx, &missing), ErrNotFound)
	})
}
