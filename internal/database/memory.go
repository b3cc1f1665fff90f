package database

import (
	"context"
	"fmt"
	"slices"
	"sync"
	"time"

	"github.com/google/uuid"
	"pricescout/internal/model"
)

// MemoryRepository keeps products in process memory with the same version
// check as PostgresRepository. It backs the CLI when no database is configured.
type MemoryRepository struct {
	mu       sync.Mutex
	products map[uuid.UUID]model.Product
}

// NewMemoryRepository returns an empty MemoryRepository.
func NewMemoryRepository() *MemoryRepository {
	return &MemoryRepository{products: make(map[uuid.UUID]model.Product)}
}

func (r *MemoryRepository) Migrate(ctx context.Context) error {
	return nil
}

func (r *MemoryRepository) CreateProduct(ctx context.Context, p *model.Product) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.products[p.ID]; exists {
		return fmt.Errorf("memory: product %s already exists", p.ID)
	}
	if p.Version == 0 {
		p.Version = 1
	}
	r.products[p.ID] = clone(*p)
	return nil
}

func (r *MemoryRepository) GetProduct(ctx context.Context, id uuid.UUID) (model.Product, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	p, ok := r.products[id]
	if !ok {
		return model.Product{}, ErrNotFound
	}
	return clone(p), nil
}

func (r *MemoryRepository) UpdateProduct(ctx context.Context, p *model.Product) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	stored, ok := r.products[p.ID]
	if !ok {
		return ErrNotFound
	}
	if stored.Version != p.Version {
		return ErrConflict
	}

	p.Version++
	p.UpdatedAt = time.Now().UTC()
	r.products[p.ID] = clone(*p)
	return nil
}

func clone(p model.Product) model.Product {
	p.PriceHistory = slices.Clone(p.PriceHistory)
	if p.LastPriceUpdate != nil {
		t := *p.LastPriceUpdate
		p.LastPriceUpdate = &t
	}
	return p
}
