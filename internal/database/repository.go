package database

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"pricescout/internal/model"
)

var (
	// ErrNotFound is returned when no product has the requested ID.
	ErrNotFound = errors.New("product not found")
	// ErrConflict is returned when a product was modified after it was read.
	// Callers must re-read the record and reapply their change.
	ErrConflict = errors.New("product was modified concurrently")
)

// Repository defines the standard interface for database operations.
type Repository interface {
	Migrate(ctx context.Context) error
	CreateProduct(ctx context.Context, p *model.Product) error
	GetProduct(ctx context.Context, id uuid.UUID) (model.Product, error)
	// UpdateProduct writes p only if the stored version still equals
	// p.Version, then increments p.Version.
	UpdateProduct(ctx context.Context, p *model.Product) error
}
