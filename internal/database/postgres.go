package database

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"
	"pricescout/internal/model"
)

const schemaSQL = `
CREATE TABLE IF NOT EXISTS products (
	id UUID PRIMARY KEY,
	name TEXT NOT NULL,
	keywords TEXT NOT NULL DEFAULT '',
	base_price NUMERIC(20, 8) NOT NULL,
	sale_price NUMERIC(20, 8),
	current_price NUMERIC(20, 8) NOT NULL,
	cost NUMERIC(20, 8),
	price_history JSONB NOT NULL DEFAULT '[]'::jsonb,
	view_count BIGINT NOT NULL DEFAULT 0,
	purchase_count BIGINT NOT NULL DEFAULT 0,
	popularity_score DOUBLE PRECISION NOT NULL DEFAULT 0,
	last_price_update TIMESTAMPTZ,
	version BIGINT NOT NULL DEFAULT 1,
	created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
	updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
);`

const selectProductSQL = `
SELECT id::text, name, keywords, base_price::text, sale_price::text, current_price::text, cost::text,
	price_history::text, view_count, purchase_count, popularity_score, last_price_update,
	version, created_at, updated_at
FROM products WHERE id = $1::uuid`

// PostgresRepository stores products in PostgreSQL through a pgx pool.
type PostgresRepository struct {
	Pool *pgxpool.Pool
}

// NewPostgresRepository connects to dsn and verifies the connection.
func NewPostgresRepository(ctx context.Context, dsn string) (*PostgresRepository, error) {
	pool, err := pgxpool.New(ctx, dsn)
	if err != nil {
		return nil, fmt.Errorf("postgres: connect: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("postgres: ping: %w", err)
	}
	return &PostgresRepository{Pool: pool}, nil
}

// Close releases the pool.
func (r *PostgresRepository) Close() {
	r.Pool.Close()
}

// Migrate creates the products table when missing.
func (r *PostgresRepository) Migrate(ctx context.Context) error {
	if _, err := r.Pool.Exec(ctx, schemaSQL); err != nil {
		return fmt.Errorf("postgres: migrate: %w", err)
	}
	return nil
}

func (r *PostgresRepository) CreateProduct(ctx context.Context, p *model.Product) error {
	history, err := json.Marshal(historyOrEmpty(p.PriceHistory))
	if err != nil {
		return fmt.Errorf("postgres: encode price history: %w", err)
	}
	if p.Version == 0 {
		p.Version = 1
	}

	_, err = r.Pool.Exec(ctx, `
		INSERT INTO products (id, name, keywords, base_price, sale_price, current_price, cost,
			price_history, view_count, purchase_count, popularity_score, last_price_update,
			version, created_at, updated_at)
		VALUES ($1::uuid, $2, $3, $4::numeric, $5::numeric, $6::numeric, $7::numeric,
			$8::jsonb, $9, $10, $11, $12, $13, $14, $15)`,
		p.ID.String(), p.Name, p.Keywords,
		p.BasePrice.String(), nullText(p.SalePrice), p.CurrentPrice.String(), nullText(p.Cost),
		string(history), p.ViewCount, p.PurchaseCount, p.PopularityScore, p.LastPriceUpdate,
		p.Version, p.CreatedAt, p.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("postgres: insert product %s: %w", p.ID, err)
	}
	return nil
}

func (r *PostgresRepository) GetProduct(ctx context.Context, id uuid.UUID) (model.Product, error) {
	var (
		p                          model.Product
		rawID, base, current, hist string
		sale, cost                 *string
	)
	err := r.Pool.QueryRow(ctx, selectProductSQL, id.String()).Scan(
		&rawID, &p.Name, &p.Keywords, &base, &sale, &current, &cost,
		&hist, &p.ViewCount, &p.PurchaseCount, &p.PopularityScore, &p.LastPriceUpdate,
		&p.Version, &p.CreatedAt, &p.UpdatedAt,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return model.Product{}, ErrNotFound
	}
	if err != nil {
		return model.Product{}, fmt.Errorf("postgres: select product %s: %w", id, err)
	}

	if p.ID, err = uuid.Parse(rawID); err != nil {
		return model.Product{}, fmt.Errorf("postgres: decode id: %w", err)
	}
	if p.BasePrice, err = decimal.NewFromString(base); err != nil {
		return model.Product{}, fmt.Errorf("postgres: decode base_price: %w", err)
	}
	if p.CurrentPrice, err = decimal.NewFromString(current); err != nil {
		return model.Product{}, fmt.Errorf("postgres: decode current_price: %w", err)
	}
	if p.SalePrice, err = parseNull(sale); err != nil {
		return model.Product{}, fmt.Errorf("postgres: decode sale_price: %w", err)
	}
	if p.Cost, err = parseNull(cost); err != nil {
		return model.Product{}, fmt.Errorf("postgres: decode cost: %w", err)
	}
	if err = json.Unmarshal([]byte(hist), &p.PriceHistory); err != nil {
		return model.Product{}, fmt.Errorf("postgres: decode price_history: %w", err)
	}
	return p, nil
}

func (r *PostgresRepository) UpdateProduct(ctx context.Context, p *model.Product) error {
	history, err := json.Marshal(historyOrEmpty(p.PriceHistory))
	if err != nil {
		return fmt.Errorf("postgres: encode price history: %w", err)
	}
	now := time.Now().UTC()

	tag, err := r.Pool.Exec(ctx, `
		UPDATE products SET
			name = $3, keywords = $4, base_price = $5::numeric, sale_price = $6::numeric,
			current_price = $7::numeric, cost = $8::numeric, price_history = $9::jsonb,
			view_count = $10, purchase_count = $11, popularity_score = $12,
			last_price_update = $13, updated_at = $14, version = version + 1
		WHERE id = $1::uuid AND version = $2`,
		p.ID.String(), p.Version, p.Name, p.Keywords,
		p.BasePrice.String(), nullText(p.SalePrice), p.CurrentPrice.String(), nullText(p.Cost),
		string(history), p.ViewCount, p.PurchaseCount, p.PopularityScore,
		p.LastPriceUpdate, now,
	)
	if err != nil {
		return fmt.Errorf("postgres: update product %s: %w", p.ID, err)
	}
	if tag.RowsAffected() == 0 {
		var exists bool
		if err := r.Pool.QueryRow(ctx, `SELECT EXISTS (SELECT 1 FROM products WHERE id = $1::uuid)`, p.ID.String()).Scan(&exists); err != nil {
			return fmt.Errorf("postgres: check product %s: %w", p.ID, err)
		}
		if !exists {
			return ErrNotFound
		}
		return ErrConflict
	}

	p.Version++
	p.UpdatedAt = now
	return nil
}

func historyOrEmpty(h []model.PriceHistoryEntry) []model.PriceHistoryEntry {
	if h == nil {
		return []model.PriceHistoryEntry{}
	}
	return h
}

func nullText(d decimal.NullDecimal) *string {
	if !d.Valid {
		return nil
	}
	s := d.Decimal.String()
	return &s
}

func parseNull(s *string) (decimal.NullDecimal, error) {
	if s == nil {
		return decimal.NullDecimal{}, nil
	}
	d, err := decimal.NewFromString(*s)
	if err != nil {
		return decimal.NullDecimal{}, err
	}
	return decimal.NewNullDecimal(d), nil
}
