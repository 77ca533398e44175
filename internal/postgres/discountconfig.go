package postgres

import (
	"context"

	"github.com/go-faster/errors"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"catalog-orders/internal/domain/discount"
)

const (
	// The config is versioned: the newest active row wins.
	findActiveConfigSQL = `SELECT id, start_date, end_date,
			time_percent, random_percent, frequent_percent, is_active, created_at
		FROM discount_configs
		WHERE is_active
		ORDER BY created_at DESC
		LIMIT 1`

	saveConfigSQL = `INSERT INTO discount_configs
		(id, start_date, end_date, time_percent, random_percent, frequent_percent, is_active)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING created_at`
)

var _ discount.Repository = (*DiscountConfigRepository)(nil)

// DiscountConfigRepository implements discount.Repository backed by
// PostgreSQL.
type DiscountConfigRepository struct {
	pool *pgxpool.Pool
}

// NewDiscountConfigRepository returns a DiscountConfigRepository that uses
// the given pool.
func NewDiscountConfigRepository(pool *pgxpool.Pool) *DiscountConfigRepository {
	return &DiscountConfigRepository{pool: pool}
}

// FindActive returns the most recently created active config, or (nil, nil)
// when none exists.
func (r *DiscountConfigRepository) FindActive(ctx context.Context) (*discount.Config, error) {
	var c discount.Config
	err := q(ctx, r.pool).QueryRow(ctx, findActiveConfigSQL).Scan(
		&c.ID, &c.StartDate, &c.EndDate,
		&c.TimePercent, &c.RandomPercent, &c.FrequentPercent,
		&c.Active, &c.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, errors.Wrap(err, "find active discount config")
	}
	return &c, nil
}

// Save inserts a new config version and fills in its ID and CreatedAt.
// Existing rows are never updated in place, so a concurrent reader always
// sees a complete config.
func (r *DiscountConfigRepository) Save(ctx context.Context, cfg *discount.Config) error {
	if cfg.ID == "" {
		cfg.ID = uuid.New().String()
	}
	err := q(ctx, r.pool).QueryRow(ctx, saveConfigSQL,
		cfg.ID, cfg.StartDate, cfg.EndDate,
		cfg.TimePercent, cfg.RandomPercent, cfg.FrequentPercent, cfg.Active,
	).Scan(&cfg.CreatedAt)
	if err != nil {
		return errors.Wrapf(err, "save discount config %q", cfg.ID)
	}
	return nil
}
