package postgres

import (
	"context"

	"github.com/go-faster/errors"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"catalog-orders/internal/domain/product"
)

const (
	getProductByIDSQL = `SELECT id, name, price, stock, is_active
		FROM products WHERE id = $1`

	listActiveProductsSQL = `SELECT id, name, price, stock, is_active
		FROM products WHERE is_active ORDER BY name`

	// The availability check and the decrement are one conditional write:
	// concurrent reservations cannot both pass the check and oversell.
	reserveStockSQL = `UPDATE products SET stock = stock - $2
		WHERE id = $1 AND stock >= $2`

	getStockSQL = `SELECT stock FROM products WHERE id = $1`
)

var _ product.Repository = (*ProductRepository)(nil)

// ProductRepository implements product.Repository backed by PostgreSQL.
type ProductRepository struct {
	pool *pgxpool.Pool
}

// NewProductRepository returns a ProductRepository that uses the given pool.
func NewProductRepository(pool *pgxpool.Pool) *ProductRepository {
	return &ProductRepository{pool: pool}
}

// GetByID returns a single product by its identifier.
func (r *ProductRepository) GetByID(ctx context.Context, id string) (*product.Product, error) {
	rows, err := q(ctx, r.pool).Query(ctx, getProductByIDSQL, id)
	if err != nil {
		return nil, errors.Wrapf(err, "get product %q", id)
	}

	p, err := pgx.CollectExactlyOneRow(rows, scanProduct)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, product.ErrNotFound
		}
		return nil, errors.Wrapf(err, "get product %q", id)
	}
	return &p, nil
}

// ListActive returns all active catalog products ordered by name.
func (r *ProductRepository) ListActive(ctx context.Context) ([]product.Product, error) {
	rows, err := q(ctx, r.pool).Query(ctx, listActiveProductsSQL)
	if err != nil {
		return nil, errors.Wrap(err, "list products")
	}
	return pgx.CollectRows(rows, scanProduct)
}

// Reserve decrements stock by qty in a single conditional update. When no
// row matches, the follow-up read distinguishes a missing product from
// insufficient stock.
func (r *ProductRepository) Reserve(ctx context.Context, id string, qty int) error {
	tag, err := q(ctx, r.pool).Exec(ctx, reserveStockSQL, id, qty)
	if err != nil {
		return errors.Wrapf(err, "reserve stock for product %q", id)
	}
	if tag.RowsAffected() > 0 {
		return nil
	}

	var available int
	err = q(ctx, r.pool).QueryRow(ctx, getStockSQL, id).Scan(&available)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return product.ErrNotFound
		}
		return errors.Wrapf(err, "check stock for product %q", id)
	}
	return &product.InsufficientStockError{ProductID: id, Requested: qty, Available: available}
}

func scanProduct(row pgx.CollectableRow) (product.Product, error) {
	var p product.Product
	err := row.Scan(&p.ID, &p.Name, &p.Price, &p.Stock, &p.Active)
	return p, err
}
