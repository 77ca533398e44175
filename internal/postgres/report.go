package postgres

import (
	"context"

	"github.com/go-faster/errors"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"catalog-orders/internal/domain/report"
)

const (
	topCustomersSQL = `SELECT c.id, c.name, c.is_frequent, COUNT(o.id) AS order_count
		FROM customers c
		JOIN orders o ON o.customer_id = c.id
		WHERE o.is_visible
		GROUP BY c.id, c.name, c.is_frequent
		ORDER BY order_count DESC, c.id
		LIMIT $1`

	// Order lines live in a JSONB document, so sales aggregate over the
	// unnested line elements.
	topProductsSQL = `SELECT l ->> 'product_id' AS product_id,
			l ->> 'product_name' AS product_name,
			SUM((l ->> 'quantity')::int) AS units_sold,
			SUM((l ->> 'quantity')::int * (l ->> 'unit_price')::numeric) AS revenue
		FROM orders, jsonb_array_elements(lines) AS l
		WHERE is_visible
		GROUP BY 1, 2
		ORDER BY units_sold DESC, product_id
		LIMIT $1`
)

var _ report.Repository = (*ReportRepository)(nil)

// ReportRepository implements report.Repository backed by PostgreSQL.
type ReportRepository struct {
	pool *pgxpool.Pool
}

// NewReportRepository returns a ReportRepository that uses the given pool.
func NewReportRepository(pool *pgxpool.Pool) *ReportRepository {
	return &ReportRepository{pool: pool}
}

// TopCustomersByOrderCount returns the most active customers by visible
// order count.
func (r *ReportRepository) TopCustomersByOrderCount(ctx context.Context, limit int) ([]report.CustomerActivity, error) {
	rows, err := q(ctx, r.pool).Query(ctx, topCustomersSQL, limit)
	if err != nil {
		return nil, errors.Wrap(err, "top customers by order count")
	}
	return pgx.CollectRows(rows, func(row pgx.CollectableRow) (report.CustomerActivity, error) {
		var c report.CustomerActivity
		err := row.Scan(&c.CustomerID, &c.Name, &c.Frequent, &c.OrderCount)
		return c, err
	})
}

// TopSellingProducts returns the best selling products by units sold.
func (r *ReportRepository) TopSellingProducts(ctx context.Context, limit int) ([]report.ProductSales, error) {
	rows, err := q(ctx, r.pool).Query(ctx, topProductsSQL, limit)
	if err != nil {
		return nil, errors.Wrap(err, "top selling products")
	}
	return pgx.CollectRows(rows, func(row pgx.CollectableRow) (report.ProductSales, error) {
		var p report.ProductSales
		err := row.Scan(&p.ProductID, &p.ProductName, &p.UnitsSold, &p.Revenue)
		return p, err
	})
}
