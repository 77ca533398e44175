package postgres

import (
	"context"
	"encoding/json"
	"time"

	"github.com/go-faster/errors"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"catalog-orders/internal/domain/discount"
	"catalog-orders/internal/domain/order"
)

const (
	createOrderSQL = `INSERT INTO orders
		(id, customer_id, lines, total, discount, discount_kinds, status, is_visible, order_date)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		RETURNING created_at`

	getOrderByIDSQL = `SELECT id, customer_id, lines, total, discount, discount_kinds,
			status, is_visible, order_date, created_at
		FROM orders WHERE id = $1`

	updateOrderSQL = `UPDATE orders SET
			total = $2, discount = $3, discount_kinds = $4, status = $5, is_visible = $6
		WHERE id = $1`

	findOrdersByRangeAndStatusSQL = `SELECT id, customer_id, lines, total, discount, discount_kinds,
			status, is_visible, order_date, created_at
		FROM orders
		WHERE order_date BETWEEN $1 AND $2 AND status = $3
		ORDER BY order_date`

	findVisibleOrdersByCustomerSQL = `SELECT id, customer_id, lines, total, discount, discount_kinds,
			status, is_visible, order_date, created_at
		FROM orders
		WHERE customer_id = $1 AND is_visible
		ORDER BY created_at DESC
		OFFSET $2 LIMIT $3`

	findVisibleOrdersSQL = `SELECT id, customer_id, lines, total, discount, discount_kinds,
			status, is_visible, order_date, created_at
		FROM orders
		WHERE is_visible
		ORDER BY created_at DESC
		OFFSET $1 LIMIT $2`
)

var _ order.Repository = (*OrderRepository)(nil)

// OrderRepository implements order.Repository backed by PostgreSQL. Order
// lines are owned exclusively by their order and stored as a JSONB document
// on the order row.
type OrderRepository struct {
	pool *pgxpool.Pool
}

// NewOrderRepository returns an OrderRepository that uses the given pool.
func NewOrderRepository(pool *pgxpool.Pool) *OrderRepository {
	return &OrderRepository{pool: pool}
}

// Create persists a new order and fills in its creation timestamp.
func (r *OrderRepository) Create(ctx context.Context, o *order.Order) error {
	linesJSON, err := json.Marshal(o.Lines)
	if err != nil {
		return errors.Wrap(err, "marshal order lines")
	}

	err = q(ctx, r.pool).QueryRow(ctx, createOrderSQL,
		o.ID, o.CustomerID, linesJSON, o.Total, o.Discount,
		o.DiscountKinds.String(), string(o.Status), o.Visible, o.OrderDate,
	).Scan(&o.CreatedAt)
	if err != nil {
		return errors.Wrapf(err, "create order %q", o.ID)
	}
	return nil
}

// GetByID returns a single order by its identifier.
func (r *OrderRepository) GetByID(ctx context.Context, id string) (*order.Order, error) {
	rows, err := q(ctx, r.pool).Query(ctx, getOrderByIDSQL, id)
	if err != nil {
		return nil, errors.Wrapf(err, "get order %q", id)
	}

	o, err := pgx.CollectExactlyOneRow(rows, scanOrder)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, order.ErrNotFound
		}
		return nil, errors.Wrapf(err, "get order %q", id)
	}
	return &o, nil
}

// Update persists the order's mutable fields. Lines are immutable after
// creation and are not written.
func (r *OrderRepository) Update(ctx context.Context, o *order.Order) error {
	tag, err := q(ctx, r.pool).Exec(ctx, updateOrderSQL,
		o.ID, o.Total, o.Discount, o.DiscountKinds.String(), string(o.Status), o.Visible,
	)
	if err != nil {
		return errors.Wrapf(err, "update order %q", o.ID)
	}
	if tag.RowsAffected() == 0 {
		return order.ErrNotFound
	}
	return nil
}

// FindByDateRangeAndStatus returns orders in [start, end] with the given
// status, oldest first.
func (r *OrderRepository) FindByDateRangeAndStatus(ctx context.Context, start, end time.Time, status order.Status) ([]order.Order, error) {
	rows, err := q(ctx, r.pool).Query(ctx, findOrdersByRangeAndStatusSQL, start, end, string(status))
	if err != nil {
		return nil, errors.Wrap(err, "find orders by date range")
	}
	return pgx.CollectRows(rows, scanOrder)
}

// FindVisibleByCustomer returns the customer's visible orders, newest first.
func (r *OrderRepository) FindVisibleByCustomer(ctx context.Context, customerID string, page order.Page) ([]order.Order, error) {
	limit := page.Limit
	if limit <= 0 {
		limit = 20
	}
	rows, err := q(ctx, r.pool).Query(ctx, findVisibleOrdersByCustomerSQL, customerID, page.Offset, limit)
	if err != nil {
		return nil, errors.Wrapf(err, "find orders for customer %q", customerID)
	}
	return pgx.CollectRows(rows, scanOrder)
}

// FindVisible returns visible orders across all customers, newest first.
func (r *OrderRepository) FindVisible(ctx context.Context, page order.Page) ([]order.Order, error) {
	limit := page.Limit
	if limit <= 0 {
		limit = 20
	}
	rows, err := q(ctx, r.pool).Query(ctx, findVisibleOrdersSQL, page.Offset, limit)
	if err != nil {
		return nil, errors.Wrap(err, "find visible orders")
	}
	return pgx.CollectRows(rows, scanOrder)
}

func scanOrder(row pgx.CollectableRow) (order.Order, error) {
	var (
		o         order.Order
		linesJSON []byte
		kinds     string
		status    string
	)
	err := row.Scan(&o.ID, &o.CustomerID, &linesJSON, &o.Total, &o.Discount,
		&kinds, &status, &o.Visible, &o.OrderDate, &o.CreatedAt)
	if err != nil {
		return order.Order{}, err
	}

	if err := json.Unmarshal(linesJSON, &o.Lines); err != nil {
		return order.Order{}, errors.Wrapf(err, "unmarshal lines of order %q", o.ID)
	}
	if o.DiscountKinds, err = discount.ParseKinds(kinds); err != nil {
		return order.Order{}, errors.Wrapf(err, "order %q", o.ID)
	}
	o.Status = order.Status(status)
	return o, nil
}
