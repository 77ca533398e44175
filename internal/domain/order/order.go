package order

import (
	"context"
	"fmt"
	"time"

	"github.com/shopspring/decimal"

	"catalog-orders/internal/domain/discount"
)

// Status is the lifecycle state of an order. Transitions are administrator
// driven and unguarded; the DELETED status is distinct from the visibility
// soft-delete flag.
type Status string

const (
	StatusPending  Status = "PENDING"
	StatusApproved Status = "APPROVED"
	StatusRejected Status = "REJECTED"
	StatusDeleted  Status = "DELETED"
)

// InvalidStatusError indicates an unparseable status label.
type InvalidStatusError struct {
	Value string
}

func (e *InvalidStatusError) Error() string {
	return fmt.Sprintf("invalid order status %q", e.Value)
}

// ParseStatus converts a status label into a Status.
func ParseStatus(s string) (Status, error) {
	switch Status(s) {
	case StatusPending, StatusApproved, StatusRejected, StatusDeleted:
		return Status(s), nil
	default:
		return "", &InvalidStatusError{Value: s}
	}
}

// Line is a single order line. Product name and unit price are point-in-time
// snapshots taken at order creation; later catalog changes do not affect
// persisted orders.
type Line struct {
	ProductID   string          `json:"product_id"`
	ProductName string          `json:"product_name"`
	Quantity    int             `json:"quantity"`
	UnitPrice   decimal.Decimal `json:"unit_price"`
}

// Subtotal returns unit price times quantity.
func (l Line) Subtotal() decimal.Decimal {
	return l.UnitPrice.Mul(decimal.NewFromInt(int64(l.Quantity)))
}

// Order is a persisted customer order. Total is net of Discount, so the
// pre-discount base is always recoverable as Total + Discount.
type Order struct {
	ID            string
	CustomerID    string
	Lines         []Line
	Total         decimal.Decimal
	Discount      decimal.Decimal
	DiscountKinds discount.Kinds
	Status        Status
	Visible       bool
	OrderDate     time.Time
	CreatedAt     time.Time
}

// Page is an offset/limit window over a listing.
type Page struct {
	Offset int
	Limit  int
}

// Repository defines persistence operations for orders.
type Repository interface {
	Create(ctx context.Context, o *Order) error
	GetByID(ctx context.Context, id string) (*Order, error)
	Update(ctx context.Context, o *Order) error
	// FindByDateRangeAndStatus returns orders whose order date falls in
	// [start, end] (inclusive) with the given status.
	FindByDateRangeAndStatus(ctx context.Context, start, end time.Time, status Status) ([]Order, error)
	// FindVisibleByCustomer returns the customer's visible orders, newest
	// first.
	FindVisibleByCustomer(ctx context.Context, customerID string, page Page) ([]Order, error)
	// FindVisible returns visible orders across all customers, newest
	// first.
	FindVisible(ctx context.Context, page Page) ([]Order, error)
}
