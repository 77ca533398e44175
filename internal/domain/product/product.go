// Package product defines the catalog product model and the inventory
// ledger contract used during order creation.
package product

import (
	"context"
	"fmt"

	"github.com/go-faster/errors"
	"github.com/shopspring/decimal"
)

// ErrNotFound is returned when a requested product does not exist.
var ErrNotFound = errors.New("product not found")

// InsufficientStockError indicates a reservation asked for more units than
// the product has on hand. The reservation leaves stock unchanged.
type InsufficientStockError struct {
	ProductID string
	Requested int
	Available int
}

func (e *InsufficientStockError) Error() string {
	return fmt.Sprintf("insufficient stock for product %s: requested %d, available %d",
		e.ProductID, e.Requested, e.Available)
}

// Product is a catalog entry. Stock is mutated only through Reserve; the
// price is snapshotted into order lines at creation time.
type Product struct {
	ID     string
	Name   string
	Price  decimal.Decimal
	Stock  int
	Active bool
}

// Repository provides catalog access and stock reservation.
type Repository interface {
	GetByID(ctx context.Context, id string) (*Product, error)
	ListActive(ctx context.Context) ([]Product, error)
	// Reserve atomically decrements stock by qty, failing with
	// *InsufficientStockError when fewer than qty units remain. The
	// availability check and the decrement are a single conditional write,
	// so concurrent reservations cannot oversell.
	Reserve(ctx context.Context, id string, qty int) error
}
