// Package customer holds the customer read model consumed by order
// operations. Customer records are managed elsewhere; this core only reads
// the frequent-customer flag.
package customer

import (
	"context"

	"github.com/go-faster/errors"
)

// ErrNotFound is returned when no customer exists for the given ID.
var ErrNotFound = errors.New("customer not found")

// Customer is the slice of the customer record the order core depends on.
type Customer struct {
	ID       string
	Name     string
	Email    string
	Frequent bool
}

// Repository provides read access to customers.
type Repository interface {
	GetByID(ctx context.Context, id string) (*Customer, error)
}
