// Package report defines read-only analytics over orders: customer
// activity and product sales rankings. Reports aggregate at query time and
// hold no state of their own.
package report

import (
	"context"

	"github.com/shopspring/decimal"
)

// CustomerActivity ranks one customer by the number of visible orders they
// placed.
type CustomerActivity struct {
	CustomerID string
	Name       string
	Frequent   bool
	OrderCount int
}

// ProductSales ranks one product by units sold across visible order lines.
type ProductSales struct {
	ProductID   string
	ProductName string
	UnitsSold   int
	Revenue     decimal.Decimal
}

// Repository provides the report aggregates.
type Repository interface {
	// TopCustomersByOrderCount returns up to limit customers ordered by
	// visible order count, most active first.
	TopCustomersByOrderCount(ctx context.Context, limit int) ([]CustomerActivity, error)
	// TopSellingProducts returns up to limit products ordered by units
	// sold across visible orders, best seller first.
	TopSellingProducts(ctx context.Context, limit int) ([]ProductSales, error)
}
