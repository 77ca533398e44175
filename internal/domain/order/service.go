package order

import (
	"context"
	"fmt"
	"math/rand/v2"
	"time"

	"github.com/go-faster/errors"
	"github.com/go-faster/sdk/zctx"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"catalog-orders/internal/domain/audit"
	"catalog-orders/internal/domain/customer"
	"catalog-orders/internal/domain/discount"
	"catalog-orders/internal/domain/product"
)

// Sentinel errors for order operations.
var (
	ErrNotFound  = errors.New("order not found")
	ErrEmptyCart = errors.New("cart items required")
)

// InvalidQuantityError indicates a cart item has a non-positive quantity.
type InvalidQuantityError struct {
	ProductID string
}

func (e *InvalidQuantityError) Error() string {
	return fmt.Sprintf("quantity must be greater than 0 for product %s", e.ProductID)
}

// automaticFrequentPercent is the creation-time frequent-customer rate.
// It is deliberately a fixed literal, independent of the configurable
// frequent percentage that promotional sweeps use.
var automaticFrequentPercent = decimal.NewFromInt(5)

var hundred = decimal.NewFromInt(100)

// CartItem is one requested line in an incoming cart.
type CartItem struct {
	ProductID string
	Quantity  int
}

// Transactor runs fn inside a single storage transaction. Every repository
// call made with the context passed to fn joins that transaction; if fn
// returns an error the transaction rolls back and no partial writes remain.
type Transactor interface {
	InTx(ctx context.Context, fn func(ctx context.Context) error) error
}

// Service implements order creation, the promotional sweeps, and the order
// lifecycle operations.
type Service struct {
	customers customer.Repository
	products  product.Repository
	orders    Repository
	configs   discount.Repository
	auditor   audit.Recorder
	tx        Transactor

	now  func() time.Time
	pick func(n int) int
}

// NewService creates an order Service with the required dependencies.
func NewService(
	customers customer.Repository,
	products product.Repository,
	orders Repository,
	configs discount.Repository,
	auditor audit.Recorder,
	tx Transactor,
) *Service {
	return &Service{
		customers: customers,
		products:  products,
		orders:    orders,
		configs:   configs,
		auditor:   auditor,
		tx:        tx,
		now:       time.Now,
		pick:      rand.IntN,
	}
}

// CreateOrder builds an order from the cart: resolves the customer, reserves
// stock and snapshots name/price per line, sums subtotals, applies the
// automatic frequent-customer discount, and persists the order as PENDING.
// The whole build runs in one transaction; any failure rolls back every
// stock decrement and leaves no partial order behind.
func (s *Service) CreateOrder(ctx context.Context, customerID string, items []CartItem) (*Order, error) {
	if len(items) == 0 {
		return nil, ErrEmptyCart
	}

	cust, err := s.customers.GetByID(ctx, customerID)
	if err != nil {
		return nil, errors.Wrap(err, "resolve customer")
	}

	o := &Order{
		ID:         uuid.New().String(),
		CustomerID: customerID,
		Status:     StatusPending,
		Visible:    true,
		OrderDate:  s.now(),
	}

	err = s.tx.InTx(ctx, func(ctx context.Context) error {
		baseTotal := decimal.Zero
		for _, item := range items {
			if item.Quantity < 1 {
				return &InvalidQuantityError{ProductID: item.ProductID}
			}

			p, err := s.products.GetByID(ctx, item.ProductID)
			if err != nil {
				return errors.Wrapf(err, "resolve product %s", item.ProductID)
			}
			if err := s.products.Reserve(ctx, p.ID, item.Quantity); err != nil {
				return errors.Wrapf(err, "reserve stock for product %s", p.ID)
			}

			line := Line{
				ProductID:   p.ID,
				ProductName: p.Name,
				Quantity:    item.Quantity,
				UnitPrice:   p.Price,
			}
			o.Lines = append(o.Lines, line)
			baseTotal = baseTotal.Add(line.Subtotal())
		}

		disc := decimal.Zero
		var kinds discount.Kinds
		if cust.Frequent {
			disc = baseTotal.Mul(automaticFrequentPercent).Div(hundred).Round(2)
			kinds = kinds.With(discount.KindFrequent)
		}

		o.Total = baseTotal.Sub(disc)
		o.Discount = disc
		o.DiscountKinds = kinds

		return s.orders.Create(ctx, o)
	})
	if err != nil {
		return nil, err
	}

	s.recordAudit(ctx, audit.Entry{
		Entity:   "Order",
		EntityID: o.ID,
		Action:   audit.ActionCreate,
		ActorID:  customerID,
		NewValue: snapshot(o),
	})

	return o, nil
}

// GetOrder returns a single order by ID.
func (s *Service) GetOrder(ctx context.Context, orderID string) (*Order, error) {
	return s.orders.GetByID(ctx, orderID)
}

// ListCustomerOrders returns the customer's visible orders, newest first.
func (s *Service) ListCustomerOrders(ctx context.Context, customerID string, page Page) ([]Order, error) {
	return s.orders.FindVisibleByCustomer(ctx, customerID, page)
}

// ListOrders returns visible orders across all customers, newest first.
func (s *Service) ListOrders(ctx context.Context, page Page) ([]Order, error) {
	return s.orders.FindVisible(ctx, page)
}

// UpdateStatus sets the order's status. Transitions are unguarded; the old
// and new status are captured in the audit trail.
func (s *Service) UpdateStatus(ctx context.Context, orderID string, status Status, actorID string) (*Order, error) {
	o, err := s.orders.GetByID(ctx, orderID)
	if err != nil {
		return nil, err
	}

	oldStatus := o.Status
	o.Status = status
	if err := s.orders.Update(ctx, o); err != nil {
		return nil, errors.Wrap(err, "update order status")
	}

	s.recordAudit(ctx, audit.Entry{
		Entity:   "Order",
		EntityID: o.ID,
		Action:   audit.ActionStatusUpdate,
		ActorID:  actorID,
		OldValue: "Status: " + string(oldStatus),
		NewValue: "Status: " + string(status),
	})

	return o, nil
}

// Delete soft-deletes the order by clearing its visibility flag. The status
// is untouched: hidden orders keep their lifecycle history.
func (s *Service) Delete(ctx context.Context, orderID, actorID string) error {
	o, err := s.orders.GetByID(ctx, orderID)
	if err != nil {
		return err
	}

	o.Visible = false
	if err := s.orders.Update(ctx, o); err != nil {
		return errors.Wrap(err, "hide order")
	}

	s.recordAudit(ctx, audit.Entry{
		Entity:   "Order",
		EntityID: o.ID,
		Action:   audit.ActionHide,
		ActorID:  actorID,
		OldValue: "Visible: true",
		NewValue: "Visible: false",
	})

	return nil
}

// recordAudit writes an audit entry after the business mutation committed.
// Failures are logged and swallowed: the audit trail must never undo or
// block an already-committed mutation.
func (s *Service) recordAudit(ctx context.Context, e audit.Entry) {
	e.CreatedAt = s.now()
	if err := s.auditor.Record(ctx, e); err != nil {
		zctx.From(ctx).Warn("audit record failed",
			zap.String("entity_id", e.EntityID),
			zap.String("action", e.Action),
			zap.Error(err),
		)
	}
}

// snapshot renders an order state for the audit trail.
func snapshot(o *Order) string {
	return fmt.Sprintf("Order{id=%s, customer=%s, total=%s, discount=%s, kinds=%s, status=%s, lines=%d}",
		o.ID, o.CustomerID, o.Total, o.Discount, o.DiscountKinds, o.Status, len(o.Lines))
}
