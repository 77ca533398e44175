package order

import (
	"context"
	"maps"
	"testing"
	"time"

	"github.com/go-faster/errors"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"catalog-orders/internal/domain/audit"
	"catalog-orders/internal/domain/customer"
	"catalog-orders/internal/domain/discount"
	"catalog-orders/internal/domain/product"
)

var fixedNow = time.Date(2025, 6, 15, 12, 0, 0, 0, time.UTC)

// --- In-memory collaborators ---

type memCustomers struct {
	byID map[string]*customer.Customer
}

func (m *memCustomers) GetByID(_ context.Context, id string) (*customer.Customer, error) {
	c, ok := m.byID[id]
	if !ok {
		return nil, customer.ErrNotFound
	}
	cp := *c
	return &cp, nil
}

type memProducts struct {
	byID map[string]*product.Product
}

func (m *memProducts) GetByID(_ context.Context, id string) (*product.Product, error) {
	p, ok := m.byID[id]
	if !ok {
		return nil, product.ErrNotFound
	}
	cp := *p
	return &cp, nil
}

func (m *memProducts) ListActive(_ context.Context) ([]product.Product, error) {
	var out []product.Product
	for _, p := range m.byID {
		if p.Active {
			out = append(out, *p)
		}
	}
	return out, nil
}

func (m *memProducts) Reserve(_ context.Context, id string, qty int) error {
	p, ok := m.byID[id]
	if !ok {
		return product.ErrNotFound
	}
	if p.Stock < qty {
		return &product.InsufficientStockError{ProductID: id, Requested: qty, Available: p.Stock}
	}
	p.Stock -= qty
	return nil
}

type memOrders struct {
	byID      map[string]*Order
	createErr error
	updateErr error
	// updateErrAfter delays updateErr until this many updates succeeded.
	updateErrAfter int
	updates        int
}

func (m *memOrders) Create(_ context.Context, o *Order) error {
	if m.createErr != nil {
		return m.createErr
	}
	cp := *o
	m.byID[o.ID] = &cp
	return nil
}

func (m *memOrders) GetByID(_ context.Context, id string) (*Order, error) {
	o, ok := m.byID[id]
	if !ok {
		return nil, ErrNotFound
	}
	cp := *o
	return &cp, nil
}

func (m *memOrders) Update(_ context.Context, o *Order) error {
	if m.updateErr != nil && m.updates >= m.updateErrAfter {
		return m.updateErr
	}
	m.updates++
	if _, ok := m.byID[o.ID]; !ok {
		return ErrNotFound
	}
	cp := *o
	m.byID[o.ID] = &cp
	return nil
}

func (m *memOrders) FindByDateRangeAndStatus(_ context.Context, start, end time.Time, status Status) ([]Order, error) {
	var out []Order
	for _, o := range m.byID {
		if o.Status == status && !o.OrderDate.Before(start) && !o.OrderDate.After(end) {
			out = append(out, *o)
		}
	}
	return out, nil
}

func (m *memOrders) FindVisibleByCustomer(_ context.Context, customerID string, page Page) ([]Order, error) {
	var out []Order
	for _, o := range m.byID {
		if o.Visible && o.CustomerID == customerID {
			out = append(out, *o)
		}
	}
	return out, nil
}

func (m *memOrders) FindVisible(_ context.Context, page Page) ([]Order, error) {
	var out []Order
	for _, o := range m.byID {
		if o.Visible {
			out = append(out, *o)
		}
	}
	return out, nil
}

type memConfigs struct {
	active *discount.Config
	err    error
}

func (m *memConfigs) FindActive(_ context.Context) (*discount.Config, error) {
	return m.active, m.err
}

func (m *memConfigs) Save(_ context.Context, cfg *discount.Config) error {
	m.active = cfg
	return nil
}

type memAudit struct {
	entries []audit.Entry
	err     error
}

func (m *memAudit) Record(_ context.Context, e audit.Entry) error {
	if m.err != nil {
		return m.err
	}
	m.entries = append(m.entries, e)
	return nil
}

// memTx emulates transactional rollback: on error it restores the product
// and order stores to their pre-transaction state.
type memTx struct {
	products *memProducts
	orders   *memOrders
}

func (t *memTx) InTx(ctx context.Context, fn func(ctx context.Context) error) error {
	prodSnap := make(map[string]*product.Product, len(t.products.byID))
	for id, p := range t.products.byID {
		cp := *p
		prodSnap[id] = &cp
	}
	orderSnap := maps.Clone(t.orders.byID)

	if err := fn(ctx); err != nil {
		t.products.byID = prodSnap
		t.orders.byID = orderSnap
		return err
	}
	return nil
}

// --- Fixture ---

type fixture struct {
	svc       *Service
	customers *memCustomers
	products  *memProducts
	orders    *memOrders
	configs   *memConfigs
	audits    *memAudit
}

func newFixture() *fixture {
	f := &fixture{
		customers: &memCustomers{byID: map[string]*customer.Customer{}},
		products:  &memProducts{byID: map[string]*product.Product{}},
		orders:    &memOrders{byID: map[string]*Order{}},
		configs:   &memConfigs{},
		audits:    &memAudit{},
	}
	tx := &memTx{products: f.products, orders: f.orders}
	f.svc = NewService(f.customers, f.products, f.orders, f.configs, f.audits, tx)
	f.svc.now = func() time.Time { return fixedNow }
	f.svc.pick = func(int) int { return 0 }
	return f
}

func (f *fixture) addCustomer(id string, frequent bool) {
	f.customers.byID[id] = &customer.Customer{ID: id, Name: "Customer " + id, Frequent: frequent}
}

func (f *fixture) addProduct(id, name, price string, stock int) {
	f.products.byID[id] = &product.Product{
		ID:     id,
		Name:   name,
		Price:  decimal.RequireFromString(price),
		Stock:  stock,
		Active: true,
	}
}

func dec(s string) decimal.Decimal { return decimal.RequireFromString(s) }

// --- Tests ---

func TestCreateOrder_EmptyCart(t *testing.T) {
	f := newFixture()
	f.addCustomer("c1", false)

	_, err := f.svc.CreateOrder(context.Background(), "c1", nil)
	require.ErrorIs(t, err, ErrEmptyCart)
}

func TestCreateOrder_CustomerNotFound(t *testing.T) {
	f := newFixture()

	_, err := f.svc.CreateOrder(context.Background(), "ghost", []CartItem{{ProductID: "p1", Quantity: 1}})
	require.ErrorIs(t, err, customer.ErrNotFound)
}

func TestCreateOrder_ProductNotFound(t *testing.T) {
	f := newFixture()
	f.addCustomer("c1", false)

	_, err := f.svc.CreateOrder(context.Background(), "c1", []CartItem{{ProductID: "missing", Quantity: 1}})
	require.ErrorIs(t, err, product.ErrNotFound)
}

func TestCreateOrder_InvalidQuantity(t *testing.T) {
	f := newFixture()
	f.addCustomer("c1", false)
	f.addProduct("p1", "Widget", "10.00", 5)

	_, err := f.svc.CreateOrder(context.Background(), "c1", []CartItem{{ProductID: "p1", Quantity: 0}})

	var iqErr *InvalidQuantityError
	require.ErrorAs(t, err, &iqErr)
	assert.Equal(t, "p1", iqErr.ProductID)
}

func TestCreateOrder_NonFrequentTwoLines(t *testing.T) {
	f := newFixture()
	f.addCustomer("c1", false)
	f.addProduct("p1", "Widget", "10.00", 5)
	f.addProduct("p2", "Gadget", "5.00", 3)

	o, err := f.svc.CreateOrder(context.Background(), "c1", []CartItem{
		{ProductID: "p1", Quantity: 2},
		{ProductID: "p2", Quantity: 1},
	})
	require.NoError(t, err)

	assert.True(t, dec("25.00").Equal(o.Total), "total %s", o.Total)
	assert.True(t, o.Discount.IsZero())
	assert.True(t, o.DiscountKinds.None())
	assert.Equal(t, StatusPending, o.Status)
	assert.True(t, o.Visible)
	require.Len(t, o.Lines, 2)

	// Stock decremented by the ordered quantities.
	assert.Equal(t, 3, f.products.byID["p1"].Stock)
	assert.Equal(t, 2, f.products.byID["p2"].Stock)
}

func TestCreateOrder_FrequentAutomaticDiscount(t *testing.T) {
	f := newFixture()
	f.addCustomer("c1", true)
	f.addProduct("p1", "Widget", "100.00", 10)
	// An active config with a different frequent percentage must not affect
	// the creation-time discount, which is a fixed 5%.
	f.configs.active = &discount.Config{
		StartDate:       fixedNow.Add(-time.Hour),
		EndDate:         fixedNow.Add(time.Hour),
		FrequentPercent: dec("20"),
		TimePercent:     dec("10"),
		RandomPercent:   dec("50"),
		Active:          true,
	}

	o, err := f.svc.CreateOrder(context.Background(), "c1", []CartItem{{ProductID: "p1", Quantity: 2}})
	require.NoError(t, err)

	assert.True(t, dec("10.00").Equal(o.Discount), "discount %s", o.Discount)
	assert.True(t, dec("190.00").Equal(o.Total), "total %s", o.Total)
	assert.Equal(t, "FREQUENT", o.DiscountKinds.String())
}

func TestCreateOrder_InsufficientStock(t *testing.T) {
	f := newFixture()
	f.addCustomer("c1", false)
	f.addProduct("p1", "Widget", "10.00", 5)
	f.addProduct("p2", "Gadget", "5.00", 1)

	_, err := f.svc.CreateOrder(context.Background(), "c1", []CartItem{
		{ProductID: "p1", Quantity: 2},
		{ProductID: "p2", Quantity: 3},
	})

	var isErr *product.InsufficientStockError
	require.ErrorAs(t, err, &isErr)
	assert.Equal(t, "p2", isErr.ProductID)
	assert.Equal(t, 3, isErr.Requested)
	assert.Equal(t, 1, isErr.Available)

	// The rollback must undo the first line's reservation too.
	assert.Equal(t, 5, f.products.byID["p1"].Stock)
	assert.Equal(t, 1, f.products.byID["p2"].Stock)
	assert.Empty(t, f.orders.byID)
}

func TestCreateOrder_SnapshotsNameAndPrice(t *testing.T) {
	f := newFixture()
	f.addCustomer("c1", false)
	f.addProduct("p1", "Widget", "10.00", 5)

	o, err := f.svc.CreateOrder(context.Background(), "c1", []CartItem{{ProductID: "p1", Quantity: 1}})
	require.NoError(t, err)

	// Mutate the catalog; the persisted line keeps its snapshot.
	f.products.byID["p1"].Name = "Renamed"
	f.products.byID["p1"].Price = dec("99.00")

	stored, err := f.svc.GetOrder(context.Background(), o.ID)
	require.NoError(t, err)
	assert.Equal(t, "Widget", stored.Lines[0].ProductName)
	assert.True(t, dec("10.00").Equal(stored.Lines[0].UnitPrice))
}

func TestCreateOrder_EmitsAudit(t *testing.T) {
	f := newFixture()
	f.addCustomer("c1", false)
	f.addProduct("p1", "Widget", "10.00", 5)

	o, err := f.svc.CreateOrder(context.Background(), "c1", []CartItem{{ProductID: "p1", Quantity: 1}})
	require.NoError(t, err)

	require.Len(t, f.audits.entries, 1)
	e := f.audits.entries[0]
	assert.Equal(t, "Order", e.Entity)
	assert.Equal(t, o.ID, e.EntityID)
	assert.Equal(t, audit.ActionCreate, e.Action)
	assert.Equal(t, "c1", e.ActorID)
	assert.Empty(t, e.OldValue)
	assert.NotEmpty(t, e.NewValue)
}

func TestCreateOrder_AuditFailureDoesNotFail(t *testing.T) {
	f := newFixture()
	f.addCustomer("c1", false)
	f.addProduct("p1", "Widget", "10.00", 5)
	f.audits.err = errors.New("audit sink down")

	o, err := f.svc.CreateOrder(context.Background(), "c1", []CartItem{{ProductID: "p1", Quantity: 1}})
	require.NoError(t, err)

	// The order is still persisted.
	_, err = f.svc.GetOrder(context.Background(), o.ID)
	require.NoError(t, err)
}

func TestCreateOrder_PersistErrorRollsBackStock(t *testing.T) {
	f := newFixture()
	f.addCustomer("c1", false)
	f.addProduct("p1", "Widget", "10.00", 5)
	f.orders.createErr = errors.New("db write failed")

	_, err := f.svc.CreateOrder(context.Background(), "c1", []CartItem{{ProductID: "p1", Quantity: 2}})
	require.Error(t, err)
	assert.Equal(t, 5, f.products.byID["p1"].Stock)
}

func TestUpdateStatus(t *testing.T) {
	f := newFixture()
	f.addCustomer("c1", false)
	f.addProduct("p1", "Widget", "10.00", 5)

	o, err := f.svc.CreateOrder(context.Background(), "c1", []CartItem{{ProductID: "p1", Quantity: 1}})
	require.NoError(t, err)

	updated, err := f.svc.UpdateStatus(context.Background(), o.ID, StatusApproved, "admin-1")
	require.NoError(t, err)
	assert.Equal(t, StatusApproved, updated.Status)

	// Second audit entry carries the old/new status strings.
	require.Len(t, f.audits.entries, 2)
	e := f.audits.entries[1]
	assert.Equal(t, audit.ActionStatusUpdate, e.Action)
	assert.Equal(t, "admin-1", e.ActorID)
	assert.Equal(t, "Status: PENDING", e.OldValue)
	assert.Equal(t, "Status: APPROVED", e.NewValue)
}

func TestUpdateStatus_NotFound(t *testing.T) {
	f := newFixture()

	_, err := f.svc.UpdateStatus(context.Background(), "missing", StatusApproved, "admin-1")
	require.ErrorIs(t, err, ErrNotFound)
}

func TestDelete_HidesWithoutStatusChange(t *testing.T) {
	f := newFixture()
	f.addCustomer("c1", false)
	f.addProduct("p1", "Widget", "10.00", 5)

	o, err := f.svc.CreateOrder(context.Background(), "c1", []CartItem{{ProductID: "p1", Quantity: 1}})
	require.NoError(t, err)

	require.NoError(t, f.svc.Delete(context.Background(), o.ID, "admin-1"))

	stored, err := f.svc.GetOrder(context.Background(), o.ID)
	require.NoError(t, err)
	assert.False(t, stored.Visible)
	assert.Equal(t, StatusPending, stored.Status)

	// Hidden orders drop out of the customer listing.
	list, err := f.svc.ListCustomerOrders(context.Background(), "c1", Page{Limit: 10})
	require.NoError(t, err)
	assert.Empty(t, list)
}

func TestParseStatus(t *testing.T) {
	for _, s := range []string{"PENDING", "APPROVED", "REJECTED", "DELETED"} {
		got, err := ParseStatus(s)
		require.NoError(t, err)
		assert.Equal(t, Status(s), got)
	}

	_, err := ParseStatus("SHIPPED")
	var invErr *InvalidStatusError
	require.ErrorAs(t, err, &invErr)
	assert.Equal(t, "SHIPPED", invErr.Value)
}
