package app

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jcmexdev/silkroad-orders/internal/order-service/adapters/sqlite"
	"github.com/jcmexdev/silkroad-orders/internal/order-service/audit"
	"github.com/jcmexdev/silkroad-orders/internal/order-service/domain"
	"github.com/jcmexdev/silkroad-orders/internal/pkg/cache"
)

var fixedNow = time.Date(2026, 10, 19, 9, 30, 0, 0, time.UTC)

type fixture struct {
	repo    *sqlite.Repository
	cache   cache.Cache
	orders  *OrderService
	catalog *CatalogService
	actor   *domain.User
}

func setup(t *testing.T, opts ...OrderOption) *fixture {
	t.Helper()
	repo, err := sqlite.Open(filepath.Join(t.TempDir(), "orders.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = repo.Close() })

	c := cache.NewMemoryCache("orders-test")
	opts = append([]OrderOption{
		WithClock(func() time.Time { return fixedNow }),
		WithIdempotencyCache(c),
	}, opts...)

	actor := &domain.User{Username: "marco", Email: "marco@venice.it", PasswordHash: "x", DateJoined: fixedNow}
	require.NoError(t, repo.CreateUser(context.Background(), actor))

	return &fixture{
		repo:    repo,
		cache:   c,
		orders:  NewOrderService(repo, opts...),
		catalog: NewCatalogService(repo, 0),
		actor:   actor,
	}
}

func ptr[T any](v T) *T { return &v }

func dec(s string) *decimal.Decimal {
	d := decimal.RequireFromString(s)
	return &d
}

func (f *fixture) customer(t *testing.T) *domain.Customer {
	t.Helper()
	c, err := f.catalog.CreateCustomer(context.Background(), CustomerInput{
		Name:    ptr("Kublai"),
		Email:   ptr("kublai@khanbaliq.cn"),
		Region:  ptr("Cathay"),
		Address: ptr("Palace of the Great Khan"),
	})
	require.NoError(t, err)
	return c
}

func (f *fixture) product(t *testing.T, name, price string, stock int) *domain.Product {
	t.Helper()
	p, err := f.catalog.CreateProduct(context.Background(), ProductInput{
		Name:   ptr(name),
		Price:  dec(price),
		Stock:  ptr(stock),
		Origin: ptr("Samarkand"),
	})
	require.NoError(t, err)
	return p
}

func orderInput(customerID int64, items ...ItemInput) OrderInput {
	return OrderInput{
		Customer:        ptr(customerID),
		ShippingAddress: ptr("Kashgar caravanserai"),
		Items:           &items,
	}
}

func TestCreateOrderResolvesPrices(t *testing.T) {
	f := setup(t)
	ctx := context.Background()
	c := f.customer(t)
	saffron := f.product(t, "Saffron", "12.50", 40)
	silk := f.product(t, "Silk", "30.00", 40)
	tea := f.product(t, "Tea", "4.00", 40)

	o, replayed, err := f.orders.Create(ctx, f.actor, orderInput(c.ID,
		ItemInput{Product: ptr(saffron.ID), Quantity: ptr(2)},
		ItemInput{Product: ptr(silk.ID), Quantity: ptr(1), UnitPrice: dec("25.00")},
		ItemInput{Product: ptr(tea.ID), Quantity: ptr(3), UnitPrice: dec("0")},
	), "")
	require.NoError(t, err)
	assert.False(t, replayed)

	assert.Equal(t, "SRM26100001", o.Number)
	assert.Equal(t, domain.StatusPending, o.Status)
	assert.Equal(t, domain.PaymentGold, o.PaymentMethod)
	assert.Equal(t, "Kublai", o.CustomerName)
	assert.Equal(t, "marco", o.CreatedByUsername)
	require.Len(t, o.Items, 3)
	assert.Equal(t, "12.50", o.Items[0].UnitPrice.StringFixed(2))
	assert.Equal(t, "25.00", o.Items[1].UnitPrice.StringFixed(2))
	assert.Equal(t, "0.00", o.Items[2].UnitPrice.StringFixed(2))
	assert.Equal(t, "50.00", o.Total().StringFixed(2))
	assert.Equal(t, 3, o.ItemsCount())

	next, _, err := f.orders.Create(ctx, f.actor, orderInput(c.ID), "")
	require.NoError(t, err)
	assert.Equal(t, "SRM26100002", next.Number)
	assert.Equal(t, "0.00", next.Total().StringFixed(2))
	assert.Equal(t, 0, next.ItemsCount())
}

func TestCreateOrderValidation(t *testing.T) {
	f := setup(t)
	ctx := context.Background()
	c := f.customer(t)
	p := f.product(t, "Saffron", "12.50", 40)

	tests := []struct {
		name   string
		in     OrderInput
		fields []string
	}{
		{
			name:   "missing everything",
			in:     OrderInput{},
			fields: []string{"customer", "shipping_address", "items"},
		},
		{
			name:   "unknown customer",
			in:     orderInput(999),
			fields: []string{"customer"},
		},
		{
			name:   "unknown product",
			in:     orderInput(c.ID, ItemInput{Product: ptr(int64(999)), Quantity: ptr(1)}),
			fields: []string{"items[0].product"},
		},
		{
			name: "bad quantity and price",
			in: orderInput(c.ID,
				ItemInput{Product: ptr(p.ID), Quantity: ptr(1)},
				ItemInput{Product: ptr(p.ID), Quantity: ptr(0), UnitPrice: dec("-1")},
			),
			fields: []string{"items[1].quantity", "items[1].unit_price"},
		},
		{
			name: "bad choices",
			in: OrderInput{
				Customer:        ptr(c.ID),
				ShippingAddress: ptr("  "),
				Status:          ptr(domain.OrderStatus("LOST")),
				PaymentMethod:   ptr(domain.PaymentMethod("IOU")),
				Items:           &[]ItemInput{},
			},
			fields: []string{"shipping_address", "status", "payment_method"},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, _, err := f.orders.Create(ctx, f.actor, tt.in, "")
			var verr *domain.ValidationError
			require.ErrorAs(t, err, &verr)
			for _, field := range tt.fields {
				assert.Contains(t, verr.Fields, field)
			}
			assert.Len(t, verr.Fields, len(tt.fields))
		})
	}

	orders, err := f.orders.List(ctx)
	require.NoError(t, err)
	assert.Empty(t, orders)
}

func TestCreateOrderIdempotent(t *testing.T) {
	f := setup(t)
	ctx := context.Background()
	c := f.customer(t)

	first, replayed, err := f.orders.Create(ctx, f.actor, orderInput(c.ID), "key-1")
	require.NoError(t, err)
	assert.False(t, replayed)

	again, replayed, err := f.orders.Create(ctx, f.actor, orderInput(c.ID), "key-1")
	require.NoError(t, err)
	assert.True(t, replayed)
	assert.Equal(t, first.ID, again.ID)

	other, replayed, err := f.orders.Create(ctx, f.actor, orderInput(c.ID), "key-2")
	require.NoError(t, err)
	assert.False(t, replayed)
	assert.NotEqual(t, first.ID, other.ID)

	orders, err := f.orders.List(ctx)
	require.NoError(t, err)
	assert.Len(t, orders, 2)
}

func TestUpdateOrderItems(t *testing.T) {
	f := setup(t)
	ctx := context.Background()
	c := f.customer(t)
	saffron := f.product(t, "Saffron", "12.50", 40)
	silk := f.product(t, "Silk", "30.00", 40)

	o, _, err := f.orders.Create(ctx, f.actor, orderInput(c.ID,
		ItemInput{Product: ptr(saffron.ID), Quantity: ptr(2)},
	), "")
	require.NoError(t, err)

	// PATCH without items keeps them.
	o, err = f.orders.Update(ctx, f.actor, o.ID, OrderInput{Status: ptr(domain.StatusShipped)}, true)
	require.NoError(t, err)
	assert.Equal(t, domain.StatusShipped, o.Status)
	require.Len(t, o.Items, 1)
	assert.Equal(t, "25.00", o.Total().StringFixed(2))

	// Items in the payload replace the whole list.
	items := []ItemInput{
		{Product: ptr(silk.ID), Quantity: ptr(1)},
		{Product: ptr(saffron.ID), Quantity: ptr(4), UnitPrice: dec("10.00")},
	}
	o, err = f.orders.Update(ctx, f.actor, o.ID, OrderInput{Items: &items}, true)
	require.NoError(t, err)
	require.Len(t, o.Items, 2)
	assert.Equal(t, silk.ID, o.Items[0].ProductID)
	assert.Equal(t, "70.00", o.Total().StringFixed(2))
	assert.Equal(t, "SRM26100001", o.Number)

	history, err := f.orders.History(ctx, o.ID)
	require.NoError(t, err)
	require.Len(t, history, 3)
	assert.Equal(t, audit.ActionCreated, history[0].Action)
	assert.Equal(t, audit.ActionUpdated, history[1].Action)
	assert.Equal(t, audit.ActionItemsReplaced, history[2].Action)
	require.NotNil(t, history[2].ActorID)
	assert.Equal(t, f.actor.ID, *history[2].ActorID)
}

func TestUpdateOrderFullRequiresFields(t *testing.T) {
	f := setup(t)
	ctx := context.Background()
	c := f.customer(t)

	o, _, err := f.orders.Create(ctx, f.actor, orderInput(c.ID), "")
	require.NoError(t, err)

	_, err = f.orders.Update(ctx, f.actor, o.ID, OrderInput{Notes: ptr("by camel")}, false)
	var verr *domain.ValidationError
	require.ErrorAs(t, err, &verr)
	assert.Contains(t, verr.Fields, "customer")
	assert.Contains(t, verr.Fields, "shipping_address")
	assert.Contains(t, verr.Fields, "items")

	in := orderInput(c.ID)
	in.Notes = ptr("by camel")
	o, err = f.orders.Update(ctx, f.actor, o.ID, in, false)
	require.NoError(t, err)
	assert.Equal(t, "by camel", o.Notes)

	_, err = f.orders.Update(ctx, f.actor, 999, in, false)
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestDeleteOrderKeepsHistory(t *testing.T) {
	f := setup(t)
	ctx := context.Background()
	c := f.customer(t)
	p := f.product(t, "Saffron", "12.50", 40)

	o, _, err := f.orders.Create(ctx, f.actor, orderInput(c.ID, ItemInput{Product: ptr(p.ID), Quantity: ptr(1)}), "")
	require.NoError(t, err)

	require.NoError(t, f.orders.Delete(ctx, f.actor, o.ID))
	_, err = f.orders.Get(ctx, o.ID)
	assert.ErrorIs(t, err, domain.ErrNotFound)
	assert.ErrorIs(t, f.orders.Delete(ctx, f.actor, o.ID), domain.ErrNotFound)

	history, err := f.orders.History(ctx, o.ID)
	require.NoError(t, err)
	require.Len(t, history, 2)
	assert.Equal(t, audit.ActionDeleted, history[1].Action)
	assert.Equal(t, o.Number, history[1].OrderNumber)

	_, err = f.orders.History(ctx, 999)
	assert.ErrorIs(t, err, domain.ErrNotFound)

	// The product is free again once its only order is gone.
	assert.NoError(t, f.catalog.DeleteProduct(ctx, p.ID))
}

func TestCreateOrderDecrementsStock(t *testing.T) {
	f := setup(t, WithStockDecrement(true))
	ctx := context.Background()
	c := f.customer(t)
	p := f.product(t, "Saffron", "12.50", 5)

	_, _, err := f.orders.Create(ctx, f.actor, orderInput(c.ID, ItemInput{Product: ptr(p.ID), Quantity: ptr(3)}), "")
	require.NoError(t, err)

	got, err := f.catalog.GetProduct(ctx, p.ID)
	require.NoError(t, err)
	assert.Equal(t, 2, got.Stock)

	_, _, err = f.orders.Create(ctx, f.actor, orderInput(c.ID, ItemInput{Product: ptr(p.ID), Quantity: ptr(3)}), "")
	var verr *domain.ValidationError
	require.ErrorAs(t, err, &verr)
	assert.Contains(t, verr.Fields, "items[0].quantity")
}

func TestMetrics(t *testing.T) {
	f := setup(t)
	ctx := context.Background()
	c := f.customer(t)
	p := f.product(t, "Saffron", "12.50", 40)

	_, _, err := f.orders.Create(ctx, f.actor, orderInput(c.ID, ItemInput{Product: ptr(p.ID), Quantity: ptr(2)}), "")
	require.NoError(t, err)
	in := orderInput(c.ID, ItemInput{Product: ptr(p.ID), Quantity: ptr(1)})
	in.Status = ptr(domain.StatusDelivered)
	_, _, err = f.orders.Create(ctx, f.actor, in, "")
	require.NoError(t, err)

	m, err := f.orders.Metrics(ctx)
	require.NoError(t, err)
	assert.Equal(t, 2, m.TotalOrders)
	assert.Equal(t, 1, m.ByStatus[domain.StatusPending])
	assert.Equal(t, 1, m.ByStatus[domain.StatusDelivered])
	assert.Equal(t, 0, m.ByStatus[domain.StatusCancelled])
	assert.Equal(t, "37.50", m.TotalRevenue.StringFixed(2))
}

func TestCacheSequencer(t *testing.T) {
	f := setup(t)
	ctx := context.Background()
	c := f.customer(t)

	// Numbers already taken by the store counter.
	_, _, err := f.orders.Create(ctx, f.actor, orderInput(c.ID), "")
	require.NoError(t, err)
	_, _, err = f.orders.Create(ctx, f.actor, orderInput(c.ID), "")
	require.NoError(t, err)

	seq := NewCacheSequencer(f.cache, f.repo)
	svc := NewOrderService(f.repo,
		WithClock(func() time.Time { return fixedNow }),
		WithSequencer(seq),
	)
	o, _, err := svc.Create(ctx, f.actor, orderInput(c.ID), "")
	require.NoError(t, err)
	assert.Equal(t, "SRM26100003", o.Number)

	o, _, err = svc.Create(ctx, f.actor, orderInput(c.ID), "")
	require.NoError(t, err)
	assert.Equal(t, "SRM26100004", o.Number)

	// The store counter skips past numbers taken through the cache, and the
	// cache counter then skips past the store's.
	o, _, err = f.orders.Create(ctx, f.actor, orderInput(c.ID), "")
	require.NoError(t, err)
	assert.Equal(t, "SRM26100005", o.Number)

	o, _, err = svc.Create(ctx, f.actor, orderInput(c.ID), "")
	require.NoError(t, err)
	assert.Equal(t, "SRM26100006", o.Number)

	// A new month starts its own counter.
	n, err := seq.Next(ctx, "SRM2611")
	require.NoError(t, err)
	assert.Equal(t, 1, n)
}

func TestCacheSequencerExhausted(t *testing.T) {
	f := setup(t)
	ctx := context.Background()

	seq := NewCacheSequencer(f.cache, f.repo)
	require.NoError(t, f.cache.Set(ctx, f.cache.GenerateKey("order-seq", "SRM2610"), domain.MaxSequence, 0))

	_, err := seq.Next(ctx, "SRM2610")
	assert.ErrorIs(t, err, domain.ErrSequenceExhausted)
}

func TestCreateOrderItemQuantityDefaultsToOne(t *testing.T) {
	f := setup(t)
	ctx := context.Background()
	c := f.customer(t)
	p := f.product(t, "Saffron", "12.50", 40)

	o, _, err := f.orders.Create(ctx, f.actor, orderInput(c.ID, ItemInput{Product: ptr(p.ID)}), "")
	require.NoError(t, err)
	require.Len(t, o.Items, 1)
	assert.Equal(t, 1, o.Items[0].Quantity)
	assert.Equal(t, "12.50", o.Total().StringFixed(2))

	// The same default applies when a PATCH replaces the items.
	items := []ItemInput{{Product: ptr(p.ID), UnitPrice: dec("3.00")}}
	o, err = f.orders.Update(ctx, f.actor, o.ID, OrderInput{Items: &items}, true)
	require.NoError(t, err)
	require.Len(t, o.Items, 1)
	assert.Equal(t, 1, o.Items[0].Quantity)
	assert.Equal(t, "3.00", o.Total().StringFixed(2))
}

func TestCreateOrderUsesServiceClock(t *testing.T) {
	f := setup(t)
	ctx := context.Background()
	c := f.customer(t)

	january := time.Date(2025, 1, 31, 23, 59, 0, 0, time.UTC)
	svc := NewOrderService(f.repo, WithClock(func() time.Time { return january }))

	o, _, err := svc.Create(ctx, f.actor, orderInput(c.ID), "")
	require.NoError(t, err)
	assert.Equal(t, "SRM25010001", o.Number)
	assert.True(t, o.CreatedAt.Equal(january), "created_at %s", o.CreatedAt)
	assert.True(t, o.UpdatedAt.Equal(january), "updated_at %s", o.UpdatedAt)
}

func TestIdempotencyKeyIsPerUser(t *testing.T) {
	f := setup(t)
	ctx := context.Background()
	c := f.customer(t)

	other := &domain.User{Username: "niccolo", Email: "niccolo@venice.it", PasswordHash: "x", DateJoined: fixedNow}
	require.NoError(t, f.repo.CreateUser(ctx, other))

	first, replayed, err := f.orders.Create(ctx, f.actor, orderInput(c.ID), "caravan-7")
	require.NoError(t, err)
	assert.False(t, replayed)

	second, replayed, err := f.orders.Create(ctx, other, orderInput(c.ID), "caravan-7")
	require.NoError(t, err)
	assert.False(t, replayed)
	assert.NotEqual(t, first.ID, second.ID)

	again, replayed, err := f.orders.Create(ctx, f.actor, orderInput(c.ID), "caravan-7")
	require.NoError(t, err)
	assert.True(t, replayed)
	assert.Equal(t, first.ID, again.ID)
}
