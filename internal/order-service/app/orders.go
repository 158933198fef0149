package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strconv"
	"time"

	"github.com/shopspring/decimal"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/jcmexdev/silkroad-orders/internal/order-service/audit"
	"github.com/jcmexdev/silkroad-orders/internal/order-service/domain"
	"github.com/jcmexdev/silkroad-orders/internal/order-service/ports"
	"github.com/jcmexdev/silkroad-orders/internal/pkg/cache"
)

const tracerName = "order-service/app"

// IdempotencyTTL is how long a create replay key maps to its order.
const IdempotencyTTL = 24 * time.Hour

// ItemInput is one requested order line. Nil fields were absent from the payload.
type ItemInput struct {
	Product   *int64
	Quantity  *int
	UnitPrice *decimal.Decimal
}

// OrderInput is a create or update payload. Items is nil when the key was
// absent; a non-nil empty slice means "no items".
type OrderInput struct {
	Customer        *int64
	Status          *domain.OrderStatus
	PaymentMethod   *domain.PaymentMethod
	ShippingAddress *string
	Notes           *string
	Items           *[]ItemInput
}

// Metrics summarises every order in the store.
type Metrics struct {
	TotalOrders  int
	ByStatus     map[domain.OrderStatus]int
	TotalRevenue decimal.Decimal
}

type OrderService struct {
	store          ports.Store
	sequencer      ports.Sequencer
	idempotency    cache.Cache
	decrementStock bool
	now            func() time.Time
	tracer         trace.Tracer
}

type OrderOption func(*OrderService)

// WithSequencer allocates numbers outside the store transaction.
func WithSequencer(seq ports.Sequencer) OrderOption {
	return func(s *OrderService) { s.sequencer = seq }
}

// WithIdempotencyCache enables X-Idempotency-Key replay on create.
func WithIdempotencyCache(c cache.Cache) OrderOption {
	return func(s *OrderService) { s.idempotency = c }
}

func WithStockDecrement(on bool) OrderOption {
	return func(s *OrderService) { s.decrementStock = on }
}

func WithClock(now func() time.Time) OrderOption {
	return func(s *OrderService) { s.now = now }
}

func NewOrderService(store ports.Store, opts ...OrderOption) *OrderService {
	s := &OrderService{
		store:  store,
		now:    time.Now,
		tracer: otel.Tracer(tracerName),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Create validates the payload, snapshots item prices and persists the
// order with a fresh number. When key was seen before, the original order
// is returned with replayed set and nothing is written.
func (s *OrderService) Create(ctx context.Context, actor *domain.User, in OrderInput, key string) (o *domain.Order, replayed bool, err error) {
	ctx, span := s.tracer.Start(ctx, "OrderService.Create")
	defer func() { endSpan(span, err) }()

	if prev, err := s.replay(ctx, actor, key); err != nil || prev != nil {
		return prev, prev != nil, err
	}

	order := &domain.Order{
		Status:        domain.StatusPending,
		PaymentMethod: domain.PaymentGold,
	}
	f := newFields(true)
	if err := s.applyHeader(ctx, f, order, in); err != nil {
		return nil, false, err
	}
	if in.Items == nil {
		f.verr.Add("items", msgRequired)
	} else if order.Items, err = s.resolveItems(ctx, f, *in.Items); err != nil {
		return nil, false, err
	}
	if err := f.err(); err != nil {
		return nil, false, err
	}

	order.CreatedBy = actorID(actor)
	now := s.now().UTC()
	prefix := domain.MonthPrefix(now)
	if s.sequencer != nil {
		seq, err := s.sequencer.Next(ctx, prefix)
		if err != nil {
			return nil, false, err
		}
		if order.Number, err = domain.FormatOrderNumber(prefix, seq); err != nil {
			return nil, false, err
		}
	}

	err = s.store.CreateOrder(ctx, order, ports.CreateOrderOptions{
		NumberPrefix:   prefix,
		DecrementStock: s.decrementStock,
		Event:          audit.NewEvent(ctx, audit.ActionCreated, actorID(actor)),
		Now:            now,
	})
	if err != nil {
		return nil, false, err
	}
	span.SetAttributes(
		attribute.Int64("order.id", order.ID),
		attribute.String("order.number", order.Number),
	)
	slog.InfoContext(ctx, "order created",
		"order_id", order.ID,
		"order_number", order.Number,
		"items", len(order.Items),
	)

	s.remember(ctx, actor, key, order.ID)
	created, err := s.store.GetOrder(ctx, order.ID)
	if err != nil {
		return nil, false, err
	}
	return created, false, nil
}

func (s *OrderService) replay(ctx context.Context, actor *domain.User, key string) (*domain.Order, error) {
	if key == "" || s.idempotency == nil {
		return nil, nil
	}
	val, err := s.idempotency.Get(ctx, s.idempotencyKey(actor, key))
	if err != nil {
		return nil, fmt.Errorf("idempotency lookup: %w", err)
	}
	if val == "" {
		return nil, nil
	}
	id, err := strconv.ParseInt(val, 10, 64)
	if err != nil {
		return nil, fmt.Errorf("idempotency key %q: %w", key, err)
	}
	o, err := s.store.GetOrder(ctx, id)
	if errors.Is(err, domain.ErrNotFound) {
		// The order was deleted since; treat the key as fresh.
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	slog.InfoContext(ctx, "order create replayed", "order_id", id, "idempotency_key", key)
	return o, nil
}

func (s *OrderService) remember(ctx context.Context, actor *domain.User, key string, orderID int64) {
	if key == "" || s.idempotency == nil {
		return
	}
	k := s.idempotencyKey(actor, key)
	if err := s.idempotency.Set(ctx, k, orderID, IdempotencyTTL); err != nil {
		slog.WarnContext(ctx, "failed to store idempotency key", "key", key, "error", err)
	}
}

// idempotencyKey scopes a client key to the caller, so two users sending
// the same key never see each other's orders.
func (s *OrderService) idempotencyKey(actor *domain.User, key string) string {
	owner := "anonymous"
	if actor != nil {
		owner = strconv.FormatInt(actor.ID, 10)
	}
	return s.idempotency.GenerateKey("idempotency", owner+":"+key)
}

// Update applies a PUT (partial false) or PATCH payload. Items are replaced
// wholesale when the payload carries them and left untouched otherwise.
func (s *OrderService) Update(ctx context.Context, actor *domain.User, id int64, in OrderInput, partial bool) (o *domain.Order, err error) {
	ctx, span := s.tracer.Start(ctx, "OrderService.Update", trace.WithAttributes(attribute.Int64("order.id", id)))
	defer func() { endSpan(span, err) }()

	order, err := s.store.GetOrder(ctx, id)
	if err != nil {
		return nil, err
	}

	f := newFields(!partial)
	if err := s.applyHeader(ctx, f, order, in); err != nil {
		return nil, err
	}
	replace := in.Items != nil
	if replace {
		if order.Items, err = s.resolveItems(ctx, f, *in.Items); err != nil {
			return nil, err
		}
	} else {
		f.missing("items", true)
	}
	if err := f.err(); err != nil {
		return nil, err
	}

	action := audit.ActionUpdated
	if replace {
		action = audit.ActionItemsReplaced
	}
	if err := s.store.UpdateOrder(ctx, order, replace, audit.NewEvent(ctx, action, actorID(actor))); err != nil {
		return nil, err
	}
	slog.InfoContext(ctx, "order updated",
		"order_id", order.ID,
		"order_number", order.Number,
		"items_replaced", replace,
	)
	return s.store.GetOrder(ctx, id)
}

func (s *OrderService) Delete(ctx context.Context, actor *domain.User, id int64) (err error) {
	ctx, span := s.tracer.Start(ctx, "OrderService.Delete", trace.WithAttributes(attribute.Int64("order.id", id)))
	defer func() { endSpan(span, err) }()

	if err := s.store.DeleteOrder(ctx, id, audit.NewEvent(ctx, audit.ActionDeleted, actorID(actor))); err != nil {
		return err
	}
	slog.InfoContext(ctx, "order deleted", "order_id", id)
	return nil
}

func (s *OrderService) Get(ctx context.Context, id int64) (*domain.Order, error) {
	ctx, span := s.tracer.Start(ctx, "OrderService.Get", trace.WithAttributes(attribute.Int64("order.id", id)))
	defer span.End()
	return s.store.GetOrder(ctx, id)
}

func (s *OrderService) List(ctx context.Context) ([]*domain.Order, error) {
	ctx, span := s.tracer.Start(ctx, "OrderService.List")
	defer span.End()
	return s.store.ListOrders(ctx)
}

// History returns the events of an order, oldest first. Events of deleted
// orders are still returned.
func (s *OrderService) History(ctx context.Context, id int64) ([]*audit.Event, error) {
	ctx, span := s.tracer.Start(ctx, "OrderService.History", trace.WithAttributes(attribute.Int64("order.id", id)))
	defer span.End()

	events, err := s.store.ListOrderEvents(ctx, id)
	if err != nil {
		return nil, err
	}
	if len(events) == 0 {
		if _, err := s.store.GetOrder(ctx, id); err != nil {
			return nil, err
		}
	}
	return events, nil
}

func (s *OrderService) Metrics(ctx context.Context) (Metrics, error) {
	ctx, span := s.tracer.Start(ctx, "OrderService.Metrics")
	defer span.End()

	orders, err := s.store.ListOrders(ctx)
	if err != nil {
		return Metrics{}, err
	}
	m := Metrics{
		TotalOrders:  len(orders),
		ByStatus:     make(map[domain.OrderStatus]int, len(domain.OrderStatuses)),
		TotalRevenue: decimal.Zero,
	}
	for _, st := range domain.OrderStatuses {
		m.ByStatus[st] = 0
	}
	for _, o := range orders {
		m.ByStatus[o.Status]++
		m.TotalRevenue = m.TotalRevenue.Add(o.Total())
	}
	return m, nil
}

// applyHeader copies the non-item fields of in onto o. The returned error is
// for store failures; field problems are collected in f.
func (s *OrderService) applyHeader(ctx context.Context, f *fields, o *domain.Order, in OrderInput) error {
	if in.Customer == nil {
		f.missing("customer", true)
	} else {
		_, err := s.store.GetCustomer(ctx, *in.Customer)
		switch {
		case errors.Is(err, domain.ErrNotFound):
			f.verr.Add("customer", msgMissingPK(*in.Customer))
		case err != nil:
			return err
		default:
			o.CustomerID = *in.Customer
		}
	}
	f.status("status", in.Status, &o.Status)
	f.payment("payment_method", in.PaymentMethod, &o.PaymentMethod)
	f.text("shipping_address", in.ShippingAddress, &o.ShippingAddress, 0, true)
	if in.Notes != nil {
		o.Notes = *in.Notes
	}
	return nil
}

// resolveItems validates each line and fixes its unit price: an explicit
// price wins, otherwise the product's current price is copied. A line
// without a quantity orders one unit.
func (s *OrderService) resolveItems(ctx context.Context, f *fields, in []ItemInput) ([]domain.OrderItem, error) {
	items := make([]domain.OrderItem, 0, len(in))
	for i, it := range in {
		name := func(field string) string { return fmt.Sprintf("items[%d].%s", i, field) }
		item := domain.OrderItem{Quantity: domain.DefaultQuantity}
		ok := true

		if it.Quantity != nil {
			if *it.Quantity < 1 {
				f.verr.Add(name("quantity"), msgMinOne)
				ok = false
			} else {
				item.Quantity = *it.Quantity
			}
		}

		if it.UnitPrice != nil {
			if msg := checkMoney(*it.UnitPrice); msg != "" {
				f.verr.Add(name("unit_price"), msg)
				ok = false
			} else {
				item.UnitPrice = *it.UnitPrice
			}
		}

		if it.Product == nil {
			f.verr.Add(name("product"), msgRequired)
			continue
		}
		p, err := s.store.GetProduct(ctx, *it.Product)
		if errors.Is(err, domain.ErrNotFound) {
			f.verr.Add(name("product"), msgMissingPK(*it.Product))
			continue
		}
		if err != nil {
			return nil, err
		}
		if !ok {
			continue
		}
		item.ProductID = p.ID
		item.ProductName = p.Name
		item.ProductOrigin = p.Origin
		item.ProductCategory = p.Category
		if it.UnitPrice == nil {
			item.UnitPrice = p.Price
		}
		items = append(items, item)
	}
	return items, nil
}

func actorID(u *domain.User) *int64 {
	if u == nil {
		return nil
	}
	id := u.ID
	return &id
}

func endSpan(span trace.Span, err error) {
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	}
	span.End()
}
