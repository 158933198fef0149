package ports

import (
	"context"
	"time"

	"github.com/jcmexdev/silkroad-orders/internal/order-service/audit"
	"github.com/jcmexdev/silkroad-orders/internal/order-service/domain"
)

type CustomerStore interface {
	CreateCustomer(ctx context.Context, c *domain.Customer) error
	GetCustomer(ctx context.Context, id int64) (*domain.Customer, error)
	ListCustomers(ctx context.Context) ([]*domain.Customer, error)
	UpdateCustomer(ctx context.Context, c *domain.Customer) error
	// DeleteCustomer removes the customer together with its orders and their items.
	DeleteCustomer(ctx context.Context, id int64) error
}

type ProductStore interface {
	CreateProduct(ctx context.Context, p *domain.Product) error
	GetProduct(ctx context.Context, id int64) (*domain.Product, error)
	ListProducts(ctx context.Context) ([]*domain.Product, error)
	ListLowStockProducts(ctx context.Context, threshold int) ([]*domain.Product, error)
	UpdateProduct(ctx context.Context, p *domain.Product) error
	// DeleteProduct returns domain.ErrProtected while order items reference the product.
	DeleteProduct(ctx context.Context, id int64) error
}

// CreateOrderOptions controls the side effects of CreateOrder.
type CreateOrderOptions struct {
	// NumberPrefix is the month namespace used when the order has no number.
	NumberPrefix string
	// DecrementStock subtracts each item's quantity from its product.
	DecrementStock bool
	// Event is appended in the same transaction when non-nil.
	Event *audit.Event
	// Now stamps created_at and updated_at. Zero means the store's clock.
	Now time.Time
}

type OrderStore interface {
	// CreateOrder inserts the header and items in one transaction, assigning
	// an order number from the month counter when o.Number is empty.
	CreateOrder(ctx context.Context, o *domain.Order, opts CreateOrderOptions) error
	GetOrder(ctx context.Context, id int64) (*domain.Order, error)
	ListOrders(ctx context.Context) ([]*domain.Order, error)
	// UpdateOrder writes the header; when replaceItems is set every existing
	// item is deleted and o.Items inserted in their place.
	UpdateOrder(ctx context.Context, o *domain.Order, replaceItems bool, ev *audit.Event) error
	DeleteOrder(ctx context.Context, id int64, ev *audit.Event) error
	// LastOrderNumber returns the lexicographically greatest number with
	// the prefix, or "" when the namespace is empty.
	LastOrderNumber(ctx context.Context, prefix string) (string, error)
	ListOrderEvents(ctx context.Context, orderID int64) ([]*audit.Event, error)
}

type UserStore interface {
	CreateUser(ctx context.Context, u *domain.User) error
	GetUser(ctx context.Context, id int64) (*domain.User, error)
	GetUserByUsername(ctx context.Context, username string) (*domain.User, error)
	UsernameExists(ctx context.Context, username string) (bool, error)
	EmailExists(ctx context.Context, email string) (bool, error)
	// DeleteUser keeps the user's orders and clears their created_by.
	DeleteUser(ctx context.Context, id int64) error
}

type Store interface {
	CustomerStore
	ProductStore
	OrderStore
	UserStore
}

// Sequencer hands out per-month order sequences outside the store transaction.
type Sequencer interface {
	Next(ctx context.Context, prefix string) (int, error)
}
