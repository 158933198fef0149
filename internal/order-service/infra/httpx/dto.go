package httpx

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/jcmexdev/silkroad-orders/internal/order-service/app"
	"github.com/jcmexdev/silkroad-orders/internal/order-service/audit"
	"github.com/jcmexdev/silkroad-orders/internal/order-service/auth"
	"github.com/jcmexdev/silkroad-orders/internal/order-service/domain"
)

// Write payloads use pointers so absent keys can be told apart from zero values.

type OrderRequest struct {
	Customer        *int64                `json:"customer"`
	Status          *domain.OrderStatus   `json:"status"`
	PaymentMethod   *domain.PaymentMethod `json:"payment_method"`
	ShippingAddress *string               `json:"shipping_address"`
	Notes           *string               `json:"notes"`
	Items           *[]OrderItemRequest   `json:"items"`
}

type OrderItemRequest struct {
	Product   *int64           `json:"product"`
	Quantity  *int             `json:"quantity"`
	UnitPrice *decimal.Decimal `json:"unit_price"`
}

func (r OrderRequest) toInput() app.OrderInput {
	in := app.OrderInput{
		Customer:        r.Customer,
		Status:          r.Status,
		PaymentMethod:   r.PaymentMethod,
		ShippingAddress: r.ShippingAddress,
		Notes:           r.Notes,
	}
	if r.Items != nil {
		items := make([]app.ItemInput, len(*r.Items))
		for i, it := range *r.Items {
			items[i] = app.ItemInput{Product: it.Product, Quantity: it.Quantity, UnitPrice: it.UnitPrice}
		}
		in.Items = &items
	}
	return in
}

type CustomerRequest struct {
	Name    *string `json:"name"`
	Email   *string `json:"email"`
	Region  *string `json:"region"`
	Address *string `json:"address"`
}

func (r CustomerRequest) toInput() app.CustomerInput {
	return app.CustomerInput{Name: r.Name, Email: r.Email, Region: r.Region, Address: r.Address}
}

type ProductRequest struct {
	Name        *string          `json:"name"`
	Description *string          `json:"description"`
	Price       *decimal.Decimal `json:"price"`
	Stock       *int             `json:"stock"`
	Origin      *string          `json:"origin"`
	Category    *domain.Category `json:"category"`
}

func (r ProductRequest) toInput() app.ProductInput {
	return app.ProductInput{
		Name:        r.Name,
		Description: r.Description,
		Price:       r.Price,
		Stock:       r.Stock,
		Origin:      r.Origin,
		Category:    r.Category,
	}
}

type RegisterRequest struct {
	Username  *string `json:"username"`
	Email     *string `json:"email"`
	Password  *string `json:"password"`
	Password2 *string `json:"password2"`
	FirstName *string `json:"first_name"`
	LastName  *string `json:"last_name"`
}

type TokenRequest struct {
	Username *string `json:"username"`
	Password *string `json:"password"`
}

type RefreshRequest struct {
	Refresh *string `json:"refresh"`
}

// Read shapes. Money is rendered as a fixed 2-place string.

type OrderResponse struct {
	ID                   int64                `json:"id"`
	OrderNumber          string               `json:"order_number"`
	Customer             int64                `json:"customer"`
	CustomerName         string               `json:"customer_name"`
	CustomerRegion       string               `json:"customer_region"`
	Status               domain.OrderStatus   `json:"status"`
	StatusDisplay        string               `json:"status_display"`
	PaymentMethod        domain.PaymentMethod `json:"payment_method"`
	PaymentMethodDisplay string               `json:"payment_method_display"`
	ShippingAddress      string               `json:"shipping_address"`
	Notes                string               `json:"notes"`
	CreatedAt            time.Time            `json:"created_at"`
	UpdatedAt            time.Time            `json:"updated_at"`
	CreatedBy            *int64               `json:"created_by"`
	CreatedByUsername    string               `json:"created_by_username"`
	Total                string               `json:"total"`
	ItemsCount           int                  `json:"items_count"`
	Items                []OrderItemResponse  `json:"items"`
}

type OrderItemResponse struct {
	ID              int64  `json:"id"`
	Product         int64  `json:"product"`
	ProductName     string `json:"product_name"`
	ProductOrigin   string `json:"product_origin"`
	ProductCategory string `json:"product_category"`
	Quantity        int    `json:"quantity"`
	UnitPrice       string `json:"unit_price"`
	TotalPrice      string `json:"total_price"`
}

type CustomerResponse struct {
	ID        int64     `json:"id"`
	Name      string    `json:"name"`
	Email     string    `json:"email"`
	Region    string    `json:"region"`
	Address   string    `json:"address"`
	CreatedAt time.Time `json:"created_at"`
}

type ProductResponse struct {
	ID              int64           `json:"id"`
	Name            string          `json:"name"`
	Description     string          `json:"description"`
	Price           string          `json:"price"`
	Stock           int             `json:"stock"`
	Origin          string          `json:"origin"`
	Category        domain.Category `json:"category"`
	CategoryDisplay string          `json:"category_display"`
	CreatedAt       time.Time       `json:"created_at"`
	UpdatedAt       time.Time       `json:"updated_at"`
}

type UserResponse struct {
	ID        int64  `json:"id"`
	Username  string `json:"username"`
	Email     string `json:"email"`
	FirstName string `json:"first_name"`
	LastName  string `json:"last_name"`
}

type RegisterResponse struct {
	User UserResponse `json:"user"`
	auth.Pair
}

type AccessResponse struct {
	Access string `json:"access"`
}

type MetricsResponse struct {
	TotalOrders      int    `json:"total_orders"`
	PendingOrders    int    `json:"pending_orders"`
	ProcessingOrders int    `json:"processing_orders"`
	ShippedOrders    int    `json:"shipped_orders"`
	DeliveredOrders  int    `json:"delivered_orders"`
	CancelledOrders  int    `json:"cancelled_orders"`
	TotalRevenue     string `json:"total_revenue"`
}

type EventResponse struct {
	ID          int64              `json:"id"`
	OrderID     int64              `json:"order_id"`
	OrderNumber string             `json:"order_number"`
	Action      audit.Action       `json:"action"`
	Status      domain.OrderStatus `json:"status"`
	ActorID     *int64             `json:"actor_id"`
	TraceID     string             `json:"trace_id,omitempty"`
	CreatedAt   time.Time          `json:"created_at"`
}

type ErrorResponse struct {
	Detail string `json:"detail"`
}

func mapOrderToResponse(o *domain.Order) OrderResponse {
	items := make([]OrderItemResponse, len(o.Items))
	for i, it := range o.Items {
		items[i] = OrderItemResponse{
			ID:              it.ID,
			Product:         it.ProductID,
			ProductName:     it.ProductName,
			ProductOrigin:   it.ProductOrigin,
			ProductCategory: it.ProductCategory.Display(),
			Quantity:        it.Quantity,
			UnitPrice:       money(it.UnitPrice),
			TotalPrice:      money(it.TotalPrice()),
		}
	}
	return OrderResponse{
		ID:                   o.ID,
		OrderNumber:          o.Number,
		Customer:             o.CustomerID,
		CustomerName:         o.CustomerName,
		CustomerRegion:       o.CustomerRegion,
		Status:               o.Status,
		StatusDisplay:        o.Status.Display(),
		PaymentMethod:        o.PaymentMethod,
		PaymentMethodDisplay: o.PaymentMethod.Display(),
		ShippingAddress:      o.ShippingAddress,
		Notes:                o.Notes,
		CreatedAt:            o.CreatedAt,
		UpdatedAt:            o.UpdatedAt,
		CreatedBy:            o.CreatedBy,
		CreatedByUsername:    o.CreatedByUsername,
		Total:                money(o.Total()),
		ItemsCount:           o.ItemsCount(),
		Items:                items,
	}
}

func mapCustomerToResponse(c *domain.Customer) CustomerResponse {
	return CustomerResponse{
		ID:        c.ID,
		Name:      c.Name,
		Email:     c.Email,
		Region:    c.Region,
		Address:   c.Address,
		CreatedAt: c.CreatedAt,
	}
}

func mapProductToResponse(p *domain.Product) ProductResponse {
	return ProductResponse{
		ID:              p.ID,
		Name:            p.Name,
		Description:     p.Description,
		Price:           money(p.Price),
		Stock:           p.Stock,
		Origin:          p.Origin,
		Category:        p.Category,
		CategoryDisplay: p.Category.Display(),
		CreatedAt:       p.CreatedAt,
		UpdatedAt:       p.UpdatedAt,
	}
}

func mapUserToResponse(u *domain.User) UserResponse {
	return UserResponse{
		ID:        u.ID,
		Username:  u.Username,
		Email:     u.Email,
		FirstName: u.FirstName,
		LastName:  u.LastName,
	}
}

func mapMetricsToResponse(m app.Metrics) MetricsResponse {
	return MetricsResponse{
		TotalOrders:      m.TotalOrders,
		PendingOrders:    m.ByStatus[domain.StatusPending],
		ProcessingOrders: m.ByStatus[domain.StatusProcessing],
		ShippedOrders:    m.ByStatus[domain.StatusShipped],
		DeliveredOrders:  m.ByStatus[domain.StatusDelivered],
		CancelledOrders:  m.ByStatus[domain.StatusCancelled],
		TotalRevenue:     money(m.TotalRevenue),
	}
}

func mapEventToResponse(ev *audit.Event) EventResponse {
	return EventResponse{
		ID:          ev.ID,
		OrderID:     ev.OrderID,
		OrderNumber: ev.OrderNumber,
		Action:      ev.Action,
		Status:      ev.Status,
		ActorID:     ev.ActorID,
		TraceID:     ev.TraceID,
		CreatedAt:   ev.CreatedAt,
	}
}

func mapSlice[T, R any](in []T, fn func(T) R) []R {
	out := make([]R, len(in))
	for i, v := range in {
		out[i] = fn(v)
	}
	return out
}

func money(d decimal.Decimal) string {
	return d.StringFixed(2)
}
