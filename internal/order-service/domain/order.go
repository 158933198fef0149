package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

type Order struct {
	ID              int64
	Number          string
	CustomerID      int64
	Status          OrderStatus
	PaymentMethod   PaymentMethod
	ShippingAddress string
	Notes           string
	CreatedBy       *int64
	Items           []OrderItem
	CreatedAt       time.Time
	UpdatedAt       time.Time

	// Read-side fields filled from joined rows.
	CustomerName      string
	CustomerRegion    string
	CreatedByUsername string
}

// Total is recomputed from the owned items on every call.
func (o *Order) Total() decimal.Decimal {
	return Total(o.Items)
}

func (o *Order) ItemsCount() int {
	return len(o.Items)
}

// DefaultQuantity applies to order lines submitted without a quantity.
const DefaultQuantity = 1

type OrderItem struct {
	ID        int64
	OrderID   int64
	ProductID int64
	Quantity  int
	UnitPrice decimal.Decimal

	ProductName     string
	ProductOrigin   string
	ProductCategory Category
}

func (i OrderItem) TotalPrice() decimal.Decimal {
	return i.UnitPrice.Mul(decimal.NewFromInt(int64(i.Quantity)))
}

// Total sums the line totals of items. An empty slice totals zero.
func Total(items []OrderItem) decimal.Decimal {
	total := decimal.Zero
	for _, item := range items {
		total = total.Add(item.TotalPrice())
	}
	return total
}

type OrderStatus string

const (
	StatusPending    OrderStatus = "PENDING"
	StatusProcessing OrderStatus = "PROCESSING"
	StatusShipped    OrderStatus = "SHIPPED"
	StatusDelivered  OrderStatus = "DELIVERED"
	StatusCancelled  OrderStatus = "CANCELLED"
)

// OrderStatuses lists every status in lifecycle order.
var OrderStatuses = []OrderStatus{
	StatusPending,
	StatusProcessing,
	StatusShipped,
	StatusDelivered,
	StatusCancelled,
}

var statusLabels = map[OrderStatus]string{
	StatusPending:    "Pending",
	StatusProcessing: "Processing",
	StatusShipped:    "Shipped",
	StatusDelivered:  "Delivered",
	StatusCancelled:  "Cancelled",
}

func (s OrderStatus) Valid() bool {
	_, ok := statusLabels[s]
	return ok
}

func (s OrderStatus) Display() string {
	return statusLabels[s]
}

type PaymentMethod string

const (
	PaymentGold   PaymentMethod = "GOLD"
	PaymentSilver PaymentMethod = "SILVER"
	PaymentBarter PaymentMethod = "BARTER"
	PaymentCredit PaymentMethod = "CREDIT"
)

var paymentLabels = map[PaymentMethod]string{
	PaymentGold:   "Gold Coins",
	PaymentSilver: "Silver Pieces",
	PaymentBarter: "Goods Exchange",
	PaymentCredit: "Merchant Credit",
}

func (p PaymentMethod) Valid() bool {
	_, ok := paymentLabels[p]
	return ok
}

func (p PaymentMethod) Display() string {
	return paymentLabels[p]
}
