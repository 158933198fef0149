package app

import (
	"context"
	"errors"
	"log/slog"

	"github.com/shopspring/decimal"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/jcmexdev/silkroad-orders/internal/order-service/domain"
	"github.com/jcmexdev/silkroad-orders/internal/order-service/ports"
)

// DefaultLowStockThreshold is the stock level below which a product is listed as low.
const DefaultLowStockThreshold = 10

type CustomerInput struct {
	Name    *string
	Email   *string
	Region  *string
	Address *string
}

type ProductInput struct {
	Name        *string
	Description *string
	Price       *decimal.Decimal
	Stock       *int
	Origin      *string
	Category    *domain.Category
}

// CatalogService manages customers and products.
type CatalogService struct {
	store             ports.Store
	lowStockThreshold int
	tracer            trace.Tracer
}

func NewCatalogService(store ports.Store, lowStockThreshold int) *CatalogService {
	if lowStockThreshold <= 0 {
		lowStockThreshold = DefaultLowStockThreshold
	}
	return &CatalogService{
		store:             store,
		lowStockThreshold: lowStockThreshold,
		tracer:            otel.Tracer(tracerName),
	}
}

func (s *CatalogService) CreateCustomer(ctx context.Context, in CustomerInput) (*domain.Customer, error) {
	ctx, span := s.tracer.Start(ctx, "CatalogService.CreateCustomer")
	defer span.End()

	c := &domain.Customer{}
	if err := applyCustomer(newFields(true), c, in); err != nil {
		return nil, err
	}
	if err := s.store.CreateCustomer(ctx, c); err != nil {
		return nil, customerConflict(err)
	}
	slog.InfoContext(ctx, "customer created", "customer_id", c.ID)
	return c, nil
}

func (s *CatalogService) GetCustomer(ctx context.Context, id int64) (*domain.Customer, error) {
	return s.store.GetCustomer(ctx, id)
}

func (s *CatalogService) ListCustomers(ctx context.Context) ([]*domain.Customer, error) {
	return s.store.ListCustomers(ctx)
}

func (s *CatalogService) UpdateCustomer(ctx context.Context, id int64, in CustomerInput, partial bool) (*domain.Customer, error) {
	ctx, span := s.tracer.Start(ctx, "CatalogService.UpdateCustomer", trace.WithAttributes(attribute.Int64("customer.id", id)))
	defer span.End()

	c, err := s.store.GetCustomer(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := applyCustomer(newFields(!partial), c, in); err != nil {
		return nil, err
	}
	if err := s.store.UpdateCustomer(ctx, c); err != nil {
		return nil, customerConflict(err)
	}
	return c, nil
}

// DeleteCustomer also removes every order of the customer.
func (s *CatalogService) DeleteCustomer(ctx context.Context, id int64) error {
	ctx, span := s.tracer.Start(ctx, "CatalogService.DeleteCustomer", trace.WithAttributes(attribute.Int64("customer.id", id)))
	defer span.End()

	if err := s.store.DeleteCustomer(ctx, id); err != nil {
		return err
	}
	slog.InfoContext(ctx, "customer deleted", "customer_id", id)
	return nil
}

func applyCustomer(f *fields, c *domain.Customer, in CustomerInput) error {
	f.text("name", in.Name, &c.Name, 100, true)
	f.email("email", in.Email, &c.Email, true)
	f.text("region", in.Region, &c.Region, 50, true)
	f.text("address", in.Address, &c.Address, 0, true)
	return f.err()
}

func customerConflict(err error) error {
	if errors.Is(err, domain.ErrConflict) {
		return domain.FieldError("email", "customer with this email already exists.")
	}
	return err
}

func (s *CatalogService) CreateProduct(ctx context.Context, in ProductInput) (*domain.Product, error) {
	ctx, span := s.tracer.Start(ctx, "CatalogService.CreateProduct")
	defer span.End()

	p := &domain.Product{Category: domain.CategoryOther}
	if err := applyProduct(newFields(true), p, in); err != nil {
		return nil, err
	}
	if err := s.store.CreateProduct(ctx, p); err != nil {
		return nil, err
	}
	slog.InfoContext(ctx, "product created", "product_id", p.ID)
	return p, nil
}

func (s *CatalogService) GetProduct(ctx context.Context, id int64) (*domain.Product, error) {
	return s.store.GetProduct(ctx, id)
}

func (s *CatalogService) ListProducts(ctx context.Context) ([]*domain.Product, error) {
	return s.store.ListProducts(ctx)
}

// LowStock lists products whose stock is below the configured threshold.
func (s *CatalogService) LowStock(ctx context.Context) ([]*domain.Product, error) {
	return s.store.ListLowStockProducts(ctx, s.lowStockThreshold)
}

func (s *CatalogService) UpdateProduct(ctx context.Context, id int64, in ProductInput, partial bool) (*domain.Product, error) {
	ctx, span := s.tracer.Start(ctx, "CatalogService.UpdateProduct", trace.WithAttributes(attribute.Int64("product.id", id)))
	defer span.End()

	p, err := s.store.GetProduct(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := applyProduct(newFields(!partial), p, in); err != nil {
		return nil, err
	}
	if err := s.store.UpdateProduct(ctx, p); err != nil {
		return nil, err
	}
	return p, nil
}

// DeleteProduct fails with domain.ErrProtected while any order item uses the product.
func (s *CatalogService) DeleteProduct(ctx context.Context, id int64) error {
	ctx, span := s.tracer.Start(ctx, "CatalogService.DeleteProduct", trace.WithAttributes(attribute.Int64("product.id", id)))
	defer span.End()

	if err := s.store.DeleteProduct(ctx, id); err != nil {
		return err
	}
	slog.InfoContext(ctx, "product deleted", "product_id", id)
	return nil
}

func applyProduct(f *fields, p *domain.Product, in ProductInput) error {
	f.text("name", in.Name, &p.Name, 100, true)
	f.text("description", in.Description, &p.Description, 0, false)
	f.money("price", in.Price, &p.Price, true)
	f.nonNegativeInt("stock", in.Stock, &p.Stock)
	f.text("origin", in.Origin, &p.Origin, 50, true)
	f.category("category", in.Category, &p.Category)
	return f.err()
}
