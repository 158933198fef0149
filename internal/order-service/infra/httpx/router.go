package httpx

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"

	"github.com/jcmexdev/silkroad-orders/internal/order-service/infra/httpx/middlewares"
)

func NewRouter(handler *Handler, authn middlewares.Authenticator) http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middlewares.AttachRequestMetadata)
	r.Use(middleware.StripSlashes)
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)

	r.Route("/api", func(r chi.Router) {
		r.Post("/users/register", handler.Register)
		r.Post("/token", handler.ObtainToken)
		r.Post("/token/refresh", handler.RefreshToken)

		r.Group(func(r chi.Router) {
			r.Use(middlewares.RequireUser(authn))

			r.Get("/users/profile", handler.Profile)
			r.Delete("/users/profile", handler.DeleteProfile)

			r.Route("/customers", func(r chi.Router) {
				r.Get("/", handler.ListCustomers)
				r.Post("/", handler.CreateCustomer)
				r.Get("/{id}", handler.GetCustomer)
				r.Put("/{id}", handler.UpdateCustomer)
				r.Patch("/{id}", handler.PatchCustomer)
				r.Delete("/{id}", handler.DeleteCustomer)
			})

			r.Route("/products", func(r chi.Router) {
				r.Get("/", handler.ListProducts)
				r.Post("/", handler.CreateProduct)
				r.Get("/low_stock", handler.LowStockProducts)
				r.Get("/{id}", handler.GetProduct)
				r.Put("/{id}", handler.UpdateProduct)
				r.Patch("/{id}", handler.PatchProduct)
				r.Delete("/{id}", handler.DeleteProduct)
			})

			r.Route("/orders", func(r chi.Router) {
				r.Get("/", handler.ListOrders)
				r.Post("/", handler.CreateOrder)
				r.Get("/metrics", handler.OrderMetrics)
				r.Get("/{id}", handler.GetOrder)
				r.Put("/{id}", handler.UpdateOrder)
				r.Patch("/{id}", handler.PatchOrder)
				r.Delete("/{id}", handler.DeleteOrder)
				r.Get("/{id}/history", handler.OrderHistory)
			})
		})
	})

	return otelhttp.NewHandler(r, "order-service",
		otelhttp.WithSpanNameFormatter(func(_ string, r *http.Request) string {
			return r.Method + " " + r.URL.Path
		}),
	)
}
