package auth

import (
	"context"

	"github.com/jcmexdev/silkroad-orders/internal/order-service/domain"
)

type contextKey string

const userKey contextKey = "auth-user"

// WithUser stores the authenticated caller in ctx.
func WithUser(ctx context.Context, u *domain.User) context.Context {
	return context.WithValue(ctx, userKey, u)
}

// UserFromContext returns the authenticated caller, or nil.
func UserFromContext(ctx context.Context) *domain.User {
	u, _ := ctx.Value(userKey).(*domain.User)
	return u
}
