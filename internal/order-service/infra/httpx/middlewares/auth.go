package middlewares

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strings"

	"github.com/jcmexdev/silkroad-orders/internal/order-service/auth"
	"github.com/jcmexdev/silkroad-orders/internal/order-service/domain"
)

// Authenticator resolves a bearer access token to a user.
type Authenticator interface {
	Authenticate(ctx context.Context, accessToken string) (*domain.User, error)
}

// RequireUser rejects requests without a valid access token with 401 and
// stores the caller in the context otherwise.
func RequireUser(a Authenticator) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			header := r.Header.Get("Authorization")
			if header == "" {
				unauthorized(w, "Authentication credentials were not provided.")
				return
			}
			scheme, token, ok := strings.Cut(header, " ")
			if !ok || !strings.EqualFold(scheme, "Bearer") || strings.TrimSpace(token) == "" {
				unauthorized(w, "Authorization header must contain two space-delimited values")
				return
			}

			user, err := a.Authenticate(r.Context(), strings.TrimSpace(token))
			if errors.Is(err, auth.ErrInvalidToken) {
				unauthorized(w, "Given token not valid for any token type")
				return
			}
			if err != nil {
				slog.ErrorContext(r.Context(), "authentication failed", "request_id", RequestID(r.Context()), "error", err)
				w.Header().Set("Content-Type", "application/json")
				w.WriteHeader(http.StatusInternalServerError)
				_ = json.NewEncoder(w).Encode(map[string]string{"detail": "Internal server error."})
				return
			}

			next.ServeHTTP(w, r.WithContext(auth.WithUser(r.Context(), user)))
		})
	}
}

func unauthorized(w http.ResponseWriter, detail string) {
	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("WWW-Authenticate", `Bearer realm="api"`)
	w.WriteHeader(http.StatusUnauthorized)
	_ = json.NewEncoder(w).Encode(map[string]string{"detail": detail})
}
