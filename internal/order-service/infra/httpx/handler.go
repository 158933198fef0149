package httpx

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/jcmexdev/silkroad-orders/internal/order-service/app"
	"github.com/jcmexdev/silkroad-orders/internal/order-service/auth"
	"github.com/jcmexdev/silkroad-orders/internal/order-service/domain"
	"github.com/jcmexdev/silkroad-orders/internal/order-service/infra/httpx/middlewares"
)

const maxBodyBytes = 1 << 20

// Handler serves the REST API on top of the application services.
type Handler struct {
	orders  *app.OrderService
	catalog *app.CatalogService
	users   *app.UserService
}

func NewHandler(orders *app.OrderService, catalog *app.CatalogService, users *app.UserService) *Handler {
	return &Handler{
		orders:  orders,
		catalog: catalog,
		users:   users,
	}
}

// decodeJSON reads the body into dst. On failure it writes the 400 itself
// and returns false.
func decodeJSON(w http.ResponseWriter, r *http.Request, dst any) bool {
	err := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes)).Decode(dst)
	if err == nil {
		return true
	}

	var typeErr *json.UnmarshalTypeError
	switch {
	case errors.As(err, &typeErr) && typeErr.Field != "":
		writeJSON(w, http.StatusBadRequest, map[string]string{
			typeErr.Field: fmt.Sprintf("Incorrect type. Expected %s, received %s.", typeErr.Type, typeErr.Value),
		})
	case errors.Is(err, io.EOF):
		writeError(w, http.StatusBadRequest, "JSON parse error - empty request body")
	default:
		writeError(w, http.StatusBadRequest, "JSON parse error - "+err.Error())
	}
	return false
}

// idParam parses the {id} URL segment. Non-numeric ids cannot match a row.
func idParam(w http.ResponseWriter, r *http.Request) (int64, bool) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil || id <= 0 {
		writeError(w, http.StatusNotFound, "Not found.")
		return 0, false
	}
	return id, true
}

// handleError maps service errors to status codes. Unexpected errors are
// logged and hidden from the client.
func handleError(w http.ResponseWriter, r *http.Request, err error) {
	var verr *domain.ValidationError
	switch {
	case errors.As(err, &verr):
		writeJSON(w, http.StatusBadRequest, verr.Fields)
	case errors.Is(err, domain.ErrNotFound):
		writeError(w, http.StatusNotFound, "Not found.")
	case errors.Is(err, domain.ErrProtected):
		writeError(w, http.StatusConflict, "Cannot delete: the object is referenced by existing orders.")
	case errors.Is(err, domain.ErrConflict):
		writeError(w, http.StatusConflict, "The object conflicts with an existing one.")
	case errors.Is(err, domain.ErrSequenceExhausted):
		writeError(w, http.StatusConflict, "No order numbers left for this month.")
	case errors.Is(err, app.ErrInvalidCredentials):
		writeError(w, http.StatusUnauthorized, "No active account found with the given credentials")
	case errors.Is(err, auth.ErrInvalidToken):
		writeError(w, http.StatusUnauthorized, "Token is invalid or expired")
	default:
		slog.ErrorContext(r.Context(), "request failed",
			"method", r.Method,
			"path", r.URL.Path,
			"request_id", middlewares.RequestID(r.Context()),
			"error", err,
		)
		writeError(w, http.StatusInternalServerError, "Internal server error.")
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, detail string) {
	writeJSON(w, status, ErrorResponse{Detail: detail})
}
