package httpx

import (
	"log/slog"
	"net/http"

	"github.com/jcmexdev/silkroad-orders/internal/order-service/auth"
	"github.com/jcmexdev/silkroad-orders/internal/order-service/infra/httpx/middlewares"
)

func (h *Handler) ListOrders(w http.ResponseWriter, r *http.Request) {
	orders, err := h.orders.List(r.Context())
	if err != nil {
		handleError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, mapSlice(orders, mapOrderToResponse))
}

// CreateOrder answers 201 for a new order and 200 when the idempotency key
// replays an earlier create.
func (h *Handler) CreateOrder(w http.ResponseWriter, r *http.Request) {
	var req OrderRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	key := middlewares.IdempotencyKey(r.Context())
	slog.InfoContext(r.Context(), "creating order",
		"request_id", middlewares.RequestID(r.Context()),
		"idempotency_key", key,
	)

	order, replayed, err := h.orders.Create(r.Context(), auth.UserFromContext(r.Context()), req.toInput(), key)
	if err != nil {
		handleError(w, r, err)
		return
	}
	status := http.StatusCreated
	if replayed {
		status = http.StatusOK
	}
	writeJSON(w, status, mapOrderToResponse(order))
}

func (h *Handler) GetOrder(w http.ResponseWriter, r *http.Request) {
	id, ok := idParam(w, r)
	if !ok {
		return
	}
	order, err := h.orders.Get(r.Context(), id)
	if err != nil {
		handleError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, mapOrderToResponse(order))
}

func (h *Handler) UpdateOrder(w http.ResponseWriter, r *http.Request) {
	h.updateOrder(w, r, false)
}

func (h *Handler) PatchOrder(w http.ResponseWriter, r *http.Request) {
	h.updateOrder(w, r, true)
}

func (h *Handler) updateOrder(w http.ResponseWriter, r *http.Request, partial bool) {
	id, ok := idParam(w, r)
	if !ok {
		return
	}
	var req OrderRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	order, err := h.orders.Update(r.Context(), auth.UserFromContext(r.Context()), id, req.toInput(), partial)
	if err != nil {
		handleError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, mapOrderToResponse(order))
}

func (h *Handler) DeleteOrder(w http.ResponseWriter, r *http.Request) {
	id, ok := idParam(w, r)
	if !ok {
		return
	}
	if err := h.orders.Delete(r.Context(), auth.UserFromContext(r.Context()), id); err != nil {
		handleError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) OrderMetrics(w http.ResponseWriter, r *http.Request) {
	m, err := h.orders.Metrics(r.Context())
	if err != nil {
		handleError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, mapMetricsToResponse(m))
}

func (h *Handler) OrderHistory(w http.ResponseWriter, r *http.Request) {
	id, ok := idParam(w, r)
	if !ok {
		return
	}
	events, err := h.orders.History(r.Context(), id)
	if err != nil {
		handleError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, mapSlice(events, mapEventToResponse))
}
