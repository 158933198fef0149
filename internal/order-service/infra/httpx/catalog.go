package httpx

import (
	"net/http"
)

func (h *Handler) ListCustomers(w http.ResponseWriter, r *http.Request) {
	customers, err := h.catalog.ListCustomers(r.Context())
	if err != nil {
		handleError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, mapSlice(customers, mapCustomerToResponse))
}

func (h *Handler) CreateCustomer(w http.ResponseWriter, r *http.Request) {
	var req CustomerRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	c, err := h.catalog.CreateCustomer(r.Context(), req.toInput())
	if err != nil {
		handleError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, mapCustomerToResponse(c))
}

func (h *Handler) GetCustomer(w http.ResponseWriter, r *http.Request) {
	id, ok := idParam(w, r)
	if !ok {
		return
	}
	c, err := h.catalog.GetCustomer(r.Context(), id)
	if err != nil {
		handleError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, mapCustomerToResponse(c))
}

func (h *Handler) UpdateCustomer(w http.ResponseWriter, r *http.Request) {
	h.updateCustomer(w, r, false)
}

func (h *Handler) PatchCustomer(w http.ResponseWriter, r *http.Request) {
	h.updateCustomer(w, r, true)
}

func (h *Handler) updateCustomer(w http.ResponseWriter, r *http.Request, partial bool) {
	id, ok := idParam(w, r)
	if !ok {
		return
	}
	var req CustomerRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	c, err := h.catalog.UpdateCustomer(r.Context(), id, req.toInput(), partial)
	if err != nil {
		handleError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, mapCustomerToResponse(c))
}

func (h *Handler) DeleteCustomer(w http.ResponseWriter, r *http.Request) {
	id, ok := idParam(w, r)
	if !ok {
		return
	}
	if err := h.catalog.DeleteCustomer(r.Context(), id); err != nil {
		handleError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) ListProducts(w http.ResponseWriter, r *http.Request) {
	products, err := h.catalog.ListProducts(r.Context())
	if err != nil {
		handleError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, mapSlice(products, mapProductToResponse))
}

func (h *Handler) LowStockProducts(w http.ResponseWriter, r *http.Request) {
	products, err := h.catalog.LowStock(r.Context())
	if err != nil {
		handleError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, mapSlice(products, mapProductToResponse))
}

func (h *Handler) CreateProduct(w http.ResponseWriter, r *http.Request) {
	var req ProductRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	p, err := h.catalog.CreateProduct(r.Context(), req.toInput())
	if err != nil {
		handleError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, mapProductToResponse(p))
}

func (h *Handler) GetProduct(w http.ResponseWriter, r *http.Request) {
	id, ok := idParam(w, r)
	if !ok {
		return
	}
	p, err := h.catalog.GetProduct(r.Context(), id)
	if err != nil {
		handleError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, mapProductToResponse(p))
}

func (h *Handler) UpdateProduct(w http.ResponseWriter, r *http.Request) {
	h.updateProduct(w, r, false)
}

func (h *Handler) PatchProduct(w http.ResponseWriter, r *http.Request) {
	h.updateProduct(w, r, true)
}

func (h *Handler) updateProduct(w http.ResponseWriter, r *http.Request, partial bool) {
	id, ok := idParam(w, r)
	if !ok {
		return
	}
	var req ProductRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	p, err := h.catalog.UpdateProduct(r.Context(), id, req.toInput(), partial)
	if err != nil {
		handleError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, mapProductToResponse(p))
}

func (h *Handler) DeleteProduct(w http.ResponseWriter, r *http.Request) {
	id, ok := idParam(w, r)
	if !ok {
		return
	}
	if err := h.catalog.DeleteProduct(r.Context(), id); err != nil {
		handleError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
