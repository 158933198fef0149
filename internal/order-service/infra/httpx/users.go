package httpx

import (
	"net/http"

	"github.com/jcmexdev/silkroad-orders/internal/order-service/app"
	"github.com/jcmexdev/silkroad-orders/internal/order-service/auth"
)

func (h *Handler) Register(w http.ResponseWriter, r *http.Request) {
	var req RegisterRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	u, pair, err := h.users.Register(r.Context(), app.RegisterInput{
		Username:  req.Username,
		Email:     req.Email,
		Password:  req.Password,
		Password2: req.Password2,
		FirstName: req.FirstName,
		LastName:  req.LastName,
	})
	if err != nil {
		handleError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, RegisterResponse{User: mapUserToResponse(u), Pair: pair})
}

// ObtainToken exchanges username and password for an access/refresh pair.
func (h *Handler) ObtainToken(w http.ResponseWriter, r *http.Request) {
	var req TokenRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	pair, err := h.users.Login(r.Context(), req.Username, req.Password)
	if err != nil {
		handleError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, pair)
}

func (h *Handler) RefreshToken(w http.ResponseWriter, r *http.Request) {
	var req RefreshRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	access, err := h.users.Refresh(r.Context(), req.Refresh)
	if err != nil {
		handleError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, AccessResponse{Access: access})
}

func (h *Handler) Profile(w http.ResponseWriter, r *http.Request) {
	u := auth.UserFromContext(r.Context())
	if u == nil {
		writeError(w, http.StatusUnauthorized, "Authentication credentials were not provided.")
		return
	}
	writeJSON(w, http.StatusOK, mapUserToResponse(u))
}

// DeleteProfile removes the caller's account.
func (h *Handler) DeleteProfile(w http.ResponseWriter, r *http.Request) {
	u := auth.UserFromContext(r.Context())
	if u == nil {
		writeError(w, http.StatusUnauthorized, "Authentication credentials were not provided.")
		return
	}
	if err := h.users.Delete(r.Context(), u); err != nil {
		handleError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
