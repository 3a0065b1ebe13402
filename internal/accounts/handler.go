package accounts

import (
	"errors"
	"net/http"

	"github.com/SAMWELLMEDIA/MitheralFX-2/internal/httputil"
)

type Handler struct {
	svc *Service
}

func NewHandler(svc *Service) *Handler {
	return &Handler{svc: svc}
}

func (h *Handler) Me(w http.ResponseWriter, r *http.Request, userID string) {
	acc, err := h.svc.Get(r.Context(), userID)
	if err != nil {
		httputil.WriteJSON(w, statusFor(err), httputil.ErrorResponse{Error: err.Error()})
		return
	}
	httputil.WriteJSON(w, http.StatusOK, acc.Profile())
}

func (h *Handler) UpdateMe(w http.ResponseWriter, r *http.Request, userID string) {
	var req struct {
		FirstName *string `json:"first_name"`
		LastName  *string `json:"last_name"`
		Phone     *string `json:"phone"`
		Country   *string `json:"country"`
	}
	if err := httputil.ReadJSON(r, &req); err != nil {
		httputil.WriteJSON(w, http.StatusBadRequest, httputil.ErrorResponse{Error: err.Error()})
		return
	}
	acc, err := h.svc.UpdateProfile(r.Context(), userID, ProfileUpdate{
		FirstName: req.FirstName,
		LastName:  req.LastName,
		Phone:     req.Phone,
		Country:   req.Country,
	})
	if err != nil {
		httputil.WriteJSON(w, statusFor(err), httputil.ErrorResponse{Error: err.Error()})
		return
	}
	httputil.WriteJSON(w, http.StatusOK, acc.Profile())
}

func (h *Handler) Balances(w http.ResponseWriter, r *http.Request, userID string) {
	snapshot, err := h.svc.Balances(r.Context(), userID)
	if err != nil {
		httputil.WriteJSON(w, statusFor(err), httputil.ErrorResponse{Error: err.Error()})
		return
	}
	httputil.WriteJSON(w, http.StatusOK, snapshot)
}

func statusFor(err error) int {
	switch {
	case errors.Is(err, ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, ErrInsufficientFunds), errors.Is(err, ErrEmailTaken):
		return http.StatusBadRequest
	}
	return http.StatusInternalServerError
}
