package funding

import (
	"errors"
	"net/http"

	"github.com/SAMWELLMEDIA/MitheralFX-2/internal/accounts"
	"github.com/SAMWELLMEDIA/MitheralFX-2/internal/httputil"
	"github.com/SAMWELLMEDIA/MitheralFX-2/internal/model"

	"github.com/shopspring/decimal"
)

type Handler struct {
	svc *Service
}

func NewHandler(svc *Service) *Handler {
	return &Handler{svc: svc}
}

func (h *Handler) RequestDeposit(w http.ResponseWriter, r *http.Request, userID string) {
	var req struct {
		Amount  decimal.Decimal `json:"amount"`
		Method  string          `json:"method"`
		Details string          `json:"details"`
	}
	if err := httputil.ReadJSON(r, &req); err != nil {
		httputil.WriteJSON(w, http.StatusBadRequest, httputil.ErrorResponse{Error: err.Error()})
		return
	}
	m, err := h.svc.RequestDeposit(r.Context(), userID, req.Amount, req.Method, req.Details)
	if err != nil {
		httputil.WriteJSON(w, statusFor(err), httputil.ErrorResponse{Error: err.Error()})
		return
	}
	httputil.WriteJSON(w, http.StatusCreated, m)
}

func (h *Handler) RequestWithdrawal(w http.ResponseWriter, r *http.Request, userID string) {
	var req struct {
		Amount  decimal.Decimal `json:"amount"`
		Method  string          `json:"method"`
		Details string          `json:"details"`
	}
	if err := httputil.ReadJSON(r, &req); err != nil {
		httputil.WriteJSON(w, http.StatusBadRequest, httputil.ErrorResponse{Error: err.Error()})
		return
	}
	m, err := h.svc.RequestWithdrawal(r.Context(), userID, req.Amount, req.Method, req.Details)
	if err != nil {
		httputil.WriteJSON(w, statusFor(err), httputil.ErrorResponse{Error: err.Error()})
		return
	}
	httputil.WriteJSON(w, http.StatusCreated, m)
}

func (h *Handler) DepositHistory(w http.ResponseWriter, r *http.Request, userID string) {
	writeMovements(w, h.svc.DepositHistory(r.Context(), userID))
}

func (h *Handler) WithdrawalHistory(w http.ResponseWriter, r *http.Request, userID string) {
	writeMovements(w, h.svc.WithdrawalHistory(r.Context(), userID))
}

func writeMovements(w http.ResponseWriter, ms []*model.CashMovement) {
	if ms == nil {
		ms = []*model.CashMovement{}
	}
	httputil.WriteJSON(w, http.StatusOK, ms)
}

func statusFor(err error) int {
	switch {
	case errors.Is(err, ErrNotFound), errors.Is(err, accounts.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, ErrInvalidAmount),
		errors.Is(err, ErrInvalidStatus),
		errors.Is(err, accounts.ErrInsufficientFunds):
		return http.StatusBadRequest
	}
	return http.StatusInternalServerError
}
