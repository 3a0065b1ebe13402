package positions

import (
	"errors"
	"net/http"

	"github.com/SAMWELLMEDIA/MitheralFX-2/internal/httputil"
	"github.com/SAMWELLMEDIA/MitheralFX-2/internal/model"
	"github.com/SAMWELLMEDIA/MitheralFX-2/internal/types"

	"github.com/shopspring/decimal"
)

type Handler struct {
	svc *Service
}

func NewHandler(svc *Service) *Handler {
	return &Handler{svc: svc}
}

func (h *Handler) Open(w http.ResponseWriter, r *http.Request, userID string) {
	var req struct {
		Symbol      string          `json:"symbol"`
		Direction   string          `json:"direction"`
		Amount      decimal.Decimal `json:"amount"`
		Leverage    string          `json:"leverage"`
		AccountType string          `json:"account_type"`
	}
	if err := httputil.ReadJSON(r, &req); err != nil {
		httputil.WriteJSON(w, http.StatusBadRequest, httputil.ErrorResponse{Error: err.Error()})
		return
	}
	res, err := h.svc.Open(r.Context(), OpenRequest{
		UserID:      userID,
		Symbol:      req.Symbol,
		Direction:   types.TradeDirection(req.Direction),
		Amount:      req.Amount,
		Leverage:    req.Leverage,
		AccountType: types.AccountType(req.AccountType),
	})
	if err != nil {
		httputil.WriteJSON(w, statusFor(err), httputil.ErrorResponse{Error: err.Error()})
		return
	}
	httputil.WriteJSON(w, http.StatusCreated, map[string]any{
		"trade":   res.Trade,
		"balance": res.Balance,
	})
}

func (h *Handler) Close(w http.ResponseWriter, r *http.Request, userID, tradeID string) {
	res, err := h.svc.Close(r.Context(), tradeID, userID)
	if err != nil {
		httputil.WriteJSON(w, statusFor(err), httputil.ErrorResponse{Error: err.Error()})
		return
	}
	httputil.WriteJSON(w, http.StatusOK, map[string]any{
		"trade":   res.Trade,
		"pnl":     res.PnL,
		"balance": res.Balance,
	})
}

func (h *Handler) OpenTrades(w http.ResponseWriter, r *http.Request, userID string) {
	trades := h.svc.ListOpen(r.Context(), userID)
	if trades == nil {
		trades = []*model.Trade{}
	}
	httputil.WriteJSON(w, http.StatusOK, trades)
}

func (h *Handler) History(w http.ResponseWriter, r *http.Request, userID string) {
	trades := h.svc.ListHistory(r.Context(), userID)
	if trades == nil {
		trades = []*model.Trade{}
	}
	httputil.WriteJSON(w, http.StatusOK, trades)
}

func statusFor(err error) int {
	switch {
	case errors.Is(err, ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, ErrInsufficientMargin),
		errors.Is(err, ErrInvalidLeverage),
		errors.Is(err, ErrInvalidAmount),
		errors.Is(err, ErrInvalidDirection),
		errors.Is(err, ErrInvalidAccountType):
		return http.StatusBadRequest
	}
	return http.StatusInternalServerError
}
