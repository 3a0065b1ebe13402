// Package admin is the operator surface: deposit processing, platform
// statistics and raw listings. All routes sit behind the internal token.
package admin

import (
	"fmt"
	"net/http"
	"sort"
	"time"

	"github.com/SAMWELLMEDIA/MitheralFX-2/internal/accounts"
	"github.com/SAMWELLMEDIA/MitheralFX-2/internal/funding"
	"github.com/SAMWELLMEDIA/MitheralFX-2/internal/httputil"
	"github.com/SAMWELLMEDIA/MitheralFX-2/internal/model"
	"github.com/SAMWELLMEDIA/MitheralFX-2/internal/notifications"
	"github.com/SAMWELLMEDIA/MitheralFX-2/internal/positions"
	"github.com/SAMWELLMEDIA/MitheralFX-2/internal/types"

	"go.uber.org/zap"
)

type Handler struct {
	ledger    *accounts.Service
	positions *positions.Service
	funding   *funding.Service
	notify    *notifications.Service
	log       *zap.Logger
}

func NewHandler(ledger *accounts.Service, pos *positions.Service, fund *funding.Service, notify *notifications.Service, log *zap.Logger) *Handler {
	return &Handler{ledger: ledger, positions: pos, funding: fund, notify: notify, log: log}
}

// ProcessDeposit is the external approval authority for deposits. Approval
// credits the account ledger exactly once; the user is notified either way.
func (h *Handler) ProcessDeposit(w http.ResponseWriter, r *http.Request) {
	var req struct {
		DepositID string `json:"deposit_id"`
		Status    string `json:"status"`
	}
	if err := httputil.ReadJSON(r, &req); err != nil {
		httputil.WriteJSON(w, http.StatusBadRequest, httputil.ErrorResponse{Error: err.Error()})
		return
	}
	m, applied, err := h.funding.ProcessDeposit(r.Context(), req.DepositID, types.MovementStatus(req.Status))
	if err != nil {
		status := http.StatusBadRequest
		if err == funding.ErrNotFound {
			status = http.StatusNotFound
		}
		httputil.WriteJSON(w, status, httputil.ErrorResponse{Error: err.Error()})
		return
	}
	if applied {
		title := "Deposit rejected"
		body := fmt.Sprintf("Your deposit of %s was rejected.", m.Amount.StringFixed(2))
		if m.Status == types.MovementStatusCompleted {
			title = "Deposit completed"
			body = fmt.Sprintf("Your deposit of %s was approved. %s has been credited to your live account.",
				m.Amount.StringFixed(2), m.Amount.Sub(m.Fee).Add(m.Bonus).StringFixed(2))
		}
		if _, err := h.notify.Notify(r.Context(), m.UserID, title, body); err != nil {
			h.log.Warn("deposit notification failed", zap.String("deposit_id", m.ID), zap.Error(err))
		}
	}
	httputil.WriteJSON(w, http.StatusOK, map[string]any{
		"movement": m,
		"applied":  applied,
	})
}

func (h *Handler) Stats(w http.ResponseWriter, r *http.Request) {
	users := h.ledger.List(r.Context())
	trades := h.positions.ListAll(r.Context())
	deposits := h.funding.ListDeposits(r.Context())
	withdrawals := h.funding.ListWithdrawals(r.Context())
	pendingDeposits, pendingWithdrawals := h.funding.PendingCounts(r.Context())

	open := 0
	for _, t := range trades {
		if t.Status == types.TradeStatusOpen {
			open++
		}
	}
	httputil.WriteJSON(w, http.StatusOK, map[string]int{
		"total_users":         len(users),
		"total_trades":        len(trades),
		"open_trades":         open,
		"closed_trades":       len(trades) - open,
		"total_deposits":      len(deposits),
		"total_withdrawals":   len(withdrawals),
		"pending_deposits":    pendingDeposits,
		"pending_withdrawals": pendingWithdrawals,
	})
}

func (h *Handler) Users(w http.ResponseWriter, r *http.Request) {
	users := h.ledger.List(r.Context())
	out := make([]model.Profile, 0, len(users))
	for _, u := range users {
		out = append(out, u.Profile())
	}
	httputil.WriteJSON(w, http.StatusOK, out)
}

func (h *Handler) Trades(w http.ResponseWriter, r *http.Request) {
	httputil.WriteJSON(w, http.StatusOK, h.positions.ListAll(r.Context()))
}

func (h *Handler) Deposits(w http.ResponseWriter, r *http.Request) {
	httputil.WriteJSON(w, http.StatusOK, h.funding.ListDeposits(r.Context()))
}

func (h *Handler) Withdrawals(w http.ResponseWriter, r *http.Request) {
	httputil.WriteJSON(w, http.StatusOK, h.funding.ListWithdrawals(r.Context()))
}

type activityItem struct {
	Kind   string    `json:"kind"`
	At     time.Time `json:"at"`
	UserID string    `json:"user_id"`
	Detail any       `json:"detail"`
}

const activityLimit = 50

// Activity merges recent trades, deposits and withdrawals into one
// descending feed.
func (h *Handler) Activity(w http.ResponseWriter, r *http.Request) {
	items := make([]activityItem, 0, 64)
	for _, t := range h.positions.ListAll(r.Context()) {
		items = append(items, activityItem{Kind: "trade", At: t.OpenTime, UserID: t.UserID, Detail: t})
	}
	for _, m := range h.funding.ListDeposits(r.Context()) {
		items = append(items, activityItem{Kind: "deposit", At: m.CreatedAt, UserID: m.UserID, Detail: m})
	}
	for _, m := range h.funding.ListWithdrawals(r.Context()) {
		items = append(items, activityItem{Kind: "withdrawal", At: m.CreatedAt, UserID: m.UserID, Detail: m})
	}
	sort.Slice(items, func(i, j int) bool { return items[i].At.After(items[j].At) })
	if len(items) > activityLimit {
		items = items[:activityLimit]
	}
	httputil.WriteJSON(w, http.StatusOK, items)
}
