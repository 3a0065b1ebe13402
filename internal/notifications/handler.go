package notifications

import (
	"net/http"

	"github.com/SAMWELLMEDIA/MitheralFX-2/internal/httputil"
	"github.com/SAMWELLMEDIA/MitheralFX-2/internal/model"
)

type Handler struct {
	svc *Service
}

func NewHandler(svc *Service) *Handler {
	return &Handler{svc: svc}
}

func (h *Handler) List(w http.ResponseWriter, r *http.Request, userID string) {
	items := h.svc.ListForUser(r.Context(), userID)
	if items == nil {
		items = []*model.Notification{}
	}
	httputil.WriteJSON(w, http.StatusOK, items)
}

func (h *Handler) MarkRead(w http.ResponseWriter, r *http.Request, userID string) {
	var req struct {
		NotificationID string `json:"notification_id"`
	}
	if err := httputil.ReadJSON(r, &req); err != nil {
		httputil.WriteJSON(w, http.StatusBadRequest, httputil.ErrorResponse{Error: err.Error()})
		return
	}
	if err := h.svc.MarkRead(r.Context(), req.NotificationID, userID); err != nil {
		status := http.StatusInternalServerError
		if err == ErrNotFound {
			status = http.StatusNotFound
		}
		httputil.WriteJSON(w, status, httputil.ErrorResponse{Error: err.Error()})
		return
	}
	httputil.WriteJSON(w, http.StatusOK, map[string]bool{"ok": true})
}
