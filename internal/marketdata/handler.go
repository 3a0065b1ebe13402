package marketdata

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/SAMWELLMEDIA/MitheralFX-2/internal/httputil"

	"github.com/go-chi/chi/v5"
)

type Handler struct {
	oracle *SyntheticOracle
	WS     *QuoteWS
}

func NewHandler(oracle *SyntheticOracle, ws *QuoteWS) *Handler {
	return &Handler{oracle: oracle, WS: ws}
}

// Prices quotes every configured symbol once.
func (h *Handler) Prices(w http.ResponseWriter, r *http.Request) {
	out := make(map[string]string)
	for _, sym := range h.oracle.Symbols() {
		price, err := h.oracle.Quote(r.Context(), sym)
		if err != nil {
			continue
		}
		out[sym] = strconv.FormatFloat(price, 'f', h.oracle.Precision(sym), 64)
	}
	httputil.WriteJSON(w, http.StatusOK, out)
}

func (h *Handler) Price(w http.ResponseWriter, r *http.Request) {
	symbol := strings.ToUpper(strings.TrimSpace(chi.URLParam(r, "symbol")))
	if symbol == "" {
		httputil.WriteJSON(w, http.StatusBadRequest, httputil.ErrorResponse{Error: "symbol required"})
		return
	}
	price, err := h.oracle.Quote(r.Context(), symbol)
	if err != nil {
		httputil.WriteJSON(w, http.StatusInternalServerError, httputil.ErrorResponse{Error: "quote unavailable"})
		return
	}
	httputil.WriteJSON(w, http.StatusOK, map[string]any{
		"symbol": symbol,
		"price":  strconv.FormatFloat(price, 'f', h.oracle.Precision(symbol), 64),
	})
}
