package marketdata

import (
	"net/http"
	"strings"

	"github.com/gorilla/websocket"
)

// QuoteWS streams published ticks to websocket clients. An optional
// ?symbol=EURUSD query filters the stream to one instrument.
type QuoteWS struct {
	bus      *Bus
	upgrader websocket.Upgrader
}

func NewQuoteWS(bus *Bus, origin string) *QuoteWS {
	return &QuoteWS{
		bus: bus,
		upgrader: websocket.Upgrader{
			CheckOrigin: func(r *http.Request) bool { return allowOrigin(r, origin) },
		},
	}
}

func (h *QuoteWS) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		return
	}
	defer conn.Close()

	symbol := strings.ToUpper(strings.TrimSpace(r.URL.Query().Get("symbol")))
	ticks := h.bus.Subscribe()
	defer h.bus.Unsubscribe(ticks)

	done := make(chan struct{})
	go func() {
		defer close(done)
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}()
	for {
		select {
		case t, ok := <-ticks:
			if !ok {
				return
			}
			if symbol != "" && t.Symbol != symbol {
				continue
			}
			if err := conn.WriteJSON(t); err != nil {
				return
			}
		case <-done:
			return
		}
	}
}

func allowOrigin(r *http.Request, origin string) bool {
	if origin == "*" {
		return true
	}
	return strings.EqualFold(r.Header.Get("Origin"), origin)
}
