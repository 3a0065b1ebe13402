package httpserver

import (
	"net/http"

	"github.com/SAMWELLMEDIA/MitheralFX-2/internal/accounts"
	"github.com/SAMWELLMEDIA/MitheralFX-2/internal/admin"
	"github.com/SAMWELLMEDIA/MitheralFX-2/internal/auth"
	"github.com/SAMWELLMEDIA/MitheralFX-2/internal/funding"
	"github.com/SAMWELLMEDIA/MitheralFX-2/internal/marketdata"
	"github.com/SAMWELLMEDIA/MitheralFX-2/internal/notifications"
	"github.com/SAMWELLMEDIA/MitheralFX-2/internal/positions"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

type RouterDeps struct {
	AuthHandler          *auth.Handler
	AccountsHandler      *accounts.Handler
	PositionsHandler     *positions.Handler
	FundingHandler       *funding.Handler
	NotificationsHandler *notifications.Handler
	MarketHandler        *marketdata.Handler
	AdminHandler         *admin.Handler
	AuthService          *auth.Service
	InternalToken        string
}

func NewRouter(d RouterDeps) http.Handler {
	r := chi.NewRouter()

	// CORS middleware for development
	r.Use(func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			origin := r.Header.Get("Origin")
			if origin == "" {
				origin = "*"
			}
			w.Header().Set("Access-Control-Allow-Origin", origin)
			w.Header().Set("Access-Control-Allow-Methods", "GET, POST, PUT, DELETE, OPTIONS")
			w.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization, X-Internal-Token")
			w.Header().Set("Access-Control-Allow-Credentials", "true")
			if r.Method == "OPTIONS" {
				w.WriteHeader(http.StatusOK)
				return
			}
			next.ServeHTTP(w, r)
		})
	})

	r.Use(SecurityHeaders)
	r.Use(RateLimitMiddleware)
	r.Use(MetricsMiddleware)

	r.Get("/health", func(w http.ResponseWriter, r *http.Request) { w.WriteHeader(http.StatusOK) })
	r.Method(http.MethodGet, "/metrics", promhttp.Handler())

	r.Route("/v1", func(r chi.Router) {
		r.Route("/auth", func(r chi.Router) {
			r.Post("/register", d.AuthHandler.Register)
			r.Post("/login", d.AuthHandler.Login)
		})
		r.Get("/market/prices", d.MarketHandler.Prices)
		r.Get("/market/price/{symbol}", d.MarketHandler.Price)
		r.Get("/market/ws", d.MarketHandler.WS.ServeHTTP)
		r.Group(func(r chi.Router) {
			r.Use(WithAuth(d.AuthService))
			r.Get("/me", withUserID(d.AccountsHandler.Me))
			r.Put("/me", withUserID(d.AccountsHandler.UpdateMe))
			r.Post("/me/password", withUserID(d.AuthHandler.ChangePassword))
			r.Get("/balances", withUserID(d.AccountsHandler.Balances))
			r.Post("/trades", withUserID(d.PositionsHandler.Open))
			r.Post("/trades/{id}/close", withUserID(func(w http.ResponseWriter, r *http.Request, userID string) {
				d.PositionsHandler.Close(w, r, userID, chi.URLParam(r, "id"))
			}))
			r.Get("/trades/open", withUserID(d.PositionsHandler.OpenTrades))
			r.Get("/trades/history", withUserID(d.PositionsHandler.History))
			r.Post("/deposits", withUserID(d.FundingHandler.RequestDeposit))
			r.Get("/deposits/history", withUserID(d.FundingHandler.DepositHistory))
			r.Post("/withdrawals", withUserID(d.FundingHandler.RequestWithdrawal))
			r.Get("/withdrawals/history", withUserID(d.FundingHandler.WithdrawalHistory))
			r.Get("/notifications", withUserID(d.NotificationsHandler.List))
			r.Post("/notifications/read", withUserID(d.NotificationsHandler.MarkRead))
		})
		r.Route("/admin", func(r chi.Router) {
			r.Use(InternalAuth(d.InternalToken))
			r.Post("/deposits/process", d.AdminHandler.ProcessDeposit)
			r.Get("/stats", d.AdminHandler.Stats)
			r.Get("/users", d.AdminHandler.Users)
			r.Get("/trades", d.AdminHandler.Trades)
			r.Get("/deposits", d.AdminHandler.Deposits)
			r.Get("/withdrawals", d.AdminHandler.Withdrawals)
			r.Get("/activity", d.AdminHandler.Activity)
		})
	})
	return r
}
