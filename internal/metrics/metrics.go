// Package metrics exposes the platform's Prometheus instruments. Counters
// are registered at init and incremented by the owning services.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

var (
	TradesOpened = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "trades_opened_total",
		Help: "Positions opened, by account type.",
	}, []string{"account_type"})

	TradesClosed = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "trades_closed_total",
		Help: "Positions closed, by settlement result.",
	}, []string{"result"})

	DepositsRequested = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "deposits_requested_total",
		Help: "Deposit requests recorded.",
	})

	DepositsProcessed = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "deposits_processed_total",
		Help: "Deposit requests processed, by final status.",
	}, []string{"status"})

	WithdrawalsRequested = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "withdrawals_requested_total",
		Help: "Withdrawal requests recorded.",
	})

	HTTPRequests = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "http_requests_total",
		Help: "HTTP requests served, by method, route and status code.",
	}, []string{"method", "route", "code"})
)

func init() {
	prometheus.MustRegister(
		TradesOpened,
		TradesClosed,
		DepositsRequested,
		DepositsProcessed,
		WithdrawalsRequested,
		HTTPRequests,
	)
}
