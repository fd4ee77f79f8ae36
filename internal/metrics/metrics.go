package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	TicksTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{Name: "ticks_total", Help: "Count of market ticks processed"},
		[]string{"symbol"},
	)
	OrdersTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{Name: "orders_total", Help: "Orders submitted by outcome"},
		[]string{"symbol", "side", "status"},
	)
	ExitsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{Name: "exits_total", Help: "Positions closed by exit reason"},
		[]string{"symbol", "reason"},
	)
	OpenPositions = prometheus.NewGauge(
		prometheus.GaugeOpts{Name: "open_positions", Help: "Currently open positions"},
	)
	AccountBalance = prometheus.NewGauge(
		prometheus.GaugeOpts{Name: "account_balance_usd", Help: "Available quote balance"},
	)
	TickErrors = prometheus.NewCounterVec(
		prometheus.CounterOpts{Name: "tick_errors_total", Help: "Per-symbol tick failures by kind"},
		[]string{"symbol", "kind"},
	)
)

func init() {
	prometheus.MustRegister(TicksTotal, OrdersTotal, ExitsTotal, OpenPositions, AccountBalance, TickErrors)
}

func Serve(addr string) *http.Server {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())
	srv := &http.Server{Addr: addr, Handler: mux}
	go func() { _ = srv.ListenAndServe() }()
	return srv
}
