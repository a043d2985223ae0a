package bot

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var evaluationsTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: "dipper",
		Subsystem: "strategy",
		Name:      "evaluations_total",
		Help:      "Signal evaluations by symbol and outcome",
	},
	[]string{"symbol", "signal"},
)

var ordersTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: "dipper",
		Subsystem: "executor",
		Name:      "orders_total",
		Help:      "Orders placed by side",
	},
	[]string{"symbol", "side"},
)

var pollErrorsTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: "dipper",
		Subsystem: "bot",
		Name:      "poll_errors_total",
		Help:      "Market data or evaluation failures per symbol",
	},
	[]string{"symbol"},
)

var openPositions = promauto.NewGauge(
	prometheus.GaugeOpts{
		Namespace: "dipper",
		Subsystem: "strategy",
		Name:      "open_positions",
		Help:      "Currently open positions",
	},
)

var paperBalance = promauto.NewGauge(
	prometheus.GaugeOpts{
		Namespace: "dipper",
		Subsystem: "executor",
		Name:      "paper_balance_usd",
		Help:      "Paper quote balance",
	},
)

var pollDuration = promauto.NewHistogram(
	prometheus.HistogramOpts{
		Namespace: "dipper",
		Subsystem: "bot",
		Name:      "poll_duration_seconds",
		Help:      "Wall time of one full polling cycle",
		Buckets:   []float64{0.1, 0.25, 0.5, 1, 2, 5, 10, 30},
	},
)
