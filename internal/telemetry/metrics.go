package telemetry

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

var (
	ReplaysTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{Name: "replay_runs_total", Help: "Completed replays by outcome"},
		[]string{"status"},
	)
	TradesTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{Name: "replay_trades_total", Help: "Closed trades by exit reason"},
		[]string{"exit_reason"},
	)
	OrdersTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{Name: "replay_orders_total", Help: "Limit orders by lifecycle event"},
		[]string{"event"},
	)
	SweepCombinationsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{Name: "sweep_combinations_total", Help: "Sweep combinations by outcome"},
		[]string{"status"},
	)
	ReplayDuration = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "replay_duration_seconds",
			Help:    "Wall time of one replay",
			Buckets: prometheus.ExponentialBuckets(0.001, 4, 8),
		},
	)
)

func init() {
	prometheus.MustRegister(ReplaysTotal, TradesTotal, OrdersTotal, SweepCombinationsTotal, ReplayDuration)
}

func orUnknown(s string) string {
	if s == "" {
		return "unknown"
	}
	return s
}

// RecordReplay records a finished replay and how long it took.
func RecordReplay(status string, elapsed time.Duration) {
	ReplaysTotal.WithLabelValues(orUnknown(status)).Inc()
	ReplayDuration.Observe(elapsed.Seconds())
}

// RecordTrade increments the closed trade counter.
func RecordTrade(exitReason string) {
	TradesTotal.WithLabelValues(orUnknown(exitReason)).Inc()
}

// RecordOrder increments the order lifecycle counter (placed, filled, expired).
func RecordOrder(event string) {
	OrdersTotal.WithLabelValues(orUnknown(event)).Inc()
}

// RecordCombination increments the sweep outcome counter.
func RecordCombination(status string) {
	SweepCombinationsTotal.WithLabelValues(orUnknown(status)).Inc()
}
