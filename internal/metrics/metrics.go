// Package metrics exposes the service's Prometheus gauges and counters,
// following the teacher's NewXMetrics(registry, logger)-returns-a-struct
// idiom (internal/metrics/websocket_metrics.go) generalized from WebSocket
// connection counters to the order-book submission path.
package metrics

import "github.com/prometheus/client_golang/prometheus"

// OrderBookMetrics collects the counters and gauges the submission
// pipeline, matching engine, and depth stream update on every operation.
type OrderBookMetrics struct {
	OrdersSubmitted   *prometheus.CounterVec
	OrdersRejected    *prometheus.CounterVec
	TradesExecuted    prometheus.Counter
	SubmitLatency     prometheus.Histogram
	ActiveSubscribers prometheus.Gauge
	SnapshotsDropped  prometheus.Counter
}

// NewOrderBookMetrics registers every collector against registry and
// returns the struct handlers use to record observations.
func NewOrderBookMetrics(registry prometheus.Registerer) *OrderBookMetrics {
	m := &OrderBookMetrics{
		OrdersSubmitted: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "orderbook_orders_submitted_total",
			Help: "Orders accepted by the submission pipeline, labeled by side and order type.",
		}, []string{"side", "order_type"}),
		OrdersRejected: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "orderbook_orders_rejected_total",
			Help: "Orders rejected before or during submission, labeled by error code.",
		}, []string{"code"}),
		TradesExecuted: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "orderbook_trades_executed_total",
			Help: "Trades emitted by the matching engine.",
		}),
		SubmitLatency: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "orderbook_submit_latency_seconds",
			Help:    "End-to-end latency of the submission pipeline from validation through broadcast.",
			Buckets: prometheus.DefBuckets,
		}),
		ActiveSubscribers: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "orderbook_depth_subscribers",
			Help: "Live depth-stream WebSocket subscribers.",
		}),
		SnapshotsDropped: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "orderbook_depth_snapshots_dropped_total",
			Help: "Depth snapshots discarded for lagging subscribers.",
		}),
	}

	registry.MustRegister(
		m.OrdersSubmitted,
		m.OrdersRejected,
		m.TradesExecuted,
		m.SubmitLatency,
		m.ActiveSubscribers,
		m.SnapshotsDropped,
	)
	return m
}

// NewRegistry builds the registry the metrics HTTP handler serves,
// following the teacher's NewPrometheusRegistry provider
// (internal/metrics/metrics_module.go).
func NewRegistry() *prometheus.Registry {
	return prometheus.NewRegistry()
}
