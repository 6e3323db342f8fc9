package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

// Fetch outcome label values.
const (
	OutcomeOK          = "ok"
	OutcomeNotModified = "not_modified"
	OutcomeError       = "error"
	OutcomeSuperseded  = "superseded"
)

// EngineMetrics instruments the order sync engine.
type EngineMetrics struct {
	fetches       *prometheus.CounterVec
	fetchDuration prometheus.Histogram
	pushEvents    *prometheus.CounterVec
	reconnects    prometheus.Counter
	cacheSize     prometheus.Gauge
	connState     prometheus.Gauge
}

// New creates engine metrics registered on the default registerer.
func New() *EngineMetrics {
	return NewWithRegisterer(prometheus.DefaultRegisterer)
}

// NewWithRegisterer creates engine metrics registered on the given
// registerer. A nil registerer falls back to the default one.
func NewWithRegisterer(registerer prometheus.Registerer) *EngineMetrics {
	if registerer == nil {
		registerer = prometheus.DefaultRegisterer
	}

	m := &EngineMetrics{
		fetches: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "ordersync_fetches_total",
			Help: "Total order fetches by outcome",
		}, []string{"outcome"}),
		fetchDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "ordersync_fetch_duration_seconds",
			Help:    "Duration of order fetches in seconds",
			Buckets: prometheus.DefBuckets,
		}),
		pushEvents: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "ordersync_push_events_total",
			Help: "Total push channel events by message type",
		}, []string{"type"}),
		reconnects: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "ordersync_reconnect_attempts_total",
			Help: "Total push channel reconnect attempts",
		}),
		cacheSize: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "ordersync_cache_orders",
			Help: "Number of orders currently cached",
		}),
		connState: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "ordersync_connection_open",
			Help: "1 when the push channel is open, 0 otherwise",
		}),
	}

	registerer.MustRegister(
		m.fetches,
		m.fetchDuration,
		m.pushEvents,
		m.reconnects,
		m.cacheSize,
		m.connState,
	)

	return m
}

// ObserveFetch records one fetch with its outcome and duration.
func (m *EngineMetrics) ObserveFetch(outcome string, seconds float64) {
	m.fetches.WithLabelValues(outcome).Inc()
	m.fetchDuration.Observe(seconds)
}

// PushEvent records one push channel event.
func (m *EngineMetrics) PushEvent(msgType string) {
	m.pushEvents.WithLabelValues(msgType).Inc()
}

// ReconnectAttempt records one reconnect attempt.
func (m *EngineMetrics) ReconnectAttempt() {
	m.reconnects.Inc()
}

// SetCacheSize records the current cache size.
func (m *EngineMetrics) SetCacheSize(n int) {
	m.cacheSize.Set(float64(n))
}

// SetConnectionOpen records whether the push channel is open.
func (m *EngineMetrics) SetConnectionOpen(open bool) {
	if open {
		m.connState.Set(1)
		return
	}
	m.connState.Set(0)
}
