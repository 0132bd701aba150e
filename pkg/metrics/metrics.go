// Package metrics exposes prometheus collectors for the plan engine and
// the balance oracle.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds the collectors shared across services
type Metrics struct {
	engineOps        *prometheus.CounterVec
	engineOpDuration *prometheus.HistogramVec
	oracleCacheHits  prometheus.Counter
	oracleCacheMiss  prometheus.Counter
	oracleFallbacks  prometheus.Counter
	activePlans      prometheus.Gauge
}

// New creates a metrics collector registered with the given registerer.
// Pass prometheus.NewRegistry() in tests to avoid duplicate registration.
func New(namespace string, reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)
	return &Metrics{
		engineOps: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "plan_engine_operations_total",
				Help:      "Plan engine operations by kind and outcome",
			},
			[]string{"operation", "outcome"},
		),
		engineOpDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "plan_engine_operation_duration_seconds",
				Help:      "Duration of plan engine operations",
				Buckets:   []float64{.001, .005, .01, .025, .05, .1, .25, .5, 1},
			},
			[]string{"operation"},
		),
		oracleCacheHits: factory.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "oracle_cache_hits_total",
			Help:      "Balance oracle cache hits",
		}),
		oracleCacheMiss: factory.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "oracle_cache_misses_total",
			Help:      "Balance oracle cache misses",
		}),
		oracleFallbacks: factory.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "oracle_zero_balance_fallbacks_total",
			Help:      "Oracle reads degraded to the zero-balance fallback",
		}),
		activePlans: factory.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "active_plans",
			Help:      "Number of active investment plans",
		}),
	}
}

// ObserveEngineOp records one engine operation with its outcome and duration
func (m *Metrics) ObserveEngineOp(operation, outcome string, elapsed time.Duration) {
	if m == nil {
		return
	}
	m.engineOps.WithLabelValues(operation, outcome).Inc()
	m.engineOpDuration.WithLabelValues(operation).Observe(elapsed.Seconds())
}

// OracleCacheHit records a cache hit
func (m *Metrics) OracleCacheHit() {
	if m == nil {
		return
	}
	m.oracleCacheHits.Inc()
}

// OracleCacheMiss records a cache miss
func (m *Metrics) OracleCacheMiss() {
	if m == nil {
		return
	}
	m.oracleCacheMiss.Inc()
}

// OracleFallback records a zero-balance soft failure
func (m *Metrics) OracleFallback() {
	if m == nil {
		return
	}
	m.oracleFallbacks.Inc()
}

// SetActivePlans updates the active plan gauge
func (m *Metrics) SetActivePlans(n int) {
	if m == nil {
		return
	}
	m.activePlans.Set(float64(n))
}
