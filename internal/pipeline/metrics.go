package pipeline

import "github.com/prometheus/client_golang/prometheus"

const (
	namespace = "glossa"
	subsystem = "cache"
)

// Lookup results.
const (
	lookupHit     = "hit"
	lookupMiss    = "miss"
	lookupRevived = "revived"
)

// CacheMetrics holds prometheus metrics for the stage cache.
type CacheMetrics struct {
	lookups       *prometheus.CounterVec
	constructions *prometheus.CounterVec
	entries       prometheus.Gauge
}

// NewCacheMetrics returns unregistered cache metrics.
func NewCacheMetrics() *CacheMetrics {
	return &CacheMetrics{
		lookups: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: subsystem,
				Name:      "lookups_total",
				Help:      "Stage cache lookups by result.",
			},
			[]string{"result"}, // "hit", "miss" or "revived"
		),
		constructions: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: subsystem,
				Name:      "constructions_total",
				Help:      "Stage constructions by result.",
			},
			[]string{"result"}, // "success" or "error"
		),
		entries: prometheus.NewGauge(
			prometheus.GaugeOpts{
				Namespace: namespace,
				Subsystem: subsystem,
				Name:      "entries",
				Help:      "Live stage instances indexed by the cache.",
			},
		),
	}
}

// ObserveLookup records one cache lookup.
func (m *CacheMetrics) ObserveLookup(result string) {
	m.lookups.WithLabelValues(result).Inc()
}

// ObserveConstruction records one factory call.
func (m *CacheMetrics) ObserveConstruction(err error) {
	result := "success"
	if err != nil {
		result = "error"
	}
	m.constructions.WithLabelValues(result).Inc()
}

// SetEntries records the current number of live entries.
func (m *CacheMetrics) SetEntries(n int) {
	m.entries.Set(float64(n))
}

// MustRegister registers the metrics with the given Prometheus registry.
func (m *CacheMetrics) MustRegister(registry prometheus.Registerer) {
	registry.MustRegister(m.lookups)
	registry.MustRegister(m.constructions)
	registry.MustRegister(m.entries)
}
