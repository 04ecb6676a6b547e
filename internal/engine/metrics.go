package engine

import "github.com/prometheus/client_golang/prometheus"

const (
	namespace = "glossa"
	subsystem = "engine"
)

// Metrics holds prometheus metrics for pipeline runs.
type Metrics struct {
	runs      *prometheus.CounterVec
	duration  *prometheus.HistogramVec
	queueWait prometheus.Histogram
	inflight  prometheus.Gauge
}

// NewMetrics returns unregistered engine metrics.
func NewMetrics() *Metrics {
	return &Metrics{
		runs: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: subsystem,
				Name:      "runs_total",
				Help:      "Pipeline runs by terminal outcome.",
			},
			[]string{"outcome"},
		),
		duration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Subsystem: subsystem,
				Name:      "run_duration_seconds",
				Help:      "Time from worker start to terminal state.",
				Buckets:   prometheus.ExponentialBuckets(0.0005, 2, 14), // 0.5ms to ~4s
			},
			[]string{"outcome"},
		),
		queueWait: prometheus.NewHistogram(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Subsystem: subsystem,
				Name:      "queue_wait_seconds",
				Help:      "Time spent waiting for a worker slot.",
				Buckets:   prometheus.ExponentialBuckets(0.0001, 2, 14),
			},
		),
		inflight: prometheus.NewGauge(
			prometheus.GaugeOpts{
				Namespace: namespace,
				Subsystem: subsystem,
				Name:      "inflight",
				Help:      "Runs currently holding a worker slot.",
			},
		),
	}
}

// ObserveRun records one terminal run.
func (m *Metrics) ObserveRun(outcome State, seconds float64) {
	m.runs.WithLabelValues(outcome.String()).Inc()
	if seconds >= 0 {
		m.duration.WithLabelValues(outcome.String()).Observe(seconds)
	}
}

// ObserveQueueWait records time spent waiting for a slot.
func (m *Metrics) ObserveQueueWait(seconds float64) { m.queueWait.Observe(seconds) }

// MustRegister registers the metrics with the given Prometheus registry.
func (m *Metrics) MustRegister(registry prometheus.Registerer) {
	registry.MustRegister(m.runs)
	registry.MustRegister(m.duration)
	registry.MustRegister(m.queueWait)
	registry.MustRegister(m.inflight)
}
