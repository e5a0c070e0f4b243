package workflow

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics wraps the Prometheus collectors the interpreter updates as it
// runs, grounded on the teacher's PrometheusMetrics (graph/metrics.go):
// counters for states executed/retried/caught, a gauge for in-flight
// runs, and a histogram for step latency. A nil *Metrics disables
// collection everywhere it's threaded through — every method checks for
// a nil receiver before touching a collector.
type Metrics struct {
	statesExecuted *prometheus.CounterVec
	retries        *prometheus.CounterVec
	catches        *prometheus.CounterVec
	activeRuns     prometheus.Gauge
	stepLatencyMs  prometheus.Histogram

	mu       sync.Mutex
	snapshot snapshotCounters
}

type snapshotCounters struct {
	statesExecuted int64
	retries        int64
	catches        int64
}

// NewMetrics registers a fresh set of collectors against reg (or the
// default registry if reg is nil).
func NewMetrics(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)
	return &Metrics{
		statesExecuted: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: "statelang",
			Name:      "states_executed_total",
			Help:      "Count of state executions by kind and outcome.",
		}, []string{"kind", "outcome"}),
		retries: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: "statelang",
			Name:      "retries_total",
			Help:      "Count of retry attempts by error code.",
		}, []string{"error"}),
		catches: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: "statelang",
			Name:      "catches_total",
			Help:      "Count of catch redirects by error code.",
		}, []string{"error"}),
		activeRuns: factory.NewGauge(prometheus.GaugeOpts{
			Namespace: "statelang",
			Name:      "active_runs",
			Help:      "Number of workflow runs currently executing.",
		}),
		stepLatencyMs: factory.NewHistogram(prometheus.HistogramOpts{
			Namespace: "statelang",
			Name:      "step_latency_ms",
			Help:      "Per-state execution latency in milliseconds.",
			Buckets:   prometheus.ExponentialBuckets(1, 2, 16),
		}),
	}
}

func (m *Metrics) recordState(kind, outcome string, latencyMs float64) {
	if m == nil {
		return
	}
	m.statesExecuted.WithLabelValues(kind, outcome).Inc()
	m.stepLatencyMs.Observe(latencyMs)
	m.mu.Lock()
	m.snapshot.statesExecuted++
	m.mu.Unlock()
}

func (m *Metrics) recordRetry(code string) {
	if m == nil {
		return
	}
	m.retries.WithLabelValues(code).Inc()
	m.mu.Lock()
	m.snapshot.retries++
	m.mu.Unlock()
}

func (m *Metrics) recordCatch(code string) {
	if m == nil {
		return
	}
	m.catches.WithLabelValues(code).Inc()
	m.mu.Lock()
	m.snapshot.catches++
	m.mu.Unlock()
}

func (m *Metrics) runStarted() {
	if m == nil {
		return
	}
	m.activeRuns.Inc()
}

func (m *Metrics) runEnded() {
	if m == nil {
		return
	}
	m.activeRuns.Dec()
}

// Snapshot is a point-in-time accessor (SPEC_FULL §12.5) supplementing
// Prometheus's push-based collection with a value CLI/tests can assert on
// directly without scraping a registry.
type Snapshot struct {
	StatesExecuted int64
	Retries        int64
	Catches        int64
}

// Snapshot returns the current counts. Safe to call on a nil *Metrics
// (returns the zero value).
func (m *Metrics) Snapshot() Snapshot {
	if m == nil {
		return Snapshot{}
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	return Snapshot{
		StatesExecuted: m.snapshot.statesExecuted,
		Retries:        m.snapshot.retries,
		Catches:        m.snapshot.catches,
	}
}
