package internal

import (
	"github.com/prometheus/client_golang/prometheus"

	tt "github.com/gnoverse/tverify/internal/types"
	"github.com/gnoverse/tverify/internal/verify"
)

// Metrics collects counters over every statement an engine verifies.
type Metrics struct {
	registry *prometheus.Registry

	verdicts     *prometheus.CounterVec
	unifications prometheus.Counter
	backtracks   prometheus.Counter
	cacheHits    prometheus.Counter
	proofSteps   prometheus.Histogram
}

func NewMetrics() *Metrics {
	m := &Metrics{
		verdicts: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "tverify_statements_total",
				Help: "number of theorems verified, by verdict",
			},
			[]string{"verdict"},
		),
		unifications: prometheus.NewCounter(
			prometheus.CounterOpts{
				Name: "tverify_unifications_total",
				Help: "number of assertion applications unified",
			},
		),
		backtracks: prometheus.NewCounter(
			prometheus.CounterOpts{
				Name: "tverify_backtracks_total",
				Help: "number of variable windows abandoned while unifying",
			},
		),
		cacheHits: prometheus.NewCounter(
			prometheus.CounterOpts{
				Name: "tverify_cache_hits_total",
				Help: "number of results served from the cache",
			},
		),
		proofSteps: prometheus.NewHistogram(
			prometheus.HistogramOpts{
				Name:    "tverify_proof_steps",
				Help:    "number of steps per decoded proof",
				Buckets: prometheus.ExponentialBuckets(4, 4, 8),
			},
		),
	}
	m.registry = prometheus.NewPedanticRegistry()
	m.registry.MustRegister(m.verdicts)
	m.registry.MustRegister(m.unifications)
	m.registry.MustRegister(m.backtracks)
	m.registry.MustRegister(m.cacheHits)
	m.registry.MustRegister(m.proofSteps)
	return m
}

// Registry exposes the collectors, e.g. to promhttp.
func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}

func (m *Metrics) observeRun(run *verify.Run) {
	m.verdicts.WithLabelValues(run.Verdict.String()).Inc()
	m.unifications.Add(float64(run.Unifications))
	m.backtracks.Add(float64(run.Backtracks))
	if len(run.Proof) > 0 {
		m.proofSteps.Observe(float64(len(run.Proof)))
	}
}

func (m *Metrics) observeCached(result tt.Result) {
	m.verdicts.WithLabelValues(result.Verdict.String()).Inc()
	m.cacheHits.Inc()
}
