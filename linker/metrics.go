package linker

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics exposes loop observability counters. Construct once per process
// and share across controllers.
type Metrics struct {
	LoopRuns       *prometheus.CounterVec
	Iterations     prometheus.Histogram
	SearchRequests prometheus.Counter
	SearchFailures prometheus.Counter
	Overrides      *prometheus.CounterVec
	LoopDuration   prometheus.Histogram
}

// NewMetrics registers loop metrics with the given registerer.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)
	return &Metrics{
		LoopRuns: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: "semlink",
			Subsystem: "loop",
			Name:      "runs_total",
			Help:      "Completed linking runs by terminal action.",
		}, []string{"action"}),
		Iterations: factory.NewHistogram(prometheus.HistogramOpts{
			Namespace: "semlink",
			Subsystem: "loop",
			Name:      "iterations",
			Help:      "Refine iterations taken per linking run.",
			Buckets:   []float64{0, 1, 2, 3, 4, 5},
		}),
		SearchRequests: factory.NewCounter(prometheus.CounterOpts{
			Namespace: "semlink",
			Subsystem: "search",
			Name:      "requests_total",
			Help:      "Knowledge-base search requests issued.",
		}),
		SearchFailures: factory.NewCounter(prometheus.CounterOpts{
			Namespace: "semlink",
			Subsystem: "search",
			Name:      "failures_total",
			Help:      "Search requests that degraded to an empty hit set.",
		}),
		Overrides: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: "semlink",
			Subsystem: "loop",
			Name:      "overrides_total",
			Help:      "Safety override activations by rule.",
		}, []string{"rule"}),
		LoopDuration: factory.NewHistogram(prometheus.HistogramOpts{
			Namespace: "semlink",
			Subsystem: "loop",
			Name:      "duration_seconds",
			Help:      "Wall-clock duration of linking runs.",
			Buckets:   prometheus.DefBuckets,
		}),
	}
}
