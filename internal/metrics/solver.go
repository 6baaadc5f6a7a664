package metrics

import "github.com/prometheus/client_golang/prometheus"

const namespace = "magmavol"

// Equilibrium solver and search Prometheus metrics.
var (
	SolverQueriesTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "solver_queries_total",
			Help:      "Total number of equilibrium solver queries",
		},
		[]string{"op", "status"}, // op: "set_bulk" / "equilibrate"; status: "ok" / "error" / "infeasible"
	)

	SolverQueryDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "solver_query_duration_seconds",
			Help:      "Equilibrium solver query duration in seconds",
			Buckets:   []float64{0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5},
		},
		[]string{"op"},
	)

	SearchIterations = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "search_iterations",
			Help:      "Solver queries spent per search protocol",
			Buckets:   prometheus.ExponentialBuckets(1, 2, 14),
		},
		[]string{"protocol"},
	)

	SearchFailuresTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "search_failures_total",
			Help:      "Searches that ended without a result",
		},
		[]string{"protocol", "reason"}, // reason: "saturation_not_found" / "convergence" / "error"
	)

	EquilibriumCacheTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "equilibrium_cache_total",
			Help:      "Equilibrium cache hits and misses",
		},
		[]string{"result"}, // "hit" / "miss"
	)
)

var solverMetricsRegistered bool

// RegisterSolverMetrics registers solver and search metrics. Must be called once from main.
func RegisterSolverMetrics() {
	if solverMetricsRegistered {
		return
	}
	prometheus.MustRegister(SolverQueriesTotal)
	prometheus.MustRegister(SolverQueryDuration)
	prometheus.MustRegister(SearchIterations)
	prometheus.MustRegister(SearchFailuresTotal)
	prometheus.MustRegister(EquilibriumCacheTotal)
	solverMetricsRegistered = true
}
