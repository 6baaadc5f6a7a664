package metrics

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
)

func TestRegisterSolverMetrics_Idempotent(t *testing.T) {
	RegisterSolverMetrics()
	RegisterSolverMetrics() // second call must not panic on duplicate registration
}

func TestSolverQueriesTotal_Labels(t *testing.T) {
	before := testutil.ToFloat64(SolverQueriesTotal.WithLabelValues("equilibrate", "ok"))
	SolverQueriesTotal.WithLabelValues("equilibrate", "ok").Inc()
	after := testutil.ToFloat64(SolverQueriesTotal.WithLabelValues("equilibrate", "ok"))
	if after-before != 1 {
		t.Errorf("expected increment of 1, got %f", after-before)
	}
}

func TestSearchIterations_Observes(t *testing.T) {
	SearchIterations.WithLabelValues("saturation").Observe(42)
	if n := testutil.CollectAndCount(SearchIterations); n == 0 {
		t.Error("expected search_iterations to have series")
	}
}
