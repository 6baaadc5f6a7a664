// Package solver holds decorators over the equilibrium solver port.
package solver

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/kailas-cloud/magmavol/internal/domain/equilibrium"
	"github.com/kailas-cloud/magmavol/internal/metrics"
)

const (
	opSetBulk     = "set_bulk"
	opEquilibrate = "equilibrate"

	statusOK         = "ok"
	statusError      = "error"
	statusInfeasible = "infeasible"
)

// InstrumentedSolver records query counts and latency and logs each query.
// Transport concerns (retries, rate limits) live in the adapter it wraps.
type InstrumentedSolver struct {
	inner  equilibrium.Solver
	logger *zap.Logger
}

var _ equilibrium.Solver = (*InstrumentedSolver)(nil)

// NewInstrumentedSolver wraps a solver with metrics and logging.
func NewInstrumentedSolver(inner equilibrium.Solver, logger *zap.Logger) *InstrumentedSolver {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &InstrumentedSolver{inner: inner, logger: logger}
}

// SetBulkComposition delegates and counts infeasible compositions separately.
func (s *InstrumentedSolver) SetBulkComposition(ctx context.Context, oxides map[string]float64) (bool, error) {
	start := time.Now()
	feasible, err := s.inner.SetBulkComposition(ctx, oxides)
	duration := time.Since(start)

	status := statusOK
	switch {
	case err != nil:
		status = statusError
	case !feasible:
		status = statusInfeasible
	}
	s.observe(opSetBulk, status, duration)

	if err != nil {
		s.logger.Error("Set bulk composition failed", zap.Duration("duration", duration), zap.Error(err))
		return false, fmt.Errorf("set bulk composition: %w", err)
	}
	if !feasible {
		s.logger.Debug("Bulk composition infeasible", zap.Any("oxides", oxides))
	}
	return feasible, nil
}

// Equilibrate delegates and records the outcome.
func (s *InstrumentedSolver) Equilibrate(ctx context.Context, temperatureC, pressureMPa float64) (equilibrium.State, error) {
	start := time.Now()
	st, err := s.inner.Equilibrate(ctx, temperatureC, pressureMPa)
	duration := time.Since(start)

	if err != nil {
		s.observe(opEquilibrate, statusError, duration)
		s.logger.Error("Equilibrate failed",
			zap.Float64("temperature_c", temperatureC),
			zap.Float64("pressure_mpa", pressureMPa),
			zap.Duration("duration", duration),
			zap.Error(err),
		)
		return equilibrium.State{}, fmt.Errorf("equilibrate: %w", err)
	}
	s.observe(opEquilibrate, statusOK, duration)

	s.logger.Debug("Equilibrate completed",
		zap.Float64("temperature_c", temperatureC),
		zap.Float64("pressure_mpa", pressureMPa),
		zap.Duration("duration", duration),
		zap.Float64("fluid_mass", st.PhaseMass(equilibrium.PhaseFluid)),
	)
	return st, nil
}

func (s *InstrumentedSolver) observe(op, status string, d time.Duration) {
	metrics.SolverQueriesTotal.WithLabelValues(op, status).Inc()
	metrics.SolverQueryDuration.WithLabelValues(op).Observe(d.Seconds())
}
