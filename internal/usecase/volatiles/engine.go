package volatiles

import (
	"context"
	"errors"
	"fmt"
	"math"

	"go.uber.org/zap"

	"github.com/kailas-cloud/magmavol/internal/domain"
	"github.com/kailas-cloud/magmavol/internal/domain/composition"
	"github.com/kailas-cloud/magmavol/internal/domain/equilibrium"
	"github.com/kailas-cloud/magmavol/internal/metrics"
)

// DefaultMaxIterations bounds solver queries per search protocol.
const DefaultMaxIterations = 5000

// Search protocol names used in errors, logs and metrics.
const (
	ProtocolSaturation       = "saturation"
	ProtocolDissolved        = "dissolved_volatiles"
	ProtocolFluidComposition = "fluid_composition"
	ProtocolPreEquilibration = "pre_equilibration"
)

// Engine runs the iterative volatile searches against an acquired solver.
// Engine methods never acquire the session themselves, so orchestrators can
// chain several searches under one lease.
type Engine struct {
	maxIterations int
	logger        *zap.Logger
}

// NewEngine creates an Engine. maxIterations <= 0 disables the guard.
func NewEngine(maxIterations int, logger *zap.Logger) *Engine {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Engine{maxIterations: maxIterations, logger: logger}
}

// MaxIterations returns the per-protocol query budget (0 = unbounded).
func (e *Engine) MaxIterations() int {
	if e.maxIterations < 0 {
		return 0
	}
	return e.maxIterations
}

// Logger returns the engine logger.
func (e *Engine) Logger() *zap.Logger { return e.logger }

// budget counts solver queries for one protocol run.
type budget struct {
	protocol string
	stage    string
	used     int
	max      int
}

func (e *Engine) newBudget(protocol string) *budget {
	return &budget{protocol: protocol, max: e.MaxIterations()}
}

// spend accounts for one query. It fails on cancellation or an exhausted budget.
func (b *budget) spend(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return fmt.Errorf("%s search: %w", b.protocol, err)
	}
	if b.max > 0 && b.used >= b.max {
		return domain.NewConvergenceFailed(b.protocol, b.stage, b.used)
	}
	b.used++
	return nil
}

func (b *budget) observe() {
	metrics.SearchIterations.WithLabelValues(b.protocol).Observe(float64(b.used))
}

// Budget is a query counter shared with orchestrators that drive their own loops.
type Budget struct{ b *budget }

// NewBudget returns a fresh counter for protocol bounded by the engine guard.
func (e *Engine) NewBudget(protocol string) Budget { return Budget{b: e.newBudget(protocol)} }

// Spend accounts for one query under stage.
func (b Budget) Spend(ctx context.Context, stage string) error {
	b.b.stage = stage
	return b.b.spend(ctx)
}

// Used returns the number of queries spent.
func (b Budget) Used() int { return b.b.used }

// Observe records the spent queries in metrics.
func (b Budget) Observe() { b.b.observe() }

// recordFailure counts a failed search by reason.
func recordFailure(protocol string, err error) {
	reason := "error"
	switch {
	case errors.Is(err, domain.ErrSaturationNotFound):
		reason = "saturation_not_found"
	case errors.Is(err, domain.ErrConvergenceFailed):
		reason = "convergence"
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		reason = "canceled"
	}
	metrics.SearchFailuresTotal.WithLabelValues(protocol, reason).Inc()
}

// setBulk pushes comp to the solver as un-normalized oxide wt%.
// Infeasible compositions are logged and left to show up as missing fluid.
func (e *Engine) setBulk(ctx context.Context, q Querier, comp *composition.Composition, protocol string) error {
	feasible, err := q.SetBulkComposition(ctx, comp.WtPercent())
	if err != nil {
		return fmt.Errorf("set bulk composition: %w", err)
	}
	if !feasible {
		e.logger.Debug("Solver rejected bulk composition",
			zap.String("protocol", protocol),
			zap.Float64("h2o", comp.Value(composition.H2O)),
			zap.Float64("co2", comp.Value(composition.CO2)),
		)
	}
	return nil
}

func equilibrate(ctx context.Context, q Querier, temperatureC, pressureMPa float64) (equilibrium.State, error) {
	st, err := q.Equilibrate(ctx, temperatureC, pressureMPa)
	if err != nil {
		return equilibrium.State{}, fmt.Errorf("equilibrate at %g C, %g MPa: %w", temperatureC, pressureMPa, err)
	}
	return st, nil
}

func fluidX(st equilibrium.State) (xh2o, xco2 float64) {
	fl := st.PhaseComposition(equilibrium.PhaseFluid, equilibrium.ModeComponent)
	return fl.Or(equilibrium.ComponentWater, 0), fl.Or(equilibrium.ComponentCarbonDioxide, 0)
}

func finite(v float64) bool { return !math.IsNaN(v) && !math.IsInf(v, 0) }

func validateConditions(temperatureC, pressureBars float64) error {
	if !finite(temperatureC) {
		return fmt.Errorf("%w: temperature must be finite, got %v", domain.ErrInvalidInput, temperatureC)
	}
	if !finite(pressureBars) || pressureBars <= 0 {
		return fmt.Errorf("%w: pressure must be a finite positive number, got %v", domain.ErrInvalidInput, pressureBars)
	}
	return nil
}
