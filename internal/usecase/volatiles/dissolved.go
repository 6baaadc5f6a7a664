package volatiles

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/kailas-cloud/magmavol/internal/domain"
	"github.com/kailas-cloud/magmavol/internal/domain/composition"
	"github.com/kailas-cloud/magmavol/internal/domain/equilibrium"
)

// Mole-fraction bounds for non-endmember fluid targets.
const (
	minXFluid = 0.001
	maxXFluid = 0.999
)

type refinementStage struct {
	name      string
	tolerance float64
	h2oStep   float64
	co2Step   float64
}

// The H2O and CO2 steps are asymmetric on purpose; results depend on them.
var refinementStages = [...]refinementStage{
	{name: "coarse", tolerance: 0.1, h2oStep: 0.2, co2Step: 0.1},
	{name: "refine1", tolerance: 0.01, h2oStep: 0.05, co2Step: 0.01},
	{name: "refine2", tolerance: 0.001, h2oStep: 0.005, co2Step: 0.001},
	{name: "final", tolerance: 0.0001, h2oStep: 0.001, co2Step: 0.0001},
}

// FinalTolerance is the mole-fraction accuracy of DissolvedVolatiles.
const FinalTolerance = 0.0001

// ValidateXFluid checks a fluid H2O mole-fraction target.
func ValidateXFluid(x float64) error {
	if !finite(x) {
		return fmt.Errorf("%w: X_fluid must be finite, got %v", domain.ErrInvalidInput, x)
	}
	if x == 0 || x == 1 {
		return nil
	}
	if x < minXFluid || x > maxXFluid {
		return fmt.Errorf("%w: X_fluid must be 0, 1 or within [%g, %g], got %v",
			domain.ErrInvalidInput, minXFluid, maxXFluid, x)
	}
	return nil
}

// matcher adjusts H2O/CO2 on a working composition and queries the solver.
type matcher struct {
	e            *Engine
	q            Querier
	work         *composition.Composition
	temperatureC float64
	pressureMPa  float64
	b            *budget
	h2o, co2     float64
}

func (m *matcher) query(ctx context.Context) (equilibrium.State, error) {
	if err := m.b.spend(ctx); err != nil {
		return equilibrium.State{}, err
	}
	if err := m.work.SetVolatiles(m.h2o, m.co2); err != nil {
		return equilibrium.State{}, fmt.Errorf("set trial volatiles: %w", err)
	}
	if err := m.e.setBulk(ctx, m.q, m.work, m.b.protocol); err != nil {
		return equilibrium.State{}, err
	}
	return equilibrate(ctx, m.q, m.temperatureC, m.pressureMPa)
}

func (m *matcher) queryX(ctx context.Context) (float64, error) {
	st, err := m.query(ctx)
	if err != nil {
		return 0, err
	}
	x, _ := fluidX(st)
	return x, nil
}

// DissolvedVolatiles finds the H2O and CO2 dissolved in the melt when it is
// saturated with a fluid of H2O mole fraction xFluid at the given conditions.
// The search first adds volatiles until a fluid exists, then refines the
// fluid composition in four stages down to FinalTolerance. comp is not modified.
func (e *Engine) DissolvedVolatiles(
	ctx context.Context, q Querier, comp *composition.Composition,
	temperatureC, pressureBars, xFluid, h2oGuess float64,
) (DissolvedResult, error) {
	if err := validateConditions(temperatureC, pressureBars); err != nil {
		return DissolvedResult{}, err
	}
	if err := ValidateXFluid(xFluid); err != nil {
		return DissolvedResult{}, err
	}
	if !finite(h2oGuess) || h2oGuess < 0 {
		return DissolvedResult{}, fmt.Errorf("%w: H2O guess must be finite and non-negative, got %v",
			domain.ErrInvalidInput, h2oGuess)
	}

	m := &matcher{
		e:            e,
		q:            q,
		work:         comp.Clone(),
		temperatureC: temperatureC,
		pressureMPa:  pressureBars / 10,
		b:            e.newBudget(ProtocolDissolved),
		h2o:          h2oGuess,
	}
	defer m.b.observe()

	res, err := e.matchFluid(ctx, m, xFluid)
	if err != nil {
		recordFailure(ProtocolDissolved, err)
		return DissolvedResult{}, err
	}
	res.PressureBars = pressureBars
	return res, nil
}

func (e *Engine) matchFluid(ctx context.Context, m *matcher, target float64) (DissolvedResult, error) {
	m.b.stage = "feasibility"
	var st equilibrium.State
	for fluidMass := 0.0; fluidMass <= 0; {
		switch {
		case target == 0:
			m.co2 += 0.1
		case target >= 0.5:
			m.h2o += 0.2
			m.co2 = m.h2o/target - m.h2o
		default:
			m.h2o += 0.1
			m.co2 = m.h2o/target - m.h2o
		}
		var err error
		if st, err = m.query(ctx); err != nil {
			return DissolvedResult{}, err
		}
		fluidMass = st.PhaseMass(equilibrium.PhaseFluid)
	}

	x, _ := fluidX(st)
	e.logger.Debug("Fluid saturation reached",
		zap.Float64("h2o", m.h2o),
		zap.Float64("co2", m.co2),
		zap.Float64("x_h2o_fluid", x),
		zap.Int("iterations", m.b.used),
	)

	for _, stage := range refinementStages {
		m.b.stage = stage.name
		var err error
		if x, err = m.refine(ctx, stage, target, x); err != nil {
			return DissolvedResult{}, err
		}
		e.logger.Debug("Refinement stage complete",
			zap.String("stage", stage.name),
			zap.Float64("x_h2o_fluid", x),
			zap.Int("iterations", m.b.used),
		)
	}

	m.b.stage = "result"
	st, err := m.query(ctx)
	if err != nil {
		return DissolvedResult{}, err
	}
	liquid := st.PhaseComposition(equilibrium.PhaseLiquid, equilibrium.ModeOxideWt)
	xh2o, xco2 := fluidX(st)
	fluidMass := st.PhaseMass(equilibrium.PhaseFluid)
	return DissolvedResult{
		TemperatureC:      m.temperatureC,
		H2OLiq:            liquid.Or(string(composition.H2O), 0),
		CO2Liq:            liquid.Or(string(composition.CO2), 0),
		XH2OFluid:         xh2o,
		XCO2Fluid:         xco2,
		FluidMass:         fluidMass,
		FluidProportionWt: 100 * fluidMass / st.SystemMass(),
		Iterations:        m.b.used,
	}, nil
}

// refine moves x into [target-tol, target+tol]: H2O is added while x is low,
// CO2 while x is high. The pair repeats until x settles in the band.
func (m *matcher) refine(ctx context.Context, stage refinementStage, target, x float64) (float64, error) {
	low, high := target-stage.tolerance, target+stage.tolerance
	var err error
	// Unlike a single low-then-high pass, repeat until the band holds so each stage ends inside it
	for x < low || x > high {
		for x < low {
			m.h2o += stage.h2oStep
			if x, err = m.queryX(ctx); err != nil {
				return 0, err
			}
		}
		for x > high {
			m.co2 += stage.co2Step
			if x, err = m.queryX(ctx); err != nil {
				return 0, err
			}
		}
	}
	return x, nil
}
