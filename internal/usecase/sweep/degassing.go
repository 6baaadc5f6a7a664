package sweep

import (
	"context"
	"fmt"
	"math"

	"go.uber.org/zap"

	"github.com/kailas-cloud/magmavol/internal/domain"
	"github.com/kailas-cloud/magmavol/internal/domain/composition"
	"github.com/kailas-cloud/magmavol/internal/domain/equilibrium"
	"github.com/kailas-cloud/magmavol/internal/usecase/volatiles"
)

// DefaultDegassingSteps is the number of pressure steps when none is given.
const DefaultDegassingSteps = 50

const (
	// preEquilibrationRate scales the fluid composition added per pre-equilibration step.
	preEquilibrationRate = 0.0005
	// missingFluidBoost multiplies a volatile the fluid does not carry yet.
	missingFluidBoost = 1.1
	// minDissolved drops path rows whose melt is effectively degassed.
	minDissolved = 1e-6
	// minStepMPa is the smallest pressure decrement.
	minStepMPa = 1.0
)

var pathVolatiles = [...]composition.Oxide{composition.H2O, composition.CO2}

// DegassingRequest describes a degassing path calculation.
type DegassingRequest struct {
	TemperatureC float64
	// StartPressureBars starts the path below saturation; 0 starts at saturation.
	StartPressureBars float64
	// FractionateVapor is the share of fluid removed at each step (0 closed, 1 open system).
	FractionateVapor float64
	// InitVapor is the fluid wt% coexisting with the melt before degassing.
	InitVapor float64
	Steps     int
}

// DegassingResult holds the path table and the saturation pressure it started from.
type DegassingResult struct {
	SaturationPressureBars float64        `json:"saturation_pressure_bars"`
	StartPressureBars      float64        `json:"start_pressure_bars"`
	Rows                   []DegassingRow `json:"rows"`
}

func (r DegassingRequest) validate() error {
	switch {
	case !isFinite(r.TemperatureC):
		return fmt.Errorf("%w: temperature must be finite", domain.ErrInvalidInput)
	case !isFinite(r.StartPressureBars) || r.StartPressureBars < 0:
		return fmt.Errorf("%w: start pressure must be finite and non-negative", domain.ErrInvalidInput)
	case !isFinite(r.FractionateVapor) || r.FractionateVapor < 0 || r.FractionateVapor > 1:
		return fmt.Errorf("%w: fractionate_vapor must be within [0, 1]", domain.ErrInvalidInput)
	case !isFinite(r.InitVapor) || r.InitVapor < 0:
		return fmt.Errorf("%w: init_vapor must be finite and non-negative", domain.ErrInvalidInput)
	case r.Steps < 1:
		return fmt.Errorf("%w: steps must be at least 1, got %d", domain.ErrInvalidInput, r.Steps)
	}
	return nil
}

func isFinite(v float64) bool { return !math.IsNaN(v) && !math.IsInf(v, 0) }

// pathPressures returns 1, 1+step, ... below startMPa, highest first.
func pathPressures(startMPa float64, steps int) []float64 {
	step := max(startMPa/float64(steps), minStepMPa)
	if startMPa <= 1 {
		return nil
	}
	n := int(math.Ceil((startMPa - 1) / step))
	out := make([]float64, 0, n)
	for i := n - 1; i >= 0; i-- {
		out = append(out, 1+float64(i)*step)
	}
	return out
}

// DegassingPath decompresses comp from its saturation pressure (or a lower
// start pressure) towards 1 MPa. At each step a FractionateVapor share of the
// exsolved volatiles leaves the system. Rows are strictly decreasing in
// pressure; steps where the melt has lost either volatile are omitted.
func (s *Service) DegassingPath(
	ctx context.Context, comp *composition.Composition, req DegassingRequest,
) (DegassingResult, error) {
	if err := req.validate(); err != nil {
		return DegassingResult{}, err
	}

	bulk := comp.Clone()
	if err := bulk.Normalize(composition.NormStandard); err != nil {
		return DegassingResult{}, fmt.Errorf("normalize bulk: %w", err)
	}

	var res DegassingResult
	err := s.withLease(ctx, comp, func(lease *equilibrium.Lease) error {
		sat, err := s.engine.SaturationPressure(ctx, lease, bulk, req.TemperatureC)
		if err != nil {
			return fmt.Errorf("degassing path: %w", err)
		}
		res.SaturationPressureBars = sat.PressureBars

		res.StartPressureBars = sat.PressureBars
		if req.StartPressureBars > 0 && req.StartPressureBars < sat.PressureBars {
			res.StartPressureBars = req.StartPressureBars
		}
		startMPa := res.StartPressureBars / 10

		if err := s.preEquilibrate(ctx, lease, bulk, req, startMPa, sat.FluidProportionWt); err != nil {
			return err
		}

		rows, err := s.decompress(ctx, lease, bulk, req, pathPressures(startMPa, req.Steps))
		if err != nil {
			return err
		}
		res.Rows = rows
		return nil
	})
	if err != nil {
		return DegassingResult{}, err
	}
	return res, nil
}

// preEquilibrate adds fluid-composition volatiles to bulk at the start
// pressure until the system holds more than InitVapor wt% fluid.
func (s *Service) preEquilibrate(
	ctx context.Context, q volatiles.Querier, bulk *composition.Composition,
	req DegassingRequest, startMPa, fluidWt float64,
) error {
	b := s.engine.NewBudget(volatiles.ProtocolPreEquilibration)
	defer b.Observe()

	for fluidWt <= req.InitVapor {
		if err := b.Spend(ctx, "pre_equilibration"); err != nil {
			return err
		}
		st, err := equilibrateBulk(ctx, q, bulk, req.TemperatureC, startMPa)
		if err != nil {
			return err
		}
		fluidMass := st.PhaseMass(equilibrium.PhaseFluid)
		fluidWt = 100 * fluidMass / (fluidMass + st.PhaseMass(equilibrium.PhaseLiquid))

		fluid := st.PhaseComposition(equilibrium.PhaseFluid, equilibrium.ModeOxideWt)
		for _, ox := range pathVolatiles {
			v := bulk.Value(ox) * missingFluidBoost
			if fl, ok := fluid.Get(string(ox)); ok {
				v = bulk.Value(ox) + fl*preEquilibrationRate
			}
			if err := bulk.SetValue(ox, v); err != nil {
				return fmt.Errorf("pre-equilibrate %s: %w", ox, err)
			}
		}
		if err := bulk.Normalize(composition.NormStandard); err != nil {
			return fmt.Errorf("pre-equilibrate: %w", err)
		}
	}
	s.logger.Debug("Pre-equilibration complete",
		zap.Float64("fluid_wt", fluidWt),
		zap.Int("iterations", b.Used()),
	)
	return nil
}

func (s *Service) decompress(
	ctx context.Context, q volatiles.Querier, bulk *composition.Composition,
	req DegassingRequest, pressures []float64,
) ([]DegassingRow, error) {
	rows := make([]DegassingRow, 0, len(pressures))
	for _, pMPa := range pressures {
		if err := ctx.Err(); err != nil {
			return nil, fmt.Errorf("degassing path: %w", err)
		}
		st, err := equilibrateBulk(ctx, q, bulk, req.TemperatureC, pMPa)
		if err != nil {
			return nil, err
		}

		liquid := st.PhaseComposition(equilibrium.PhaseLiquid, equilibrium.ModeOxideWt)
		fluidMass := st.PhaseMass(equilibrium.PhaseFluid)
		if fluidMass > 0 {
			fluid := st.PhaseComposition(equilibrium.PhaseFluid, equilibrium.ModeComponent)
			row := DegassingRow{
				PressureBars:      resolvedPressureMPa(st, pMPa) * 10,
				H2OLiq:            liquid.Or(string(composition.H2O), 0),
				CO2Liq:            liquid.Or(string(composition.CO2), 0),
				XH2OFluid:         fluid.Or(equilibrium.ComponentWater, 0),
				XCO2Fluid:         fluid.Or(equilibrium.ComponentCarbonDioxide, 0),
				FluidProportionWt: 100 * fluidMass / (fluidMass + st.PhaseMass(equilibrium.PhaseLiquid)),
			}
			if row.H2OLiq > minDissolved && row.CO2Liq > minDissolved {
				rows = append(rows, row)
			}

			for _, ox := range pathVolatiles {
				retained := 0.0
				if melt, ok := liquid.Get(string(ox)); ok {
					retained = melt + (bulk.Value(ox)-melt)*(1-req.FractionateVapor)
				}
				if err := bulk.SetValue(ox, max(retained, 0)); err != nil {
					return nil, fmt.Errorf("retain %s: %w", ox, err)
				}
			}
		}
		if err := bulk.Normalize(composition.NormStandard); err != nil {
			return nil, fmt.Errorf("renormalize bulk: %w", err)
		}
	}
	s.logger.Debug("Degassing path complete", zap.Int("steps", len(pressures)), zap.Int("rows", len(rows)))
	return rows, nil
}

// resolvedPressureMPa prefers the pressure the solver reports over the requested one.
func resolvedPressureMPa(st equilibrium.State, requestedMPa float64) float64 {
	if st.PressureMPa > 0 {
		return st.PressureMPa
	}
	return requestedMPa
}

func equilibrateBulk(
	ctx context.Context, q volatiles.Querier, bulk *composition.Composition, temperatureC, pressureMPa float64,
) (equilibrium.State, error) {
	if _, err := q.SetBulkComposition(ctx, bulk.WtPercent()); err != nil {
		return equilibrium.State{}, fmt.Errorf("set bulk composition: %w", err)
	}
	st, err := q.Equilibrate(ctx, temperatureC, pressureMPa)
	if err != nil {
		return equilibrium.State{}, fmt.Errorf("equilibrate at %g MPa: %w", pressureMPa, err)
	}
	return st, nil
}
