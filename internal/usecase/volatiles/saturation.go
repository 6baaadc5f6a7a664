package volatiles

import (
	"context"
	"fmt"
	"math"

	"go.uber.org/zap"

	"github.com/kailas-cloud/magmavol/internal/domain"
	"github.com/kailas-cloud/magmavol/internal/domain/composition"
	"github.com/kailas-cloud/magmavol/internal/domain/equilibrium"
)

// saturationStartMPa is the pressure the downward search starts from.
const saturationStartMPa = 2000.0

type pressureStage struct {
	name    string
	stepMPa float64
	backOff bool
}

var saturationStages = [...]pressureStage{
	{name: "coarse", stepMPa: 100, backOff: true},
	{name: "refine", stepMPa: 10, backOff: true},
	{name: "final", stepMPa: 1},
}

// SaturationPressure finds the highest pressure at which comp exsolves a fluid,
// stepping down from 2000 MPa in 100, 10 and 1 MPa stages. A coarse stage that
// reaches 0 MPa hands over to the next stage from one step above the floor;
// only the 1 MPa stage gives up there.
//
// When no fluid appears above 0 MPa the result carries NaN fields and a
// Warning, and the returned error wraps domain.ErrSaturationNotFound.
func (e *Engine) SaturationPressure(
	ctx context.Context, q Querier, comp *composition.Composition, temperatureC float64,
) (SaturationResult, error) {
	if !finite(temperatureC) {
		return SaturationResult{}, fmt.Errorf("%w: temperature must be finite, got %v", domain.ErrInvalidInput, temperatureC)
	}

	b := e.newBudget(ProtocolSaturation)
	defer b.observe()

	if err := e.setBulk(ctx, q, comp, ProtocolSaturation); err != nil {
		return SaturationResult{}, err
	}

	pressure := saturationStartMPa
	var st equilibrium.State
	for _, stage := range saturationStages {
		b.stage = stage.name
		fluidMass := 0.0
		for fluidMass <= 0 {
			pressure -= stage.stepMPa
			if pressure <= 0 {
				if !stage.backOff {
					return e.saturationNotFound(temperatureC, b)
				}
				// Floor reached: back off and let the finer stage search below one step
				break
			}
			if err := b.spend(ctx); err != nil {
				recordFailure(ProtocolSaturation, err)
				return SaturationResult{}, err
			}
			var err error
			if st, err = equilibrate(ctx, q, temperatureC, pressure); err != nil {
				return SaturationResult{}, err
			}
			fluidMass = st.PhaseMass(equilibrium.PhaseFluid)
		}
		e.logger.Debug("Saturation stage complete",
			zap.String("stage", stage.name),
			zap.Float64("pressure_mpa", pressure),
			zap.Int("iterations", b.used),
		)
		if stage.backOff {
			pressure += stage.stepMPa
		}
	}

	fluidMass := st.PhaseMass(equilibrium.PhaseFluid)
	liquidMass := st.PhaseMass(equilibrium.PhaseLiquid)
	xh2o, xco2 := fluidX(st)
	return SaturationResult{
		TemperatureC:      temperatureC,
		PressureBars:      pressure * 10,
		FluidMass:         fluidMass,
		FluidProportionWt: 100 * fluidMass / (fluidMass + liquidMass),
		XH2OFluid:         xh2o,
		XCO2Fluid:         xco2,
		Iterations:        b.used,
	}, nil
}

func (e *Engine) saturationNotFound(temperatureC float64, b *budget) (SaturationResult, error) {
	nan := math.NaN()
	res := SaturationResult{
		TemperatureC:      temperatureC,
		PressureBars:      nan,
		FluidMass:         nan,
		FluidProportionWt: nan,
		XH2OFluid:         nan,
		XCO2Fluid:         nan,
		Iterations:        b.used,
		Warning:           "Calculation failed: no fluid phase at any pressure above 0 MPa.",
	}
	err := &domain.SearchError{
		Protocol:   ProtocolSaturation,
		Stage:      b.stage,
		Iterations: b.used,
		Err:        domain.ErrSaturationNotFound,
	}
	e.logger.Warn("Saturation pressure not found",
		zap.Float64("temperature_c", temperatureC),
		zap.String("stage", b.stage),
		zap.Int("iterations", b.used),
	)
	recordFailure(ProtocolSaturation, err)
	return res, err
}
