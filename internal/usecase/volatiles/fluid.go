package volatiles

import (
	"context"
	"math"

	"github.com/kailas-cloud/magmavol/internal/domain/composition"
	"github.com/kailas-cloud/magmavol/internal/domain/equilibrium"
)

// EquilibriumFluidComp returns the H2O/CO2 mole fractions of the fluid in
// equilibrium with comp as given. Samples holding zero or one volatile species
// are answered without querying the solver.
func (e *Engine) EquilibriumFluidComp(
	ctx context.Context, q Querier, comp *composition.Composition, temperatureC, pressureBars float64,
) (FluidComposition, error) {
	if err := validateConditions(temperatureC, pressureBars); err != nil {
		return FluidComposition{}, err
	}

	h2o, co2 := comp.Value(composition.H2O), comp.Value(composition.CO2)
	switch {
	case h2o == 0 && co2 == 0:
		return FluidComposition{Shortcut: true}, nil
	case h2o == 0:
		return FluidComposition{CO2: 1, FluidMass: math.NaN(), FluidProportionWt: math.NaN(), Shortcut: true}, nil
	case co2 == 0:
		return FluidComposition{H2O: 1, FluidMass: math.NaN(), FluidProportionWt: math.NaN(), Shortcut: true}, nil
	}

	b := e.newBudget(ProtocolFluidComposition)
	b.stage = "equilibrate"
	defer b.observe()
	if err := b.spend(ctx); err != nil {
		return FluidComposition{}, err
	}

	if err := e.setBulk(ctx, q, comp, ProtocolFluidComposition); err != nil {
		recordFailure(ProtocolFluidComposition, err)
		return FluidComposition{}, err
	}
	st, err := equilibrate(ctx, q, temperatureC, pressureBars/10)
	if err != nil {
		recordFailure(ProtocolFluidComposition, err)
		return FluidComposition{}, err
	}

	fluidMass := st.PhaseMass(equilibrium.PhaseFluid)
	res := FluidComposition{
		FluidMass:         fluidMass,
		FluidProportionWt: 100 * fluidMass / (fluidMass + st.PhaseMass(equilibrium.PhaseLiquid)),
	}
	if fluidMass > 0 {
		res.H2O, res.CO2 = fluidX(st)
	}
	return res, nil
}
