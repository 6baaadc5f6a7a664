package magmavol

import (
	"github.com/kailas-cloud/magmavol/internal/domain/composition"
	"github.com/kailas-cloud/magmavol/internal/domain/equilibrium"
	"github.com/kailas-cloud/magmavol/internal/usecase/sweep"
	"github.com/kailas-cloud/magmavol/internal/usecase/volatiles"
)

// Sample is a melt composition with its basis and normalization names.
// An empty Basis means oxide wt%.
type Sample = composition.Sample

// Solver is an equilibrium engine. It keeps one bulk composition between calls.
type Solver = equilibrium.Solver

// State is one equilibrium answer from a Solver.
type State = equilibrium.State

// Phase is one phase of a State.
type Phase = equilibrium.Phase

// Result types.
type (
	SaturationResult = volatiles.SaturationResult
	DissolvedResult  = volatiles.DissolvedResult
	FluidComposition = volatiles.FluidComposition
	IsobarRequest    = sweep.IsobarRequest
	IsobarResult     = sweep.IsobarResult
	IsobarRow        = sweep.IsobarRow
	IsoplethRow      = sweep.IsoplethRow
	DegassingRequest = sweep.DegassingRequest
	DegassingResult  = sweep.DegassingResult
	DegassingRow     = sweep.DegassingRow
)

// DissolvedRequest describes a dissolved-volatiles calculation.
type DissolvedRequest struct {
	TemperatureC float64
	PressureBars float64
	// XH2OFluid is the target fluid H2O mole fraction. Zero is a valid
	// target; use 1 for a pure H2O fluid.
	XH2OFluid float64
	// H2OGuess seeds the search with a dissolved H2O wt%; 0 starts from the sample.
	H2OGuess float64
}
