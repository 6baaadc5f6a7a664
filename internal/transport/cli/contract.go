package cli

import (
	"context"

	"github.com/kailas-cloud/magmavol/internal/domain/composition"
	"github.com/kailas-cloud/magmavol/internal/usecase/sweep"
	"github.com/kailas-cloud/magmavol/internal/usecase/volatiles"
)

// VolatilesService runs single volatile searches.
type VolatilesService interface {
	SaturationPressure(
		ctx context.Context, comp *composition.Composition, temperatureC float64,
	) (volatiles.SaturationResult, error)
	DissolvedVolatiles(
		ctx context.Context, comp *composition.Composition,
		temperatureC, pressureBars, xFluid, h2oGuess float64,
	) (volatiles.DissolvedResult, error)
	EquilibriumFluidComp(
		ctx context.Context, comp *composition.Composition, temperatureC, pressureBars float64,
	) (volatiles.FluidComposition, error)
}

// SweepService runs multi-search sweeps.
type SweepService interface {
	IsobarsAndIsopleths(
		ctx context.Context, comp *composition.Composition, req sweep.IsobarRequest,
	) (sweep.IsobarResult, error)
	DegassingPath(
		ctx context.Context, comp *composition.Composition, req sweep.DegassingRequest,
	) (sweep.DegassingResult, error)
}

var (
	_ VolatilesService = (*volatiles.Service)(nil)
	_ SweepService     = (*sweep.Service)(nil)
)
