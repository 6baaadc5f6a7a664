package sweep

import (
	"context"

	"github.com/kailas-cloud/magmavol/internal/domain/composition"
	"github.com/kailas-cloud/magmavol/internal/domain/equilibrium"
	"github.com/kailas-cloud/magmavol/internal/usecase/volatiles"
)

// Session hands out exclusive solver leases.
type Session interface {
	Acquire(ctx context.Context, original map[string]float64) (*equilibrium.Lease, error)
}

// Engine runs single volatile searches under an already-acquired lease.
type Engine interface {
	SaturationPressure(
		ctx context.Context, q volatiles.Querier, comp *composition.Composition, temperatureC float64,
	) (volatiles.SaturationResult, error)
	DissolvedVolatiles(
		ctx context.Context, q volatiles.Querier, comp *composition.Composition,
		temperatureC, pressureBars, xFluid, h2oGuess float64,
	) (volatiles.DissolvedResult, error)
	NewBudget(protocol string) volatiles.Budget
}

// Smoother fits curves through computed isobar and isopleth points.
type Smoother interface {
	SmoothIsobars(rows []IsobarRow) ([]IsobarRow, error)
	SmoothIsopleths(rows []IsoplethRow) ([]IsoplethRow, error)
}
