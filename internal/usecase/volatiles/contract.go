package volatiles

import (
	"context"

	"github.com/kailas-cloud/magmavol/internal/domain/equilibrium"
)

// Querier is exclusive solver access for the duration of one search.
// *equilibrium.Lease satisfies it.
type Querier interface {
	SetBulkComposition(ctx context.Context, oxides map[string]float64) (bool, error)
	Equilibrate(ctx context.Context, temperatureC, pressureMPa float64) (equilibrium.State, error)
}

// Session hands out exclusive solver leases.
type Session interface {
	Acquire(ctx context.Context, original map[string]float64) (*equilibrium.Lease, error)
}
