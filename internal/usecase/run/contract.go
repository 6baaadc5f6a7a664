package run

import (
	"context"

	domrun "github.com/kailas-cloud/magmavol/internal/domain/run"
)

// Repository defines the storage contract for runs.
type Repository interface {
	Save(ctx context.Context, run domrun.Run) error
	Get(ctx context.Context, id string) (domrun.Run, error)
	List(ctx context.Context) ([]domrun.Run, error)
	Delete(ctx context.Context, id string) error
}
