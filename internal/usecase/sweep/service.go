// Package sweep drives volatile searches across pressures, fluid compositions
// and degassing steps, collecting the results into tables.
package sweep

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/kailas-cloud/magmavol/internal/domain/composition"
	"github.com/kailas-cloud/magmavol/internal/domain/equilibrium"
)

// Service runs multi-search sweeps, each under a single solver lease.
type Service struct {
	session  Session
	engine   Engine
	smoother Smoother
	logger   *zap.Logger
}

// New creates a sweep service with the default polynomial smoother.
func New(session Session, engine Engine, logger *zap.Logger) *Service {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Service{session: session, engine: engine, smoother: NewPolySmoother(DefaultSmoothPoints), logger: logger}
}

// WithSmoother replaces the curve smoother.
func (s *Service) WithSmoother(sm Smoother) *Service {
	s.smoother = sm
	return s
}

// withLease runs fn with exclusive solver access and restores comp afterwards.
func (s *Service) withLease(
	ctx context.Context, comp *composition.Composition, fn func(*equilibrium.Lease) error,
) error {
	lease, err := s.session.Acquire(ctx, comp.WtPercent())
	if err != nil {
		return fmt.Errorf("acquire solver: %w", err)
	}
	defer func() {
		if rerr := lease.Release(ctx); rerr != nil {
			s.logger.Error("Failed to restore solver composition", zap.Error(rerr))
		}
	}()
	return fn(lease)
}
