package volatiles

import (
	"context"

	"go.uber.org/zap"

	"github.com/kailas-cloud/magmavol/internal/domain/composition"
)

// Service runs single searches, each under its own solver lease.
type Service struct {
	session Session
	engine  *Engine
}

// New creates a volatiles service.
func New(session Session, engine *Engine) *Service {
	return &Service{session: session, engine: engine}
}

// Engine returns the underlying search engine.
func (s *Service) Engine() *Engine { return s.engine }

// SaturationPressure acquires the solver and runs Engine.SaturationPressure.
func (s *Service) SaturationPressure(
	ctx context.Context, comp *composition.Composition, temperatureC float64,
) (SaturationResult, error) {
	var res SaturationResult
	err := s.withLease(ctx, comp, func(q Querier) error {
		var err error
		res, err = s.engine.SaturationPressure(ctx, q, comp, temperatureC)
		return err
	})
	return res, err
}

// DissolvedVolatiles acquires the solver and runs Engine.DissolvedVolatiles.
func (s *Service) DissolvedVolatiles(
	ctx context.Context, comp *composition.Composition,
	temperatureC, pressureBars, xFluid, h2oGuess float64,
) (DissolvedResult, error) {
	var res DissolvedResult
	err := s.withLease(ctx, comp, func(q Querier) error {
		var err error
		res, err = s.engine.DissolvedVolatiles(ctx, q, comp, temperatureC, pressureBars, xFluid, h2oGuess)
		return err
	})
	return res, err
}

// EquilibriumFluidComp acquires the solver and runs Engine.EquilibriumFluidComp.
func (s *Service) EquilibriumFluidComp(
	ctx context.Context, comp *composition.Composition, temperatureC, pressureBars float64,
) (FluidComposition, error) {
	var res FluidComposition
	err := s.withLease(ctx, comp, func(q Querier) error {
		var err error
		res, err = s.engine.EquilibriumFluidComp(ctx, q, comp, temperatureC, pressureBars)
		return err
	})
	return res, err
}

func (s *Service) withLease(ctx context.Context, comp *composition.Composition, fn func(Querier) error) error {
	lease, err := s.session.Acquire(ctx, comp.WtPercent())
	if err != nil {
		return err //nolint:wrapcheck // already wrapped by Acquire
	}
	defer func() {
		if rerr := lease.Release(ctx); rerr != nil {
			s.engine.logger.Error("Failed to restore solver composition", zap.Error(rerr))
		}
	}()
	return fn(lease)
}
