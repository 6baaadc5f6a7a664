package equilibrium

import (
	"context"
	"errors"
	"fmt"
	"maps"
)

// ErrLeaseReleased is returned when a Lease is used after Release.
var ErrLeaseReleased = errors.New("equilibrium: lease already released")

// Session serializes access to a stateful Solver. Every Acquire must be paired
// with Lease.Release, which puts the solver back on the caller's original composition.
type Session struct {
	solver Solver
	sem    chan struct{}
}

// NewSession wraps a solver.
func NewSession(solver Solver) *Session {
	return &Session{solver: solver, sem: make(chan struct{}, 1)}
}

// Solver returns the wrapped solver.
func (s *Session) Solver() Solver { return s.solver }

// Acquire waits for exclusive use of the solver. original is the composition
// restored on Release.
func (s *Session) Acquire(ctx context.Context, original map[string]float64) (*Lease, error) {
	select {
	case s.sem <- struct{}{}:
	case <-ctx.Done():
		return nil, fmt.Errorf("acquire solver session: %w", ctx.Err())
	}
	return &Lease{session: s, original: maps.Clone(original)}, nil
}

// Lease is exclusive, scoped access to the solver.
type Lease struct {
	session  *Session
	original map[string]float64
	released bool
}

// SetBulkComposition forwards to the solver.
func (l *Lease) SetBulkComposition(ctx context.Context, oxides map[string]float64) (bool, error) {
	if l.released {
		return false, ErrLeaseReleased
	}
	return l.session.solver.SetBulkComposition(ctx, oxides)
}

// Equilibrate forwards to the solver.
func (l *Lease) Equilibrate(ctx context.Context, temperatureC, pressureMPa float64) (State, error) {
	if l.released {
		return State{}, ErrLeaseReleased
	}
	return l.session.solver.Equilibrate(ctx, temperatureC, pressureMPa)
}

// Release restores the original composition and frees the session.
// The restore runs even when ctx is already canceled. Calling Release twice is a no-op.
func (l *Lease) Release(ctx context.Context) error {
	if l.released {
		return nil
	}
	l.released = true
	defer func() { <-l.session.sem }()

	if l.original == nil {
		return nil
	}
	if _, err := l.session.solver.SetBulkComposition(context.WithoutCancel(ctx), l.original); err != nil {
		return fmt.Errorf("restore bulk composition: %w", err)
	}
	return nil
}
