package domain

import (
	"errors"
	"fmt"
)

var (
	// ErrNotFound signals a missing resource.
	ErrNotFound = errors.New("not found")
	// ErrInvalidInput signals a bad type or out-of-range parameter.
	ErrInvalidInput = errors.New("invalid input")
	// ErrInvalidBasis signals an unknown composition basis or normalization name.
	ErrInvalidBasis = errors.New("invalid composition basis")
	// ErrSaturationNotFound signals that a pressure search reached its floor without a fluid phase.
	ErrSaturationNotFound = errors.New("saturation pressure not found")
	// ErrConvergenceFailed signals that a search exhausted its iteration budget.
	ErrConvergenceFailed = errors.New("search did not converge")
	// ErrSolverUnavailable signals an equilibrium solver transport failure.
	ErrSolverUnavailable = errors.New("equilibrium solver unavailable")
)

// SearchError wraps a search failure with the protocol, stage and iteration count it stopped at.
type SearchError struct {
	Protocol   string
	Stage      string
	Iterations int
	Err        error
}

func (e *SearchError) Error() string {
	return fmt.Sprintf("%s search, stage %s, after %d iterations: %s",
		e.Protocol, e.Stage, e.Iterations, e.Err.Error())
}

func (e *SearchError) Unwrap() error { return e.Err }

// NewConvergenceFailed creates a SearchError for an exhausted iteration budget.
func NewConvergenceFailed(protocol, stage string, iterations int) error {
	return &SearchError{Protocol: protocol, Stage: stage, Iterations: iterations, Err: ErrConvergenceFailed}
}
