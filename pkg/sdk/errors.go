package magmavol

import "github.com/kailas-cloud/magmavol/internal/domain"

// Sentinel errors re-exported from the domain layer.
// Use errors.Is() to check.
var (
	ErrInvalidInput       = domain.ErrInvalidInput
	ErrInvalidBasis       = domain.ErrInvalidBasis
	ErrSaturationNotFound = domain.ErrSaturationNotFound
	ErrConvergenceFailed  = domain.ErrConvergenceFailed
	ErrSolverUnavailable  = domain.ErrSolverUnavailable
)

// SearchError carries the protocol, stage and iteration count a failed search stopped at.
// Use errors.As() to extract it.
type SearchError = domain.SearchError
