package health

import "context"

// DBPinger checks database availability.
type DBPinger interface {
	Ping(ctx context.Context) error
}

// SolverChecker checks equilibrium solver availability.
type SolverChecker interface {
	HealthCheck(ctx context.Context) error
}
