package health

import (
	"context"
	"errors"
	"testing"
)

// --- Mocks ---

type mockDBPinger struct {
	err error
}

func (m *mockDBPinger) Ping(_ context.Context) error { return m.err }

type mockSolverChecker struct {
	err         error
	hadDeadline bool
}

func (m *mockSolverChecker) HealthCheck(ctx context.Context) error {
	_, m.hadDeadline = ctx.Deadline()
	return m.err
}

// --- Tests ---

func TestCheck(t *testing.T) {
	down := errors.New("down")
	tests := []struct {
		name      string
		dbErr     error
		solverErr error
		status    Status
		database  CheckResult
		solver    CheckResult
	}{
		{"all healthy", nil, nil, Healthy, CheckOK, CheckOK},
		{"database down", down, nil, Degraded, CheckError, CheckOK},
		{"solver down", nil, down, Degraded, CheckOK, CheckError},
		{"both down", down, down, Unhealthy, CheckError, CheckError},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			r := New(&mockDBPinger{err: tc.dbErr}, &mockSolverChecker{err: tc.solverErr}).Check(context.Background())
			if r.Status != tc.status {
				t.Errorf("status = %q, want %q", r.Status, tc.status)
			}
			if r.Checks[ComponentDatabase] != tc.database {
				t.Errorf("database = %q, want %q", r.Checks[ComponentDatabase], tc.database)
			}
			if r.Checks[ComponentSolver] != tc.solver {
				t.Errorf("solver = %q, want %q", r.Checks[ComponentSolver], tc.solver)
			}
		})
	}
}

func TestCheck_NoSolver(t *testing.T) {
	r := New(&mockDBPinger{}, nil).Check(context.Background())

	if r.Status != Healthy {
		t.Errorf("expected %q, got %q", Healthy, r.Status)
	}
	if _, ok := r.Checks[ComponentSolver]; ok {
		t.Error("solver check should be absent when solver is nil")
	}
}

func TestCheck_NoSolver_DBError(t *testing.T) {
	r := New(&mockDBPinger{err: errors.New("fail")}, nil).Check(context.Background())
	if r.Status != Unhealthy {
		t.Errorf("expected %q, got %q", Unhealthy, r.Status)
	}
}

func TestCheck_AppliesTimeout(t *testing.T) {
	solver := &mockSolverChecker{}
	New(&mockDBPinger{}, solver).Check(context.Background())
	if !solver.hadDeadline {
		t.Error("solver check should run under a deadline")
	}
}
