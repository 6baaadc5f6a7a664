package run

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/kailas-cloud/magmavol/internal/db/memory"
	"github.com/kailas-cloud/magmavol/internal/domain"
	domrun "github.com/kailas-cloud/magmavol/internal/domain/run"
)

// --- Mocks ---

type failingStore struct {
	*memory.Store
	err error
}

func (f *failingStore) Scan(context.Context, string) ([]string, error) { return nil, f.err }

// --- Tests ---

func mustRun(t *testing.T, id string, createdAt int64) domrun.Run {
	t.Helper()
	r, err := domrun.New(id, domrun.KindSaturationPressure,
		json.RawMessage(`{"temperature_c":1200}`), json.RawMessage(`{"pressure_bars":2500}`), "", createdAt)
	if err != nil {
		t.Fatal(err)
	}
	return r
}

func TestRepo_SaveGet(t *testing.T) {
	ctx := context.Background()
	repo := New(memory.NewStore(), time.Hour)

	want := mustRun(t, "r1", 100)
	if err := repo.Save(ctx, want); err != nil {
		t.Fatal(err)
	}
	got, err := repo.Get(ctx, "r1")
	if err != nil {
		t.Fatal(err)
	}
	if got.ID() != "r1" || got.Kind() != domrun.KindSaturationPressure || got.Status() != domrun.StatusSucceeded {
		t.Errorf("unexpected run %+v", got)
	}
	if string(got.Result()) != `{"pressure_bars":2500}` {
		t.Errorf("result = %s", got.Result())
	}
}

func TestRepo_GetNotFound(t *testing.T) {
	_, err := New(memory.NewStore(), time.Hour).Get(context.Background(), "missing")
	if !errors.Is(err, domain.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestRepo_Expiry(t *testing.T) {
	ctx := context.Background()
	now := time.Unix(1000, 0)
	repo := New(memory.NewStore().WithClock(func() time.Time { return now }), time.Minute)

	_ = repo.Save(ctx, mustRun(t, "r1", 100))
	now = now.Add(2 * time.Minute)
	if _, err := repo.Get(ctx, "r1"); !errors.Is(err, domain.ErrNotFound) {
		t.Fatalf("expected expired run, got %v", err)
	}
}

func TestRepo_ListNewestFirst(t *testing.T) {
	ctx := context.Background()
	repo := New(memory.NewStore(), 0)

	for i, id := range []string{"a", "b", "c"} {
		_ = repo.Save(ctx, mustRun(t, id, int64(100+i)))
	}
	runs, err := repo.List(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if len(runs) != 3 || runs[0].ID() != "c" || runs[2].ID() != "a" {
		t.Fatalf("unexpected order %v", runs)
	}
}

func TestRepo_ListScanError(t *testing.T) {
	errBoom := errors.New("boom")
	repo := New(&failingStore{Store: memory.NewStore(), err: errBoom}, time.Hour)
	if _, err := repo.List(context.Background()); !errors.Is(err, errBoom) {
		t.Fatalf("expected scan error, got %v", err)
	}
}

func TestRepo_Delete(t *testing.T) {
	ctx := context.Background()
	repo := New(memory.NewStore(), time.Hour)
	_ = repo.Save(ctx, mustRun(t, "r1", 100))

	if err := repo.Delete(ctx, "r1"); err != nil {
		t.Fatal(err)
	}
	if err := repo.Delete(ctx, "r1"); !errors.Is(err, domain.ErrNotFound) {
		t.Fatalf("second delete: expected ErrNotFound, got %v", err)
	}
}
