package eqcache

import (
	"context"
	"errors"
	"reflect"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"go.uber.org/zap"

	"github.com/kailas-cloud/magmavol/internal/db"
	"github.com/kailas-cloud/magmavol/internal/domain/equilibrium/equilibriumtest"
)

// --- Mocks ---

type mockKVStore struct {
	data   map[string][]byte
	ttls   map[string]time.Duration
	getErr error
	setErr error
}

func newMockKVStore() *mockKVStore {
	return &mockKVStore{data: map[string][]byte{}, ttls: map[string]time.Duration{}}
}

func (m *mockKVStore) Get(_ context.Context, key string) ([]byte, error) {
	if m.getErr != nil {
		return nil, m.getErr
	}
	v, ok := m.data[key]
	if !ok {
		return nil, db.ErrKeyNotFound
	}
	return v, nil
}

func (m *mockKVStore) SetWithTTL(_ context.Context, key string, value []byte, ttl time.Duration) error {
	if m.setErr != nil {
		return m.setErr
	}
	m.data[key] = value
	m.ttls[key] = ttl
	return nil
}

func newCounter() *prometheus.CounterVec {
	return prometheus.NewCounterVec(prometheus.CounterOpts{Name: "test_cache_total"}, []string{"result"})
}

var basalt = map[string]float64{"SiO2": 50, "MgO": 9, "H2O": 3, "CO2": 0.5}

// --- Tests ---

func TestEquilibrate_MissThenHit(t *testing.T) {
	ctx := context.Background()
	inner := equilibriumtest.New()
	kv := newMockKVStore()
	counter := newCounter()
	c := New(inner, kv, time.Hour, counter, zap.NewNop())

	if _, err := c.SetBulkComposition(ctx, basalt); err != nil {
		t.Fatal(err)
	}
	first, err := c.Equilibrate(ctx, 1200, 100)
	if err != nil {
		t.Fatal(err)
	}
	second, err := c.Equilibrate(ctx, 1200, 100)
	if err != nil {
		t.Fatal(err)
	}

	if inner.EquilibrateCalls() != 1 {
		t.Errorf("inner called %d times, want 1", inner.EquilibrateCalls())
	}
	if !reflect.DeepEqual(first, second) {
		t.Errorf("cached state differs:\n%+v\n%+v", first, second)
	}
	if testutil.ToFloat64(counter.WithLabelValues("miss")) != 1 || testutil.ToFloat64(counter.WithLabelValues("hit")) != 1 {
		t.Error("expected one miss and one hit")
	}
	for _, ttl := range kv.ttls {
		if ttl != time.Hour {
			t.Errorf("ttl = %s, want 1h", ttl)
		}
	}
}

func TestEquilibrate_KeyedByBulkAndConditions(t *testing.T) {
	ctx := context.Background()
	inner := equilibriumtest.New()
	c := New(inner, newMockKVStore(), 0, nil, zap.NewNop())

	_, _ = c.SetBulkComposition(ctx, basalt)
	_, _ = c.Equilibrate(ctx, 1200, 100)
	_, _ = c.Equilibrate(ctx, 1200, 200)
	_, _ = c.Equilibrate(ctx, 1100, 100)

	other := map[string]float64{"SiO2": 50, "MgO": 9, "H2O": 2, "CO2": 0.5}
	_, _ = c.SetBulkComposition(ctx, other)
	_, _ = c.Equilibrate(ctx, 1200, 100)

	if inner.EquilibrateCalls() != 4 {
		t.Errorf("inner called %d times, want 4 distinct queries", inner.EquilibrateCalls())
	}
	if c.ttl != DefaultTTL {
		t.Errorf("ttl = %s, want default", c.ttl)
	}
}

func TestSetBulkComposition_AlwaysForwarded(t *testing.T) {
	ctx := context.Background()
	inner := equilibriumtest.New()
	c := New(inner, newMockKVStore(), time.Hour, nil, zap.NewNop())

	for range 3 {
		if _, err := c.SetBulkComposition(ctx, basalt); err != nil {
			t.Fatal(err)
		}
	}
	if inner.Calls() != 3 {
		t.Errorf("inner SetBulkComposition calls = %d, want 3", inner.Calls())
	}
}

func TestEquilibrate_InfeasibleBypassesCache(t *testing.T) {
	ctx := context.Background()
	inner := equilibriumtest.New()
	inner.Infeasible = true
	kv := newMockKVStore()
	c := New(inner, kv, time.Hour, nil, zap.NewNop())

	_, _ = c.SetBulkComposition(ctx, basalt)
	_, _ = c.Equilibrate(ctx, 1200, 100)
	_, _ = c.Equilibrate(ctx, 1200, 100)

	if inner.EquilibrateCalls() != 2 {
		t.Errorf("inner called %d times, want 2", inner.EquilibrateCalls())
	}
	if len(kv.data) != 0 {
		t.Errorf("infeasible bulk should not be cached, got %d keys", len(kv.data))
	}
}

func TestEquilibrate_StoreErrorsFallThrough(t *testing.T) {
	ctx := context.Background()
	inner := equilibriumtest.New()
	kv := newMockKVStore()
	kv.getErr = errors.New("connection reset")
	kv.setErr = errors.New("connection reset")
	c := New(inner, kv, time.Hour, nil, zap.NewNop())

	_, _ = c.SetBulkComposition(ctx, basalt)
	if _, err := c.Equilibrate(ctx, 1200, 100); err != nil {
		t.Fatalf("store failure must not fail the query: %v", err)
	}
	if inner.EquilibrateCalls() != 1 {
		t.Errorf("inner called %d times, want 1", inner.EquilibrateCalls())
	}
}

func TestEquilibrate_InnerError(t *testing.T) {
	ctx := context.Background()
	errBoom := errors.New("boom")
	inner := equilibriumtest.New()
	inner.EquilibrateErr = errBoom
	kv := newMockKVStore()
	c := New(inner, kv, time.Hour, nil, zap.NewNop())

	_, _ = c.SetBulkComposition(ctx, basalt)
	if _, err := c.Equilibrate(ctx, 1200, 100); !errors.Is(err, errBoom) {
		t.Fatalf("expected wrapped inner error, got %v", err)
	}
	if len(kv.data) != 0 {
		t.Error("failed query should not be cached")
	}
}

func TestCanonical_OrderIndependent(t *testing.T) {
	a := canonical(map[string]float64{"SiO2": 50, "H2O": 3})
	b := canonical(map[string]float64{"H2O": 3, "SiO2": 50})
	if a != b || a != "H2O=3;SiO2=50;" {
		t.Errorf("canonical = %q / %q", a, b)
	}
}
