package sqlite

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"github.com/kailas-cloud/magmavol/internal/db"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()
	s, err := NewStore(filepath.Join(t.TempDir(), "data", "magmavol.db"))
	if err != nil {
		t.Fatalf("NewStore: %v", err)
	}
	t.Cleanup(s.Close)
	return s
}

func TestNewStore_EmptyPath(t *testing.T) {
	if _, err := NewStore(""); err == nil {
		t.Fatal("expected error for empty path")
	}
}

func TestStore_PingAndReady(t *testing.T) {
	s := newTestStore(t)
	if err := s.WaitForReady(context.Background(), time.Second); err != nil {
		t.Fatalf("WaitForReady: %v", err)
	}
}

func TestStore_GetSetOverwrite(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)

	if _, err := s.Get(ctx, "k"); !errors.Is(err, db.ErrKeyNotFound) {
		t.Fatalf("expected ErrKeyNotFound, got %v", err)
	}
	if err := s.Set(ctx, "k", []byte("v1")); err != nil {
		t.Fatal(err)
	}
	if err := s.Set(ctx, "k", []byte("v2")); err != nil {
		t.Fatal(err)
	}
	got, err := s.Get(ctx, "k")
	if err != nil {
		t.Fatal(err)
	}
	if string(got) != "v2" {
		t.Errorf("got %q, want v2", got)
	}
}

func TestStore_TTL(t *testing.T) {
	ctx := context.Background()
	now := time.Unix(1000, 0)
	s := newTestStore(t).WithClock(func() time.Time { return now })

	if err := s.SetWithTTL(ctx, "k", []byte("v"), time.Minute); err != nil {
		t.Fatal(err)
	}
	if ok, err := s.Exists(ctx, "k"); err != nil || !ok {
		t.Fatalf("Exists before expiry = %v, %v", ok, err)
	}

	now = now.Add(2 * time.Minute)
	if _, err := s.Get(ctx, "k"); !errors.Is(err, db.ErrKeyNotFound) {
		t.Errorf("expected expired key, got %v", err)
	}
	if ok, _ := s.Exists(ctx, "k"); ok {
		t.Error("expired key reported as existing")
	}
	if err := s.SetWithTTL(ctx, "k", []byte("v"), -time.Second); err == nil {
		t.Error("expected error for negative ttl")
	}
}

func TestStore_ScanAndDel(t *testing.T) {
	ctx := context.Background()
	now := time.Unix(1000, 0)
	s := newTestStore(t).WithClock(func() time.Time { return now })

	_ = s.Set(ctx, "run:b", []byte("2"))
	_ = s.Set(ctx, "run:a", []byte("1"))
	_ = s.Set(ctx, "eq:x", []byte("3"))
	_ = s.SetWithTTL(ctx, "run:old", []byte("4"), time.Second)
	now = now.Add(time.Hour)

	keys, err := s.Scan(ctx, "run:*")
	if err != nil {
		t.Fatal(err)
	}
	if len(keys) != 2 || keys[0] != "run:a" || keys[1] != "run:b" {
		t.Fatalf("unexpected keys %v", keys)
	}

	if err := s.Del(ctx, "run:a"); err != nil {
		t.Fatal(err)
	}
	keys, _ = s.Scan(ctx, "run:*")
	if len(keys) != 1 || keys[0] != "run:b" {
		t.Errorf("unexpected keys after delete %v", keys)
	}
}
