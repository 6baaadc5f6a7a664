package memory

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/kailas-cloud/magmavol/internal/db"
)

type fakeClock struct{ t time.Time }

func (c *fakeClock) now() time.Time { return c.t }

func TestStore_GetSet(t *testing.T) {
	ctx := context.Background()
	s := NewStore()

	if _, err := s.Get(ctx, "k"); !errors.Is(err, db.ErrKeyNotFound) {
		t.Fatalf("expected ErrKeyNotFound, got %v", err)
	}

	value := []byte("v1")
	if err := s.Set(ctx, "k", value); err != nil {
		t.Fatal(err)
	}
	value[0] = 'x'

	got, err := s.Get(ctx, "k")
	if err != nil {
		t.Fatal(err)
	}
	if string(got) != "v1" {
		t.Errorf("stored value aliased caller slice: %q", got)
	}
}

func TestStore_TTL(t *testing.T) {
	ctx := context.Background()
	clock := &fakeClock{t: time.Unix(1000, 0)}
	s := NewStore().WithClock(clock.now)

	if err := s.SetWithTTL(ctx, "k", []byte("v"), time.Minute); err != nil {
		t.Fatal(err)
	}
	if ok, _ := s.Exists(ctx, "k"); !ok {
		t.Fatal("key should exist before expiry")
	}

	clock.t = clock.t.Add(time.Minute)
	if _, err := s.Get(ctx, "k"); !errors.Is(err, db.ErrKeyNotFound) {
		t.Errorf("expected expired key, got %v", err)
	}
	if ok, _ := s.Exists(ctx, "k"); ok {
		t.Error("expired key reported as existing")
	}
}

func TestStore_SetWithTTL_Invalid(t *testing.T) {
	err := NewStore().SetWithTTL(context.Background(), "k", nil, 0)
	var dbErr *db.Error
	if !errors.As(err, &dbErr) || dbErr.Op != db.OpSet {
		t.Fatalf("expected SET db.Error, got %v", err)
	}
}

func TestStore_ScanAndDel(t *testing.T) {
	ctx := context.Background()
	clock := &fakeClock{t: time.Unix(1000, 0)}
	s := NewStore().WithClock(clock.now)

	_ = s.Set(ctx, "run:b", []byte("2"))
	_ = s.Set(ctx, "run:a", []byte("1"))
	_ = s.Set(ctx, "eq:x", []byte("3"))
	_ = s.SetWithTTL(ctx, "run:old", []byte("4"), time.Second)
	clock.t = clock.t.Add(time.Hour)

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
	if len(keys) != 1 {
		t.Errorf("expected 1 key after delete, got %v", keys)
	}

	if _, err := s.Scan(ctx, "["); err == nil {
		t.Error("expected error for malformed pattern")
	}
}

func TestStore_Close(t *testing.T) {
	ctx := context.Background()
	s := NewStore()
	_ = s.Set(ctx, "k", []byte("v"))
	s.Close()
	if ok, _ := s.Exists(ctx, "k"); ok {
		t.Error("Close should drop keys")
	}
}
