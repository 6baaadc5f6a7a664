// Package memory implements db.Store in process memory. It backs the
// default single-node deployment and the CLI.
package memory

import (
	"context"
	"fmt"
	"path"
	"slices"
	"sync"
	"time"

	"github.com/kailas-cloud/magmavol/internal/db"
)

var _ db.Store = (*Store)(nil)

type entry struct {
	value     []byte
	expiresAt time.Time
}

func (e entry) expired(now time.Time) bool {
	return !e.expiresAt.IsZero() && !now.Before(e.expiresAt)
}

// Store is a mutex-guarded map with lazy expiry.
type Store struct {
	mu   sync.RWMutex
	data map[string]entry
	now  func() time.Time
}

// NewStore creates an empty store.
func NewStore() *Store {
	return &Store{data: make(map[string]entry), now: time.Now}
}

// WithClock overrides the time source used for expiry.
func (s *Store) WithClock(now func() time.Time) *Store {
	s.now = now
	return s
}

// Ping always succeeds.
func (s *Store) Ping(context.Context) error { return nil }

// Close drops all keys.
func (s *Store) Close() {
	s.mu.Lock()
	defer s.mu.Unlock()
	clear(s.data)
}

// WaitForReady returns immediately.
func (s *Store) WaitForReady(context.Context, time.Duration) error { return nil }

// Get returns a copy of the stored value.
func (s *Store) Get(_ context.Context, key string) ([]byte, error) {
	s.mu.RLock()
	e, ok := s.data[key]
	s.mu.RUnlock()
	if !ok || e.expired(s.now()) {
		return nil, db.ErrKeyNotFound
	}
	return slices.Clone(e.value), nil
}

// Set stores value without expiry.
func (s *Store) Set(_ context.Context, key string, value []byte) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.data[key] = entry{value: slices.Clone(value)}
	return nil
}

// SetWithTTL stores value until ttl elapses.
func (s *Store) SetWithTTL(_ context.Context, key string, value []byte, ttl time.Duration) error {
	if ttl <= 0 {
		return &db.Error{Op: db.OpSet, Err: fmt.Errorf("invalid ttl %s", ttl)}
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.data[key] = entry{value: slices.Clone(value), expiresAt: s.now().Add(ttl)}
	return nil
}

// Del removes a key.
func (s *Store) Del(_ context.Context, key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.data, key)
	return nil
}

// Exists reports whether a live key is present.
func (s *Store) Exists(_ context.Context, key string) (bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	e, ok := s.data[key]
	return ok && !e.expired(s.now()), nil
}

// Scan returns live keys matching a glob pattern, sorted. Expired keys
// found on the way are evicted.
func (s *Store) Scan(_ context.Context, pattern string) ([]string, error) {
	if _, err := path.Match(pattern, ""); err != nil {
		return nil, &db.Error{Op: db.OpScan, Err: err}
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.now()
	var keys []string
	for k, e := range s.data {
		if e.expired(now) {
			delete(s.data, k)
			continue
		}
		if ok, _ := path.Match(pattern, k); ok {
			keys = append(keys, k)
		}
	}
	slices.Sort(keys)
	return keys, nil
}
