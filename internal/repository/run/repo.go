// Package run stores calculation runs in the key-value store with a TTL.
package run

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"time"

	"github.com/kailas-cloud/magmavol/internal/db"
	"github.com/kailas-cloud/magmavol/internal/domain"
	domrun "github.com/kailas-cloud/magmavol/internal/domain/run"
)

// DefaultTTL applies when New receives a non-positive ttl.
const DefaultTTL = 24 * time.Hour

// store is the consumer interface for runs.
type store interface {
	Get(ctx context.Context, key string) ([]byte, error)
	SetWithTTL(ctx context.Context, key string, value []byte, ttl time.Duration) error
	Del(ctx context.Context, key string) error
	Exists(ctx context.Context, key string) (bool, error)
	Scan(ctx context.Context, pattern string) ([]string, error)
}

// Repo implements usecase/run.Repository.
type Repo struct {
	store store
	ttl   time.Duration
}

// New creates a run repository.
func New(s store, ttl time.Duration) *Repo {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	return &Repo{store: s, ttl: ttl}
}

func runKey(id string) string {
	return domain.KeyPrefix + "run:" + id
}

// Save stores a run, replacing any run with the same id.
func (r *Repo) Save(ctx context.Context, run domrun.Run) error {
	data, err := runToJSON(run)
	if err != nil {
		return err
	}
	if err := r.store.SetWithTTL(ctx, runKey(run.ID()), data, r.ttl); err != nil {
		return fmt.Errorf("save run %s: %w", run.ID(), err)
	}
	return nil
}

// Get retrieves a run by id.
func (r *Repo) Get(ctx context.Context, id string) (domrun.Run, error) {
	data, err := r.store.Get(ctx, runKey(id))
	if errors.Is(err, db.ErrKeyNotFound) {
		return domrun.Run{}, domain.ErrNotFound
	}
	if err != nil {
		return domrun.Run{}, fmt.Errorf("get run %s: %w", id, err)
	}
	return runFromJSON(data)
}

// List returns all live runs, newest first. Runs that expire between the
// scan and the read are skipped.
func (r *Repo) List(ctx context.Context) ([]domrun.Run, error) {
	keys, err := r.store.Scan(ctx, runKey("*"))
	if err != nil {
		return nil, fmt.Errorf("scan runs: %w", err)
	}

	runs := make([]domrun.Run, 0, len(keys))
	for _, k := range keys {
		data, err := r.store.Get(ctx, k)
		if errors.Is(err, db.ErrKeyNotFound) {
			continue
		}
		if err != nil {
			return nil, fmt.Errorf("get %s: %w", k, err)
		}
		run, err := runFromJSON(data)
		if err != nil {
			return nil, err
		}
		runs = append(runs, run)
	}

	sort.SliceStable(runs, func(i, j int) bool {
		return runs[i].CreatedAt() > runs[j].CreatedAt()
	})
	return runs, nil
}

// Delete removes a run.
func (r *Repo) Delete(ctx context.Context, id string) error {
	key := runKey(id)
	exists, err := r.store.Exists(ctx, key)
	if err != nil {
		return fmt.Errorf("check run %s: %w", id, err)
	}
	if !exists {
		return domain.ErrNotFound
	}
	if err := r.store.Del(ctx, key); err != nil {
		return fmt.Errorf("delete run %s: %w", id, err)
	}
	return nil
}
