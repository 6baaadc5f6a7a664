// Package eqcache caches equilibrium states in a key-value store.
package eqcache

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"maps"
	"slices"
	"strconv"
	"strings"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"

	"github.com/kailas-cloud/magmavol/internal/db"
	"github.com/kailas-cloud/magmavol/internal/domain"
	"github.com/kailas-cloud/magmavol/internal/domain/equilibrium"
)

var cacheKeyPrefix = domain.KeyPrefix + "eq_cache:"

// DefaultTTL applies when New receives a non-positive ttl.
const DefaultTTL = 24 * time.Hour

// store is the consumer interface for the equilibrium cache.
type store interface {
	Get(ctx context.Context, key string) ([]byte, error)
	SetWithTTL(ctx context.Context, key string, value []byte, ttl time.Duration) error
}

// CachedSolver serves repeated (bulk, T, P) queries from the store.
// SetBulkComposition always reaches the inner solver so its session state
// stays in step with the caller; only Equilibrate is cached.
type CachedSolver struct {
	inner      equilibrium.Solver
	store      store
	ttl        time.Duration
	cacheTotal *prometheus.CounterVec
	logger     *zap.Logger

	bulk string // canonical form of the last feasible bulk; empty bypasses the cache
}

var _ equilibrium.Solver = (*CachedSolver)(nil)

// New creates a caching decorator.
// cacheTotal is a counter vec with label "result" ("hit"/"miss"), passed explicitly.
func New(
	inner equilibrium.Solver,
	s store,
	ttl time.Duration,
	cacheTotal *prometheus.CounterVec,
	logger *zap.Logger,
) *CachedSolver {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	return &CachedSolver{
		inner:      inner,
		store:      s,
		ttl:        ttl,
		cacheTotal: cacheTotal,
		logger:     logger,
	}
}

// SetBulkComposition forwards to the inner solver and remembers the bulk.
func (c *CachedSolver) SetBulkComposition(ctx context.Context, oxides map[string]float64) (bool, error) {
	feasible, err := c.inner.SetBulkComposition(ctx, oxides)
	if err != nil {
		c.bulk = ""
		return false, fmt.Errorf("set bulk composition: %w", err)
	}
	if feasible {
		c.bulk = canonical(oxides)
	} else {
		c.bulk = ""
	}
	return feasible, nil
}

// Equilibrate returns a cached state for the current bulk or asks the inner solver.
func (c *CachedSolver) Equilibrate(ctx context.Context, temperatureC, pressureMPa float64) (equilibrium.State, error) {
	if c.bulk == "" {
		return c.equilibrate(ctx, temperatureC, pressureMPa)
	}

	key := c.cacheKey(temperatureC, pressureMPa)
	if st, ok := c.getFromCache(ctx, key); ok {
		c.incCache("hit")
		return st, nil
	}
	c.incCache("miss")

	st, err := c.equilibrate(ctx, temperatureC, pressureMPa)
	if err != nil {
		return equilibrium.State{}, err
	}
	c.putToCache(ctx, key, st)
	return st, nil
}

func (c *CachedSolver) equilibrate(ctx context.Context, temperatureC, pressureMPa float64) (equilibrium.State, error) {
	st, err := c.inner.Equilibrate(ctx, temperatureC, pressureMPa)
	if err != nil {
		return equilibrium.State{}, fmt.Errorf("equilibrate: %w", err)
	}
	return st, nil
}

func (c *CachedSolver) incCache(result string) {
	if c.cacheTotal != nil {
		c.cacheTotal.WithLabelValues(result).Inc()
	}
}

func (c *CachedSolver) cacheKey(temperatureC, pressureMPa float64) string {
	h := sha256.New()
	h.Write([]byte(c.bulk))
	h.Write([]byte("|T=" + formatFloat(temperatureC) + "|P=" + formatFloat(pressureMPa)))
	return cacheKeyPrefix + hex.EncodeToString(h.Sum(nil))
}

func (c *CachedSolver) getFromCache(ctx context.Context, key string) (equilibrium.State, bool) {
	data, err := c.store.Get(ctx, key)
	if err != nil {
		if !errors.Is(err, db.ErrKeyNotFound) {
			c.logger.Warn("Failed to get cached equilibrium", zap.String("key", key), zap.Error(err))
		}
		return equilibrium.State{}, false
	}

	var st equilibrium.State
	if err := json.Unmarshal(data, &st); err != nil {
		c.logger.Warn("Failed to parse cached equilibrium", zap.String("key", key), zap.Error(err))
		return equilibrium.State{}, false
	}
	return st, true
}

func (c *CachedSolver) putToCache(ctx context.Context, key string, st equilibrium.State) {
	data, err := json.Marshal(st)
	if err != nil {
		c.logger.Debug("Equilibrium state not cacheable", zap.String("key", key), zap.Error(err))
		return
	}
	if err := c.store.SetWithTTL(ctx, key, data, c.ttl); err != nil {
		c.logger.Warn("Failed to cache equilibrium", zap.String("key", key), zap.Error(err))
	}
}

// canonical renders oxides in sorted key order with shortest round-trip floats.
func canonical(oxides map[string]float64) string {
	var b strings.Builder
	for _, k := range slices.Sorted(maps.Keys(oxides)) {
		b.WriteString(k)
		b.WriteByte('=')
		b.WriteString(formatFloat(oxides[k]))
		b.WriteByte(';')
	}
	return b.String()
}

func formatFloat(v float64) string {
	return strconv.FormatFloat(v, 'g', -1, 64)
}
