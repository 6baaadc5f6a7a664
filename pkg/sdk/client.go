package magmavol

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/kailas-cloud/magmavol/internal/db"
	"github.com/kailas-cloud/magmavol/internal/db/memory"
	dbRedis "github.com/kailas-cloud/magmavol/internal/db/redis"
	dbSQLite "github.com/kailas-cloud/magmavol/internal/db/sqlite"
	"github.com/kailas-cloud/magmavol/internal/domain/composition"
	"github.com/kailas-cloud/magmavol/internal/domain/equilibrium"
	"github.com/kailas-cloud/magmavol/internal/repository/eqcache"
	"github.com/kailas-cloud/magmavol/internal/transport/melts"
	healthuc "github.com/kailas-cloud/magmavol/internal/usecase/health"
	"github.com/kailas-cloud/magmavol/internal/usecase/sweep"
	"github.com/kailas-cloud/magmavol/internal/usecase/volatiles"
)

const defaultReadinessTimeout = 10 * time.Second

// Internal interfaces, swapped out in tests.
type volatilesUseCase interface {
	SaturationPressure(ctx context.Context, comp *composition.Composition, temperatureC float64) (volatiles.SaturationResult, error)
	DissolvedVolatiles(
		ctx context.Context, comp *composition.Composition,
		temperatureC, pressureBars, xFluid, h2oGuess float64,
	) (volatiles.DissolvedResult, error)
	EquilibriumFluidComp(
		ctx context.Context, comp *composition.Composition, temperatureC, pressureBars float64,
	) (volatiles.FluidComposition, error)
}

type sweepUseCase interface {
	IsobarsAndIsopleths(ctx context.Context, comp *composition.Composition, req sweep.IsobarRequest) (sweep.IsobarResult, error)
	DegassingPath(ctx context.Context, comp *composition.Composition, req sweep.DegassingRequest) (sweep.DegassingResult, error)
}

// Client is the magmavol SDK entry point. Calls on one Client are serialized
// on its solver session; use several Clients for parallel work.
type Client struct {
	store     db.Store
	volSvc    volatilesUseCase
	sweepSvc  sweepUseCase
	healthSvc healthUseCase
	obs       *observer
}

// New creates a Client. A solver is required (WithSolverURL or WithSolver).
// The provided context is used for the cache readiness check.
func New(ctx context.Context, opts ...Option) (*Client, error) {
	cfg := &clientConfig{}
	for _, o := range opts {
		o.apply(cfg)
	}

	solver, checker, err := createSolver(cfg)
	if err != nil {
		return nil, err
	}

	store, err := createStore(cfg)
	if err != nil {
		return nil, err
	}
	if err := store.WaitForReady(ctx, defaultReadinessTimeout); err != nil {
		store.Close()
		return nil, fmt.Errorf("magmavol: database not ready: %w", err)
	}

	obs, err := newObserver(cfg.logger, cfg.metricsReg)
	if err != nil {
		store.Close()
		return nil, err
	}
	return wireClient(store, solver, checker, cfg, obs), nil
}

func createSolver(cfg *clientConfig) (Solver, healthuc.SolverChecker, error) {
	if cfg.solver != nil {
		if hc, ok := cfg.solver.(equilibrium.HealthChecker); ok {
			return cfg.solver, hc, nil
		}
		return cfg.solver, nil, nil
	}
	if cfg.solverURL == "" {
		return nil, nil, errors.New("magmavol: solver required (use WithSolverURL or WithSolver)")
	}
	client, err := melts.NewClient(melts.Config{
		BaseURL:           cfg.solverURL,
		Timeout:           cfg.solverTimeout,
		RequestsPerSecond: cfg.requestsPerSecond,
		Burst:             cfg.burst,
	})
	if err != nil {
		return nil, nil, fmt.Errorf("magmavol: create solver client: %w", err)
	}
	return client, client, nil
}

func createStore(cfg *clientConfig) (db.Store, error) {
	switch cfg.driver {
	case "", "memory":
		return memory.NewStore(), nil
	case "valkey", "redis":
		s, err := dbRedis.NewStore(dbRedis.Config{
			Addrs:    cfg.addrs,
			Password: cfg.password,
		})
		if err != nil {
			return nil, fmt.Errorf("magmavol: create %s store: %w", cfg.driver, err)
		}
		return s, nil
	case "sqlite":
		s, err := dbSQLite.NewStore(cfg.path)
		if err != nil {
			return nil, fmt.Errorf("magmavol: create sqlite store: %w", err)
		}
		return s, nil
	default:
		return nil, fmt.Errorf("magmavol: unknown driver %q", cfg.driver)
	}
}

func wireClient(
	store db.Store, solver Solver, checker healthuc.SolverChecker, cfg *clientConfig, obs *observer,
) *Client {
	logger := zap.NewNop()

	// Caching is opt-in: without a driver the memory store only backs health checks
	if cfg.driver != "" {
		solver = eqcache.New(solver, store, cfg.cacheTTL, nil, logger)
	}

	maxIterations := volatiles.DefaultMaxIterations
	if cfg.maxIterations != nil {
		maxIterations = *cfg.maxIterations
	}

	session := equilibrium.NewSession(solver)
	engine := volatiles.NewEngine(maxIterations, logger)
	sweepSvc := sweep.New(session, engine, logger).
		WithSmoother(sweep.NewPolySmoother(cfg.smoothPoints))

	return &Client{
		store:     store,
		volSvc:    volatiles.New(session, engine),
		sweepSvc:  sweepSvc,
		healthSvc: healthuc.New(store, checker),
		obs:       obs,
	}
}

// Close releases all resources.
func (c *Client) Close() {
	if c.store != nil {
		c.store.Close()
	}
}

// SaturationPressure finds the pressure at which the sample's melt first
// coexists with a fluid. When none is found the result is NaN-filled, carries
// a Warning, and the error wraps ErrSaturationNotFound.
func (c *Client) SaturationPressure(
	ctx context.Context, sample Sample, temperatureC float64,
) (res SaturationResult, err error) {
	start := time.Now()
	defer func() { c.obs.observe("saturation_pressure", start, err) }()

	comp, err := sample.Build()
	if err != nil {
		return SaturationResult{}, err
	}
	return c.volSvc.SaturationPressure(ctx, comp, temperatureC)
}

// DissolvedVolatiles finds the dissolved H2O and CO2 of the melt in
// equilibrium with a fluid of the requested H2O mole fraction.
func (c *Client) DissolvedVolatiles(
	ctx context.Context, sample Sample, req DissolvedRequest,
) (res DissolvedResult, err error) {
	start := time.Now()
	defer func() { c.obs.observe("dissolved_volatiles", start, err) }()

	comp, err := sample.Build()
	if err != nil {
		return DissolvedResult{}, err
	}
	return c.volSvc.DissolvedVolatiles(
		ctx, comp, req.TemperatureC, req.PressureBars, req.XH2OFluid, req.H2OGuess,
	)
}

// FluidComposition returns the fluid in equilibrium with the sample.
func (c *Client) FluidComposition(
	ctx context.Context, sample Sample, temperatureC, pressureBars float64,
) (res FluidComposition, err error) {
	start := time.Now()
	defer func() { c.obs.observe("fluid_composition", start, err) }()

	comp, err := sample.Build()
	if err != nil {
		return FluidComposition{}, err
	}
	return c.volSvc.EquilibriumFluidComp(ctx, comp, temperatureC, pressureBars)
}

// Isobars computes the isobar and isopleth tables.
func (c *Client) Isobars(
	ctx context.Context, sample Sample, req IsobarRequest,
) (res IsobarResult, err error) {
	start := time.Now()
	defer func() { c.obs.observe("isobars", start, err) }()

	comp, err := sample.Build()
	if err != nil {
		return IsobarResult{}, err
	}
	return c.sweepSvc.IsobarsAndIsopleths(ctx, comp, req)
}

// DegassingPath decompresses the sample from saturation. Zero Steps uses
// the default of 50.
func (c *Client) DegassingPath(
	ctx context.Context, sample Sample, req DegassingRequest,
) (res DegassingResult, err error) {
	start := time.Now()
	defer func() { c.obs.observe("degassing_path", start, err) }()

	comp, err := sample.Build()
	if err != nil {
		return DegassingResult{}, err
	}
	if req.Steps == 0 {
		req.Steps = sweep.DefaultDegassingSteps
	}
	return c.sweepSvc.DegassingPath(ctx, comp, req)
}
