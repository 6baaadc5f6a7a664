package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"go.uber.org/zap"

	"github.com/kailas-cloud/magmavol/internal/config"
	"github.com/kailas-cloud/magmavol/internal/db"
	"github.com/kailas-cloud/magmavol/internal/db/memory"
	dbRedis "github.com/kailas-cloud/magmavol/internal/db/redis"
	dbSQLite "github.com/kailas-cloud/magmavol/internal/db/sqlite"
	"github.com/kailas-cloud/magmavol/internal/domain/equilibrium"
	"github.com/kailas-cloud/magmavol/internal/metrics"
	"github.com/kailas-cloud/magmavol/internal/repository/eqcache"
	runrepo "github.com/kailas-cloud/magmavol/internal/repository/run"
	chiTransport "github.com/kailas-cloud/magmavol/internal/transport/chi"
	"github.com/kailas-cloud/magmavol/internal/transport/cli"
	"github.com/kailas-cloud/magmavol/internal/transport/melts"
	healthuc "github.com/kailas-cloud/magmavol/internal/usecase/health"
	runuc "github.com/kailas-cloud/magmavol/internal/usecase/run"
	solveruc "github.com/kailas-cloud/magmavol/internal/usecase/solver"
	"github.com/kailas-cloud/magmavol/internal/usecase/sweep"
	"github.com/kailas-cloud/magmavol/internal/usecase/volatiles"
)

// app is the composition root. It owns everything that needs closing.
type app struct {
	logger *zap.Logger
	store  db.Store
}

func (a *app) close() {
	if a.store != nil {
		a.store.Close()
	}
	if a.logger != nil {
		_ = a.logger.Sync()
	}
}

func (a *app) build(ctx context.Context, cfg config.Config) (*cli.Services, error) {
	logger := a.logger

	store, err := newStore(cfg.Database)
	if err != nil {
		return nil, fmt.Errorf("create database store: %w", err)
	}
	a.store = store

	readiness := time.Duration(cfg.Database.ReadinessTimeout) * time.Second
	if err := store.WaitForReady(ctx, readiness); err != nil {
		return nil, fmt.Errorf("database not ready: %w", err)
	}
	logger.Info("Connected to database", zap.String("driver", cfg.Database.Driver))

	// Solver chain: HTTP adapter -> Instrumented -> Cached (outermost, hits skip the metrics)
	client, err := melts.NewClient(melts.Config{
		BaseURL:           cfg.Solver.BaseURL,
		Timeout:           time.Duration(cfg.Solver.TimeoutSec) * time.Second,
		RequestsPerSecond: cfg.Solver.RequestsPerSecond,
		Burst:             cfg.Solver.Burst,
		Logger:            logger,
	})
	if err != nil {
		return nil, fmt.Errorf("create solver client: %w", err)
	}
	var solver equilibrium.Solver = solveruc.NewInstrumentedSolver(client, logger)
	if cfg.Solver.Cache.Enabled {
		ttl := time.Duration(cfg.Solver.Cache.TTLHours) * time.Hour
		solver = eqcache.New(solver, store, ttl, metrics.EquilibriumCacheTotal, logger)
	}
	logger.Info("Solver configured",
		zap.String("session_id", client.SessionID()),
		zap.Bool("cache", cfg.Solver.Cache.Enabled),
		zap.Float64("requests_per_second", cfg.Solver.RequestsPerSecond),
	)

	session := equilibrium.NewSession(solver)
	engine := volatiles.NewEngine(*cfg.Search.MaxIterations, logger)
	volSvc := volatiles.New(session, engine)
	sweepSvc := sweep.New(session, engine, logger).
		WithSmoother(sweep.NewPolySmoother(cfg.Search.SmoothPoints))

	runSvc := runuc.New(runrepo.New(store, time.Duration(cfg.Runs.TTLHours)*time.Hour))
	healthSvc := healthuc.New(store, client)

	server := chiTransport.NewServer(volSvc, sweepSvc, runSvc, healthSvc, logger)

	return &cli.Services{
		Volatiles: volSvc,
		Sweeps:    sweepSvc,
		Serve: func(ctx context.Context) error {
			return serveHTTP(ctx, cfg.HTTP, chiTransport.NewRouter(server, cfg.Auth.APIKeys, logger), logger)
		},
	}, nil
}

func newStore(cfg config.DatabaseConfig) (db.Store, error) {
	switch cfg.Driver {
	case config.DriverMemory:
		return memory.NewStore(), nil
	case config.DriverRedis, config.DriverValkey:
		// Valkey speaks the Redis protocol
		return dbRedis.NewStore(dbRedis.Config{
			Addrs:    cfg.Addrs,
			Username: cfg.Username,
			Password: cfg.Password,
			DB:       cfg.DB,
		})
	case config.DriverSQLite:
		return dbSQLite.NewStore(cfg.Path)
	default:
		return nil, fmt.Errorf("unknown database driver %q", cfg.Driver)
	}
}

// serveHTTP runs the API until ctx is cancelled, then shuts down gracefully.
func serveHTTP(ctx context.Context, cfg config.HTTPConfig, handler http.Handler, logger *zap.Logger) error {
	addr := fmt.Sprintf(":%d", cfg.Port)
	srv := &http.Server{
		Addr:         addr,
		Handler:      handler,
		ReadTimeout:  time.Duration(cfg.ReadTimeoutSec) * time.Second,
		WriteTimeout: time.Duration(cfg.WriteTimeoutSec) * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("Starting HTTP server", zap.String("addr", addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		if err != nil {
			return fmt.Errorf("http server: %w", err)
		}
		return nil
	case <-ctx.Done():
	}
	logger.Info("Received shutdown signal")

	shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), time.Duration(cfg.ShutdownSec)*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown: %w", err)
	}

	logger.Info("Server stopped gracefully")
	return nil
}
