package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"go.uber.org/zap"

	"github.com/kailas-cloud/magmavol/internal/config"
	logpkg "github.com/kailas-cloud/magmavol/internal/logger"
	"github.com/kailas-cloud/magmavol/internal/metrics"
	"github.com/kailas-cloud/magmavol/internal/transport/cli"
	"github.com/kailas-cloud/magmavol/internal/version"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	os.Exit(run(ctx))
}

func run(ctx context.Context) int {
	a := &app{}
	defer a.close()

	cli.SetBootstrap(func(ctx context.Context) (*cli.Services, error) {
		env := config.GetEnv()
		cfg, err := config.Load(env)
		if err != nil {
			return nil, fmt.Errorf("load config: %w", err)
		}

		// serve logs at the configured level; one-off commands stay quiet
		logEnv := logpkg.EnvCLI
		if len(os.Args) > 1 && os.Args[1] == "serve" {
			logEnv = env
		}
		logger, err := logpkg.NewLogger(logEnv, cfg.Logging.Level)
		if err != nil {
			return nil, fmt.Errorf("create logger: %w", err)
		}
		a.logger = logger

		logger.Info("Starting magmavol",
			zap.String("version", version.Version),
			zap.String("commit", version.Commit),
			zap.String("env", env),
			zap.String("db_driver", cfg.Database.Driver),
			zap.String("solver", cfg.Solver.BaseURL),
		)

		metrics.RegisterSolverMetrics()
		return a.build(ctx, cfg)
	})

	if err := cli.Execute(ctx); err != nil {
		return 1
	}
	return 0
}
