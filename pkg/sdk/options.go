package magmavol

import (
	"log/slog"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Option configures the Client.
type Option interface {
	apply(*clientConfig)
}

// optionFunc adapts a function to the Option interface.
type optionFunc func(*clientConfig)

func (f optionFunc) apply(c *clientConfig) { f(c) }

type clientConfig struct {
	solverURL         string
	solverTimeout     time.Duration
	requestsPerSecond float64
	burst             int
	solver            Solver

	driver   string // "valkey", "redis", "sqlite" or "memory"; empty disables caching
	addrs    []string
	password string
	path     string
	cacheTTL time.Duration

	maxIterations *int
	smoothPoints  int

	logger     *slog.Logger
	metricsReg prometheus.Registerer
}

// WithSolverURL points the client at a remote equilibrium service.
func WithSolverURL(url string) Option {
	return optionFunc(func(c *clientConfig) {
		c.solverURL = url
	})
}

// WithSolverTimeout bounds a single remote solver request.
// Default: 30s.
func WithSolverTimeout(d time.Duration) Option {
	return optionFunc(func(c *clientConfig) {
		c.solverTimeout = d
	})
}

// WithRateLimit paces remote solver requests. Zero rps disables pacing (default).
func WithRateLimit(rps float64, burst int) Option {
	return optionFunc(func(c *clientConfig) {
		c.requestsPerSecond = rps
		c.burst = burst
	})
}

// WithSolver runs calculations against an in-process Solver instead of a
// remote service. It takes precedence over WithSolverURL.
func WithSolver(s Solver) Option {
	return optionFunc(func(c *clientConfig) {
		c.solver = s
	})
}

// WithValkey caches equilibrium answers in a Valkey instance.
func WithValkey(addr, password string) Option {
	return optionFunc(func(c *clientConfig) {
		c.driver = "valkey"
		c.addrs = []string{addr}
		c.password = password
	})
}

// WithRedis caches equilibrium answers in a Redis instance.
func WithRedis(addr, password string) Option {
	return optionFunc(func(c *clientConfig) {
		c.driver = "redis"
		c.addrs = []string{addr}
		c.password = password
	})
}

// WithSQLite caches equilibrium answers in a SQLite file.
func WithSQLite(path string) Option {
	return optionFunc(func(c *clientConfig) {
		c.driver = "sqlite"
		c.path = path
	})
}

// WithMemoryCache caches equilibrium answers in process memory.
func WithMemoryCache() Option {
	return optionFunc(func(c *clientConfig) {
		c.driver = "memory"
	})
}

// WithCacheTTL sets how long cached equilibrium answers live.
// Default: 24h.
func WithCacheTTL(d time.Duration) Option {
	return optionFunc(func(c *clientConfig) {
		c.cacheTTL = d
	})
}

// WithMaxIterations bounds the solver queries of one search. 0 means unbounded.
// Default: 5000.
func WithMaxIterations(n int) Option {
	return optionFunc(func(c *clientConfig) {
		c.maxIterations = &n
	})
}

// WithSmoothPoints sets how many points a smoothed isobar or isopleth has.
// Default: 51.
func WithSmoothPoints(n int) Option {
	return optionFunc(func(c *clientConfig) {
		c.smoothPoints = n
	})
}

// WithLogger enables structured logging for SDK operations.
// Pass nil to disable (default). Uses standard library slog.
func WithLogger(l *slog.Logger) Option {
	return optionFunc(func(c *clientConfig) {
		c.logger = l
	})
}

// WithPrometheus registers SDK metrics (operation counts and durations)
// on the given registerer. Pass nil to disable (default).
func WithPrometheus(reg prometheus.Registerer) Option {
	return optionFunc(func(c *clientConfig) {
		c.metricsReg = reg
	})
}
