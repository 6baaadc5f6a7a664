package config

import (
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"runtime"
	"slices"
	"strings"

	"gopkg.in/yaml.v3"
)

// Database drivers.
const (
	DriverMemory = "memory"
	DriverRedis  = "redis"
	DriverValkey = "valkey"
	DriverSQLite = "sqlite"
)

var drivers = []string{DriverMemory, DriverRedis, DriverValkey, DriverSQLite}

// DefaultMaxIterations is the per-protocol solver query budget when
// search.max_iterations is not set.
const DefaultMaxIterations = 5000

// Config holds the magmavol configuration.
type Config struct {
	HTTP     HTTPConfig     `yaml:"http"`
	Database DatabaseConfig `yaml:"database"`
	Solver   SolverConfig   `yaml:"solver"`
	Search   SearchConfig   `yaml:"search"`
	Runs     RunsConfig     `yaml:"runs"`
	Auth     AuthConfig     `yaml:"auth"`
	Logging  LoggingConfig  `yaml:"logging"`
}

// LoggingConfig holds logging settings.
type LoggingConfig struct {
	Level string `yaml:"level"` // debug, info, warn, error (default: determined by env)
}

// AuthConfig holds API authentication settings.
type AuthConfig struct {
	APIKeys []string `yaml:"api_keys"`
}

// HTTPConfig holds HTTP server settings.
type HTTPConfig struct {
	Port            int `yaml:"port"`
	ReadTimeoutSec  int `yaml:"read_timeout_sec"`
	WriteTimeoutSec int `yaml:"write_timeout_sec"`
	ShutdownSec     int `yaml:"shutdown_timeout_sec"`
}

// DatabaseConfig holds key-value store settings.
type DatabaseConfig struct {
	Driver           string   `yaml:"driver"` // memory (default), redis, valkey, sqlite
	Addrs            []string `yaml:"addrs"`
	Username         string   `yaml:"username"`
	Password         string   `yaml:"password"`
	DB               int      `yaml:"db"`
	Path             string   `yaml:"path"` // sqlite file
	ReadinessTimeout int      `yaml:"readiness_timeout_sec"`
}

// SolverConfig holds equilibrium solver adapter settings.
type SolverConfig struct {
	BaseURL           string      `yaml:"base_url"`
	TimeoutSec        int         `yaml:"timeout_sec"`
	RequestsPerSecond float64     `yaml:"requests_per_second"` // 0 = unpaced
	Burst             int         `yaml:"burst"`
	Cache             CacheConfig `yaml:"cache"`
}

// CacheConfig holds equilibrium cache settings.
type CacheConfig struct {
	Enabled  bool `yaml:"enabled"`
	TTLHours int  `yaml:"ttl_hours"`
}

// SearchConfig holds volatile search settings.
type SearchConfig struct {
	// MaxIterations caps solver queries per search protocol; 0 = unbounded.
	MaxIterations *int `yaml:"max_iterations"`
	SmoothPoints  int  `yaml:"smooth_points"`
}

// RunsConfig holds run retention settings.
type RunsConfig struct {
	TTLHours int `yaml:"ttl_hours"`
}

// Load reads configuration from a YAML file by environment name (local, dev, prod).
func Load(env string) (Config, error) {
	return LoadFile(findConfigPath(env))
}

// LoadFile reads configuration from an explicit path.
func LoadFile(configPath string) (Config, error) {
	data, err := os.ReadFile(filepath.Clean(configPath))
	if err != nil {
		return Config{}, fmt.Errorf("failed to read config %s: %w", configPath, err)
	}
	return Parse(data)
}

// Parse expands ${VAR} references, decodes YAML, applies defaults and validates.
func Parse(data []byte) (Config, error) {
	data = expandEnvVars(data)

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return Config{}, fmt.Errorf("failed to parse config: %w", err)
	}

	cfg.ApplyDefaults()

	if err := cfg.Validate(); err != nil {
		return Config{}, fmt.Errorf("invalid config: %w", err)
	}

	return cfg, nil
}

// MustLoad loads configuration or panics.
func MustLoad(env string) Config {
	cfg, err := Load(env)
	if err != nil {
		panic(err)
	}
	return cfg
}

// GetEnv returns the current environment from the ENV variable, defaulting to "local".
func GetEnv() string {
	if env := os.Getenv("ENV"); env != "" {
		return env
	}
	return "local"
}

// ApplyDefaults fills empty fields with default values.
func (c *Config) ApplyDefaults() {
	if c.HTTP.ReadTimeoutSec <= 0 {
		c.HTTP.ReadTimeoutSec = 10
	}
	if c.HTTP.WriteTimeoutSec <= 0 {
		c.HTTP.WriteTimeoutSec = 300
	}
	if c.HTTP.ShutdownSec <= 0 {
		c.HTTP.ShutdownSec = 10
	}
	if c.Database.Driver == "" {
		c.Database.Driver = DriverMemory
	}
	if c.Database.ReadinessTimeout <= 0 {
		c.Database.ReadinessTimeout = 10
	}
	if c.Solver.TimeoutSec <= 0 {
		c.Solver.TimeoutSec = 30
	}
	if c.Solver.Burst <= 0 {
		c.Solver.Burst = 1
	}
	if c.Solver.Cache.TTLHours <= 0 {
		c.Solver.Cache.TTLHours = 24
	}
	if c.Search.MaxIterations == nil {
		n := DefaultMaxIterations
		c.Search.MaxIterations = &n
	}
	if c.Search.SmoothPoints <= 0 {
		c.Search.SmoothPoints = 51
	}
	if c.Runs.TTLHours <= 0 {
		c.Runs.TTLHours = 24
	}
}

// Validate checks the configuration for correctness.
func (c *Config) Validate() error {
	if c.HTTP.Port <= 0 || c.HTTP.Port > 65535 {
		return fmt.Errorf("http.port must be between 1 and 65535, got %d", c.HTTP.Port)
	}
	if !slices.Contains(drivers, c.Database.Driver) {
		return fmt.Errorf("database.driver must be one of %s, got %q", strings.Join(drivers, ", "), c.Database.Driver)
	}
	switch c.Database.Driver {
	case DriverRedis, DriverValkey:
		if len(c.Database.Addrs) == 0 {
			return fmt.Errorf("database.addrs is required for driver %s", c.Database.Driver)
		}
	case DriverSQLite:
		if c.Database.Path == "" {
			return fmt.Errorf("database.path is required for driver sqlite")
		}
	}
	if c.Solver.BaseURL == "" {
		return fmt.Errorf("solver.base_url is required")
	}
	if c.Solver.RequestsPerSecond < 0 {
		return fmt.Errorf("solver.requests_per_second must not be negative, got %v", c.Solver.RequestsPerSecond)
	}
	if c.Search.MaxIterations != nil && *c.Search.MaxIterations < 0 {
		return fmt.Errorf("search.max_iterations must not be negative, got %d", *c.Search.MaxIterations)
	}
	return nil
}

// findConfigPath locates the config file.
func findConfigPath(env string) string {
	filename := fmt.Sprintf("%s.yaml", env)

	// 1. Check ./config/
	if path := filepath.Join("config", filename); fileExists(path) {
		return path
	}

	// 2. Check relative to the source file
	_, b, _, _ := runtime.Caller(0)
	projectRoot := filepath.Dir(filepath.Dir(filepath.Dir(b))) // internal/config -> project root
	if path := filepath.Join(projectRoot, "config", filename); fileExists(path) {
		return path
	}

	// 3. Fallback to ./config/
	return filepath.Join("config", filename)
}

func fileExists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}

// expandEnvVars replaces ${VAR} and ${VAR:-default} with environment variable values.
var envVarRegex = regexp.MustCompile(`\$\{([^}]+)\}`)

func expandEnvVars(data []byte) []byte {
	return envVarRegex.ReplaceAllFunc(data, func(match []byte) []byte {
		expr := string(match[2 : len(match)-1])
		varName, defaultVal, hasDefault := strings.Cut(expr, ":-")
		val := os.Getenv(varName)
		if val == "" && hasDefault {
			val = defaultVal
		}
		return []byte(val)
	})
}
