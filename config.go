package unidb

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/arloliu/unidb/adapter"
	"github.com/arloliu/unidb/adapter/postgres"
	"github.com/arloliu/unidb/adapter/sqlite"
	"github.com/arloliu/unidb/internal/logging"
	"github.com/arloliu/unidb/internal/metrics"
	"github.com/arloliu/unidb/policy"
	"github.com/arloliu/unidb/pool"
	"github.com/arloliu/unidb/types"
)

// ClientConfig holds configuration for unidb clients.
//
// All fields are fixed at construction; the client never mutates them
// afterward.
type ClientConfig struct {
	Pool    pool.Config
	Retry   policy.RetryPolicy
	Metrics types.MetricsCollector
	Logger  types.Logger

	replica adapter.Backend
}

// DefaultConfig returns a ClientConfig with sensible defaults.
//
// Defaults:
//   - Pool: 4 connections, 5s acquisition timeout, 30s health-check interval
//   - Retry: 3 attempts, 50ms base backoff, 2s ceiling
//   - Metrics/Logger: no-op implementations
//
// Returns:
//   - *ClientConfig: Configuration with default settings
func DefaultConfig() *ClientConfig {
	return &ClientConfig{
		Retry:   policy.Default(),
		Metrics: metrics.NewNopMetrics(),
		Logger:  logging.NewNopLogger(),
	}
}

// Option configures a ClientConfig.
type Option func(*ClientConfig)

// WithPoolConfig sets the pool bounds.
//
// Parameters:
//   - cfg: Pool configuration; zero fields take defaults
//
// Returns:
//   - Option: Configuration option
func WithPoolConfig(cfg pool.Config) Option {
	return func(c *ClientConfig) {
		c.Pool = cfg
	}
}

// WithRetryPolicy sets the default retry policy for non-transactional
// operations. Individual calls may override it with WithRetry.
//
// Parameters:
//   - p: The retry policy to use by default
//
// Returns:
//   - Option: Configuration option
func WithRetryPolicy(p policy.RetryPolicy) Option {
	return func(c *ClientConfig) {
		c.Retry = p
	}
}

// WithMetrics sets the metrics collector.
//
// If not set, a no-op collector is used that discards all metrics.
// Use contrib/metrics/vm.New() for VictoriaMetrics integration.
//
// Parameters:
//   - collector: The metrics collector implementation
//
// Returns:
//   - Option: Configuration option
func WithMetrics(collector types.MetricsCollector) Option {
	return func(c *ClientConfig) {
		c.Metrics = collector
	}
}

// WithLogger sets the structured logger.
//
// If not set, a no-op logger is used that discards all messages.
// The logger interface is compatible with zap.SugaredLogger.
//
// Parameters:
//   - logger: The logger implementation
//
// Returns:
//   - Option: Configuration option
func WithLogger(logger types.Logger) Option {
	return func(c *ClientConfig) {
		c.Logger = logger
	}
}

// WithReadReplica sets a read-replica backend.
//
// When configured, read-only queries issued outside a transaction are
// routed to the replica; writes and all transactional work stay on the
// primary. The replica must be of the same backend kind as the primary.
//
// Parameters:
//   - replica: The replica backend
//
// Returns:
//   - Option: Configuration option
func WithReadReplica(replica adapter.Backend) Option {
	return func(c *ClientConfig) {
		c.replica = replica
	}
}

// FileConfig is the YAML form of the client configuration.
//
// Durations are Go duration strings ("5s", "250ms"). Example:
//
//	backend:
//	  kind: networked
//	  dsn: postgres://app@db.internal/app?sslmode=verify-full
//	  replica_dsn: postgres://app@db-ro.internal/app?sslmode=verify-full
//	pool:
//	  max_conns: 8
//	  acquire_timeout: 5s
//	  health_check_interval: 30s
//	retry:
//	  max_attempts: 3
//	  base_backoff: 50ms
//	  max_backoff: 2s
type FileConfig struct {
	Backend struct {
		// Kind is "networked" or "embedded".
		Kind string `yaml:"kind"`

		// DSN is the networked backend's connection string.
		DSN string `yaml:"dsn"`

		// ReplicaDSN optionally names a read replica (networked only).
		ReplicaDSN string `yaml:"replica_dsn"`

		// Path is the embedded backend's database file.
		Path string `yaml:"path"`
	} `yaml:"backend"`

	Pool struct {
		MaxConns            int    `yaml:"max_conns"`
		AcquireTimeout      string `yaml:"acquire_timeout"`
		HealthCheckInterval string `yaml:"health_check_interval"`
	} `yaml:"pool"`

	Retry struct {
		MaxAttempts int    `yaml:"max_attempts"`
		BaseBackoff string `yaml:"base_backoff"`
		MaxBackoff  string `yaml:"max_backoff"`
	} `yaml:"retry"`
}

// LoadConfig reads a FileConfig from a YAML file.
//
// Parameters:
//   - path: The configuration file path
//
// Returns:
//   - *FileConfig: The parsed configuration
//   - error: Read or parse failure; unknown fields are rejected
func LoadConfig(path string) (*FileConfig, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("unidb: read config: %w", err)
	}

	return ParseConfig(data)
}

// ParseConfig parses a FileConfig from YAML bytes.
func ParseConfig(data []byte) (*FileConfig, error) {
	var fc FileConfig
	if err := yaml.Unmarshal(data, &fc); err != nil {
		return nil, fmt.Errorf("unidb: parse config: %w", err)
	}

	return &fc, nil
}

// Build constructs a client from the file configuration.
//
// Parameters:
//   - opts: Additional options applied after the file settings (e.g.
//     WithLogger, WithMetrics)
//
// Returns:
//   - *Client: A configured client
//   - error: Invalid configuration or backend construction failure
func (fc *FileConfig) Build(opts ...Option) (*Client, error) {
	var (
		primary adapter.Backend
		err     error
	)

	switch fc.Backend.Kind {
	case "networked":
		if fc.Backend.DSN == "" {
			return nil, fmt.Errorf("unidb: networked backend requires dsn")
		}
		primary, err = postgres.New(fc.Backend.DSN)
	case "embedded":
		if fc.Backend.Path == "" {
			return nil, fmt.Errorf("unidb: embedded backend requires path")
		}
		primary, err = sqlite.New(fc.Backend.Path)
	default:
		return nil, fmt.Errorf("unidb: unknown backend kind %q", fc.Backend.Kind)
	}
	if err != nil {
		return nil, err
	}

	poolCfg := pool.Config{MaxConns: fc.Pool.MaxConns}
	if poolCfg.AcquireTimeout, err = parseDuration(fc.Pool.AcquireTimeout, "pool.acquire_timeout"); err != nil {
		return nil, err
	}
	if poolCfg.HealthCheckInterval, err = parseDuration(fc.Pool.HealthCheckInterval, "pool.health_check_interval"); err != nil {
		return nil, err
	}

	retry := policy.RetryPolicy{MaxAttempts: fc.Retry.MaxAttempts}
	if retry.BaseBackoff, err = parseDuration(fc.Retry.BaseBackoff, "retry.base_backoff"); err != nil {
		return nil, err
	}
	if retry.MaxBackoff, err = parseDuration(fc.Retry.MaxBackoff, "retry.max_backoff"); err != nil {
		return nil, err
	}
	if retry.MaxAttempts <= 0 {
		retry = policy.Default()
	}

	built := []Option{WithPoolConfig(poolCfg), WithRetryPolicy(retry)}

	if fc.Backend.ReplicaDSN != "" {
		if fc.Backend.Kind != "networked" {
			return nil, fmt.Errorf("unidb: replica_dsn requires the networked backend")
		}

		replica, rerr := postgres.New(fc.Backend.ReplicaDSN)
		if rerr != nil {
			return nil, rerr
		}
		built = append(built, WithReadReplica(replica))
	}

	return NewClient(primary, append(built, opts...)...)
}

func parseDuration(s, field string) (time.Duration, error) {
	if s == "" {
		return 0, nil
	}

	d, err := time.ParseDuration(s)
	if err != nil {
		return 0, fmt.Errorf("unidb: invalid %s: %w", field, err)
	}

	return d, nil
}
