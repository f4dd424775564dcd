package unidb

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

const sampleYAML = `
backend:
  kind: networked
  dsn: postgres://app@db.internal/app?sslmode=disable
  replica_dsn: postgres://app@db-ro.internal/app?sslmode=disable
pool:
  max_conns: 8
  acquire_timeout: 5s
  health_check_interval: 30s
retry:
  max_attempts: 5
  base_backoff: 25ms
  max_backoff: 1s
`

func TestParseConfig(t *testing.T) {
	fc, err := ParseConfig([]byte(sampleYAML))
	require.NoError(t, err)

	require.Equal(t, "networked", fc.Backend.Kind)
	require.Equal(t, "postgres://app@db.internal/app?sslmode=disable", fc.Backend.DSN)
	require.Equal(t, "postgres://app@db-ro.internal/app?sslmode=disable", fc.Backend.ReplicaDSN)
	require.Equal(t, 8, fc.Pool.MaxConns)
	require.Equal(t, "5s", fc.Pool.AcquireTimeout)
	require.Equal(t, 5, fc.Retry.MaxAttempts)
	require.Equal(t, "25ms", fc.Retry.BaseBackoff)
}

func TestParseConfigInvalidYAML(t *testing.T) {
	_, err := ParseConfig([]byte("backend: [not a map"))
	require.Error(t, err)
	require.Contains(t, err.Error(), "parse config")
}

func TestLoadConfig(t *testing.T) {
	path := filepath.Join(t.TempDir(), "unidb.yaml")
	require.NoError(t, os.WriteFile(path, []byte(sampleYAML), 0o600))

	fc, err := LoadConfig(path)
	require.NoError(t, err)
	require.Equal(t, "networked", fc.Backend.Kind)

	t.Run("missing file", func(t *testing.T) {
		_, err := LoadConfig(filepath.Join(t.TempDir(), "nope.yaml"))
		require.Error(t, err)
	})
}

func TestBuildValidation(t *testing.T) {
	t.Run("unknown kind", func(t *testing.T) {
		fc := &FileConfig{}
		fc.Backend.Kind = "graph"

		_, err := fc.Build()
		require.Error(t, err)
		require.Contains(t, err.Error(), "unknown backend kind")
	})

	t.Run("networked requires dsn", func(t *testing.T) {
		fc := &FileConfig{}
		fc.Backend.Kind = "networked"

		_, err := fc.Build()
		require.Error(t, err)
		require.Contains(t, err.Error(), "requires dsn")
	})

	t.Run("embedded requires path", func(t *testing.T) {
		fc := &FileConfig{}
		fc.Backend.Kind = "embedded"

		_, err := fc.Build()
		require.Error(t, err)
		require.Contains(t, err.Error(), "requires path")
	})

	t.Run("replica requires networked backend", func(t *testing.T) {
		fc := &FileConfig{}
		fc.Backend.Kind = "embedded"
		fc.Backend.Path = filepath.Join(t.TempDir(), "app.db")
		fc.Backend.ReplicaDSN = "postgres://ro@db/app"

		_, err := fc.Build()
		require.Error(t, err)
		require.Contains(t, err.Error(), "replica_dsn")
	})

	t.Run("invalid duration names the field", func(t *testing.T) {
		fc := &FileConfig{}
		fc.Backend.Kind = "embedded"
		fc.Backend.Path = filepath.Join(t.TempDir(), "app.db")
		fc.Pool.AcquireTimeout = "fast"

		_, err := fc.Build()
		require.Error(t, err)
		require.Contains(t, err.Error(), "pool.acquire_timeout")
	})
}

func TestBuildEmbedded(t *testing.T) {
	fc := &FileConfig{}
	fc.Backend.Kind = "embedded"
	fc.Backend.Path = filepath.Join(t.TempDir(), "app.db")
	fc.Retry.MaxAttempts = 2
	fc.Retry.BaseBackoff = "10ms"

	client, err := fc.Build()
	require.NoError(t, err)
	defer client.Close()

	require.Equal(t, "embedded", client.Kind().String())
	require.Equal(t, 2, client.config.Retry.MaxAttempts)
	require.Equal(t, 10*time.Millisecond, client.config.Retry.BaseBackoff)
}
