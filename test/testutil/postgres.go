// Package testutil provides testing utilities for the unidb project.
package testutil

import (
	"context"
	"fmt"
	"time"

	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/modules/postgres"
	"github.com/testcontainers/testcontainers-go/wait"
)

// PostgresServer wraps a PostgreSQL test container.
type PostgresServer struct {
	Container *postgres.PostgresContainer
	DSN       string
}

// PostgresOptions configures the PostgreSQL container.
type PostgresOptions struct {
	// Image is the PostgreSQL image to use. Defaults to "postgres:16-alpine".
	Image string
	// Database is the database to create. Defaults to "unidb_test".
	Database string
}

// DefaultPostgresOptions returns default options for the PostgreSQL container.
func DefaultPostgresOptions() PostgresOptions {
	return PostgresOptions{
		Image:    "postgres:16-alpine",
		Database: "unidb_test",
	}
}

// StartPostgres starts a PostgreSQL container for testing.
//
// The caller owns the container and must Terminate it.
//
// Parameters:
//   - ctx: Context for container operations
//   - opts: Optional configuration (nil uses defaults)
//
// Returns:
//   - *PostgresServer: Container with a ready-to-use DSN
//   - error: Error if the container fails to start
func StartPostgres(ctx context.Context, opts *PostgresOptions) (*PostgresServer, error) {
	if opts == nil {
		defaultOpts := DefaultPostgresOptions()
		opts = &defaultOpts
	}

	container, err := postgres.Run(ctx, opts.Image,
		postgres.WithDatabase(opts.Database),
		postgres.WithUsername("unidb"),
		postgres.WithPassword("unidb"),
		testcontainers.WithWaitStrategy(
			wait.ForLog("database system is ready to accept connections").
				WithOccurrence(2).
				WithStartupTimeout(60*time.Second),
		),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to start PostgreSQL container: %w", err)
	}

	dsn, err := container.ConnectionString(ctx, "sslmode=disable")
	if err != nil {
		_ = container.Terminate(ctx)
		return nil, fmt.Errorf("failed to get connection string: %w", err)
	}

	return &PostgresServer{Container: container, DSN: dsn}, nil
}

// Terminate stops and removes the container.
func (s *PostgresServer) Terminate(ctx context.Context) error {
	if s.Container == nil {
		return nil
	}

	return s.Container.Terminate(ctx)
}
