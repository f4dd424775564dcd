package adapter

import (
	"context"

	"github.com/arloliu/unidb/types"
)

// Dialect captures the backend-specific rules the client must apply before
// and after statement execution.
//
// Implementations MUST be safe for concurrent use from multiple goroutines.
type Dialect interface {
	// CountPlaceholders returns the number of bind parameters the statement
	// expects under this backend's placeholder convention. Placeholders
	// inside string literals and comments are not counted.
	CountPlaceholders(stmt string) int

	// Classify determines whether a backend failure is Retryable or Terminal.
	// Unknown failures are Terminal; classification never guesses.
	Classify(err error) types.ErrorClass

	// IsConnectionError reports whether the failure is connection-level
	// rather than statement-level. Connections that report connection-level
	// failures are discarded, never returned to the pool.
	IsConnectionError(err error) bool
}

// Backend constructs connections against one database engine.
//
// Implementations MUST be safe for concurrent use from multiple goroutines.
type Backend interface {
	// Kind identifies the backend variant.
	Kind() types.BackendKind

	// Dialect returns the backend's dialect rules.
	Dialect() Dialect

	// MaxConcurrency returns the maximum number of concurrently usable
	// connections this backend supports, or 0 for no inherent limit.
	// The embedded backend returns 1: its engine admits a single writer.
	MaxConcurrency() int

	// Connect opens one new connection.
	//
	// Parameters:
	//   - ctx: Context for cancellation and timeout
	//
	// Returns:
	//   - Conn: A live connection bound to this backend
	//   - error: Dial or handshake failure
	Connect(ctx context.Context) (Conn, error)

	// Close releases backend-level resources. Connections already handed
	// out remain usable until individually closed.
	Close() error
}

// Conn is one logical session against a backend.
//
// A Conn is exclusively owned by one caller at a time; the pool enforces
// this. Statements issued on one Conn are strictly ordered by issue time.
type Conn interface {
	// ID returns a stable identifier for this connection, used in logs and
	// pool bookkeeping.
	ID() string

	// Exec executes a statement that returns no rows.
	//
	// Parameters:
	//   - ctx: Context for cancellation and timeout
	//   - stmt: SQL text with positional placeholders
	//   - params: Ordered bind parameters
	//
	// Returns:
	//   - int64: Number of rows affected
	//   - error: Driver failure
	Exec(ctx context.Context, stmt string, params []types.Value) (int64, error)

	// Query executes a statement producing rows.
	//
	// Parameters:
	//   - ctx: Context for cancellation and timeout
	//   - stmt: SQL text with positional placeholders
	//   - params: Ordered bind parameters
	//
	// Returns:
	//   - *types.QueryResult: Fully decoded result rows
	//   - error: Driver or decode failure
	Query(ctx context.Context, stmt string, params []types.Value) (*types.QueryResult, error)

	// Begin starts a transaction on this connection.
	//
	// Returns types.ErrAlreadyInTransaction if a transaction is already
	// active on this connection; the active transaction is unaffected.
	Begin(ctx context.Context) (Tx, error)

	// Ping verifies the connection is alive.
	Ping(ctx context.Context) error

	// Close releases the connection's resources.
	Close() error
}

// Tx is an open backend transaction bound to one Conn.
//
// Commit and Rollback release the connection's transaction slot; exactly
// one of them must be called once.
type Tx interface {
	// Exec executes a statement inside the transaction.
	Exec(ctx context.Context, stmt string, params []types.Value) (int64, error)

	// Query executes a row-producing statement inside the transaction.
	Query(ctx context.Context, stmt string, params []types.Value) (*types.QueryResult, error)

	// Commit flushes all statements issued since Begin.
	Commit(ctx context.Context) error

	// Rollback discards all statements issued since Begin.
	Rollback(ctx context.Context) error
}
