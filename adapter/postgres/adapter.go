package postgres

import (
	"context"
	"database/sql"
	"sync/atomic"

	"github.com/google/uuid"

	// Register the "postgres" driver.
	_ "github.com/lib/pq"

	"github.com/arloliu/unidb/adapter"
	"github.com/arloliu/unidb/codec"
	"github.com/arloliu/unidb/types"
)

// Backend is the networked backend, bound to one PostgreSQL target.
type Backend struct {
	db      *sql.DB
	dialect dialect
}

// Compile-time assertion that Backend implements adapter.Backend.
var _ adapter.Backend = (*Backend)(nil)

// New creates a networked backend for the given connection string.
//
// The underlying database/sql pool is left unbounded; the unidb pool is the
// sole arbiter of connection concurrency.
//
// Parameters:
//   - dsn: lib/pq connection string (URL or key=value form)
//
// Returns:
//   - *Backend: A backend ready to dial connections
//   - error: DSN parse failure
func New(dsn string) (*Backend, error) {
	db, err := sql.Open("postgres", dsn)
	if err != nil {
		return nil, err
	}

	db.SetMaxIdleConns(0)

	return &Backend{db: db}, nil
}

// NewFromDB creates a networked backend from an existing *sql.DB.
//
// This is useful for injecting a pre-configured or instrumented handle.
func NewFromDB(db *sql.DB) *Backend {
	return &Backend{db: db}
}

// Kind identifies this backend as the networked variant.
func (b *Backend) Kind() types.BackendKind {
	return types.Networked
}

// Dialect returns the networked dialect rules.
func (b *Backend) Dialect() adapter.Dialect {
	return b.dialect
}

// MaxConcurrency returns 0: the server imposes no client-side limit.
func (b *Backend) MaxConcurrency() int {
	return 0
}

// Connect opens one dedicated session against the server.
func (b *Backend) Connect(ctx context.Context) (adapter.Conn, error) {
	sc, err := b.db.Conn(ctx)
	if err != nil {
		return nil, err
	}

	return &conn{id: uuid.NewString(), sc: sc}, nil
}

// Close releases the backend's driver resources.
func (b *Backend) Close() error {
	return b.db.Close()
}

// conn is one dedicated session; it is exclusively owned by one caller at a
// time (the pool enforces this).
type conn struct {
	id   string
	sc   *sql.Conn
	inTx atomic.Bool
}

// ID returns the connection's identifier.
func (c *conn) ID() string {
	return c.id
}

// Exec executes a statement that returns no rows.
func (c *conn) Exec(ctx context.Context, stmt string, params []types.Value) (int64, error) {
	res, err := c.sc.ExecContext(ctx, stmt, codec.BindArgs(params)...)
	if err != nil {
		return 0, err
	}

	n, err := res.RowsAffected()
	if err != nil {
		return 0, nil //nolint:nilerr // driver cannot report a count; zero is the contract
	}

	return n, nil
}

// Query executes a row-producing statement and decodes the full result.
func (c *conn) Query(ctx context.Context, stmt string, params []types.Value) (*types.QueryResult, error) {
	rows, err := c.sc.QueryContext(ctx, stmt, codec.BindArgs(params)...)
	if err != nil {
		return nil, err
	}

	return codec.DecodeRows(rows)
}

// Begin starts a transaction. At most one transaction may be active per
// connection; a second Begin fails and leaves the first untouched.
func (c *conn) Begin(ctx context.Context) (adapter.Tx, error) {
	if !c.inTx.CompareAndSwap(false, true) {
		return nil, types.ErrAlreadyInTransaction
	}

	stx, err := c.sc.BeginTx(ctx, nil)
	if err != nil {
		c.inTx.Store(false)
		return nil, err
	}

	return &tx{conn: c, stx: stx}, nil
}

// Ping verifies the session is alive.
func (c *conn) Ping(ctx context.Context) error {
	return c.sc.PingContext(ctx)
}

// Close returns the session to the driver and releases its resources.
func (c *conn) Close() error {
	return c.sc.Close()
}

// tx is an open transaction pinned to one session.
type tx struct {
	conn *conn
	stx  *sql.Tx
}

// Exec executes a statement inside the transaction.
func (t *tx) Exec(ctx context.Context, stmt string, params []types.Value) (int64, error) {
	res, err := t.stx.ExecContext(ctx, stmt, codec.BindArgs(params)...)
	if err != nil {
		return 0, err
	}

	n, err := res.RowsAffected()
	if err != nil {
		return 0, nil //nolint:nilerr // driver cannot report a count; zero is the contract
	}

	return n, nil
}

// Query executes a row-producing statement inside the transaction.
func (t *tx) Query(ctx context.Context, stmt string, params []types.Value) (*types.QueryResult, error) {
	rows, err := t.stx.QueryContext(ctx, stmt, codec.BindArgs(params)...)
	if err != nil {
		return nil, err
	}

	return codec.DecodeRows(rows)
}

// Commit flushes the transaction and frees the connection's transaction slot.
func (t *tx) Commit(_ context.Context) error {
	err := t.stx.Commit()
	t.conn.inTx.Store(false)

	return err
}

// Rollback discards the transaction and frees the connection's transaction slot.
func (t *tx) Rollback(_ context.Context) error {
	err := t.stx.Rollback()
	t.conn.inTx.Store(false)

	return err
}
