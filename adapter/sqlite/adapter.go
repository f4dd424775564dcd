package sqlite

import (
	"context"
	"database/sql"
	"sync/atomic"

	"github.com/google/uuid"

	// Register the "sqlite3" driver.
	_ "github.com/mattn/go-sqlite3"

	"github.com/arloliu/unidb/adapter"
	"github.com/arloliu/unidb/codec"
	"github.com/arloliu/unidb/types"
)

// Backend is the embedded backend, bound to one database file.
type Backend struct {
	db      *sql.DB
	dialect dialect
}

// Compile-time assertion that Backend implements adapter.Backend.
var _ adapter.Backend = (*Backend)(nil)

// New creates an embedded backend for the given database file.
//
// The path is passed to the sqlite3 driver verbatim, so DSN options such as
// "file:app.db?_busy_timeout=5000" work as documented by the driver.
// Use ":memory:" for an in-memory database.
//
// Parameters:
//   - path: Filesystem path or sqlite3 DSN
//
// Returns:
//   - *Backend: A backend ready to open the handle
//   - error: DSN parse failure
func New(path string) (*Backend, error) {
	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, err
	}

	// The engine supports one writer; a second handle would only contend.
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)

	return &Backend{db: db}, nil
}

// Kind identifies this backend as the embedded variant.
func (b *Backend) Kind() types.BackendKind {
	return types.Embedded
}

// Dialect returns the embedded dialect rules.
func (b *Backend) Dialect() adapter.Dialect {
	return b.dialect
}

// MaxConcurrency returns 1: the engine admits a single writer, so the pool
// degenerates to a mutual-exclusion lock around one handle.
func (b *Backend) MaxConcurrency() int {
	return 1
}

// Connect opens the single handle and starts its executor goroutine.
func (b *Backend) Connect(ctx context.Context) (adapter.Conn, error) {
	sc, err := b.db.Conn(ctx)
	if err != nil {
		return nil, err
	}

	c := &conn{
		id:   uuid.NewString(),
		sc:   sc,
		jobs: make(chan func()),
	}
	go c.loop()

	return c, nil
}

// Close releases the backend's driver resources.
func (b *Backend) Close() error {
	return b.db.Close()
}

// conn is the single embedded session. All driver calls run on the executor
// goroutine so blocking engine work never stalls the caller's scheduler;
// callers suspend on a completion channel instead.
type conn struct {
	id     string
	sc     *sql.Conn
	jobs   chan func()
	closed atomic.Bool
	inTx   atomic.Bool
}

// loop is the dedicated executor. It exits when the jobs channel is closed.
func (c *conn) loop() {
	for job := range c.jobs {
		job()
	}
}

// submit runs fn on the executor and waits for completion or cancellation.
//
// On cancellation the job may still complete in the background; the caller
// must treat the connection as broken and discard it, since an abandoned
// statement leaves the session in an ambiguous state.
func (c *conn) submit(ctx context.Context, fn func()) error {
	if c.closed.Load() {
		return sql.ErrConnDone
	}

	done := make(chan struct{})
	job := func() {
		defer close(done)
		fn()
	}

	select {
	case c.jobs <- job:
	case <-ctx.Done():
		return ctx.Err()
	}

	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// ID returns the connection's identifier.
func (c *conn) ID() string {
	return c.id
}

// Exec executes a statement that returns no rows.
func (c *conn) Exec(ctx context.Context, stmt string, params []types.Value) (int64, error) {
	var (
		n   int64
		err error
	)
	if serr := c.submit(ctx, func() {
		var res sql.Result
		res, err = c.sc.ExecContext(ctx, stmt, codec.BindArgs(params)...)
		if err == nil {
			n, _ = res.RowsAffected()
		}
	}); serr != nil {
		return 0, serr
	}

	return n, err
}

// Query executes a row-producing statement and decodes the full result.
//
// Decoding happens on the executor as well: the engine's cursor is part of
// the blocking surface and must not leak off the executor goroutine.
func (c *conn) Query(ctx context.Context, stmt string, params []types.Value) (*types.QueryResult, error) {
	var (
		result *types.QueryResult
		err    error
	)
	if serr := c.submit(ctx, func() {
		var rows *sql.Rows
		rows, err = c.sc.QueryContext(ctx, stmt, codec.BindArgs(params)...)
		if err == nil {
			result, err = codec.DecodeRows(rows)
		}
	}); serr != nil {
		return nil, serr
	}

	return result, err
}

// Begin starts a transaction. At most one transaction may be active per
// connection; a second Begin fails and leaves the first untouched.
func (c *conn) Begin(ctx context.Context) (adapter.Tx, error) {
	if !c.inTx.CompareAndSwap(false, true) {
		return nil, types.ErrAlreadyInTransaction
	}

	var (
		stx *sql.Tx
		err error
	)
	if serr := c.submit(ctx, func() {
		stx, err = c.sc.BeginTx(ctx, nil)
	}); serr != nil {
		c.inTx.Store(false)
		return nil, serr
	}
	if err != nil {
		c.inTx.Store(false)
		return nil, err
	}

	return &tx{conn: c, stx: stx}, nil
}

// Ping verifies the handle is alive.
func (c *conn) Ping(ctx context.Context) error {
	var err error
	if serr := c.submit(ctx, func() {
		err = c.sc.PingContext(ctx)
	}); serr != nil {
		return serr
	}

	return err
}

// Close stops the executor and releases the handle.
func (c *conn) Close() error {
	if c.closed.Swap(true) {
		return nil
	}

	errCh := make(chan error, 1)
	c.jobs <- func() {
		errCh <- c.sc.Close()
	}
	close(c.jobs)

	return <-errCh
}

// tx is an open transaction pinned to the embedded session's executor.
type tx struct {
	conn *conn
	stx  *sql.Tx
}

// Exec executes a statement inside the transaction.
func (t *tx) Exec(ctx context.Context, stmt string, params []types.Value) (int64, error) {
	var (
		n   int64
		err error
	)
	if serr := t.conn.submit(ctx, func() {
		var res sql.Result
		res, err = t.stx.ExecContext(ctx, stmt, codec.BindArgs(params)...)
		if err == nil {
			n, _ = res.RowsAffected()
		}
	}); serr != nil {
		return 0, serr
	}

	return n, err
}

// Query executes a row-producing statement inside the transaction.
func (t *tx) Query(ctx context.Context, stmt string, params []types.Value) (*types.QueryResult, error) {
	var (
		result *types.QueryResult
		err    error
	)
	if serr := t.conn.submit(ctx, func() {
		var rows *sql.Rows
		rows, err = t.stx.QueryContext(ctx, stmt, codec.BindArgs(params)...)
		if err == nil {
			result, err = codec.DecodeRows(rows)
		}
	}); serr != nil {
		return nil, serr
	}

	return result, err
}

// Commit flushes the transaction and frees the connection's transaction slot.
func (t *tx) Commit(ctx context.Context) error {
	var err error
	serr := t.conn.submit(ctx, func() {
		err = t.stx.Commit()
	})
	t.conn.inTx.Store(false)
	if serr != nil {
		return serr
	}

	return err
}

// Rollback discards the transaction and frees the connection's transaction slot.
func (t *tx) Rollback(ctx context.Context) error {
	var err error
	serr := t.conn.submit(ctx, func() {
		err = t.stx.Rollback()
	})
	t.conn.inTx.Store(false)
	if serr != nil {
		return serr
	}

	return err
}
