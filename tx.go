package unidb

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"github.com/arloliu/unidb/adapter"
	"github.com/arloliu/unidb/pool"
	"github.com/arloliu/unidb/types"
)

// Transaction states. Active is initial; Committed and RolledBack are
// terminal.
const (
	txActive int32 = iota
	txCommitted
	txRolledBack
)

// Tx is an open transaction owning exclusive write access to one
// connection for its lifetime.
//
// Statements issued on a Tx are strictly ordered; concurrent calls are
// serialized. Statements inside a transaction are never auto-retried:
// a Retryable backend failure rolls the whole transaction back and
// surfaces, because re-issuing one statement inside a partially applied
// transaction would violate atomicity. The caller must restart the entire
// transaction body.
//
// Always `defer tx.Close()`: Close rolls back a still-Active transaction,
// guaranteeing the connection's write lock is released on every exit path.
type Tx struct {
	client *Client
	atx    adapter.Tx
	lease  *pool.Lease

	// mu gives transaction statements their strict issue-time ordering.
	mu    sync.Mutex
	state atomic.Int32
}

func newTx(client *Client, atx adapter.Tx, lease *pool.Lease) *Tx {
	return &Tx{client: client, atx: atx, lease: lease}
}

// State reports the transaction's lifecycle state for observability.
//
// Returns:
//   - string: "active", "committed", or "rolled_back"
func (t *Tx) State() string {
	switch t.state.Load() {
	case txCommitted:
		return "committed"
	case txRolledBack:
		return "rolled_back"
	default:
		return "active"
	}
}

// Exec executes a statement inside the transaction.
//
// Parameters:
//   - ctx: Context for cancellation and timeout
//   - stmt: SQL text with positional placeholders
//   - params: Ordered bind parameters
//
// Returns:
//   - int64: Number of rows affected
//   - error: types.ErrTransactionClosed in a terminal state;
//     *types.BackendError on backend failure; Retryable failures also
//     roll the transaction back
func (t *Tx) Exec(ctx context.Context, stmt string, params []types.Value) (int64, error) {
	var affected int64
	err := t.run(ctx, types.OpExec, stmt, params, func(ctx context.Context) error {
		var err error
		affected, err = t.atx.Exec(ctx, stmt, params)

		return err
	})
	if err != nil {
		return 0, err
	}

	return affected, nil
}

// Query executes a row-producing statement inside the transaction.
//
// Transactional queries always run on the pinned primary connection; they
// are never routed to a replica.
//
// Parameters:
//   - ctx: Context for cancellation and timeout
//   - stmt: SQL text with positional placeholders
//   - params: Ordered bind parameters
//
// Returns:
//   - *types.QueryResult: Decoded rows; never partial
//   - error: Same contract as Exec
func (t *Tx) Query(ctx context.Context, stmt string, params []types.Value) (*types.QueryResult, error) {
	var result *types.QueryResult
	err := t.run(ctx, types.OpQuery, stmt, params, func(ctx context.Context) error {
		var err error
		result, err = t.atx.Query(ctx, stmt, params)

		return err
	})
	if err != nil {
		return nil, err
	}

	return result, nil
}

// Commit flushes all statements issued since Begin.
//
// On backend-reported commit failure the transaction transitions to
// RolledBack, never partially applied, and the failure is surfaced.
//
// Returns:
//   - error: types.ErrTransactionClosed in a terminal state;
//     *types.BackendError on commit failure (transaction rolled back)
func (t *Tx) Commit(ctx context.Context) error {
	t.mu.Lock()
	defer t.mu.Unlock()

	if t.state.Load() != txActive {
		return types.ErrTransactionClosed
	}

	start := time.Now()
	err := t.atx.Commit(ctx)
	t.client.observe(types.OpCommit, start, err)

	if err != nil {
		// Commit is all-or-nothing: a failed commit leaves nothing applied.
		t.state.Store(txRolledBack)
		t.client.config.Metrics.IncTxRollback(t.client.kind)

		if t.client.dialect.IsConnectionError(err) || ctx.Err() != nil {
			t.lease.MarkBroken()
		}
		t.lease.Release()

		return t.client.wrapBackendErr(err, "", 1)
	}

	t.state.Store(txCommitted)
	t.client.config.Metrics.IncTxCommit(t.client.kind)
	t.lease.Release()

	return nil
}

// Rollback discards all statements issued since Begin.
//
// Rollback of an already rolled-back transaction is a no-op, not an error.
//
// Returns:
//   - error: nil for Active or RolledBack transactions;
//     types.ErrTransactionClosed after Commit
func (t *Tx) Rollback(ctx context.Context) error {
	t.mu.Lock()
	defer t.mu.Unlock()

	return t.rollbackLocked(ctx)
}

// Close releases the transaction on every exit path; it is the scoped
// counterpart to Begin and safe to defer unconditionally.
//
// A transaction still Active at Close is rolled back automatically, so an
// early return, panic, or cancellation never leaks the connection's write
// lock or leaves uncommitted statements visible.
func (t *Tx) Close() error {
	t.mu.Lock()
	defer t.mu.Unlock()

	if t.state.Load() != txActive {
		return nil
	}

	t.client.config.Logger.Debug("transaction abandoned while active, rolling back",
		"backend", t.client.kind.String(),
	)

	return t.rollbackLocked(context.Background())
}

// rollbackLocked performs the rollback transition. Caller holds t.mu.
func (t *Tx) rollbackLocked(ctx context.Context) error {
	switch t.state.Load() {
	case txRolledBack:
		return nil // idempotent
	case txCommitted:
		return types.ErrTransactionClosed
	}

	t.state.Store(txRolledBack)

	start := time.Now()
	err := t.atx.Rollback(ctx)
	t.client.observe(types.OpRollback, start, err)
	t.client.config.Metrics.IncTxRollback(t.client.kind)

	if err != nil {
		// A connection that cannot roll back is in an unknown state.
		t.lease.MarkBroken()
		t.lease.Release()

		return t.client.wrapBackendErr(err, "", 1)
	}

	t.lease.Release()

	return nil
}

// run is the shared transactional statement path: state check, fail-fast
// parameter check, strict ordering, instrumentation, and the
// rollback-on-retryable contract.
func (t *Tx) run(ctx context.Context, op types.Operation, stmt string, params []types.Value, fn func(ctx context.Context) error) error {
	if t.state.Load() != txActive {
		return types.ErrTransactionClosed
	}

	if err := t.client.checkParams(stmt, params); err != nil {
		return err
	}

	t.mu.Lock()
	defer t.mu.Unlock()

	// Re-check under the lock; a concurrent Commit/Rollback may have won.
	if t.state.Load() != txActive {
		return types.ErrTransactionClosed
	}

	start := time.Now()
	err := fn(ctx)
	t.client.observe(op, start, err)

	if err == nil {
		return nil
	}

	if t.client.dialect.IsConnectionError(err) || ctx.Err() != nil {
		t.lease.MarkBroken()
	}

	if t.client.dialect.Classify(err) == types.Retryable {
		// Never retry inside a transaction: roll the whole thing back and
		// let the caller restart the transaction body.
		wrapped := t.client.wrapBackendErr(err, stmt, 1)
		if rerr := t.rollbackLocked(ctx); rerr != nil {
			t.client.config.Logger.Warn("rollback after retryable failure also failed",
				"backend", t.client.kind.String(),
				"error", rerr.Error(),
			)
		}

		return wrapped
	}

	return t.client.wrapBackendErr(err, stmt, 1)
}
