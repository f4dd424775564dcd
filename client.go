package unidb

import (
	"context"
	"errors"
	"sync/atomic"
	"time"

	"github.com/arloliu/unidb/adapter"
	"github.com/arloliu/unidb/internal/logging"
	"github.com/arloliu/unidb/internal/metrics"
	"github.com/arloliu/unidb/policy"
	"github.com/arloliu/unidb/pool"
	"github.com/arloliu/unidb/types"
)

// Client is the unified SQL access layer over one backend (plus an optional
// read replica).
//
// The same Client API serves both backend kinds: the networked backend runs
// fully concurrent over a bounded connection pool, while the embedded
// backend's calls are serialized onto its single handle. Callers never see
// backend-specific handles.
type Client struct {
	router  *pool.Router
	dialect adapter.Dialect
	kind    types.BackendKind
	config  *ClientConfig
	closed  atomic.Bool
}

// CallOption adjusts one logical operation.
type CallOption func(*callOptions)

type callOptions struct {
	retry        policy.RetryPolicy
	retrySet     bool
	forcePrimary bool
}

// WithRetry overrides the client's default retry policy for this operation.
//
// Parameters:
//   - p: The retry policy for this call
//
// Returns:
//   - CallOption: Per-call option
func WithRetry(p policy.RetryPolicy) CallOption {
	return func(o *callOptions) {
		o.retry = p
		o.retrySet = true
	}
}

// ReadFromPrimary forces a read to the primary even when a replica is
// configured, for callers that need read-your-writes consistency.
//
// Returns:
//   - CallOption: Per-call option
func ReadFromPrimary() CallOption {
	return func(o *callOptions) {
		o.forcePrimary = true
	}
}

// NewClient creates a client over the given backend.
//
// Parameters:
//   - primary: The backend serving writes and transactions (required)
//   - opts: Optional configuration options
//
// Returns:
//   - *Client: A new client; connections are opened lazily on demand
//   - error: types.ErrNilBackend if primary is nil
func NewClient(primary adapter.Backend, opts ...Option) (*Client, error) {
	if primary == nil {
		return nil, types.ErrNilBackend
	}

	config := DefaultConfig()
	for _, opt := range opts {
		opt(config)
	}

	// Ensure metrics and logger are never nil
	if config.Metrics == nil {
		config.Metrics = metrics.NewNopMetrics()
	}
	if config.Logger == nil {
		config.Logger = logging.NewNopLogger()
	}

	primaryPool := pool.New(primary, config.Pool, config.Metrics, config.Logger)

	var replicaPool *pool.Pool
	if config.replica != nil {
		replicaPool = pool.New(config.replica, config.Pool, config.Metrics, config.Logger)
	}

	return &Client{
		router:  pool.NewRouter(primaryPool, replicaPool),
		dialect: primary.Dialect(),
		kind:    primary.Kind(),
		config:  config,
	}, nil
}

// Kind returns the backend kind this client is bound to.
func (c *Client) Kind() types.BackendKind {
	return c.kind
}

// Exec executes a statement that returns no rows.
//
// Retryable failures are re-issued under the operation's retry policy,
// re-acquiring a (possibly different) connection each attempt. Every
// attempt is reported to the instrumentation hook separately.
//
// Parameters:
//   - ctx: Context for cancellation and timeout
//   - stmt: SQL text with positional placeholders
//   - params: Ordered bind parameters
//   - opts: Per-call options
//
// Returns:
//   - int64: Number of rows affected
//   - error: *types.ParameterCountError before any I/O on arity mismatch;
//     *types.BackendError once attempts are exhausted or Terminal
func (c *Client) Exec(ctx context.Context, stmt string, params []types.Value, opts ...CallOption) (int64, error) {
	var affected int64
	err := c.run(ctx, types.OpExec, stmt, params, false, opts, func(ctx context.Context, conn adapter.Conn) error {
		var err error
		affected, err = conn.Exec(ctx, stmt, params)

		return err
	})
	if err != nil {
		return 0, err
	}

	return affected, nil
}

// Query executes a statement producing rows and decodes the full result.
//
// When a read replica is configured, the query is routed to it unless the
// call is inside a transaction or ReadFromPrimary is given; the routing
// decision is made once per call.
//
// Parameters:
//   - ctx: Context for cancellation and timeout
//   - stmt: SQL text with positional placeholders
//   - params: Ordered bind parameters
//   - opts: Per-call options
//
// Returns:
//   - *types.QueryResult: Decoded rows with uniform arity; never partial
//   - error: Same contract as Exec
func (c *Client) Query(ctx context.Context, stmt string, params []types.Value, opts ...CallOption) (*types.QueryResult, error) {
	var result *types.QueryResult
	err := c.run(ctx, types.OpQuery, stmt, params, true, opts, func(ctx context.Context, conn adapter.Conn) error {
		var err error
		result, err = conn.Query(ctx, stmt, params)

		return err
	})
	if err != nil {
		return nil, err
	}

	return result, nil
}

// QueryRow executes a query expecting at most one row.
//
// Parameters:
//   - ctx: Context for cancellation and timeout
//   - stmt: SQL text with positional placeholders
//   - params: Ordered bind parameters
//   - opts: Per-call options
//
// Returns:
//   - types.Row: The first result row
//   - error: types.ErrNoRows when the query matches nothing
func (c *Client) QueryRow(ctx context.Context, stmt string, params []types.Value, opts ...CallOption) (types.Row, error) {
	result, err := c.Query(ctx, stmt, params, opts...)
	if err != nil {
		return nil, err
	}
	if result.Len() == 0 {
		return nil, types.ErrNoRows
	}

	return result.Rows[0], nil
}

// Begin starts a transaction on a primary connection.
//
// The returned transaction owns exclusive write access to its connection
// until Commit, Rollback, or Close. Transactions are never routed to a
// replica and their statements are never auto-retried.
//
// Parameters:
//   - ctx: Context for cancellation and timeout
//
// Returns:
//   - *Tx: An Active transaction; defer Close() to guarantee rollback on
//     every exit path
//   - error: Acquisition or begin failure
func (c *Client) Begin(ctx context.Context) (*Tx, error) {
	if c.closed.Load() {
		return nil, types.ErrClientClosed
	}

	lease, err := c.router.Acquire(ctx, false)
	if err != nil {
		return nil, err
	}

	start := time.Now()
	atx, err := lease.Conn().Begin(ctx)
	c.observe(types.OpBegin, start, err)

	if err != nil {
		if c.dialect.IsConnectionError(err) {
			lease.MarkBroken()
		}
		lease.Release()

		return nil, c.wrapBackendErr(err, "", 1)
	}

	c.config.Metrics.IncTxBegin(c.kind)

	return newTx(c, atx, lease), nil
}

// Ping verifies the primary backend is reachable.
func (c *Client) Ping(ctx context.Context) error {
	if c.closed.Load() {
		return types.ErrClientClosed
	}

	lease, err := c.router.Acquire(ctx, false)
	if err != nil {
		return err
	}
	defer lease.Release()

	start := time.Now()
	err = lease.Conn().Ping(ctx)
	c.observe(types.OpPing, start, err)

	if err != nil && c.dialect.IsConnectionError(err) {
		lease.MarkBroken()
	}

	return err
}

// Close shuts the client down, draining both pools.
//
// Close is idempotent. After Close, all operations fail with
// types.ErrClientClosed.
func (c *Client) Close() error {
	if c.closed.Swap(true) {
		return nil
	}

	return c.router.Close()
}

// run is the shared non-transactional execution path: fail-fast parameter
// check, routing, per-attempt instrumentation, and retry.
func (c *Client) run(
	ctx context.Context,
	op types.Operation,
	stmt string,
	params []types.Value,
	readOnly bool,
	opts []CallOption,
	fn func(ctx context.Context, conn adapter.Conn) error,
) error {
	if c.closed.Load() {
		return types.ErrClientClosed
	}

	var call callOptions
	for _, opt := range opts {
		opt(&call)
	}

	if err := c.checkParams(stmt, params); err != nil {
		return err
	}

	retry := c.config.Retry
	if call.retrySet {
		retry = call.retry
	}

	// Routed once per call, never re-evaluated mid-operation.
	readOnly = readOnly && !call.forcePrimary

	attempts, err := policy.Do(ctx, retry, c.dialect.Classify,
		func() { c.config.Metrics.IncRetryBackoff(c.kind) },
		func(ctx context.Context, attempt int) error {
			lease, aerr := c.router.Acquire(ctx, readOnly)
			if aerr != nil {
				return aerr
			}
			defer lease.Release()

			start := time.Now()
			oerr := fn(ctx, lease.Conn())
			c.observe(op, start, oerr)

			if oerr != nil {
				if attempt > 1 {
					c.config.Logger.Debug("retried attempt failed",
						"backend", c.kind.String(),
						"attempt", attempt,
						"error", oerr.Error(),
					)
				}
				if c.dialect.IsConnectionError(oerr) || ctx.Err() != nil {
					// Ambiguous session state: discard, never reuse.
					lease.MarkBroken()
				}
			}

			return oerr
		})
	if err != nil {
		return c.wrapBackendErr(err, stmt, attempts)
	}

	return nil
}

// checkParams enforces the backend's placeholder convention before any
// network or disk I/O occurs.
func (c *Client) checkParams(stmt string, params []types.Value) error {
	want := c.dialect.CountPlaceholders(stmt)
	if want != len(params) {
		return &types.ParameterCountError{
			Statement:    stmt,
			Placeholders: want,
			Params:       len(params),
		}
	}

	return nil
}

// observe reports one attempt to the instrumentation hook.
func (c *Client) observe(op types.Operation, start time.Time, err error) {
	c.config.Metrics.IncOpTotal(c.kind, op)
	c.config.Metrics.ObserveOpDuration(c.kind, op, time.Since(start).Seconds())
	if err != nil {
		c.config.Metrics.IncOpError(c.kind, op)
	}
}

// wrapBackendErr wraps backend failures with classification and attempt
// context. Pool, context, and state-machine errors pass through untouched.
func (c *Client) wrapBackendErr(err error, stmt string, attempts int) error {
	if err == nil {
		return nil
	}

	if errors.Is(err, types.ErrPoolTimeout) ||
		errors.Is(err, types.ErrPoolClosed) ||
		errors.Is(err, types.ErrAlreadyInTransaction) ||
		errors.Is(err, context.Canceled) ||
		errors.Is(err, context.DeadlineExceeded) {
		return err
	}

	return &types.BackendError{
		Backend:   c.kind,
		Class:     c.dialect.Classify(err),
		Statement: stmt,
		Attempts:  attempts,
		Cause:     err,
	}
}
