package types

// MetricsCollector defines methods for collecting operational metrics.
//
// All backend-scoped methods accept a BackendKind parameter for labeling.
// Implementations should be thread-safe as methods may be called concurrently.
//
// The client reports one IncOpTotal/ObserveOpDuration pair per attempt,
// including retried attempts; each attempt is counted separately. Calls are
// made synchronously after the attempt completes, so implementations must
// return quickly and never block.
//
// Example usage with VictoriaMetrics (via contrib/metrics/vm):
//
//	collector := vmmetrics.New(vmmetrics.WithPrefix("myapp"))
//	client, _ := unidb.NewClient(backend, unidb.WithMetrics(collector))
//
//	// Expose metrics via HTTP
//	http.HandleFunc("/metrics", collector.Handler)
type MetricsCollector interface {
	// ----------------------
	// Operations
	// ----------------------

	// IncOpTotal increments the per-attempt operation counter.
	IncOpTotal(backend BackendKind, op Operation)

	// IncOpError increments the per-attempt operation error counter.
	IncOpError(backend BackendKind, op Operation)

	// ObserveOpDuration records one attempt's duration in seconds.
	ObserveOpDuration(backend BackendKind, op Operation, seconds float64)

	// ----------------------
	// Retry
	// ----------------------

	// IncRetryBackoff increments the counter when an operation enters a
	// backoff delay before being re-attempted.
	IncRetryBackoff(backend BackendKind)

	// ----------------------
	// Pool
	// ----------------------

	// IncPoolTimeout increments the counter when acquisition times out.
	IncPoolTimeout(backend BackendKind)

	// IncConnDiscarded increments the counter when a connection is discarded
	// instead of being returned to the pool.
	IncConnDiscarded(backend BackendKind)

	// SetPoolInUse sets the gauge of connections currently checked out.
	SetPoolInUse(backend BackendKind, n int)

	// SetPoolIdle sets the gauge of idle connections held by the pool.
	SetPoolIdle(backend BackendKind, n int)

	// ----------------------
	// Transactions
	// ----------------------

	// IncTxBegin increments the transaction begin counter.
	IncTxBegin(backend BackendKind)

	// IncTxCommit increments the transaction commit counter.
	IncTxCommit(backend BackendKind)

	// IncTxRollback increments the transaction rollback counter, including
	// automatic safety rollbacks.
	IncTxRollback(backend BackendKind)
}
