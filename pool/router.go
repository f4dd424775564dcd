package pool

import (
	"context"
	"errors"
)

// Router routes acquisitions between a primary pool and an optional
// read-replica pool.
//
// Read-only operations issued outside a transaction acquire from the
// replica when one is configured; writes and all transactional work acquire
// from the primary. The routing decision is made once per call and never
// re-evaluated mid-transaction, because a transaction pins its connection
// for its whole lifetime.
type Router struct {
	primary *Pool
	replica *Pool // nil when no replica is configured
}

// NewRouter creates a router over a primary pool and an optional replica.
//
// Parameters:
//   - primary: Pool for writes and transactions (required)
//   - replica: Pool for non-transactional reads, or nil
//
// Returns:
//   - *Router: The routing façade over both pools
func NewRouter(primary, replica *Pool) *Router {
	return &Router{primary: primary, replica: replica}
}

// Primary returns the primary pool.
func (r *Router) Primary() *Pool {
	return r.primary
}

// HasReplica reports whether a read replica is configured.
func (r *Router) HasReplica() bool {
	return r.replica != nil
}

// Acquire checks out a connection from the pool selected for this call.
//
// Parameters:
//   - ctx: Context for cancellation and acquisition timeout
//   - readOnly: true for a non-transactional read, eligible for the replica
//
// Returns:
//   - *Lease: Exclusive lease from the selected pool
//   - error: Acquisition failure from the selected pool
func (r *Router) Acquire(ctx context.Context, readOnly bool) (*Lease, error) {
	return r.route(readOnly).Acquire(ctx)
}

func (r *Router) route(readOnly bool) *Pool {
	if readOnly && r.replica != nil {
		return r.replica
	}

	return r.primary
}

// Close closes both pools.
func (r *Router) Close() error {
	err := r.primary.Close()
	if r.replica != nil {
		err = errors.Join(err, r.replica.Close())
	}

	return err
}
