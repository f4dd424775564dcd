// Package pool owns and arbitrates access to a bounded set of backend
// connections.
//
// For the networked backend the pool keeps up to MaxConns live connections
// with health-checked reuse; for the embedded backend the bound is clamped
// to 1 and the pool degenerates to a mutual-exclusion lock around the single
// handle. Acquisition suspends until a connection is free or the acquisition
// timeout elapses with types.ErrPoolTimeout.
//
// Callers hold a borrowed Lease, never ownership: a Lease must be released
// on every exit path. Leases marked broken (connection-level failures,
// cancelled in-flight statements) are discarded rather than returned; the
// pool lazily opens a replacement on next demand.
//
// The Router layers read/write routing on top: when a read replica is
// configured, read-only operations issued outside a transaction acquire from
// the replica pool; writes and everything transactional pin to the primary.
package pool
