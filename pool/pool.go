package pool

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"time"

	"github.com/arloliu/unidb/adapter"
	"github.com/arloliu/unidb/types"
)

// Config fixes a pool's bounds at construction; it is never mutated afterward.
type Config struct {
	// MaxConns is the maximum number of concurrently checked-out
	// connections. Clamped to the backend's MaxConcurrency when that is
	// lower. Default: 4.
	MaxConns int

	// AcquireTimeout bounds how long Acquire suspends waiting for a free
	// connection before failing with types.ErrPoolTimeout. Default: 5s.
	AcquireTimeout time.Duration

	// HealthCheckInterval is the idle age beyond which a pooled connection
	// is pinged before reuse. Default: 30s.
	HealthCheckInterval time.Duration
}

func (c Config) withDefaults() Config {
	if c.MaxConns <= 0 {
		c.MaxConns = 4
	}
	if c.AcquireTimeout <= 0 {
		c.AcquireTimeout = 5 * time.Second
	}
	if c.HealthCheckInterval <= 0 {
		c.HealthCheckInterval = 30 * time.Second
	}

	return c
}

// Pool owns all connections it creates and is the sole mutable shared
// structure; all membership mutation happens under pool-internal locking.
type Pool struct {
	backend adapter.Backend
	cfg     Config
	metrics types.MetricsCollector
	logger  types.Logger

	// slots is a counting semaphore: one token per allowed connection.
	slots chan struct{}

	mu     sync.Mutex
	idle   []idleConn
	inUse  int
	closed bool
}

type idleConn struct {
	conn     adapter.Conn
	lastUsed time.Time
}

// New creates a pool over one backend.
//
// Parameters:
//   - backend: The backend to dial connections against (required)
//   - cfg: Pool bounds; zero fields take defaults
//   - metrics: Instrumentation sink (required; use internal/metrics nop)
//   - logger: Structured logger (required; use internal/logging nop)
//
// Returns:
//   - *Pool: A pool ready to serve acquisitions; connections open lazily
func New(backend adapter.Backend, cfg Config, metrics types.MetricsCollector, logger types.Logger) *Pool {
	cfg = cfg.withDefaults()
	if limit := backend.MaxConcurrency(); limit > 0 && cfg.MaxConns > limit {
		cfg.MaxConns = limit
	}

	slots := make(chan struct{}, cfg.MaxConns)
	for i := 0; i < cfg.MaxConns; i++ {
		slots <- struct{}{}
	}

	return &Pool{
		backend: backend,
		cfg:     cfg,
		metrics: metrics,
		logger:  logger,
		slots:   slots,
	}
}

// Backend returns the backend this pool dials.
func (p *Pool) Backend() adapter.Backend {
	return p.backend
}

// Acquire checks out a connection, suspending until one is free or the
// acquisition timeout elapses.
//
// Parameters:
//   - ctx: Context for cancellation; the acquisition timeout is applied on
//     top of any caller deadline
//
// Returns:
//   - *Lease: Exclusive lease on one connection; Release it on every path
//   - error: types.ErrPoolTimeout on deadline, types.ErrPoolClosed after
//     Close, the caller's context error, or a dial failure
func (p *Pool) Acquire(ctx context.Context) (*Lease, error) {
	p.mu.Lock()
	if p.closed {
		p.mu.Unlock()
		return nil, types.ErrPoolClosed
	}
	p.mu.Unlock()

	waitCtx, cancel := context.WithTimeout(ctx, p.cfg.AcquireTimeout)
	defer cancel()

	select {
	case <-p.slots:
	case <-waitCtx.Done():
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}

		p.metrics.IncPoolTimeout(p.backend.Kind())

		return nil, types.ErrPoolTimeout
	}

	conn, err := p.checkout(ctx)
	if err != nil {
		p.slots <- struct{}{}
		return nil, err
	}

	p.mu.Lock()
	p.inUse++
	p.gaugesLocked()
	p.mu.Unlock()

	return &Lease{pool: p, conn: conn}, nil
}

// checkout reuses an idle connection (health-checking stale ones) or dials a
// new one. The caller already holds a slot token.
func (p *Pool) checkout(ctx context.Context) (adapter.Conn, error) {
	for {
		p.mu.Lock()
		if len(p.idle) == 0 {
			p.mu.Unlock()
			break
		}

		ic := p.idle[len(p.idle)-1]
		p.idle = p.idle[:len(p.idle)-1]
		p.mu.Unlock()

		if time.Since(ic.lastUsed) < p.cfg.HealthCheckInterval {
			return ic.conn, nil
		}

		if err := ic.conn.Ping(ctx); err == nil {
			return ic.conn, nil
		}

		p.discard(ic.conn, "health check failed")
	}

	return p.backend.Connect(ctx)
}

// release returns a leased connection. Broken connections are discarded and
// replaced lazily on next demand.
func (p *Pool) release(conn adapter.Conn, broken bool) {
	p.mu.Lock()
	p.inUse--
	closed := p.closed
	if !broken && !closed {
		p.idle = append(p.idle, idleConn{conn: conn, lastUsed: time.Now()})
	}
	p.gaugesLocked()
	p.mu.Unlock()

	if broken {
		p.discard(conn, "connection broken")
	} else if closed {
		_ = conn.Close()
	}

	p.slots <- struct{}{}
}

func (p *Pool) discard(conn adapter.Conn, reason string) {
	p.metrics.IncConnDiscarded(p.backend.Kind())
	p.logger.Warn("discarding connection",
		"backend", p.backend.Kind().String(),
		"connID", conn.ID(),
		"reason", reason,
	)

	if err := conn.Close(); err != nil {
		p.logger.Debug("connection close failed",
			"backend", p.backend.Kind().String(),
			"connID", conn.ID(),
			"error", err.Error(),
		)
	}
}

// gaugesLocked publishes the in-use/idle gauges. Caller holds p.mu.
func (p *Pool) gaugesLocked() {
	p.metrics.SetPoolInUse(p.backend.Kind(), p.inUse)
	p.metrics.SetPoolIdle(p.backend.Kind(), len(p.idle))
}

// Stats returns the current checked-out and idle connection counts.
func (p *Pool) Stats() (inUse, idle int) {
	p.mu.Lock()
	defer p.mu.Unlock()

	return p.inUse, len(p.idle)
}

// Close closes all idle connections and rejects further acquisitions.
// Connections still checked out are closed when their lease is released.
func (p *Pool) Close() error {
	p.mu.Lock()
	if p.closed {
		p.mu.Unlock()
		return nil
	}
	p.closed = true
	idle := p.idle
	p.idle = nil
	p.gaugesLocked()
	p.mu.Unlock()

	var errs []error
	for _, ic := range idle {
		if err := ic.conn.Close(); err != nil {
			errs = append(errs, err)
		}
	}

	if err := p.backend.Close(); err != nil {
		errs = append(errs, err)
	}

	return errors.Join(errs...)
}

// Lease is a borrowed connection. The holder has exclusive use of the
// connection until Release; Release must be called on every exit path.
type Lease struct {
	pool     *Pool
	conn     adapter.Conn
	broken   atomic.Bool
	released atomic.Bool
}

// Conn returns the leased connection.
func (l *Lease) Conn() adapter.Conn {
	return l.conn
}

// MarkBroken flags the connection for discard instead of pool return.
// Used after connection-level failures and cancelled in-flight statements,
// whose session state is ambiguous.
func (l *Lease) MarkBroken() {
	l.broken.Store(true)
}

// Release returns the connection to the pool (or discards it if broken).
// Release is idempotent; only the first call has effect.
func (l *Lease) Release() {
	if l.released.Swap(true) {
		return
	}

	l.pool.release(l.conn, l.broken.Load())
}
