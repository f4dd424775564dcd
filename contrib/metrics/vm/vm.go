package vm

import (
	"fmt"
	"net/http"

	"github.com/VictoriaMetrics/metrics"

	"github.com/arloliu/unidb/types"
)

// Option configures a Collector.
type Option func(*Collector)

// WithPrefix sets the metric name prefix.
//
// Default: "unidb"
//
// Parameters:
//   - prefix: The prefix to use for all metric names
//
// Returns:
//   - Option: A configuration option
func WithPrefix(prefix string) Option {
	return func(c *Collector) {
		c.prefix = prefix
	}
}

// WithMetricsSet sets the metrics set to use.
//
// If provided, the collector registers metrics with this set instead of
// creating a new one. The caller is then responsible for exposing the set.
//
// Parameters:
//   - set: The metrics set to use
//
// Returns:
//   - Option: A configuration option
func WithMetricsSet(set *metrics.Set) Option {
	return func(c *Collector) {
		c.set = set
	}
}

var backends = []types.BackendKind{types.Networked, types.Embedded}

var operations = []types.Operation{
	types.OpExec, types.OpQuery, types.OpBegin,
	types.OpCommit, types.OpRollback, types.OpPing,
}

type opKey struct {
	backend types.BackendKind
	op      types.Operation
}

// Collector implements types.MetricsCollector using VictoriaMetrics.
//
// All metrics are pre-created at initialization time for optimal
// performance. Thread-safe for concurrent use.
type Collector struct {
	set    *metrics.Set
	prefix string

	opTotal    map[opKey]*metrics.Counter
	opErrors   map[opKey]*metrics.Counter
	opDuration map[opKey]*metrics.Histogram

	retryBackoff  map[types.BackendKind]*metrics.Counter
	poolTimeouts  map[types.BackendKind]*metrics.Counter
	connDiscarded map[types.BackendKind]*metrics.Counter
	poolInUse     map[types.BackendKind]*metrics.Gauge
	poolIdle      map[types.BackendKind]*metrics.Gauge

	txBegin    map[types.BackendKind]*metrics.Counter
	txCommit   map[types.BackendKind]*metrics.Counter
	txRollback map[types.BackendKind]*metrics.Counter

	poolInUseVal map[types.BackendKind]*int
	poolIdleVal  map[types.BackendKind]*int
}

// Compile-time assertion that Collector implements types.MetricsCollector.
var _ types.MetricsCollector = (*Collector)(nil)

// New creates a new VictoriaMetrics collector.
//
// Parameters:
//   - opts: Optional configuration options
//
// Returns:
//   - *Collector: A collector with all metrics pre-registered
func New(opts ...Option) *Collector {
	c := &Collector{
		prefix:        "unidb",
		opTotal:       make(map[opKey]*metrics.Counter),
		opErrors:      make(map[opKey]*metrics.Counter),
		opDuration:    make(map[opKey]*metrics.Histogram),
		retryBackoff:  make(map[types.BackendKind]*metrics.Counter),
		poolTimeouts:  make(map[types.BackendKind]*metrics.Counter),
		connDiscarded: make(map[types.BackendKind]*metrics.Counter),
		poolInUse:     make(map[types.BackendKind]*metrics.Gauge),
		poolIdle:      make(map[types.BackendKind]*metrics.Gauge),
		txBegin:       make(map[types.BackendKind]*metrics.Counter),
		txCommit:      make(map[types.BackendKind]*metrics.Counter),
		txRollback:    make(map[types.BackendKind]*metrics.Counter),
		poolInUseVal:  make(map[types.BackendKind]*int),
		poolIdleVal:   make(map[types.BackendKind]*int),
	}

	for _, opt := range opts {
		opt(c)
	}

	if c.set == nil {
		c.set = metrics.NewSet()
	}

	for _, backend := range backends {
		for _, op := range operations {
			key := opKey{backend: backend, op: op}
			labels := fmt.Sprintf(`backend=%q,op=%q`, backend, op)

			c.opTotal[key] = c.set.NewCounter(fmt.Sprintf("%s_op_total{%s}", c.prefix, labels))
			c.opErrors[key] = c.set.NewCounter(fmt.Sprintf("%s_op_errors_total{%s}", c.prefix, labels))
			c.opDuration[key] = c.set.NewHistogram(fmt.Sprintf("%s_op_duration_seconds{%s}", c.prefix, labels))
		}

		label := fmt.Sprintf(`backend=%q`, backend)

		c.retryBackoff[backend] = c.set.NewCounter(fmt.Sprintf("%s_retry_backoff_total{%s}", c.prefix, label))
		c.poolTimeouts[backend] = c.set.NewCounter(fmt.Sprintf("%s_pool_timeouts_total{%s}", c.prefix, label))
		c.connDiscarded[backend] = c.set.NewCounter(fmt.Sprintf("%s_conns_discarded_total{%s}", c.prefix, label))

		inUse := new(int)
		idle := new(int)
		c.poolInUseVal[backend] = inUse
		c.poolIdleVal[backend] = idle
		c.poolInUse[backend] = c.set.NewGauge(fmt.Sprintf("%s_pool_in_use{%s}", c.prefix, label),
			func() float64 { return float64(*inUse) })
		c.poolIdle[backend] = c.set.NewGauge(fmt.Sprintf("%s_pool_idle{%s}", c.prefix, label),
			func() float64 { return float64(*idle) })

		c.txBegin[backend] = c.set.NewCounter(fmt.Sprintf("%s_tx_begin_total{%s}", c.prefix, label))
		c.txCommit[backend] = c.set.NewCounter(fmt.Sprintf("%s_tx_commit_total{%s}", c.prefix, label))
		c.txRollback[backend] = c.set.NewCounter(fmt.Sprintf("%s_tx_rollback_total{%s}", c.prefix, label))
	}

	return c
}

// Handler serves the collected metrics in Prometheus exposition format.
func (c *Collector) Handler(w http.ResponseWriter, _ *http.Request) {
	c.set.WritePrometheus(w)
}

// IncOpTotal increments the per-attempt operation counter.
func (c *Collector) IncOpTotal(backend types.BackendKind, op types.Operation) {
	if m, ok := c.opTotal[opKey{backend: backend, op: op}]; ok {
		m.Inc()
	}
}

// IncOpError increments the per-attempt operation error counter.
func (c *Collector) IncOpError(backend types.BackendKind, op types.Operation) {
	if m, ok := c.opErrors[opKey{backend: backend, op: op}]; ok {
		m.Inc()
	}
}

// ObserveOpDuration records one attempt's duration in seconds.
func (c *Collector) ObserveOpDuration(backend types.BackendKind, op types.Operation, seconds float64) {
	if m, ok := c.opDuration[opKey{backend: backend, op: op}]; ok {
		m.Update(seconds)
	}
}

// IncRetryBackoff increments the retry backoff counter.
func (c *Collector) IncRetryBackoff(backend types.BackendKind) {
	if m, ok := c.retryBackoff[backend]; ok {
		m.Inc()
	}
}

// IncPoolTimeout increments the acquisition timeout counter.
func (c *Collector) IncPoolTimeout(backend types.BackendKind) {
	if m, ok := c.poolTimeouts[backend]; ok {
		m.Inc()
	}
}

// IncConnDiscarded increments the discarded connection counter.
func (c *Collector) IncConnDiscarded(backend types.BackendKind) {
	if m, ok := c.connDiscarded[backend]; ok {
		m.Inc()
	}
}

// SetPoolInUse sets the checked-out connections gauge.
func (c *Collector) SetPoolInUse(backend types.BackendKind, n int) {
	if p, ok := c.poolInUseVal[backend]; ok {
		*p = n
	}
}

// SetPoolIdle sets the idle connections gauge.
func (c *Collector) SetPoolIdle(backend types.BackendKind, n int) {
	if p, ok := c.poolIdleVal[backend]; ok {
		*p = n
	}
}

// IncTxBegin increments the transaction begin counter.
func (c *Collector) IncTxBegin(backend types.BackendKind) {
	if m, ok := c.txBegin[backend]; ok {
		m.Inc()
	}
}

// IncTxCommit increments the transaction commit counter.
func (c *Collector) IncTxCommit(backend types.BackendKind) {
	if m, ok := c.txCommit[backend]; ok {
		m.Inc()
	}
}

// IncTxRollback increments the transaction rollback counter.
func (c *Collector) IncTxRollback(backend types.BackendKind) {
	if m, ok := c.txRollback[backend]; ok {
		m.Inc()
	}
}
