// Package metrics provides internal metrics utilities for unidb.
package metrics

import "github.com/arloliu/unidb/types"

// NopMetrics is a no-op metrics collector that discards all metrics.
//
// This is used as the default metrics collector when no collector is
// configured, avoiding nil checks throughout the codebase.
type NopMetrics struct{}

// Compile-time assertion that NopMetrics implements types.MetricsCollector.
var _ types.MetricsCollector = (*NopMetrics)(nil)

// NewNopMetrics creates a new no-op metrics collector.
//
// Returns:
//   - *NopMetrics: A collector that discards all metrics
func NewNopMetrics() *NopMetrics {
	return &NopMetrics{}
}

// IncOpTotal discards the metric.
func (m *NopMetrics) IncOpTotal(_ types.BackendKind, _ types.Operation) {}

// IncOpError discards the metric.
func (m *NopMetrics) IncOpError(_ types.BackendKind, _ types.Operation) {}

// ObserveOpDuration discards the metric.
func (m *NopMetrics) ObserveOpDuration(_ types.BackendKind, _ types.Operation, _ float64) {}

// IncRetryBackoff discards the metric.
func (m *NopMetrics) IncRetryBackoff(_ types.BackendKind) {}

// IncPoolTimeout discards the metric.
func (m *NopMetrics) IncPoolTimeout(_ types.BackendKind) {}

// IncConnDiscarded discards the metric.
func (m *NopMetrics) IncConnDiscarded(_ types.BackendKind) {}

// SetPoolInUse discards the metric.
func (m *NopMetrics) SetPoolInUse(_ types.BackendKind, _ int) {}

// SetPoolIdle discards the metric.
func (m *NopMetrics) SetPoolIdle(_ types.BackendKind, _ int) {}

// IncTxBegin discards the metric.
func (m *NopMetrics) IncTxBegin(_ types.BackendKind) {}

// IncTxCommit discards the metric.
func (m *NopMetrics) IncTxCommit(_ types.BackendKind) {}

// IncTxRollback discards the metric.
func (m *NopMetrics) IncTxRollback(_ types.BackendKind) {}
