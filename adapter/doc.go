// Package adapter defines the capability interfaces implemented once per
// backend: connection construction, statement execution, transactions, and
// the dialect rules (placeholder convention, error classification) the
// client needs without ever seeing a backend-specific handle.
//
// Two implementations exist: adapter/postgres for the networked backend and
// adapter/sqlite for the embedded backend. A connection is bound to exactly
// one backend at construction and is never transferable between kinds.
package adapter
