package types

import (
	"errors"
	"fmt"
)

// BackendKind identifies a backend in the two-backend setup.
type BackendKind string

// String returns the string representation of the BackendKind.
func (k BackendKind) String() string {
	return string(k)
}

const (
	// Networked represents the networked relational backend (PostgreSQL protocol).
	Networked BackendKind = "networked"
	// Embedded represents the embedded file-backed backend (SQLite).
	Embedded BackendKind = "embedded"
)

// Operation identifies the kind of operation reported to instrumentation.
type Operation string

// Operation kinds reported to the MetricsCollector, one per attempt.
const (
	OpExec     Operation = "exec"
	OpQuery    Operation = "query"
	OpBegin    Operation = "begin"
	OpCommit   Operation = "commit"
	OpRollback Operation = "rollback"
	OpPing     Operation = "ping"
)

// ErrorClass classifies a backend failure for retry purposes.
type ErrorClass uint8

const (
	// Terminal failures are surfaced immediately and never retried.
	// Constraint violations, syntax errors, and type errors are Terminal.
	Terminal ErrorClass = iota

	// Retryable failures may be re-issued under a RetryPolicy.
	// Connection resets, lock timeouts, and deadlocks are Retryable.
	Retryable
)

// String returns the string representation of the ErrorClass.
func (c ErrorClass) String() string {
	if c == Retryable {
		return "retryable"
	}

	return "terminal"
}

// Sentinel errors for common failure scenarios.
var (
	// ErrPoolTimeout indicates connection acquisition exceeded the configured
	// acquisition timeout before a connection became free.
	ErrPoolTimeout = errors.New("unidb: connection acquisition timed out")

	// ErrPoolClosed indicates an acquisition was attempted on a closed pool.
	ErrPoolClosed = errors.New("unidb: pool is closed")

	// ErrAlreadyInTransaction indicates begin was called on a connection that
	// already has an active transaction.
	ErrAlreadyInTransaction = errors.New("unidb: connection already has an active transaction")

	// ErrTransactionClosed indicates a statement or commit was issued against
	// a transaction in a terminal state.
	ErrTransactionClosed = errors.New("unidb: transaction is closed")

	// ErrClientClosed indicates an operation was attempted on a closed client.
	ErrClientClosed = errors.New("unidb: client is closed")

	// ErrNilBackend indicates that a nil backend was provided.
	ErrNilBackend = errors.New("unidb: backend cannot be nil")

	// ErrNoRows indicates a single-row query matched no rows.
	ErrNoRows = errors.New("unidb: no rows in result")
)

// CodecError indicates a backend returned a cell this layer could not decode,
// such as a text column carrying invalid UTF-8.
//
// Decoding never fails for well-formed backend output; a CodecError always
// points at malformed data and names the offending column.
type CodecError struct {
	// Column is the zero-based result column index of the malformed cell.
	Column int

	// DeclaredType is the backend-declared column type, when available.
	DeclaredType string

	// Cause is the underlying decode failure.
	Cause error
}

// Error implements the error interface.
func (e *CodecError) Error() string {
	return fmt.Sprintf("unidb: codec error at column %d (%s): %v", e.Column, e.DeclaredType, e.Cause)
}

// Unwrap returns the underlying cause for errors.Is/As compatibility.
func (e *CodecError) Unwrap() error {
	return e.Cause
}

// MappingError indicates a row could not be mapped onto a record shape.
//
// Mapping is all-or-nothing per row; a MappingError on any row fails the
// whole query result and no partial records are produced.
type MappingError struct {
	// Row is the zero-based index of the row that failed to map.
	Row int

	// Column is the zero-based index of the offending field/column.
	// Negative when the failure is an arity mismatch rather than a
	// single-field type mismatch.
	Column int

	// Reason describes the mismatch.
	Reason string

	// Cause is the underlying field assignment error, if any.
	Cause error
}

// Error implements the error interface.
func (e *MappingError) Error() string {
	if e.Column < 0 {
		return fmt.Sprintf("unidb: mapping error at row %d: %s", e.Row, e.Reason)
	}

	return fmt.Sprintf("unidb: mapping error at row %d, column %d: %s", e.Row, e.Column, e.Reason)
}

// Unwrap returns the underlying cause for errors.Is/As compatibility.
func (e *MappingError) Unwrap() error {
	return e.Cause
}

// ParameterCountError indicates the number of bound parameters does not match
// the number of placeholders in the statement.
//
// This is detected before any network or disk I/O occurs; the statement is
// never partially executed.
type ParameterCountError struct {
	// Statement is the offending SQL text.
	Statement string

	// Placeholders is the number of placeholders the statement declares.
	Placeholders int

	// Params is the number of parameters the caller supplied.
	Params int
}

// Error implements the error interface.
func (e *ParameterCountError) Error() string {
	return fmt.Sprintf("unidb: statement expects %d parameters, got %d", e.Placeholders, e.Params)
}

// BackendError wraps a failure reported by a backend, classified for retry.
//
// For non-transactional operations, Attempts records how many attempts were
// made before the error was surfaced (1 for Terminal errors, up to the
// policy's maximum for Retryable errors).
type BackendError struct {
	// Backend identifies which backend reported the failure.
	Backend BackendKind

	// Class is the retry classification of the failure.
	Class ErrorClass

	// Statement is the SQL text of the failed operation, when applicable.
	Statement string

	// Attempts is the number of attempts made, including the failing one.
	Attempts int

	// Cause is the underlying driver error.
	Cause error
}

// Error implements the error interface.
func (e *BackendError) Error() string {
	return fmt.Sprintf("unidb: %s backend error after %d attempt(s) (%s): %v",
		e.Backend, e.Attempts, e.Class, e.Cause)
}

// Unwrap returns the underlying cause for errors.Is/As compatibility.
func (e *BackendError) Unwrap() error {
	return e.Cause
}
