// Package types provides shared types and error definitions for the unidb library.
//
// This is a leaf package with zero unidb imports to prevent import cycles.
// All packages in unidb can safely import this package.
//
// # Types
//
// BackendKind identifies which of the two supported backends a connection
// is bound to:
//
//	const (
//	    Networked BackendKind = "networked"
//	    Embedded  BackendKind = "embedded"
//	)
//
// Value is the tagged cell representation shared by both backends. Every
// cell returned from either backend is losslessly representable as exactly
// one Value variant:
//
//	Null(), Integer(i), Float(f), Text(s), Blob(b)
//
// # Errors
//
// Sentinel errors cover lifecycle and state-machine misuse:
//
//   - ErrPoolTimeout: connection acquisition deadline exceeded
//   - ErrAlreadyInTransaction: a second transaction was started on a connection
//   - ErrTransactionClosed: a statement was issued on a terminal transaction
//   - ErrClientClosed: an operation was attempted on a closed client
//   - ErrNoRows: a single-row query returned no rows
//
// Structured errors carry diagnostic context (statement, column index,
// attempt count) and unwrap to their cause:
//
//   - CodecError: malformed cell data from a backend
//   - MappingError: row shape mismatch during record mapping
//   - ParameterCountError: statement/parameter arity mismatch, detected before I/O
//   - BackendError: a backend failure, classified Retryable or Terminal
package types
