// Package policy provides the retry/backoff policy for unidb operations.
//
// A backend failure is classified either Retryable (connection resets, lock
// timeouts, deadlocks) or Terminal (constraint violations, syntax errors,
// type errors) by the backend's dialect. Retryable failures on
// non-transactional operations are re-issued up to a bounded attempt count
// with capped exponential backoff plus jitter; Terminal failures surface
// immediately.
//
// Failures inside an open transaction are never retried here: re-issuing a
// single statement inside a partially applied transaction would violate
// atomicity, so the transaction layer rolls back and surfaces the failure
// for a caller-level restart.
package policy
