package postgres

import (
	"context"
	"database/sql/driver"
	"errors"
	"io"
	"net"

	"github.com/lib/pq"

	"github.com/arloliu/unidb/adapter"
	"github.com/arloliu/unidb/types"
)

// dialect implements the networked backend's dialect rules.
type dialect struct{}

// Compile-time assertion that dialect implements adapter.Dialect.
var _ adapter.Dialect = dialect{}

// CountPlaceholders counts $N ordinal placeholders.
func (dialect) CountPlaceholders(stmt string) int {
	return adapter.CountDollarPlaceholders(stmt)
}

// Retryable SQLSTATE codes outside the connection-exception class.
//
// 40001 serialization_failure and 40P01 deadlock_detected resolve on retry
// by construction; 55P03 lock_not_available and 57014 query_canceled are the
// server's lock-timeout surfaces.
var retryableCodes = map[pq.ErrorCode]struct{}{
	"40001": {},
	"40P01": {},
	"55P03": {},
	"57014": {},
}

// Classify maps a driver failure to its retry class.
//
// Unknown SQLSTATE codes are Terminal: retryability is never guessed.
func (dialect) Classify(err error) types.ErrorClass {
	if isConnFailure(err) {
		return types.Retryable
	}

	var pqErr *pq.Error
	if errors.As(err, &pqErr) {
		if pqErr.Code.Class() == "08" { // connection exception
			return types.Retryable
		}
		if _, ok := retryableCodes[pqErr.Code]; ok {
			return types.Retryable
		}
	}

	return types.Terminal
}

// IsConnectionError reports connection-level (not statement-level) failures.
func (dialect) IsConnectionError(err error) bool {
	if isConnFailure(err) {
		return true
	}

	var pqErr *pq.Error
	if errors.As(err, &pqErr) {
		switch pqErr.Code.Class() {
		case "08": // connection exception
			return true
		case "57": // operator intervention (shutdown, crash)
			return pqErr.Code != "57014"
		}
	}

	return false
}

// isConnFailure covers the transport-level failures shared by both checks.
func isConnFailure(err error) bool {
	if err == nil {
		return false
	}

	if errors.Is(err, driver.ErrBadConn) ||
		errors.Is(err, io.EOF) ||
		errors.Is(err, io.ErrUnexpectedEOF) ||
		errors.Is(err, context.Canceled) ||
		errors.Is(err, context.DeadlineExceeded) {
		return true
	}

	var netErr net.Error

	return errors.As(err, &netErr)
}
