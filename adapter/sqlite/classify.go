package sqlite

import (
	"context"
	"database/sql"
	"database/sql/driver"
	"errors"
	"io"

	"github.com/mattn/go-sqlite3"

	"github.com/arloliu/unidb/adapter"
	"github.com/arloliu/unidb/types"
)

// dialect implements the embedded backend's dialect rules.
type dialect struct{}

// Compile-time assertion that dialect implements adapter.Dialect.
var _ adapter.Dialect = dialect{}

// CountPlaceholders counts `?` placeholders.
func (dialect) CountPlaceholders(stmt string) int {
	return adapter.CountQuestionPlaceholders(stmt)
}

// Classify maps a driver failure to its retry class.
//
// SQLITE_BUSY and SQLITE_LOCKED are the engine's lock-contention surfaces
// and resolve on retry; everything else is Terminal. Retryability is never
// guessed for unknown codes.
func (dialect) Classify(err error) types.ErrorClass {
	if isConnFailure(err) {
		return types.Retryable
	}

	var serr sqlite3.Error
	if errors.As(err, &serr) {
		switch serr.Code {
		case sqlite3.ErrBusy, sqlite3.ErrLocked, sqlite3.ErrProtocol:
			return types.Retryable
		}
	}

	return types.Terminal
}

// IsConnectionError reports handle-level (not statement-level) failures.
func (dialect) IsConnectionError(err error) bool {
	if isConnFailure(err) {
		return true
	}

	var serr sqlite3.Error
	if errors.As(err, &serr) {
		switch serr.Code {
		case sqlite3.ErrCantOpen, sqlite3.ErrNotADB, sqlite3.ErrCorrupt, sqlite3.ErrIoErr:
			return true
		}
	}

	return false
}

func isConnFailure(err error) bool {
	if err == nil {
		return false
	}

	return errors.Is(err, driver.ErrBadConn) ||
		errors.Is(err, sql.ErrConnDone) ||
		errors.Is(err, io.EOF) ||
		errors.Is(err, context.Canceled) ||
		errors.Is(err, context.DeadlineExceeded)
}
