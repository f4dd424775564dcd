package sqlite

import (
	"context"
	"database/sql/driver"
	"errors"
	"testing"

	"github.com/mattn/go-sqlite3"
	"github.com/stretchr/testify/require"

	"github.com/arloliu/unidb/types"
)

func TestClassify(t *testing.T) {
	d := dialect{}

	tests := []struct {
		name string
		err  error
		want types.ErrorClass
	}{
		{"busy", sqlite3.Error{Code: sqlite3.ErrBusy}, types.Retryable},
		{"locked", sqlite3.Error{Code: sqlite3.ErrLocked}, types.Retryable},
		{"protocol", sqlite3.Error{Code: sqlite3.ErrProtocol}, types.Retryable},
		{"bad conn", driver.ErrBadConn, types.Retryable},
		{"constraint", sqlite3.Error{Code: sqlite3.ErrConstraint}, types.Terminal},
		{"mismatch", sqlite3.Error{Code: sqlite3.ErrMismatch}, types.Terminal},
		{"generic sqlite error", sqlite3.Error{Code: sqlite3.ErrError}, types.Terminal},
		{"plain error", errors.New("boom"), types.Terminal},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			require.Equal(t, tt.want, d.Classify(tt.err))
		})
	}
}

func TestIsConnectionError(t *testing.T) {
	d := dialect{}

	require.True(t, d.IsConnectionError(sqlite3.Error{Code: sqlite3.ErrCantOpen}))
	require.True(t, d.IsConnectionError(sqlite3.Error{Code: sqlite3.ErrCorrupt}))
	require.True(t, d.IsConnectionError(sqlite3.Error{Code: sqlite3.ErrNotADB}))
	require.True(t, d.IsConnectionError(context.Canceled))

	require.False(t, d.IsConnectionError(sqlite3.Error{Code: sqlite3.ErrBusy}))
	require.False(t, d.IsConnectionError(sqlite3.Error{Code: sqlite3.ErrConstraint}))
	require.False(t, d.IsConnectionError(nil))
}

func TestDialectCountPlaceholders(t *testing.T) {
	d := dialect{}
	require.Equal(t, 3, d.CountPlaceholders("INSERT INTO t (a, b, c) VALUES (?, ?, ?)"))
	require.Equal(t, 0, d.CountPlaceholders("SELECT 1"))
}
