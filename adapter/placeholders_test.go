package adapter

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestCountQuestionPlaceholders(t *testing.T) {
	tests := []struct {
		name string
		stmt string
		want int
	}{
		{"none", "SELECT 1", 0},
		{"simple", "SELECT * FROM t WHERE id = ?", 1},
		{"multiple", "INSERT INTO t (a, b, c) VALUES (?, ?, ?)", 3},
		{"inside string literal", "SELECT '?' FROM t WHERE id = ?", 1},
		{"escaped quote in literal", "SELECT 'it''s ?' FROM t WHERE id = ?", 1},
		{"inside identifier", `SELECT "a?b" FROM t WHERE id = ?`, 1},
		{"line comment", "SELECT 1 -- is this ?\n WHERE id = ?", 1},
		{"block comment", "SELECT 1 /* ? ? */ WHERE id = ?", 1},
		{"unterminated literal", "SELECT '? FROM t", 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			require.Equal(t, tt.want, CountQuestionPlaceholders(tt.stmt))
		})
	}
}

func TestCountDollarPlaceholders(t *testing.T) {
	tests := []struct {
		name string
		stmt string
		want int
	}{
		{"none", "SELECT 1", 0},
		{"simple", "SELECT * FROM t WHERE id = $1", 1},
		{"multiple", "INSERT INTO t (a, b) VALUES ($1, $2)", 2},
		{"repeated ordinal", "SELECT * FROM t WHERE a = $1 OR b = $1 OR c = $2", 2},
		{"highest ordinal wins", "SELECT $3, $1", 3},
		{"inside string literal", "SELECT '$1' FROM t WHERE id = $1", 1},
		{"bare dollar ignored", "SELECT a$ FROM t WHERE id = $1", 1},
		{"block comment", "SELECT 1 /* $9 */ WHERE id = $2", 2},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			require.Equal(t, tt.want, CountDollarPlaceholders(tt.stmt))
		})
	}
}
