package sqlite

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/arloliu/unidb/types"
)

func newTestConn(t *testing.T) *conn {
	t.Helper()

	backend, err := New(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { backend.Close() })

	ac, err := backend.Connect(context.Background())
	require.NoError(t, err)
	t.Cleanup(func() { ac.Close() })

	c, ok := ac.(*conn)
	require.True(t, ok)

	_, err = c.Exec(context.Background(), "CREATE TABLE kv (k TEXT, v INTEGER)", nil)
	require.NoError(t, err)

	return c
}

func TestConnExecQuery(t *testing.T) {
	c := newTestConn(t)

	n, err := c.Exec(context.Background(), "INSERT INTO kv (k, v) VALUES (?, ?)",
		[]types.Value{types.Text("a"), types.Integer(1)})
	require.NoError(t, err)
	require.Equal(t, int64(1), n)

	res, err := c.Query(context.Background(), "SELECT k, v FROM kv WHERE k = ?",
		[]types.Value{types.Text("a")})
	require.NoError(t, err)
	require.Equal(t, 2, res.Arity())
	require.Equal(t, 1, res.Len())
	require.Equal(t, "a", res.Rows[0][0].Text())
	require.Equal(t, int64(1), res.Rows[0][1].Int64())
}

func TestConnUniformArity(t *testing.T) {
	c := newTestConn(t)

	for i := 0; i < 5; i++ {
		_, err := c.Exec(context.Background(), "INSERT INTO kv (k, v) VALUES (?, ?)",
			[]types.Value{types.Text("k"), types.Integer(int64(i))})
		require.NoError(t, err)
	}

	res, err := c.Query(context.Background(), "SELECT k, v FROM kv", nil)
	require.NoError(t, err)
	require.Equal(t, 5, res.Len())
	for _, row := range res.Rows {
		require.Len(t, row, res.Arity())
	}
}

func TestConnBeginCommit(t *testing.T) {
	c := newTestConn(t)

	tx, err := c.Begin(context.Background())
	require.NoError(t, err)

	_, err = tx.Exec(context.Background(), "INSERT INTO kv (k, v) VALUES (?, ?)",
		[]types.Value{types.Text("a"), types.Integer(1)})
	require.NoError(t, err)

	require.NoError(t, tx.Commit(context.Background()))

	res, err := c.Query(context.Background(), "SELECT v FROM kv", nil)
	require.NoError(t, err)
	require.Equal(t, 1, res.Len())
}

func TestConnBeginRollback(t *testing.T) {
	c := newTestConn(t)

	tx, err := c.Begin(context.Background())
	require.NoError(t, err)

	_, err = tx.Exec(context.Background(), "INSERT INTO kv (k, v) VALUES (?, ?)",
		[]types.Value{types.Text("a"), types.Integer(1)})
	require.NoError(t, err)

	require.NoError(t, tx.Rollback(context.Background()))

	res, err := c.Query(context.Background(), "SELECT v FROM kv", nil)
	require.NoError(t, err)
	require.Equal(t, 0, res.Len())
}

func TestConnDoubleBegin(t *testing.T) {
	c := newTestConn(t)

	tx, err := c.Begin(context.Background())
	require.NoError(t, err)

	_, err = c.Begin(context.Background())
	require.ErrorIs(t, err, types.ErrAlreadyInTransaction)

	// The first transaction remains active and usable.
	_, err = tx.Exec(context.Background(), "INSERT INTO kv (k, v) VALUES (?, ?)",
		[]types.Value{types.Text("a"), types.Integer(1)})
	require.NoError(t, err)
	require.NoError(t, tx.Commit(context.Background()))

	// The slot is free again after commit.
	tx2, err := c.Begin(context.Background())
	require.NoError(t, err)
	require.NoError(t, tx2.Rollback(context.Background()))
}
