package integration_test

import (
	"context"
	"fmt"
	"path/filepath"
	"sync"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/arloliu/unidb"
	"github.com/arloliu/unidb/adapter/sqlite"
	"github.com/arloliu/unidb/rowmap"
	"github.com/arloliu/unidb/types"
)

func newSQLiteClient(t *testing.T, opts ...unidb.Option) *unidb.Client {
	t.Helper()

	if testing.Short() {
		t.Skip("skipping integration test in short mode")
	}

	backend, err := sqlite.New(filepath.Join(t.TempDir(), "test.db"))
	require.NoError(t, err)

	client, err := unidb.NewClient(backend, opts...)
	require.NoError(t, err)
	t.Cleanup(func() { _ = client.Close() })

	return client
}

func TestSQLiteCRUD(t *testing.T) {
	ctx := context.Background()
	client := newSQLiteClient(t)

	_, err := client.Exec(ctx, `CREATE TABLE items (
		id INTEGER PRIMARY KEY,
		name TEXT NOT NULL,
		weight REAL,
		data BLOB
	)`, nil)
	require.NoError(t, err)

	n, err := client.Exec(ctx,
		"INSERT INTO items (name, weight, data) VALUES (?, ?, ?)",
		[]types.Value{types.Text("anvil"), types.Float(45.5), types.Blob([]byte{1, 2, 3})})
	require.NoError(t, err)
	require.Equal(t, int64(1), n)

	_, err = client.Exec(ctx,
		"INSERT INTO items (name, weight) VALUES (?, ?)",
		[]types.Value{types.Text("feather"), types.Null()})
	require.NoError(t, err)

	res, err := client.Query(ctx,
		"SELECT id, name, weight, data FROM items ORDER BY id", nil)
	require.NoError(t, err)
	require.Equal(t, 2, res.Len())
	require.Equal(t, 4, res.Arity())

	anvil := res.Rows[0]
	require.True(t, anvil[1].Equal(types.Text("anvil")))
	require.True(t, anvil[2].Equal(types.Float(45.5)))
	require.True(t, anvil[3].Equal(types.Blob([]byte{1, 2, 3})))

	feather := res.Rows[1]
	require.True(t, feather[2].IsNull())
	require.True(t, feather[3].IsNull())
}

func TestSQLiteParameterConvention(t *testing.T) {
	ctx := context.Background()
	client := newSQLiteClient(t)

	_, err := client.Query(ctx, "SELECT ?, ?", []types.Value{types.Integer(1)})

	var pce *types.ParameterCountError
	require.ErrorAs(t, err, &pce)
	require.Equal(t, 2, pce.Placeholders)
	require.Equal(t, 1, pce.Params)
}

func TestSQLiteTransaction(t *testing.T) {
	ctx := context.Background()
	client := newSQLiteClient(t)

	_, err := client.Exec(ctx,
		"CREATE TABLE accounts (id INTEGER PRIMARY KEY, balance INTEGER NOT NULL)", nil)
	require.NoError(t, err)
	_, err = client.Exec(ctx,
		"INSERT INTO accounts (id, balance) VALUES (1, 100), (2, 0)", nil)
	require.NoError(t, err)

	tx, err := client.Begin(ctx)
	require.NoError(t, err)
	defer tx.Close()

	_, err = tx.Exec(ctx, "UPDATE accounts SET balance = balance - ? WHERE id = ?",
		[]types.Value{types.Integer(25), types.Integer(1)})
	require.NoError(t, err)
	_, err = tx.Exec(ctx, "UPDATE accounts SET balance = balance + ? WHERE id = ?",
		[]types.Value{types.Integer(25), types.Integer(2)})
	require.NoError(t, err)

	require.NoError(t, tx.Commit(ctx))

	row, err := client.QueryRow(ctx, "SELECT balance FROM accounts WHERE id = ?",
		[]types.Value{types.Integer(2)})
	require.NoError(t, err)
	require.True(t, row[0].Equal(types.Integer(25)))

	t.Run("rollback discards changes", func(t *testing.T) {
		tx, err := client.Begin(ctx)
		require.NoError(t, err)
		defer tx.Close()

		_, err = tx.Exec(ctx, "DELETE FROM accounts", nil)
		require.NoError(t, err)
		require.NoError(t, tx.Rollback(ctx))

		row, err := client.QueryRow(ctx, "SELECT count(*) FROM accounts", nil)
		require.NoError(t, err)
		require.True(t, row[0].Equal(types.Integer(2)))
	})
}

func TestSQLiteConcurrentCallers(t *testing.T) {
	ctx := context.Background()
	client := newSQLiteClient(t)

	_, err := client.Exec(ctx,
		"CREATE TABLE hits (id INTEGER PRIMARY KEY AUTOINCREMENT, worker INTEGER)", nil)
	require.NoError(t, err)

	// The engine admits a single writer; concurrent callers are serialized
	// transparently and every write lands.
	const workers = 8
	const perWorker = 10

	var wg sync.WaitGroup
	errs := make([]error, workers)
	for w := 0; w < workers; w++ {
		w := w
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < perWorker; j++ {
				if _, err := client.Exec(ctx,
					"INSERT INTO hits (worker) VALUES (?)",
					[]types.Value{types.Integer(int64(w))}); err != nil {
					errs[w] = err
					return
				}
			}
		}()
	}
	wg.Wait()

	for w, err := range errs {
		require.NoError(t, err, "worker %d", w)
	}

	row, err := client.QueryRow(ctx, "SELECT count(*) FROM hits", nil)
	require.NoError(t, err)
	require.True(t, row[0].Equal(types.Integer(workers*perWorker)))
}

type itemRecord struct {
	ID   int64
	Name string
}

func (r *itemRecord) NumFields() int { return 2 }

func (r *itemRecord) SetField(index int, v types.Value) error {
	switch index {
	case 0:
		if v.Kind() != types.KindInteger {
			return fmt.Errorf("id: expected integer, got %s", v.Kind())
		}
		r.ID = v.Int64()
	case 1:
		if v.Kind() != types.KindText {
			return fmt.Errorf("name: expected text, got %s", v.Kind())
		}
		r.Name = v.Text()
	}

	return nil
}

func TestSQLiteRowMapping(t *testing.T) {
	ctx := context.Background()
	client := newSQLiteClient(t)

	_, err := client.Exec(ctx,
		"CREATE TABLE mapped (id INTEGER PRIMARY KEY, name TEXT NOT NULL)", nil)
	require.NoError(t, err)

	for i, name := range []string{"one", "two", "three"} {
		_, err = client.Exec(ctx, "INSERT INTO mapped (id, name) VALUES (?, ?)",
			[]types.Value{types.Integer(int64(i + 1)), types.Text(name)})
		require.NoError(t, err)
	}

	res, err := client.Query(ctx, "SELECT id, name FROM mapped ORDER BY id", nil)
	require.NoError(t, err)

	records, err := rowmap.MapRows(res, func() *itemRecord { return &itemRecord{} })
	require.NoError(t, err)
	require.Len(t, records, 3)
	require.Equal(t, "two", records[1].Name)
	require.Equal(t, int64(3), records[2].ID)
}
