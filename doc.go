// Package unidb presents one connection/query/transaction abstraction over
// two structurally different backends: a networked relational server
// (PostgreSQL protocol, fully concurrent) and an embedded file engine
// (SQLite, single writer), without leaking backend identity to callers.
//
// # Basic Usage
//
//	backend, err := postgres.New("postgres://app@db.internal/app")
//	if err != nil {
//	    log.Fatal(err)
//	}
//
//	client, err := unidb.NewClient(backend,
//	    unidb.WithPoolConfig(pool.Config{MaxConns: 8}),
//	)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	defer client.Close()
//
//	n, err := client.Exec(ctx,
//	    "INSERT INTO users (name) VALUES ($1)",
//	    []types.Value{types.Text("amy")},
//	)
//
// Swapping the backend for sqlite.New("app.db") changes the placeholder
// convention ($1 → ?) and nothing else; pooling degenerates to a
// mutual-exclusion lock around the single handle and all engine calls run
// on a dedicated executor so blocking work never stalls other goroutines.
//
// # Transactions
//
//	tx, err := client.Begin(ctx)
//	if err != nil {
//	    return err
//	}
//	defer tx.Close() // rolls back automatically unless committed
//
//	if _, err := tx.Exec(ctx, "UPDATE accounts SET balance = balance - $1 WHERE id = $2",
//	    []types.Value{types.Integer(100), types.Integer(1)}); err != nil {
//	    return err
//	}
//
//	return tx.Commit(ctx)
//
// A transaction owns exclusive write access to one connection for its
// lifetime. Statements inside it are never auto-retried; a Retryable
// backend failure rolls the whole transaction back and the caller restarts
// the transaction body.
//
// # Retries
//
// Non-transactional Exec/Query calls classify failures per backend:
// connection resets, lock timeouts, and deadlocks are retried with capped
// exponential backoff plus jitter, re-acquiring a connection each attempt;
// constraint violations, syntax errors, and type errors surface
// immediately. Every attempt is reported to the configured
// types.MetricsCollector separately.
package unidb
