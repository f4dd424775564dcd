// Package sqlite implements the embedded backend adapter on database/sql
// with the mattn/go-sqlite3 driver.
//
// Placeholders follow the `?` convention. The engine is inherently blocking
// and admits a single writer, so every connection runs its calls on a
// dedicated executor goroutine: callers suspend on a channel instead of
// blocking inside the driver, and concurrent access degenerates to
// mutual exclusion around the single handle (MaxConcurrency is 1).
package sqlite
