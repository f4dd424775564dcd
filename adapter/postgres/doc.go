// Package postgres implements the networked backend adapter on
// database/sql with the lib/pq driver.
//
// Placeholders follow the $N ordinal convention. Connections are dedicated
// *sql.Conn sessions so the unidb pool, not database/sql, owns pooling.
package postgres
