// Package db opens the Postgres connection pool and embeds schema migrations.
package db

import (
	"database/sql"
	"time"

	_ "github.com/jackc/pgx/v5/stdlib"
)

// Pool sizing: ingestion bursts arrive from many sensors at once, so the pool
// is provisioned for ~100 concurrent handlers. Connections are recycled hourly
// to avoid stale server-side state behind load balancers.
const (
	maxOpenConns    = 100
	maxIdleConns    = 40
	connMaxLifetime = time.Hour
)

// Open opens a Postgres connection pool using the given DSN and verifies it
// with a ping. Caller must call Close when done.
func Open(dsn string) (*sql.DB, error) {
	conn, err := sql.Open("pgx", dsn)
	if err != nil {
		return nil, err
	}
	conn.SetMaxOpenConns(maxOpenConns)
	conn.SetMaxIdleConns(maxIdleConns)
	conn.SetConnMaxLifetime(connMaxLifetime)
	if err := conn.Ping(); err != nil {
		_ = conn.Close()
		return nil, err
	}
	return conn, nil
}
