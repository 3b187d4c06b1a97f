// Package db provides the database handle used by the dedup store.
package db

import (
	"context"
	"fmt"

	"github.com/charmbracelet/log"
	"github.com/jmoiron/sqlx"
	_ "modernc.org/sqlite" // sqlite driver
)

// DB is the database connection.
type DB struct {
	*sqlx.DB
	logger *log.Logger
}

// Open opens a database connection.
func Open(ctx context.Context, driverName string, dsn string) (*DB, error) {
	db, err := sqlx.ConnectContext(ctx, driverName, dsn)
	if err != nil {
		return nil, fmt.Errorf("connect to database: %w", err)
	}

	d := &DB{DB: db}
	if logger := log.FromContext(ctx); logger != nil {
		d.logger = logger.WithPrefix("db")
	}

	return d, nil
}

// Close implements db.Close.
func (d *DB) Close() error {
	return d.DB.Close()
}
