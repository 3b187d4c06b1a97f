package db

import (
	"context"
	"database/sql"
	"strings"

	"github.com/jmoiron/sqlx"
)

func (d *DB) trace(query string, args ...interface{}) {
	if d.logger != nil {
		// Remove newlines and tabs
		query = strings.ReplaceAll(query, "\t", "")
		query = strings.TrimSpace(query)
		d.logger.Debug("trace", "query", query, "args", args)
	}
}

// GetContext is a wrapper around sqlx.GetContext that logs the query and arguments.
func (d *DB) GetContext(ctx context.Context, dest interface{}, query string, args ...interface{}) error {
	d.trace(query, args...)
	return d.DB.GetContext(ctx, dest, query, args...)
}

// SelectContext is a wrapper around sqlx.SelectContext that logs the query and arguments.
func (d *DB) SelectContext(ctx context.Context, dest interface{}, query string, args ...interface{}) error {
	d.trace(query, args...)
	return d.DB.SelectContext(ctx, dest, query, args...)
}

// ExecContext is a wrapper around sqlx.ExecContext that logs the query and arguments.
func (d *DB) ExecContext(ctx context.Context, query string, args ...interface{}) (sql.Result, error) {
	d.trace(query, args...)
	return d.DB.ExecContext(ctx, query, args...)
}

// BeginTxx is a wrapper around sqlx.BeginTxx that logs the transaction begin.
func (d *DB) BeginTxx(ctx context.Context, opts *sql.TxOptions) (*sqlx.Tx, error) {
	d.trace("BEGIN")
	return d.DB.BeginTxx(ctx, opts)
}
