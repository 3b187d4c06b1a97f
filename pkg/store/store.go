// Package store implements the persisted record of commit ids that have
// already been reported. The record only ever grows; an id that enters the
// store is never removed for the life of the repository.
//
// Check-and-record is a single database transaction, so two hook invocations
// racing on the same store cannot both claim the same commit. Ids are
// recorded before any notice is composed or delivered: a crash after
// recording skips the notice silently rather than risking a duplicate flood
// on the next push.
package store

import (
	"context"
	"fmt"
	"os"

	"github.com/charmbracelet/log"
	"github.com/refnotify/refnotify/pkg/config"
	"github.com/refnotify/refnotify/pkg/db"
	"github.com/refnotify/refnotify/pkg/git"
)

const schema = `
CREATE TABLE IF NOT EXISTS reported (
	sha TEXT PRIMARY KEY
);
CREATE TABLE IF NOT EXISTS meta (
	key TEXT PRIMARY KEY,
	value TEXT NOT NULL
);
`

// Store is the dedup store backed by a SQLite database.
type Store struct {
	db     *db.DB
	logger *log.Logger
}

// Open opens the dedup store at the configured path, creating it with the
// configured permission mask on first use. The returned bool is true when
// the store file was created by this call and still needs seeding.
func Open(ctx context.Context, cfg *config.Config) (*Store, bool, error) {
	if cfg == nil {
		return nil, false, config.ErrNilConfig
	}

	path := cfg.Store.Path
	_, statErr := os.Stat(path)
	created := os.IsNotExist(statErr)

	dsn := path + "?_pragma=busy_timeout(5000)"
	d, err := db.Open(ctx, "sqlite", dsn)
	if err != nil {
		return nil, false, fmt.Errorf("open store: %w", err)
	}

	if _, err := d.ExecContext(ctx, schema); err != nil {
		_ = d.Close()
		return nil, false, fmt.Errorf("create store schema: %w", err)
	}

	if created {
		mode, err := cfg.StoreFileMode()
		if err != nil {
			_ = d.Close()
			return nil, false, err
		}
		if err := os.Chmod(path, mode); err != nil {
			_ = d.Close()
			return nil, false, fmt.Errorf("set store permissions: %w", err)
		}
	}

	s := &Store{db: d}
	if logger := log.FromContext(ctx); logger != nil {
		s.logger = logger.WithPrefix("store")
	}

	seeded, err := s.Seeded(ctx)
	if err != nil {
		_ = d.Close()
		return nil, false, err
	}

	return s, !seeded, nil
}

// Close closes the store.
func (s *Store) Close() error {
	return s.db.Close()
}

// FilterAndRecord records every given id and returns, in input order, the
// ids that were not present before this call. Recording and membership test
// are one transaction.
func (s *Store) FilterAndRecord(ctx context.Context, ids []git.Hash) ([]git.Hash, error) {
	if len(ids) == 0 {
		return nil, nil
	}

	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("begin store transaction: %w", err)
	}
	defer tx.Rollback() // nolint: errcheck

	fresh := make([]git.Hash, 0, len(ids))
	for _, id := range ids {
		if err := id.Validate(); err != nil {
			return nil, fmt.Errorf("store: %w", err)
		}
		res, err := tx.ExecContext(ctx, `INSERT OR IGNORE INTO reported (sha) VALUES (?)`, id.String())
		if err != nil {
			return nil, fmt.Errorf("record %s: %w", id, err)
		}
		n, err := res.RowsAffected()
		if err != nil {
			return nil, fmt.Errorf("record %s: %w", id, err)
		}
		if n > 0 {
			fresh = append(fresh, id)
		}
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("commit store transaction: %w", err)
	}

	if s.logger != nil {
		s.logger.Debug("recorded ids", "total", len(ids), "fresh", len(fresh))
	}

	return fresh, nil
}

// Contains reports whether an id has been recorded.
func (s *Store) Contains(ctx context.Context, id git.Hash) (bool, error) {
	var n int
	if err := s.db.GetContext(ctx, &n, `SELECT COUNT(1) FROM reported WHERE sha = ?`, id.String()); err != nil {
		return false, fmt.Errorf("query store: %w", err)
	}
	return n > 0, nil
}

// Seed records the given ids and marks the store as seeded, all in one
// transaction. Seeding a fresh store with the repository's whole history
// makes only subsequent pushes generate notifications.
func (s *Store) Seed(ctx context.Context, ids []git.Hash) error {
	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin seed transaction: %w", err)
	}
	defer tx.Rollback() // nolint: errcheck

	for _, id := range ids {
		if err := id.Validate(); err != nil {
			return fmt.Errorf("seed: %w", err)
		}
		if _, err := tx.ExecContext(ctx, `INSERT OR IGNORE INTO reported (sha) VALUES (?)`, id.String()); err != nil {
			return fmt.Errorf("seed %s: %w", id, err)
		}
	}

	if _, err := tx.ExecContext(ctx, `INSERT OR REPLACE INTO meta (key, value) VALUES ('seeded', '1')`); err != nil {
		return fmt.Errorf("mark seeded: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit seed transaction: %w", err)
	}

	if s.logger != nil {
		s.logger.Info("seeded store", "commits", len(ids))
	}

	return nil
}

// Seeded reports whether the store has been seeded with repository history.
func (s *Store) Seeded(ctx context.Context) (bool, error) {
	var n int
	if err := s.db.GetContext(ctx, &n, `SELECT COUNT(1) FROM meta WHERE key = 'seeded'`); err != nil {
		return false, fmt.Errorf("query store: %w", err)
	}
	return n > 0, nil
}
