// Package store persists sittings, speeches, topic classifications, and MEP
// records in an embedded single-file SQLite database. All writes for one
// sitting go through a single transaction; busy/locked failures are retried
// with exponential backoff before surfacing ErrBusy.
package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	_ "modernc.org/sqlite"
)

const (
	busyRetryAttempts       = 6
	busyRetryInitialBackoff = 1600 * time.Millisecond
	busyRetryMaxBackoff     = 10 * time.Second
)

// ErrBusy is returned when the writer could not be acquired after all
// busy retries.
var ErrBusy = errors.New("store: database busy")

// ErrNotFound is returned by lookups that match no row.
var ErrNotFound = errors.New("store: not found")

// Store manages plenary persistence backed by SQLite.
type Store struct {
	db   *sql.DB
	path string
}

// Open initializes or connects to the database at path. ":memory:" is
// accepted for tests. The connection is configured for a single concurrent
// writer: WAL journaling, relaxed durability, and a 10 second busy timeout.
func Open(path string) (*Store, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open sqlite db: %w", err)
	}

	pragmas := []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA synchronous=NORMAL",
		"PRAGMA busy_timeout=10000",
		"PRAGMA foreign_keys=ON",
	}
	for _, pragma := range pragmas {
		if _, execErr := db.Exec(pragma); execErr != nil {
			_ = db.Close()
			return nil, fmt.Errorf("apply pragma %q: %w", pragma, execErr)
		}
	}

	s := &Store{db: db, path: path}
	if err := s.migrate(context.Background()); err != nil {
		_ = db.Close()
		return nil, err
	}
	return s, nil
}

// Close closes the underlying database connection.
func (s *Store) Close() error {
	if s == nil || s.db == nil {
		return nil
	}
	return s.db.Close()
}

// Path returns the database file path.
func (s *Store) Path() string {
	return s.path
}

func isBusy(err error) bool {
	if err == nil {
		return false
	}
	var coder interface{ Code() int }
	if errors.As(err, &coder) && coder.Code() == 5 { // SQLITE_BUSY
		return true
	}
	msg := err.Error()
	return strings.Contains(msg, "SQLITE_BUSY") || strings.Contains(msg, "database is locked")
}

// retryOnBusy runs op up to busyRetryAttempts times, backing off from 1.6s
// and doubling to a 10s cap. Exhausting the retries yields ErrBusy.
func retryOnBusy(ctx context.Context, op func() error) error {
	return retryBusy(ctx, busyRetryInitialBackoff, op)
}

func retryBusy(ctx context.Context, delay time.Duration, op func() error) error {
	var lastErr error
	for attempt := 0; attempt < busyRetryAttempts; attempt++ {
		lastErr = op()
		if lastErr == nil {
			return nil
		}
		if !isBusy(lastErr) {
			return lastErr
		}
		if attempt == busyRetryAttempts-1 {
			break
		}
		select {
		case <-time.After(delay):
		case <-ctx.Done():
			return ctx.Err()
		}
		delay = nextBusyDelay(delay)
	}
	return fmt.Errorf("%w: %v", ErrBusy, lastErr)
}

func nextBusyDelay(d time.Duration) time.Duration {
	if next := d * 2; next <= busyRetryMaxBackoff {
		return next
	}
	return busyRetryMaxBackoff
}

// withTx runs fn inside a transaction, retrying the whole transaction on
// busy errors.
func (s *Store) withTx(ctx context.Context, fn func(tx *sql.Tx) error) error {
	return retryOnBusy(ctx, func() error {
		tx, err := s.db.BeginTx(ctx, nil)
		if err != nil {
			return err
		}
		if err := fn(tx); err != nil {
			_ = tx.Rollback()
			return err
		}
		return tx.Commit()
	})
}

func (s *Store) execWithRetry(ctx context.Context, query string, args ...any) error {
	return retryOnBusy(ctx, func() error {
		_, err := s.db.ExecContext(ctx, query, args...)
		return err
	})
}

func nullString(v string) any {
	if v == "" {
		return nil
	}
	return v
}
