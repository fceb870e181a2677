// Package sqlite is the SQLite-backed implementation of the local durable
// cache (C1): store.Store over github.com/mattn/go-sqlite3.
package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"strings"

	_ "github.com/mattn/go-sqlite3"

	"github.com/kilnworks/syncengine/internal/lockfile"
	"github.com/kilnworks/syncengine/internal/store"
)

// SQLiteStore is the concrete store.Store implementation.
type SQLiteStore struct {
	db   *sql.DB
	lock *os.File
}

var _ store.Store = (*SQLiteStore)(nil)

// New opens (creating if absent) a SQLite database at dbPath and runs any
// pending migrations. dbPath may also be a SQLite file: URI, e.g. for
// t.TempDir()-backed test isolation or a private in-memory database.
//
// A plain file path is guarded by an advisory sidecar lock for the life of
// the returned store, so a second process pointed at the same file fails
// fast with lockfile.ErrLocked instead of racing this one's migrations.
func New(ctx context.Context, dbPath string) (*SQLiteStore, error) {
	lock, err := acquireStoreLock(dbPath)
	if err != nil {
		return nil, err
	}

	db, err := sql.Open("sqlite3", store.SQLiteConnString(dbPath, false))
	if err != nil {
		releaseStoreLock(lock)
		return nil, fmt.Errorf("open sqlite database: %w", err)
	}

	// A single writer connection avoids SQLITE_BUSY from this process's own
	// goroutines; the busy_timeout pragma absorbs contention with readers.
	db.SetMaxOpenConns(1)

	s := &SQLiteStore{db: db, lock: lock}
	if err := s.migrate(ctx); err != nil {
		_ = db.Close()
		releaseStoreLock(lock)
		return nil, fmt.Errorf("migrate sqlite database: %w", err)
	}
	return s, nil
}

// storeLockPath returns the sidecar lock file path for a plain on-disk
// database file, or "" for in-memory databases and file: URIs (tests and
// special connection strings that don't name a single real file).
func storeLockPath(dbPath string) string {
	dbPath = strings.TrimSpace(dbPath)
	if dbPath == "" || dbPath == ":memory:" || strings.HasPrefix(dbPath, "file:") {
		return ""
	}
	return dbPath + ".lock"
}

func acquireStoreLock(dbPath string) (*os.File, error) {
	path := storeLockPath(dbPath)
	if path == "" {
		return nil, nil
	}
	f, err := os.OpenFile(path, os.O_CREATE|os.O_RDWR, 0o644)
	if err != nil {
		return nil, fmt.Errorf("open lock file %s: %w", path, err)
	}
	if err := lockfile.FlockExclusiveNonBlocking(f); err != nil {
		_ = f.Close()
		if lockfile.IsLocked(err) {
			return nil, fmt.Errorf("sqlite store %s: %w", dbPath, lockfile.ErrLocked)
		}
		return nil, fmt.Errorf("lock %s: %w", path, err)
	}
	return f, nil
}

func releaseStoreLock(lock *os.File) {
	if lock == nil {
		return
	}
	_ = lockfile.FlockUnlock(lock)
	_ = lock.Close()
}

// Close closes the underlying connection pool and releases the store's
// exclusive sidecar lock, if one was acquired.
func (s *SQLiteStore) Close() error {
	releaseStoreLock(s.lock)
	return s.db.Close()
}

// withTx runs fn inside a transaction, committing on success and rolling
// back on any error including a panic.
func (s *SQLiteStore) withTx(ctx context.Context, fn func(tx *sql.Tx) error) (err error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	defer func() {
		if p := recover(); p != nil {
			_ = tx.Rollback()
			panic(p)
		}
		if err != nil {
			_ = tx.Rollback()
			return
		}
		err = tx.Commit()
	}()

	err = fn(tx)
	return err
}
