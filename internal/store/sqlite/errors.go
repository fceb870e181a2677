package sqlite

import (
	"database/sql"
	"errors"
	"fmt"

	"github.com/kilnworks/syncengine/internal/store"
)

// ErrNotFound and ErrVersionConflict re-export the store package's
// sentinels so callers that only import sqlite (tests, cmd/syncctl) don't
// need a second import for errors.Is checks.
var (
	ErrNotFound        = store.ErrNotFound
	ErrVersionConflict = store.ErrVersionConflict
)

// wrapDBError wraps a database error with operation context, converting
// sql.ErrNoRows to store.ErrNotFound for consistent handling by callers.
func wrapDBError(op string, err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, sql.ErrNoRows) {
		return fmt.Errorf("%s: %w", op, store.ErrNotFound)
	}
	return fmt.Errorf("%s: %w", op, err)
}

// wrapDBErrorf is wrapDBError with a formatted operation description.
func wrapDBErrorf(err error, format string, args ...interface{}) error {
	if err == nil {
		return nil
	}
	return wrapDBError(fmt.Sprintf(format, args...), err)
}

// IsNotFound reports whether err is or wraps store.ErrNotFound.
func IsNotFound(err error) bool {
	return errors.Is(err, store.ErrNotFound)
}
