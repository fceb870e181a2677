package store

import "errors"

// Sentinel errors every Store implementation wraps via fmt.Errorf("...: %w",
// ...) at the point of failure, so callers can test with errors.Is
// regardless of which backing driver is in use.
var (
	ErrNotFound        = errors.New("not found")
	ErrVersionConflict = errors.New("version conflict")
)
