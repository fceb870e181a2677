// Package lockfile provides cross-platform advisory file locking used to
// guard exclusive access to the local store file while a store has it open.
package lockfile

import (
	"errors"
)

// ErrLocked is returned when an exclusive lock cannot be acquired because it
// is held by another process.
var ErrLocked = errProcessLocked

// ErrLockBusy is returned when a non-blocking lock cannot be acquired
// because another process holds a conflicting lock.
var ErrLockBusy = errors.New("lock busy: held by another process")

// IsLocked returns true if the error indicates a lock is held by another process.
func IsLocked(err error) bool {
	return err == errProcessLocked
}

// IsProcessRunning reports whether a process with the given PID is alive.
// Used to decide whether a stale lock file can be safely reclaimed.
func IsProcessRunning(pid int) bool {
	return isProcessRunning(pid)
}
