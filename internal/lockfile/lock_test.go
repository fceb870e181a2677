//go:build unix

package lockfile

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

func openTestFile(t *testing.T) (*os.File, string) {
	t.Helper()
	path := filepath.Join(t.TempDir(), "test.lock")
	f, err := os.OpenFile(path, os.O_CREATE|os.O_RDWR, 0o644)
	require.NoError(t, err)
	t.Cleanup(func() { _ = f.Close() })
	return f, path
}

func TestFlockExclusiveNonBlockingSucceedsWhenFree(t *testing.T) {
	f, _ := openTestFile(t)
	require.NoError(t, FlockExclusiveNonBlocking(f))
	require.NoError(t, FlockUnlock(f))
}

func TestFlockExclusiveNonBlockingFailsWhenAlreadyHeld(t *testing.T) {
	_, path := openTestFile(t)

	holder, err := os.OpenFile(path, os.O_RDWR, 0o644)
	require.NoError(t, err)
	defer holder.Close()
	require.NoError(t, FlockExclusiveNonBlocking(holder))

	contender, err := os.OpenFile(path, os.O_RDWR, 0o644)
	require.NoError(t, err)
	defer contender.Close()

	err = FlockExclusiveNonBlocking(contender)
	require.Error(t, err)
	require.True(t, IsLocked(err))
}

func TestIsProcessRunningForSelf(t *testing.T) {
	require.True(t, IsProcessRunning(os.Getpid()))
}

func TestIsProcessRunningForInvalidPID(t *testing.T) {
	require.False(t, IsProcessRunning(0))
	require.False(t, IsProcessRunning(-1))
}
