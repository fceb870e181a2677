package sqlite

import (
	"context"
	"testing"
)

// newTestStore creates a SQLiteStore backed by a private temp-file database.
//
// Test Isolation: each test gets its own file under t.TempDir() rather than
// a shared ":memory:" database, so concurrent tests never interfere with
// each other's connection pool or schema state.
func newTestStore(t *testing.T) *SQLiteStore {
	t.Helper()

	dbPath := t.TempDir() + "/test.db"
	s, err := New(context.Background(), dbPath)
	if err != nil {
		t.Fatalf("failed to create test database: %v", err)
	}
	t.Cleanup(func() {
		if err := s.Close(); err != nil {
			t.Fatalf("failed to close test database: %v", err)
		}
	})
	return s
}
