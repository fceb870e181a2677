package sqlite

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/kilnworks/syncengine/internal/lockfile"
	"github.com/kilnworks/syncengine/internal/types"
)

func TestMigrateIsIdempotent(t *testing.T) {
	ctx := context.Background()
	dbPath := t.TempDir() + "/idempotent.db"

	s1, err := New(ctx, dbPath)
	require.NoError(t, err)
	require.NoError(t, s1.Close())

	s2, err := New(ctx, dbPath)
	require.NoError(t, err)
	defer s2.Close()

	var count int
	require.NoError(t, s2.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM schema_migrations`).Scan(&count))
	require.Equal(t, len(migrations), count)
}

func TestNewRejectsSecondOpenOfSameFile(t *testing.T) {
	ctx := context.Background()
	dbPath := t.TempDir() + "/locked.db"

	s1, err := New(ctx, dbPath)
	require.NoError(t, err)
	defer s1.Close()

	_, err = New(ctx, dbPath)
	require.ErrorIs(t, err, lockfile.ErrLocked)
}

func TestItemRoundTrip(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	now := time.Now().UTC().Truncate(time.Second)
	it := &types.Item{
		ItemID:      "item-1",
		AccountID:   "acct-1",
		QRKey:       "qr-1",
		CreatedBy:   "user-1",
		DateCreated: now,
		Name:        "Walnut Console",
		Price:       450.0,
		InventoryStatus: types.InventoryStatusAvailable,
		Version:     1,
		LastUpdated: now,
	}
	require.NoError(t, s.PutItem(ctx, it))

	got, err := s.GetItem(ctx, "acct-1", "item-1")
	require.NoError(t, err)
	require.Equal(t, it.Name, got.Name)
	require.Equal(t, it.Price, got.Price)
	require.Nil(t, got.LastSyncedAt)
	require.Equal(t, types.SyncStateDirty, got.SyncState())

	list, err := s.ListItems(ctx, "acct-1")
	require.NoError(t, err)
	require.Len(t, list, 1)

	require.NoError(t, s.DeleteItem(ctx, "acct-1", "item-1"))
	_, err = s.GetItem(ctx, "acct-1", "item-1")
	require.True(t, IsNotFound(err))
}

func TestOperationQueueOrdering(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	base := time.Now().UTC()
	for i, id := range []string{"op-3", "op-1", "op-2"} {
		op := &types.Operation{
			ID:        id,
			Type:      types.OpDeleteItem,
			Timestamp: base.Add(time.Duration(i) * time.Minute),
			AccountID: "acct-1",
			UpdatedBy: "user-1",
			Status:    types.OperationPending,
			Data:      []byte(`{"itemId":"x"}`),
		}
		require.NoError(t, s.EnqueueOperation(ctx, op))
	}

	ops, err := s.ListPendingOperations(ctx, "acct-1")
	require.NoError(t, err)
	require.Len(t, ops, 3)
	require.Equal(t, "op-3", ops[0].ID)
	require.Equal(t, "op-1", ops[1].ID)
	require.Equal(t, "op-2", ops[2].ID)
}

func TestConflictUpsertOverwritesByFingerprint(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	c := &types.Conflict{
		AccountID:  "acct-1",
		EntityType: types.EntityItem,
		EntityID:   "item-1",
		Type:       types.ConflictVersion,
		Field:      "price",
		Local:      types.SideSnapshot{Data: map[string]any{"price": 10.0}, Timestamp: time.Now(), Version: 2},
		Server:     types.SideSnapshot{Data: map[string]any{"price": 20.0}, Timestamp: time.Now(), Version: 3},
		CreatedAt:  time.Now(),
	}
	require.NoError(t, s.UpsertConflict(ctx, c))

	c.Resolved = true
	c.Resolution = types.StrategyKeepServer
	require.NoError(t, s.UpsertConflict(ctx, c))

	unresolved, err := s.ListUnresolvedConflicts(ctx, "acct-1")
	require.NoError(t, err)
	require.Empty(t, unresolved)

	got, err := s.GetConflict(ctx, c.Fingerprint())
	require.NoError(t, err)
	require.True(t, got.Resolved)
	require.Equal(t, types.StrategyKeepServer, got.Resolution)
}
