package conflict

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	sqlitestore "github.com/kilnworks/syncengine/internal/store/sqlite"
	"github.com/kilnworks/syncengine/internal/types"
)

func newTestDetector(t *testing.T, remote RemoteReader) (*Detector, *sqlitestore.SQLiteStore) {
	t.Helper()
	st, err := sqlitestore.New(context.Background(), t.TempDir()+"/conflict.db")
	require.NoError(t, err)
	t.Cleanup(func() { _ = st.Close() })
	return New(st, remote), st
}

type stubRemote struct {
	items        []*types.Item
	transactions []*types.Transaction
	projects     []*types.Project
}

func (s stubRemote) ListItems(context.Context, string) ([]*types.Item, error)               { return s.items, nil }
func (s stubRemote) ListTransactions(context.Context, string) ([]*types.Transaction, error) { return s.transactions, nil }
func (s stubRemote) ListProjects(context.Context, string) ([]*types.Project, error)         { return s.projects, nil }

func TestDetectItemsReportsContentConflict(t *testing.T) {
	ctx := context.Background()
	old := time.Now().UTC().Add(-time.Hour)

	local := &types.Item{ItemID: "item-1", AccountID: "acct-1", Name: "Local Name", Version: 1, LastUpdated: old}
	server := &types.Item{ItemID: "item-1", AccountID: "acct-1", Name: "Server Name", Version: 1, LastUpdated: old}

	d, st := newTestDetector(t, stubRemote{items: []*types.Item{server}})
	require.NoError(t, st.PutItem(ctx, local))

	found, err := d.DetectItems(ctx, "acct-1")
	require.NoError(t, err)
	require.Len(t, found, 1)
	require.Equal(t, types.ConflictContent, found[0].Type)
	require.Equal(t, "name", found[0].Field)

	blocked, err := d.HasBlockingConflict(ctx, "acct-1", types.EntityItem, "item-1")
	require.NoError(t, err)
	require.True(t, blocked)
}

func TestDetectItemsSkipsIdenticalContent(t *testing.T) {
	ctx := context.Background()
	old := time.Now().UTC().Add(-time.Hour)

	local := &types.Item{ItemID: "item-1", AccountID: "acct-1", Name: "Same", Version: 1, LastUpdated: old}
	server := &types.Item{ItemID: "item-1", AccountID: "acct-1", Name: "Same", Version: 2, LastUpdated: old}

	d, st := newTestDetector(t, stubRemote{items: []*types.Item{server}})
	require.NoError(t, st.PutItem(ctx, local))

	found, err := d.DetectItems(ctx, "acct-1")
	require.NoError(t, err)
	require.Empty(t, found, "version-only divergence with identical content is not a conflict")
}

func TestDetectItemsSuppressesJustSynced(t *testing.T) {
	ctx := context.Background()
	now := time.Now().UTC()
	justSynced := now.Add(-time.Second)

	local := &types.Item{ItemID: "item-1", AccountID: "acct-1", Name: "Local", Version: 1, LastUpdated: now, LastSyncedAt: &justSynced}
	server := &types.Item{ItemID: "item-1", AccountID: "acct-1", Name: "Different", Version: 1, LastUpdated: now}

	d, st := newTestDetector(t, stubRemote{items: []*types.Item{server}})
	require.NoError(t, st.PutItem(ctx, local))

	found, err := d.DetectItems(ctx, "acct-1")
	require.NoError(t, err)
	require.Empty(t, found, "rows synced within the last 5s suppress self-reflection")
}

func TestDetectItemsVersionConflictTakesPrecedence(t *testing.T) {
	ctx := context.Background()
	old := time.Now().UTC().Add(-time.Hour)

	local := &types.Item{ItemID: "item-1", AccountID: "acct-1", Name: "Local", Version: 1, LastUpdated: old}
	server := &types.Item{ItemID: "item-1", AccountID: "acct-1", Name: "Server", Version: 2, LastUpdated: old}

	d, st := newTestDetector(t, stubRemote{items: []*types.Item{server}})
	require.NoError(t, st.PutItem(ctx, local))

	found, err := d.DetectItems(ctx, "acct-1")
	require.NoError(t, err)
	require.Len(t, found, 1)
	require.Equal(t, types.ConflictVersion, found[0].Type)
	require.Equal(t, "version", found[0].Field)
}
