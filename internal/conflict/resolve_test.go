package conflict

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/kilnworks/syncengine/internal/engineconfig"
	"github.com/kilnworks/syncengine/internal/offlinectx"
	"github.com/kilnworks/syncengine/internal/queue"
	"github.com/kilnworks/syncengine/internal/types"
)

type alwaysOnlineGate struct{}

func (alwaysOnlineGate) IsOnline(context.Context) bool { return true }

type neverBlockedGate struct{}

func (neverBlockedGate) HasBlockingConflict(context.Context, string, types.EntityType, string) (bool, error) {
	return false, nil
}

type noopServerClient struct{}

func (noopServerClient) Apply(_ context.Context, op *types.Operation) (*queue.ApplyResult, error) {
	return &queue.ApplyResult{Version: op.Version + 1, UpdatedAt: time.Now().UTC()}, nil
}

func newTestResolver(t *testing.T) (*Resolver, *Detector, *offlinectx.Context) {
	t.Helper()
	ctx := context.Background()
	d, st := newTestDetector(t, stubRemote{})

	octx, err := offlinectx.New(ctx, st, nil)
	require.NoError(t, err)
	require.NoError(t, octx.Set(ctx, "user-1", "acct-1"))

	cfg := engineconfig.Config{MaxRetries: 5, BackoffBase: time.Millisecond, BackoffCeiling: 10 * time.Millisecond}
	q := queue.New(st, octx, alwaysOnlineGate{}, neverBlockedGate{}, noopServerClient{}, cfg)

	return NewResolver(st, q), d, octx
}

func TestResolveKeepServerOverwritesLocal(t *testing.T) {
	ctx := context.Background()
	r, d, _ := newTestResolver(t)

	old := time.Now().UTC().Add(-time.Hour)
	local := &types.Item{ItemID: "item-1", AccountID: "acct-1", Name: "Local", Version: 1, LastUpdated: old}
	server := &types.Item{ItemID: "item-1", AccountID: "acct-1", Name: "Server", Version: 2, LastUpdated: old}

	st := d.local.(interface {
		PutItem(ctx context.Context, item *types.Item) error
		GetItem(ctx context.Context, accountID, itemID string) (*types.Item, error)
		ListUnresolvedConflicts(ctx context.Context, accountID string) ([]*types.Conflict, error)
	})
	require.NoError(t, st.PutItem(ctx, local))
	d.remote = stubRemote{items: []*types.Item{server}}

	found, err := d.DetectItems(ctx, "acct-1")
	require.NoError(t, err)
	require.Len(t, found, 1)

	require.NoError(t, r.Resolve(ctx, found[0].Fingerprint(), types.StrategyKeepServer, nil))

	updated, err := st.GetItem(ctx, "acct-1", "item-1")
	require.NoError(t, err)
	require.Equal(t, "Server", updated.Name)
	require.Equal(t, 2, updated.Version)
	require.NotNil(t, updated.LastSyncedAt)

	unresolved, err := st.ListUnresolvedConflicts(ctx, "acct-1")
	require.NoError(t, err)
	require.Empty(t, unresolved)
}

func TestResolveKeepLocalReenqueuesUpdate(t *testing.T) {
	ctx := context.Background()
	r, d, _ := newTestResolver(t)

	old := time.Now().UTC().Add(-time.Hour)
	local := &types.Item{ItemID: "item-1", AccountID: "acct-1", Name: "Local", Version: 1, LastUpdated: old}
	server := &types.Item{ItemID: "item-1", AccountID: "acct-1", Name: "Server", Version: 2, LastUpdated: old}

	st := d.local.(interface {
		PutItem(ctx context.Context, item *types.Item) error
		ListPendingOperations(ctx context.Context, accountID string) ([]*types.Operation, error)
	})
	require.NoError(t, st.PutItem(ctx, local))
	d.remote = stubRemote{items: []*types.Item{server}}

	found, err := d.DetectItems(ctx, "acct-1")
	require.NoError(t, err)
	require.Len(t, found, 1)

	require.NoError(t, r.Resolve(ctx, found[0].Fingerprint(), types.StrategyKeepLocal, nil))

	pending, err := st.ListPendingOperations(ctx, "acct-1")
	require.NoError(t, err)
	require.Len(t, pending, 1)
	require.Equal(t, types.OpUpdateItem, pending[0].Type)
}

func TestResolveManualLeavesConflictOpen(t *testing.T) {
	ctx := context.Background()
	r, d, _ := newTestResolver(t)

	old := time.Now().UTC().Add(-time.Hour)
	local := &types.Item{ItemID: "item-1", AccountID: "acct-1", Name: "Local", Version: 1, LastUpdated: old}
	server := &types.Item{ItemID: "item-1", AccountID: "acct-1", Name: "Server", Version: 2, LastUpdated: old}

	st := d.local.(interface {
		PutItem(ctx context.Context, item *types.Item) error
		ListUnresolvedConflicts(ctx context.Context, accountID string) ([]*types.Conflict, error)
	})
	require.NoError(t, st.PutItem(ctx, local))
	d.remote = stubRemote{items: []*types.Item{server}}

	found, err := d.DetectItems(ctx, "acct-1")
	require.NoError(t, err)
	require.Len(t, found, 1)

	require.NoError(t, r.Resolve(ctx, found[0].Fingerprint(), types.StrategyManual, nil))

	unresolved, err := st.ListUnresolvedConflicts(ctx, "acct-1")
	require.NoError(t, err)
	require.Len(t, unresolved, 1)
}
