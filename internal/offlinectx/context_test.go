package offlinectx

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/kilnworks/syncengine/internal/engineerrors"
	"github.com/kilnworks/syncengine/internal/eventbus"
	sqlitestore "github.com/kilnworks/syncengine/internal/store/sqlite"
)

func newTestStore(t *testing.T) *sqlitestore.SQLiteStore {
	t.Helper()
	s, err := sqlitestore.New(context.Background(), t.TempDir()+"/context.db")
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Close() })
	return s
}

func TestSetPersistsAndBroadcasts(t *testing.T) {
	ctx := context.Background()
	st := newTestStore(t)
	bus := eventbus.New()

	var received []eventbus.Event
	bus.Register(&captureHandler{out: &received})

	c, err := New(ctx, st, bus)
	require.NoError(t, err)
	require.False(t, c.Get().IsSet())

	require.NoError(t, c.Set(ctx, "user-1", "acct-1"))
	require.True(t, c.Get().IsSet())
	require.Equal(t, "user-1", c.GetLastKnownUserID())
	require.Len(t, received, 1)
	require.Equal(t, eventbus.ContextChanged, received[0].Type)

	// A fresh Context reloads the persisted row.
	c2, err := New(ctx, st, nil)
	require.NoError(t, err)
	require.Equal(t, "acct-1", c2.Get().AccountID)
}

func TestSetRejectsMissingIdentity(t *testing.T) {
	ctx := context.Background()
	st := newTestStore(t)
	c, err := New(ctx, st, nil)
	require.NoError(t, err)

	err = c.Set(ctx, "", "acct-1")
	var offlineErr *engineerrors.OfflineContextError
	require.ErrorAs(t, err, &offlineErr)
}

func TestRequireSetFailsWhenUnset(t *testing.T) {
	ctx := context.Background()
	st := newTestStore(t)
	c, err := New(ctx, st, nil)
	require.NoError(t, err)

	_, err = c.RequireSet()
	var offlineErr *engineerrors.OfflineContextError
	require.ErrorAs(t, err, &offlineErr)
}

type captureHandler struct {
	out *[]eventbus.Event
}

func (h *captureHandler) ID() string                     { return "capture" }
func (h *captureHandler) Handles() []eventbus.EventType  { return []eventbus.EventType{eventbus.ContextChanged} }
func (h *captureHandler) Priority() int                  { return 0 }
func (h *captureHandler) Handle(_ context.Context, e *eventbus.Event, _ *eventbus.Result) error {
	*h.out = append(*h.out, *e)
	return nil
}
