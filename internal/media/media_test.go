package media

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/kilnworks/syncengine/internal/engineerrors"
	sqlitestore "github.com/kilnworks/syncengine/internal/store/sqlite"
	"github.com/kilnworks/syncengine/internal/types"
)

func newTestMediaStore(t *testing.T) *sqlitestore.SQLiteStore {
	t.Helper()
	st, err := sqlitestore.New(context.Background(), t.TempDir()+"/media.db")
	require.NoError(t, err)
	t.Cleanup(func() { _ = st.Close() })
	return st
}

func TestSaveFileUnderQuotaSucceeds(t *testing.T) {
	ctx := context.Background()
	st := newTestMediaStore(t)
	s := New(st, 1000)

	m, err := s.SaveFile(ctx, "acct-1", "item-1", make([]byte, 100), "image/jpeg", "a.jpg", nil)
	require.NoError(t, err)
	require.Equal(t, int64(100), m.Size)
}

func TestSaveFileOverQuotaFails(t *testing.T) {
	ctx := context.Background()
	st := newTestMediaStore(t)
	s := New(st, 1000)

	_, err := s.SaveFile(ctx, "acct-1", "item-1", make([]byte, 950), "image/jpeg", "a.jpg", nil)
	var quotaErr *engineerrors.StorageQuotaError
	require.ErrorAs(t, err, &quotaErr)
}

func TestQueueUploadPersistsBytesAndQueueRow(t *testing.T) {
	ctx := context.Background()
	st := newTestMediaStore(t)
	s := New(st, 1000)

	m, upload, err := s.QueueUpload(ctx, "acct-1", "item-1", []byte("hello"), "image/jpeg", "a.jpg", map[string]any{"source": "camera"})
	require.NoError(t, err)
	require.Equal(t, m.ID, upload.MediaID)

	queued, err := st.ListQueuedMediaUploads(ctx, "acct-1")
	require.NoError(t, err)
	require.Len(t, queued, 1)
}

func TestCleanupExpiredRemovesPastExpiry(t *testing.T) {
	ctx := context.Background()
	st := newTestMediaStore(t)
	s := New(st, 1000)

	past := time.Now().UTC().Add(-time.Hour)
	_, err := s.SaveFile(ctx, "acct-1", "item-1", []byte("x"), "image/jpeg", "a.jpg", &past)
	require.NoError(t, err)

	future := time.Now().UTC().Add(time.Hour)
	_, err = s.SaveFile(ctx, "acct-1", "item-2", []byte("y"), "image/jpeg", "b.jpg", &future)
	require.NoError(t, err)

	n, err := s.CleanupExpired(ctx, time.Now().UTC())
	require.NoError(t, err)
	require.Equal(t, 1, n)
}

type onlineGate struct{}

func (onlineGate) IsOnline(context.Context) bool { return true }

type fakeUploadClient struct {
	fail bool
}

func (c *fakeUploadClient) UploadMedia(context.Context, *types.Media, *types.MediaUpload) (string, error) {
	if c.fail {
		return "", context.DeadlineExceeded
	}
	return "https://cdn.example.com/blob", nil
}

func TestUploadQueueDrainSucceeds(t *testing.T) {
	ctx := context.Background()
	st := newTestMediaStore(t)
	s := New(st, 1000)
	_, _, err := s.QueueUpload(ctx, "acct-1", "item-1", []byte("hello"), "image/jpeg", "a.jpg", nil)
	require.NoError(t, err)

	q := NewUploadQueue(st, onlineGate{}, &fakeUploadClient{})
	processed, err := q.Drain(ctx, "acct-1")
	require.NoError(t, err)
	require.Equal(t, 1, processed)

	queued, err := st.ListQueuedMediaUploads(ctx, "acct-1")
	require.NoError(t, err)
	require.Empty(t, queued)
}

func TestUploadQueueDrainStopsAfterFailure(t *testing.T) {
	ctx := context.Background()
	st := newTestMediaStore(t)
	s := New(st, 1000)
	_, _, err := s.QueueUpload(ctx, "acct-1", "item-1", []byte("hello"), "image/jpeg", "a.jpg", nil)
	require.NoError(t, err)

	q := NewUploadQueue(st, onlineGate{}, &fakeUploadClient{fail: true})
	processed, err := q.Drain(ctx, "acct-1")
	require.NoError(t, err)
	require.Equal(t, 1, processed)

	queued, err := st.ListQueuedMediaUploads(ctx, "acct-1")
	require.NoError(t, err)
	require.Len(t, queued, 1, "failed uploads stay queued rather than being dropped")
}
