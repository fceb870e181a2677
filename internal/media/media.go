// Package media implements the media subsystem (C6): local blob storage
// with quota enforcement, plus an independent upload drain for staged
// blobs (media payloads are binary-heavy, so they never share the
// operation queue's drain).
package media

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/kilnworks/syncengine/internal/engineerrors"
	"github.com/kilnworks/syncengine/internal/store"
	"github.com/kilnworks/syncengine/internal/types"
)

// quotaWarnRatio is the usage/quota fraction beyond which SaveFile refuses
// further writes (§4.6).
const quotaWarnRatio = 0.9

// UploadClient pushes one staged blob to the server and returns the URL
// that replaces the entity's offline:// sentinel. Satisfied by
// *remote.StoreClient.
type UploadClient interface {
	UploadMedia(ctx context.Context, m *types.Media, upload *types.MediaUpload) (url string, err error)
}

// Store is the local byte-storage half of the media subsystem.
type Store struct {
	st        store.Media
	quotaBytes int64
}

// New constructs a Store with the given quota ceiling in bytes.
func New(st store.Media, quotaBytes int64) *Store {
	return &Store{st: st, quotaBytes: quotaBytes}
}

// SaveFile persists bytes as a new Media row owned by itemID, after
// checking that doing so would not push usage past the quota threshold.
func (s *Store) SaveFile(ctx context.Context, accountID, itemID string, bytes []byte, mimeType, filename string, expiresAt *time.Time) (*types.Media, error) {
	usage, err := s.st.SumMediaBytes(ctx, accountID)
	if err != nil {
		return nil, fmt.Errorf("media: sum usage: %w", err)
	}
	projected := usage + int64(len(bytes))
	if s.quotaBytes > 0 && float64(projected)/float64(s.quotaBytes) > quotaWarnRatio {
		return nil, &engineerrors.StorageQuotaError{UsageBytes: projected, QuotaBytes: s.quotaBytes}
	}

	m := &types.Media{
		ID:         uuid.NewString(),
		ItemID:     itemID,
		AccountID:  accountID,
		Filename:   filename,
		MimeType:   mimeType,
		Size:       int64(len(bytes)),
		Bytes:      bytes,
		UploadedAt: time.Now().UTC(),
		ExpiresAt:  expiresAt,
	}
	if err := s.st.PutMedia(ctx, m); err != nil {
		return nil, &engineerrors.OfflineStorageError{Op: "save media", Err: err}
	}
	return m, nil
}

// QueueUpload saves bytes locally (via SaveFile) and appends an upload
// queue entry referencing the new media id, for later draining by
// UploadQueue once the engine is back online.
func (s *Store) QueueUpload(ctx context.Context, accountID, itemID string, bytes []byte, mimeType, filename string, metadata map[string]any) (*types.Media, *types.MediaUpload, error) {
	m, err := s.SaveFile(ctx, accountID, itemID, bytes, mimeType, filename, nil)
	if err != nil {
		return nil, nil, err
	}

	upload := &types.MediaUpload{
		ID:        uuid.NewString(),
		MediaID:   m.ID,
		ItemID:    itemID,
		AccountID: accountID,
		Metadata:  metadata,
		QueuedAt:  time.Now().UTC(),
	}
	if err := s.st.EnqueueMediaUpload(ctx, upload); err != nil {
		return nil, nil, &engineerrors.OfflineStorageError{Op: "queue media upload", Err: err}
	}
	return m, upload, nil
}

// CleanupExpired deletes every media row whose ExpiresAt has passed as of
// now, returning the count removed.
func (s *Store) CleanupExpired(ctx context.Context, now time.Time) (int, error) {
	expired, err := s.st.ListExpiredMedia(ctx, now)
	if err != nil {
		return 0, fmt.Errorf("media: list expired: %w", err)
	}
	for _, m := range expired {
		if err := s.st.DeleteMedia(ctx, m.AccountID, m.ID); err != nil {
			return 0, fmt.Errorf("media: delete expired %s: %w", m.ID, err)
		}
	}
	return len(expired), nil
}
