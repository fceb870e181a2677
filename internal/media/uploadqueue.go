package media

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/kilnworks/syncengine/internal/store"
	"github.com/kilnworks/syncengine/internal/types"
)

// MaxUploadRetries is the retry count past which a queued upload's error
// is annotated as having exceeded the normal ceiling. Unlike the
// operation queue, media uploads are never abandoned outright — see
// DESIGN.md's "media upload failure surface" decision — so this only
// changes the recorded message, not whether the row stays queued.
const MaxUploadRetries = 5

// Gate reports whether the engine should currently attempt server calls.
// Satisfied by *netgate.Gate.
type Gate interface {
	IsOnline(ctx context.Context) bool
}

// UploadQueue drains queued media uploads independently of the operation
// queue (§4.3/§4.6), since binary payloads are large enough to warrant
// their own backpressure.
type UploadQueue struct {
	st     store.Media
	gate   Gate
	client UploadClient
	log    *slog.Logger
}

// NewUploadQueue constructs an UploadQueue.
func NewUploadQueue(st store.Media, gate Gate, client UploadClient) *UploadQueue {
	return &UploadQueue{st: st, gate: gate, client: client, log: slog.Default()}
}

// SetLogger overrides the queue's structured logger (slog.Default() by
// default).
func (q *UploadQueue) SetLogger(log *slog.Logger) { q.log = log }

// Drain processes every queued upload for accountID, in FIFO order,
// stopping early if the gate goes offline.
func (q *UploadQueue) Drain(ctx context.Context, accountID string) (processed int, err error) {
	for {
		if ctx.Err() != nil {
			return processed, ctx.Err()
		}
		if !q.gate.IsOnline(ctx) {
			return processed, nil
		}

		uploads, err := q.st.ListQueuedMediaUploads(ctx, accountID)
		if err != nil {
			return processed, fmt.Errorf("media: list queued uploads: %w", err)
		}
		if len(uploads) == 0 {
			return processed, nil
		}

		stop, err := q.processOne(ctx, uploads[0])
		if err != nil {
			return processed, err
		}
		processed++
		if stop {
			// A failing head-of-line upload stops this drain pass rather
			// than busy-looping; the next timer-driven Drain call picks it
			// back up. The row itself is never deleted on failure (§5
			// Backoff's "never silently abandon" policy applies equally
			// here) — it stays visible via ListQueuedMediaUploads.
			return processed, nil
		}
	}
}

// processOne uploads a single queued blob, reporting whether the drain
// pass should stop (the upload failed and nothing further can proceed
// until the next pass).
func (q *UploadQueue) processOne(ctx context.Context, upload *types.MediaUpload) (stop bool, err error) {
	m, err := q.st.GetMedia(ctx, upload.AccountID, upload.MediaID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			// The blob is gone; nothing left to upload.
			return false, q.st.DequeueMediaUpload(ctx, upload.ID)
		}
		return true, fmt.Errorf("media: load blob %s: %w", upload.MediaID, err)
	}

	if _, uerr := q.client.UploadMedia(ctx, m, upload); uerr != nil {
		retryCount, rerr := q.st.RetryMediaUpload(ctx, upload.ID, uerr.Error())
		if rerr != nil {
			return true, fmt.Errorf("media: record retry for upload %s: %w", upload.ID, rerr)
		}
		if retryCount >= MaxUploadRetries {
			q.log.Warn("media upload exceeded normal retry ceiling, remaining queued",
				"upload_id", upload.ID, "media_id", upload.MediaID, "retry_count", retryCount, "error", uerr)
		} else {
			q.log.Info("media upload retrying", "upload_id", upload.ID, "retry_count", retryCount, "error", uerr)
		}
		return true, nil
	}
	return false, q.st.DequeueMediaUpload(ctx, upload.ID)
}
