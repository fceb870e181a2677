package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"time"

	"github.com/kilnworks/syncengine/internal/store"
	"github.com/kilnworks/syncengine/internal/types"
)

func (s *SQLiteStore) PutMedia(ctx context.Context, m *types.Media) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO media (id, item_id, account_id, filename, mime_type, size, uploaded_at, expires_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT (id) DO UPDATE SET
			filename = excluded.filename, mime_type = excluded.mime_type, size = excluded.size,
			uploaded_at = excluded.uploaded_at, expires_at = excluded.expires_at
	`, m.ID, m.ItemID, m.AccountID, m.Filename, m.MimeType, m.Size, m.UploadedAt, nullableTime(m.ExpiresAt))
	return wrapDBErrorf(err, "put media %s", m.ID)
}

func (s *SQLiteStore) GetMedia(ctx context.Context, accountID, mediaID string) (*types.Media, error) {
	var m types.Media
	var expiresAt sql.NullTime
	err := s.db.QueryRowContext(ctx, `
		SELECT id, item_id, account_id, filename, mime_type, size, uploaded_at, expires_at
		FROM media WHERE account_id = ? AND id = ?
	`, accountID, mediaID).Scan(&m.ID, &m.ItemID, &m.AccountID, &m.Filename, &m.MimeType, &m.Size, &m.UploadedAt, &expiresAt)
	if err != nil {
		return nil, wrapDBErrorf(err, "get media %s", mediaID)
	}
	if expiresAt.Valid {
		t := expiresAt.Time
		m.ExpiresAt = &t
	}
	return &m, nil
}

func (s *SQLiteStore) DeleteMedia(ctx context.Context, accountID, mediaID string) error {
	_, err := s.db.ExecContext(ctx, `DELETE FROM media WHERE account_id = ? AND id = ?`, accountID, mediaID)
	return wrapDBErrorf(err, "delete media %s", mediaID)
}

func (s *SQLiteStore) ListExpiredMedia(ctx context.Context, asOf time.Time) ([]*types.Media, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, item_id, account_id, filename, mime_type, size, uploaded_at, expires_at
		FROM media WHERE expires_at IS NOT NULL AND expires_at <= ?
	`, asOf)
	if err != nil {
		return nil, wrapDBError("list expired media", err)
	}
	defer func() { _ = rows.Close() }()

	var out []*types.Media
	for rows.Next() {
		var m types.Media
		var expiresAt sql.NullTime
		if err := rows.Scan(&m.ID, &m.ItemID, &m.AccountID, &m.Filename, &m.MimeType, &m.Size, &m.UploadedAt, &expiresAt); err != nil {
			return nil, wrapDBError("scan media row", err)
		}
		if expiresAt.Valid {
			t := expiresAt.Time
			m.ExpiresAt = &t
		}
		out = append(out, &m)
	}
	return out, wrapDBError("iterate expired media rows", rows.Err())
}

func (s *SQLiteStore) SumMediaBytes(ctx context.Context, accountID string) (int64, error) {
	var total sql.NullInt64
	err := s.db.QueryRowContext(ctx, `SELECT SUM(size) FROM media WHERE account_id = ?`, accountID).Scan(&total)
	if err != nil {
		return 0, wrapDBError("sum media bytes", err)
	}
	return total.Int64, nil
}

func (s *SQLiteStore) EnqueueMediaUpload(ctx context.Context, u *types.MediaUpload) error {
	raw, err := json.Marshal(u.Metadata)
	if err != nil {
		return wrapDBErrorf(err, "marshal metadata for media upload %s", u.ID)
	}
	metadata, err := store.NormalizeMetadataValue(raw)
	if err != nil {
		return wrapDBErrorf(err, "normalize metadata for media upload %s", u.ID)
	}
	_, err = s.db.ExecContext(ctx, `
		INSERT INTO media_uploads (id, media_id, item_id, account_id, metadata, queued_at, retry_count, last_error)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
	`, u.ID, u.MediaID, u.ItemID, u.AccountID, metadata, u.QueuedAt, u.RetryCount, u.LastError)
	return wrapDBErrorf(err, "enqueue media upload %s", u.ID)
}

func (s *SQLiteStore) ListQueuedMediaUploads(ctx context.Context, accountID string) ([]*types.MediaUpload, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, media_id, item_id, account_id, metadata, queued_at, retry_count, last_error
		FROM media_uploads WHERE account_id = ? ORDER BY queued_at ASC
	`, accountID)
	if err != nil {
		return nil, wrapDBError("list queued media uploads", err)
	}
	defer func() { _ = rows.Close() }()

	var out []*types.MediaUpload
	for rows.Next() {
		var u types.MediaUpload
		var metadataJSON string
		if err := rows.Scan(&u.ID, &u.MediaID, &u.ItemID, &u.AccountID, &metadataJSON, &u.QueuedAt, &u.RetryCount, &u.LastError); err != nil {
			return nil, wrapDBError("scan media upload row", err)
		}
		if metadataJSON != "" {
			if err := json.Unmarshal([]byte(metadataJSON), &u.Metadata); err != nil {
				return nil, wrapDBErrorf(err, "decode metadata for media upload %s", u.ID)
			}
		}
		out = append(out, &u)
	}
	return out, wrapDBError("iterate media upload rows", rows.Err())
}

func (s *SQLiteStore) DequeueMediaUpload(ctx context.Context, uploadID string) error {
	_, err := s.db.ExecContext(ctx, `DELETE FROM media_uploads WHERE id = ?`, uploadID)
	return wrapDBErrorf(err, "dequeue media upload %s", uploadID)
}

func (s *SQLiteStore) RetryMediaUpload(ctx context.Context, uploadID, lastErr string) (int, error) {
	var retryCount int
	err := s.withTx(ctx, func(tx *sql.Tx) error {
		if err := tx.QueryRowContext(ctx, `SELECT retry_count FROM media_uploads WHERE id = ?`, uploadID).Scan(&retryCount); err != nil {
			return err
		}
		retryCount++
		_, err := tx.ExecContext(ctx, `UPDATE media_uploads SET retry_count = ?, last_error = ? WHERE id = ?`, retryCount, lastErr, uploadID)
		return err
	})
	if err != nil {
		return 0, wrapDBErrorf(err, "retry media upload %s", uploadID)
	}
	return retryCount, nil
}
