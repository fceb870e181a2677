package sqlite

import (
	"context"
	"database/sql"

	"github.com/kilnworks/syncengine/internal/types"
)

func (s *SQLiteStore) GetCacheEntry(ctx context.Context, key string) (*types.CacheEntry, error) {
	var e types.CacheEntry
	var expiresAt sql.NullTime
	err := s.db.QueryRowContext(ctx,
		`SELECT key, data, timestamp, expires_at FROM cache WHERE key = ?`, key,
	).Scan(&e.Key, &e.Data, &e.Timestamp, &expiresAt)
	if err != nil {
		return nil, wrapDBErrorf(err, "get cache entry %s", key)
	}
	if expiresAt.Valid {
		t := expiresAt.Time
		e.ExpiresAt = &t
	}
	return &e, nil
}

func (s *SQLiteStore) PutCacheEntry(ctx context.Context, e *types.CacheEntry) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO cache (key, data, timestamp, expires_at) VALUES (?, ?, ?, ?)
		ON CONFLICT (key) DO UPDATE SET data = excluded.data, timestamp = excluded.timestamp, expires_at = excluded.expires_at
	`, e.Key, e.Data, e.Timestamp, nullableTime(e.ExpiresAt))
	return wrapDBErrorf(err, "put cache entry %s", e.Key)
}

func (s *SQLiteStore) DeleteCacheEntry(ctx context.Context, key string) error {
	_, err := s.db.ExecContext(ctx, `DELETE FROM cache WHERE key = ?`, key)
	return wrapDBErrorf(err, "delete cache entry %s", key)
}
