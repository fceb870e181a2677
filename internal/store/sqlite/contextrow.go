package sqlite

import (
	"context"

	"github.com/kilnworks/syncengine/internal/types"
)

func (s *SQLiteStore) GetContext(ctx context.Context) (*types.Context, error) {
	var c types.Context
	err := s.db.QueryRowContext(ctx,
		`SELECT user_id, account_id, updated_at FROM context WHERE id = 1`,
	).Scan(&c.UserID, &c.AccountID, &c.UpdatedAt)
	if err != nil {
		return nil, wrapDBError("get context", err)
	}
	return &c, nil
}

func (s *SQLiteStore) PutContext(ctx context.Context, c *types.Context) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO context (id, user_id, account_id, updated_at) VALUES (1, ?, ?, ?)
		ON CONFLICT (id) DO UPDATE SET user_id = excluded.user_id, account_id = excluded.account_id, updated_at = excluded.updated_at
	`, c.UserID, c.AccountID, c.UpdatedAt)
	return wrapDBError("put context", err)
}
