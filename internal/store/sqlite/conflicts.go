package sqlite

import (
	"context"
	"encoding/json"

	"github.com/kilnworks/syncengine/internal/types"
)

func (s *SQLiteStore) UpsertConflict(ctx context.Context, c *types.Conflict) error {
	localData, err := json.Marshal(c.Local.Data)
	if err != nil {
		return wrapDBErrorf(err, "marshal local snapshot for conflict %s", c.Fingerprint())
	}
	serverData, err := json.Marshal(c.Server.Data)
	if err != nil {
		return wrapDBErrorf(err, "marshal server snapshot for conflict %s", c.Fingerprint())
	}

	_, err = s.db.ExecContext(ctx, `
		INSERT INTO conflicts (
			fingerprint, account_id, entity_type, entity_id, type, field,
			local_data, local_ts, local_ver, server_data, server_ts, server_ver,
			created_at, resolved, resolution
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT (fingerprint) DO UPDATE SET
			local_data = excluded.local_data, local_ts = excluded.local_ts, local_ver = excluded.local_ver,
			server_data = excluded.server_data, server_ts = excluded.server_ts, server_ver = excluded.server_ver,
			created_at = excluded.created_at, resolved = excluded.resolved, resolution = excluded.resolution
	`,
		c.Fingerprint(), c.AccountID, string(c.EntityType), c.EntityID, string(c.Type), c.Field,
		string(localData), c.Local.Timestamp, c.Local.Version,
		string(serverData), c.Server.Timestamp, c.Server.Version,
		c.CreatedAt, c.Resolved, string(c.Resolution),
	)
	return wrapDBErrorf(err, "upsert conflict %s", c.Fingerprint())
}

func (s *SQLiteStore) GetConflict(ctx context.Context, fingerprint string) (*types.Conflict, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT account_id, entity_type, entity_id, type, field,
			local_data, local_ts, local_ver, server_data, server_ts, server_ver,
			created_at, resolved, resolution
		FROM conflicts WHERE fingerprint = ?
	`, fingerprint)
	c, err := scanConflict(row)
	if err != nil {
		return nil, wrapDBErrorf(err, "get conflict %s", fingerprint)
	}
	return c, nil
}

func (s *SQLiteStore) ListUnresolvedConflicts(ctx context.Context, accountID string) ([]*types.Conflict, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT account_id, entity_type, entity_id, type, field,
			local_data, local_ts, local_ver, server_data, server_ts, server_ver,
			created_at, resolved, resolution
		FROM conflicts WHERE account_id = ? AND resolved = 0
		ORDER BY created_at ASC
	`, accountID)
	if err != nil {
		return nil, wrapDBError("list unresolved conflicts", err)
	}
	defer func() { _ = rows.Close() }()

	var out []*types.Conflict
	for rows.Next() {
		c, err := scanConflict(rows)
		if err != nil {
			return nil, wrapDBError("scan conflict row", err)
		}
		out = append(out, c)
	}
	return out, wrapDBError("iterate conflict rows", rows.Err())
}

func (s *SQLiteStore) ResolveConflict(ctx context.Context, fingerprint string, resolution types.ResolutionStrategy) error {
	_, err := s.db.ExecContext(ctx,
		`UPDATE conflicts SET resolved = 1, resolution = ? WHERE fingerprint = ?`, string(resolution), fingerprint)
	return wrapDBErrorf(err, "resolve conflict %s", fingerprint)
}

func (s *SQLiteStore) ClearUnresolvedConflicts(ctx context.Context, accountID string, entityType types.EntityType) error {
	_, err := s.db.ExecContext(ctx,
		`DELETE FROM conflicts WHERE account_id = ? AND entity_type = ? AND resolved = 0`,
		accountID, string(entityType))
	return wrapDBErrorf(err, "clear unresolved %s conflicts for account %s", entityType, accountID)
}

func scanConflict(row rowScanner) (*types.Conflict, error) {
	var c types.Conflict
	var entityType, conflictType, localDataJSON, serverDataJSON, resolution string

	err := row.Scan(
		&c.AccountID, &entityType, &c.EntityID, &conflictType, &c.Field,
		&localDataJSON, &c.Local.Timestamp, &c.Local.Version,
		&serverDataJSON, &c.Server.Timestamp, &c.Server.Version,
		&c.CreatedAt, &c.Resolved, &resolution,
	)
	if err != nil {
		return nil, err
	}

	c.EntityType = types.EntityType(entityType)
	c.Type = types.ConflictType(conflictType)
	c.Resolution = types.ResolutionStrategy(resolution)
	if err := json.Unmarshal([]byte(localDataJSON), &c.Local.Data); err != nil {
		return nil, err
	}
	if err := json.Unmarshal([]byte(serverDataJSON), &c.Server.Data); err != nil {
		return nil, err
	}
	return &c, nil
}
