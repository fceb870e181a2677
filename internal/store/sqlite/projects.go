package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"

	"github.com/kilnworks/syncengine/internal/types"
)

func (s *SQLiteStore) PutProject(ctx context.Context, p *types.Project) error {
	settings, err := json.Marshal(p.Settings)
	if err != nil {
		return wrapDBErrorf(err, "marshal settings for project %s", p.ID)
	}
	categories, err := json.Marshal(p.BudgetCategories)
	if err != nil {
		return wrapDBErrorf(err, "marshal budget categories for project %s", p.ID)
	}

	_, err = s.db.ExecContext(ctx, `
		INSERT INTO projects (
			id, account_id, created_by, date_created, name, description, budget, design_fee,
			default_category_id, status, settings, budget_categories, version, last_updated, last_synced_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT (account_id, id) DO UPDATE SET
			name = excluded.name, description = excluded.description, budget = excluded.budget,
			design_fee = excluded.design_fee, default_category_id = excluded.default_category_id,
			status = excluded.status, settings = excluded.settings,
			budget_categories = excluded.budget_categories, version = excluded.version,
			last_updated = excluded.last_updated, last_synced_at = excluded.last_synced_at
	`,
		p.ID, p.AccountID, p.CreatedBy, p.DateCreated, p.Name, p.Description, p.Budget, p.DesignFee,
		p.DefaultCategoryID, string(p.Status), string(settings), string(categories),
		p.Version, p.LastUpdated, p.LastSyncedAt,
	)
	return wrapDBErrorf(err, "put project %s", p.ID)
}

func (s *SQLiteStore) GetProject(ctx context.Context, accountID, projectID string) (*types.Project, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT id, account_id, created_by, date_created, name, description, budget, design_fee,
			default_category_id, status, settings, budget_categories, version, last_updated, last_synced_at
		FROM projects WHERE account_id = ? AND id = ?
	`, accountID, projectID)
	p, err := scanProject(row)
	if err != nil {
		return nil, wrapDBErrorf(err, "get project %s", projectID)
	}
	return p, nil
}

func (s *SQLiteStore) ListProjects(ctx context.Context, accountID string) ([]*types.Project, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, account_id, created_by, date_created, name, description, budget, design_fee,
			default_category_id, status, settings, budget_categories, version, last_updated, last_synced_at
		FROM projects WHERE account_id = ? ORDER BY id
	`, accountID)
	if err != nil {
		return nil, wrapDBError("list projects", err)
	}
	defer func() { _ = rows.Close() }()

	var out []*types.Project
	for rows.Next() {
		p, err := scanProject(rows)
		if err != nil {
			return nil, wrapDBError("scan project row", err)
		}
		out = append(out, p)
	}
	return out, wrapDBError("iterate project rows", rows.Err())
}

func (s *SQLiteStore) DeleteProject(ctx context.Context, accountID, projectID string) error {
	_, err := s.db.ExecContext(ctx, `DELETE FROM projects WHERE account_id = ? AND id = ?`, accountID, projectID)
	return wrapDBErrorf(err, "delete project %s", projectID)
}

func scanProject(row rowScanner) (*types.Project, error) {
	var p types.Project
	var lastSyncedAt sql.NullTime
	var status, settingsJSON, categoriesJSON string

	err := row.Scan(
		&p.ID, &p.AccountID, &p.CreatedBy, &p.DateCreated, &p.Name, &p.Description, &p.Budget, &p.DesignFee,
		&p.DefaultCategoryID, &status, &settingsJSON, &categoriesJSON, &p.Version, &p.LastUpdated, &lastSyncedAt,
	)
	if err != nil {
		return nil, err
	}

	p.Status = types.ProjectStatus(status)
	if err := json.Unmarshal([]byte(settingsJSON), &p.Settings); err != nil {
		return nil, err
	}
	if err := json.Unmarshal([]byte(categoriesJSON), &p.BudgetCategories); err != nil {
		return nil, err
	}
	if lastSyncedAt.Valid {
		ts := lastSyncedAt.Time
		p.LastSyncedAt = &ts
	}
	return &p, nil
}
