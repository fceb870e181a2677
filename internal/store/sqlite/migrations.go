package sqlite

import (
	"context"
	"database/sql"
	"fmt"
)

// Migration is one named, idempotent forward-only schema step.
type Migration struct {
	Name string
	Func func(ctx context.Context, tx *sql.Tx) error
}

var migrations = []Migration{
	{Name: "001_schema_migrations", Func: migrateSchemaMigrations},
	{Name: "002_context", Func: migrateContext},
	{Name: "003_cache", Func: migrateCache},
	{Name: "004_items", Func: migrateItems},
	{Name: "005_transactions", Func: migrateTransactions},
	{Name: "006_projects", Func: migrateProjects},
	{Name: "007_operations", Func: migrateOperations},
	{Name: "008_conflicts", Func: migrateConflicts},
	{Name: "009_media", Func: migrateMedia},
	{Name: "010_media_uploads", Func: migrateMediaUploads},
}

// migrate applies every migration not yet recorded in schema_migrations, in
// order, each inside its own transaction. Whether schema_migrations exists
// is checked through sqlite_master, and each migration creates its objects
// with IF NOT EXISTS, so re-running one against an existing table is safe.
func (s *SQLiteStore) migrate(ctx context.Context) error {
	for _, m := range migrations {
		applied, err := s.migrationApplied(ctx, m.Name)
		if err != nil {
			return err
		}
		if applied {
			continue
		}
		if err := s.withTx(ctx, func(tx *sql.Tx) error {
			if err := m.Func(ctx, tx); err != nil {
				return fmt.Errorf("migration %s: %w", m.Name, err)
			}
			if m.Name != "001_schema_migrations" {
				if _, err := tx.ExecContext(ctx,
					`INSERT INTO schema_migrations (name) VALUES (?)`, m.Name); err != nil {
					return fmt.Errorf("record migration %s: %w", m.Name, err)
				}
			}
			return nil
		}); err != nil {
			return err
		}
	}
	return nil
}

func (s *SQLiteStore) migrationApplied(ctx context.Context, name string) (bool, error) {
	var exists int
	err := s.db.QueryRowContext(ctx,
		`SELECT 1 FROM sqlite_master WHERE type = 'table' AND name = 'schema_migrations'`).Scan(&exists)
	if err == sql.ErrNoRows {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("check schema_migrations table: %w", err)
	}

	err = s.db.QueryRowContext(ctx,
		`SELECT 1 FROM schema_migrations WHERE name = ?`, name).Scan(&exists)
	if err == sql.ErrNoRows {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("check migration %s: %w", name, err)
	}
	return true, nil
}

func migrateSchemaMigrations(ctx context.Context, tx *sql.Tx) error {
	_, err := tx.ExecContext(ctx, `
		CREATE TABLE IF NOT EXISTS schema_migrations (
			name       TEXT PRIMARY KEY,
			applied_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
		)
	`)
	if err != nil {
		return err
	}
	_, err = tx.ExecContext(ctx, `INSERT INTO schema_migrations (name) VALUES ('001_schema_migrations')`)
	return err
}

func migrateContext(ctx context.Context, tx *sql.Tx) error {
	_, err := tx.ExecContext(ctx, `
		CREATE TABLE IF NOT EXISTS context (
			id         INTEGER PRIMARY KEY CHECK (id = 1),
			user_id    TEXT NOT NULL,
			account_id TEXT NOT NULL,
			updated_at DATETIME NOT NULL
		)
	`)
	return err
}

func migrateCache(ctx context.Context, tx *sql.Tx) error {
	_, err := tx.ExecContext(ctx, `
		CREATE TABLE IF NOT EXISTS cache (
			key        TEXT PRIMARY KEY,
			data       BLOB NOT NULL,
			timestamp  DATETIME NOT NULL,
			expires_at DATETIME
		)
	`)
	return err
}

func migrateItems(ctx context.Context, tx *sql.Tx) error {
	_, err := tx.ExecContext(ctx, `
		CREATE TABLE IF NOT EXISTS items (
			item_id                      TEXT NOT NULL,
			account_id                   TEXT NOT NULL,
			qr_key                       TEXT NOT NULL,
			created_by                   TEXT NOT NULL,
			date_created                 DATETIME NOT NULL,
			origin_transaction_id        TEXT,
			name                         TEXT NOT NULL DEFAULT '',
			description                  TEXT NOT NULL DEFAULT '',
			source                       TEXT NOT NULL DEFAULT '',
			sku                          TEXT NOT NULL DEFAULT '',
			price                        REAL NOT NULL DEFAULT 0,
			purchase_price               REAL NOT NULL DEFAULT 0,
			project_price                REAL NOT NULL DEFAULT 0,
			market_value                 REAL NOT NULL DEFAULT 0,
			payment_method               TEXT NOT NULL DEFAULT '',
			disposition                  TEXT NOT NULL DEFAULT '',
			notes                        TEXT NOT NULL DEFAULT '',
			space                        TEXT NOT NULL DEFAULT '',
			tax_rate_pct                 REAL NOT NULL DEFAULT 0,
			tax_amount_purchase_price    REAL NOT NULL DEFAULT 0,
			tax_amount_project_price     REAL NOT NULL DEFAULT 0,
			bookmark                     INTEGER NOT NULL DEFAULT 0,
			inventory_status             TEXT NOT NULL DEFAULT 'available',
			business_inventory_location  TEXT NOT NULL DEFAULT '',
			project_id                   TEXT,
			transaction_id               TEXT,
			latest_transaction_id        TEXT,
			version                      INTEGER NOT NULL DEFAULT 0,
			last_updated                 DATETIME NOT NULL,
			last_synced_at               DATETIME,
			PRIMARY KEY (account_id, item_id)
		)
	`)
	if err != nil {
		return err
	}
	_, err = tx.ExecContext(ctx, `CREATE INDEX IF NOT EXISTS idx_items_project ON items (account_id, project_id)`)
	if err != nil {
		return err
	}
	_, err = tx.ExecContext(ctx, `CREATE INDEX IF NOT EXISTS idx_items_transaction ON items (account_id, transaction_id)`)
	return err
}

func migrateTransactions(ctx context.Context, tx *sql.Tx) error {
	_, err := tx.ExecContext(ctx, `
		CREATE TABLE IF NOT EXISTS transactions (
			transaction_id            TEXT NOT NULL,
			account_id                TEXT NOT NULL,
			project_id                TEXT,
			created_by                TEXT NOT NULL,
			date_created               DATETIME NOT NULL,
			amount                    REAL NOT NULL DEFAULT 0,
			allocated_amount          REAL NOT NULL DEFAULT 0,
			category_id               TEXT NOT NULL DEFAULT '',
			tax_rate_preset           TEXT NOT NULL DEFAULT '',
			tax_rate_pct              REAL NOT NULL DEFAULT 0,
			subtotal                  REAL NOT NULL DEFAULT 0,
			status                    TEXT NOT NULL DEFAULT 'pending',
			notes                     TEXT NOT NULL DEFAULT '',
			item_ids                  TEXT NOT NULL DEFAULT '[]',
			needs_review              INTEGER NOT NULL DEFAULT 0,
			sum_item_purchase_prices  REAL NOT NULL DEFAULT 0,
			reimbursement_type        TEXT NOT NULL DEFAULT 'none',
			trigger_event             TEXT NOT NULL DEFAULT '',
			version                   INTEGER NOT NULL DEFAULT 0,
			last_updated              DATETIME NOT NULL,
			last_synced_at            DATETIME,
			PRIMARY KEY (account_id, transaction_id)
		)
	`)
	if err != nil {
		return err
	}
	_, err = tx.ExecContext(ctx, `CREATE INDEX IF NOT EXISTS idx_transactions_project ON transactions (account_id, project_id)`)
	return err
}

func migrateProjects(ctx context.Context, tx *sql.Tx) error {
	_, err := tx.ExecContext(ctx, `
		CREATE TABLE IF NOT EXISTS projects (
			id                  TEXT NOT NULL,
			account_id          TEXT NOT NULL,
			created_by          TEXT NOT NULL,
			date_created        DATETIME NOT NULL,
			name                TEXT NOT NULL DEFAULT '',
			description         TEXT NOT NULL DEFAULT '',
			budget              REAL NOT NULL DEFAULT 0,
			design_fee          REAL NOT NULL DEFAULT 0,
			default_category_id TEXT NOT NULL DEFAULT '',
			status              TEXT NOT NULL DEFAULT 'active',
			settings            TEXT NOT NULL DEFAULT '{}',
			budget_categories   TEXT NOT NULL DEFAULT '[]',
			version             INTEGER NOT NULL DEFAULT 0,
			last_updated        DATETIME NOT NULL,
			last_synced_at      DATETIME,
			PRIMARY KEY (account_id, id)
		)
	`)
	return err
}

func migrateOperations(ctx context.Context, tx *sql.Tx) error {
	_, err := tx.ExecContext(ctx, `
		CREATE TABLE IF NOT EXISTS operations (
			id          TEXT PRIMARY KEY,
			type        TEXT NOT NULL,
			timestamp   DATETIME NOT NULL,
			retry_count INTEGER NOT NULL DEFAULT 0,
			last_error  TEXT NOT NULL DEFAULT '',
			account_id  TEXT NOT NULL,
			updated_by  TEXT NOT NULL,
			version     INTEGER NOT NULL DEFAULT 0,
			status      TEXT NOT NULL DEFAULT 'pending',
			data        TEXT NOT NULL
		)
	`)
	if err != nil {
		return err
	}
	_, err = tx.ExecContext(ctx, `CREATE INDEX IF NOT EXISTS idx_operations_account_ts ON operations (account_id, timestamp)`)
	return err
}

func migrateConflicts(ctx context.Context, tx *sql.Tx) error {
	_, err := tx.ExecContext(ctx, `
		CREATE TABLE IF NOT EXISTS conflicts (
			fingerprint  TEXT PRIMARY KEY,
			account_id   TEXT NOT NULL,
			entity_type  TEXT NOT NULL,
			entity_id    TEXT NOT NULL,
			type         TEXT NOT NULL,
			field        TEXT NOT NULL,
			local_data   TEXT NOT NULL,
			local_ts     DATETIME NOT NULL,
			local_ver    INTEGER NOT NULL,
			server_data  TEXT NOT NULL,
			server_ts    DATETIME NOT NULL,
			server_ver   INTEGER NOT NULL,
			created_at   DATETIME NOT NULL,
			resolved     INTEGER NOT NULL DEFAULT 0,
			resolution   TEXT NOT NULL DEFAULT ''
		)
	`)
	if err != nil {
		return err
	}
	_, err = tx.ExecContext(ctx, `CREATE INDEX IF NOT EXISTS idx_conflicts_account_resolved ON conflicts (account_id, resolved)`)
	return err
}

func migrateMedia(ctx context.Context, tx *sql.Tx) error {
	_, err := tx.ExecContext(ctx, `
		CREATE TABLE IF NOT EXISTS media (
			id          TEXT PRIMARY KEY,
			item_id     TEXT NOT NULL,
			account_id  TEXT NOT NULL,
			filename    TEXT NOT NULL,
			mime_type   TEXT NOT NULL,
			size        INTEGER NOT NULL,
			uploaded_at DATETIME NOT NULL,
			expires_at  DATETIME
		)
	`)
	if err != nil {
		return err
	}
	_, err = tx.ExecContext(ctx, `CREATE INDEX IF NOT EXISTS idx_media_account ON media (account_id)`)
	return err
}

func migrateMediaUploads(ctx context.Context, tx *sql.Tx) error {
	_, err := tx.ExecContext(ctx, `
		CREATE TABLE IF NOT EXISTS media_uploads (
			id          TEXT PRIMARY KEY,
			media_id    TEXT NOT NULL,
			item_id     TEXT NOT NULL,
			account_id  TEXT NOT NULL,
			metadata    TEXT NOT NULL DEFAULT '{}',
			queued_at   DATETIME NOT NULL,
			retry_count INTEGER NOT NULL DEFAULT 0,
			last_error  TEXT NOT NULL DEFAULT ''
		)
	`)
	if err != nil {
		return err
	}
	_, err = tx.ExecContext(ctx, `CREATE INDEX IF NOT EXISTS idx_media_uploads_account ON media_uploads (account_id, queued_at)`)
	return err
}
