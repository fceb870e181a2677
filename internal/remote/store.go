package remote

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	_ "github.com/go-sql-driver/mysql"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/kilnworks/syncengine/internal/engineerrors"
	"github.com/kilnworks/syncengine/internal/netgate"
	"github.com/kilnworks/syncengine/internal/queue"
	"github.com/kilnworks/syncengine/internal/store"
	"github.com/kilnworks/syncengine/internal/types"
)

// storeTracer is the OTel tracer for remote SQL spans, mirroring the
// teacher's per-package tracer instance.
var storeTracer = otel.Tracer("github.com/kilnworks/syncengine/remote")

// StoreClient is the MySQL-wire remote half of the local/remote pair
// (§4.9): server mode, pure Go, no CGO, same connection path the teacher
// documents for its Dolt store's server mode.
type StoreClient struct {
	db   *sql.DB
	gate *netgate.Gate
}

// NewStoreClient opens a connection pool against dsn (a go-sql-driver/mysql
// DSN) gated by gate for every call.
func NewStoreClient(dsn string, gate *netgate.Gate) (*StoreClient, error) {
	db, err := sql.Open("mysql", dsn)
	if err != nil {
		return nil, fmt.Errorf("remote: open mysql: %w", err)
	}
	return &StoreClient{db: db, gate: gate}, nil
}

// Close releases the underlying connection pool.
func (c *StoreClient) Close() error { return c.db.Close() }

func spanAttrs(op, table string) []attribute.KeyValue {
	return []attribute.KeyValue{
		attribute.String("db.system", "mysql"),
		attribute.String("db.operation", op),
		attribute.String("db.sql.table", table),
	}
}

func endSpan(span trace.Span, err error) {
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	}
	span.End()
}

const callTimeout = 15 * time.Second

// withCallTimeout refuses to attempt fn when the gate currently reports
// offline, then runs it under the deadline wrapper. Every server-talking
// call on StoreClient goes through this path.
func (c *StoreClient) withCallTimeout(ctx context.Context, op string, fn func(ctx context.Context) error) error {
	if c.gate != nil && !c.gate.IsOnline(ctx) {
		return &engineerrors.NetworkTimeoutError{Op: op}
	}
	return netgate.WithTimeout(ctx, callTimeout, op, fn)
}

// Apply executes a queued operation's payload against the server,
// classifying the failure as queue.TransientError when retryable.
// Optimistic version mismatches surface as store.ErrVersionConflict. On
// success it reports the server-canonical version and timestamp so the
// queue can stamp the local entity with them.
func (c *StoreClient) Apply(ctx context.Context, op *types.Operation) (*queue.ApplyResult, error) {
	entityType, entityID, err := op.EntityRef()
	if err != nil {
		return nil, fmt.Errorf("remote: decode operation %s: %w", op.ID, err)
	}

	ctx, span := storeTracer.Start(ctx, "remote.apply",
		trace.WithSpanKind(trace.SpanKindClient),
		trace.WithAttributes(append(spanAttrs("apply", string(entityType)),
			attribute.String("syncengine.operation_type", string(op.Type)),
			attribute.String("syncengine.entity_id", entityID),
		)...),
	)
	defer func() { endSpan(span, err) }()

	var result *queue.ApplyResult
	err = c.withCallTimeout(ctx, "apply operation", func(ctx context.Context) error {
		result, err = c.applyUnguarded(ctx, op, entityType, entityID)
		return err
	})
	if err != nil {
		if !errors.Is(err, store.ErrVersionConflict) && isTransient(err) {
			err = &queue.TransientError{Err: err}
		}
		return nil, err
	}
	return result, nil
}

// isTransient reports whether err looks like a network/connection blip
// rather than a permanent rejection, the same classification the
// teacher's server-mode retry loop applies to its MySQL driver errors.
func isTransient(err error) bool {
	var netErr *engineerrors.NetworkTimeoutError
	if errors.As(err, &netErr) {
		return true
	}
	msg := strings.ToLower(err.Error())
	for _, substr := range []string{"driver: bad connection", "invalid connection", "connection refused", "broken pipe", "i/o timeout"} {
		if strings.Contains(msg, substr) {
			return true
		}
	}
	return false
}

func (c *StoreClient) applyUnguarded(ctx context.Context, op *types.Operation, entityType types.EntityType, entityID string) (*queue.ApplyResult, error) {
	var serverVersion int
	scanErr := c.db.QueryRowContext(ctx,
		`SELECT version FROM `+tableFor(entityType)+` WHERE account_id = ? AND id = ?`,
		op.AccountID, entityID,
	).Scan(&serverVersion)
	if scanErr != nil && scanErr != sql.ErrNoRows {
		return nil, fmt.Errorf("remote: load server version: %w", scanErr)
	}
	if scanErr == nil && serverVersion != op.Version {
		return nil, fmt.Errorf("remote: apply %s: %w", op.ID, store.ErrVersionConflict)
	}

	updatedAt := time.Now().UTC()
	_, execErr := c.db.ExecContext(ctx,
		`INSERT INTO `+tableFor(entityType)+` (account_id, id, version, data, updated_by, updated_at)
		 VALUES (?, ?, ?, ?, ?, ?)
		 ON DUPLICATE KEY UPDATE version = version + 1, data = VALUES(data), updated_by = VALUES(updated_by), updated_at = VALUES(updated_at)`,
		op.AccountID, entityID, op.Version+1, string(op.Data), op.UpdatedBy, updatedAt,
	)
	if execErr != nil {
		return nil, fmt.Errorf("remote: apply %s: %w", op.ID, execErr)
	}
	// Both the insert and the on-duplicate-key branches land the row at
	// op.Version+1: the duplicate-key branch only fires when serverVersion
	// already equaled op.Version (checked above), so incrementing it by one
	// agrees with the value the insert branch would have written directly.
	return &queue.ApplyResult{Version: op.Version + 1, UpdatedAt: updatedAt}, nil
}

func tableFor(entityType types.EntityType) string {
	switch entityType {
	case types.EntityItem:
		return "items"
	case types.EntityTransaction:
		return "transactions"
	case types.EntityProject:
		return "projects"
	default:
		return "unknown"
	}
}

// ListItems fetches every item row owned by accountID, for use by the
// conflict detector's server-side half of a comparison.
func (c *StoreClient) ListItems(ctx context.Context, accountID string) ([]*types.Item, error) {
	var out []*types.Item
	err := c.withCallTimeout(ctx, "list items", func(ctx context.Context) error {
		rows, err := c.db.QueryContext(ctx, `SELECT data FROM items WHERE account_id = ?`, accountID)
		if err != nil {
			return err
		}
		defer rows.Close()
		for rows.Next() {
			var data string
			if err := rows.Scan(&data); err != nil {
				return err
			}
			var item types.Item
			if err := json.Unmarshal([]byte(data), &item); err != nil {
				return err
			}
			out = append(out, &item)
		}
		return rows.Err()
	})
	return out, err
}

// ListTransactions fetches every transaction row owned by accountID.
func (c *StoreClient) ListTransactions(ctx context.Context, accountID string) ([]*types.Transaction, error) {
	var out []*types.Transaction
	err := c.withCallTimeout(ctx, "list transactions", func(ctx context.Context) error {
		rows, err := c.db.QueryContext(ctx, `SELECT data FROM transactions WHERE account_id = ?`, accountID)
		if err != nil {
			return err
		}
		defer rows.Close()
		for rows.Next() {
			var data string
			if err := rows.Scan(&data); err != nil {
				return err
			}
			var txn types.Transaction
			if err := json.Unmarshal([]byte(data), &txn); err != nil {
				return err
			}
			out = append(out, &txn)
		}
		return rows.Err()
	})
	return out, err
}

// ListProjects fetches every project row owned by accountID.
func (c *StoreClient) ListProjects(ctx context.Context, accountID string) ([]*types.Project, error) {
	var out []*types.Project
	err := c.withCallTimeout(ctx, "list projects", func(ctx context.Context) error {
		rows, err := c.db.QueryContext(ctx, `SELECT data FROM projects WHERE account_id = ?`, accountID)
		if err != nil {
			return err
		}
		defer rows.Close()
		for rows.Next() {
			var data string
			if err := rows.Scan(&data); err != nil {
				return err
			}
			var proj types.Project
			if err := json.Unmarshal([]byte(data), &proj); err != nil {
				return err
			}
			out = append(out, &proj)
		}
		return rows.Err()
	})
	return out, err
}

// FetchBudgetCategories loads an account's current budget categories, the
// metadata cache's (C7) server-side source of truth.
func (c *StoreClient) FetchBudgetCategories(ctx context.Context, accountID string) ([]types.BudgetCategory, error) {
	var out []types.BudgetCategory
	err := c.fetchMetadata(ctx, "budget_categories", accountID, &out)
	return out, err
}

// FetchTaxPresets loads an account's current tax presets.
func (c *StoreClient) FetchTaxPresets(ctx context.Context, accountID string) ([]types.TaxPreset, error) {
	var out []types.TaxPreset
	err := c.fetchMetadata(ctx, "tax_presets", accountID, &out)
	return out, err
}

// FetchVendorDefaults loads an account's 10 ordered vendor-default slots.
func (c *StoreClient) FetchVendorDefaults(ctx context.Context, accountID string) ([]types.VendorDefault, error) {
	var out []types.VendorDefault
	err := c.fetchMetadata(ctx, "vendor_defaults", accountID, &out)
	return out, err
}

func (c *StoreClient) fetchMetadata(ctx context.Context, table, accountID string, out any) error {
	return c.withCallTimeout(ctx, "fetch "+table, func(ctx context.Context) error {
		var data string
		err := c.db.QueryRowContext(ctx, `SELECT data FROM `+table+` WHERE account_id = ?`, accountID).Scan(&data)
		if err == sql.ErrNoRows {
			return nil
		}
		if err != nil {
			return err
		}
		return json.Unmarshal([]byte(data), out)
	})
}

// UploadMedia stores a staged blob server-side and returns its public URL.
// Blobs are kept in the same MySQL store as structured data (a LONGBLOB
// column) rather than a separate object-store client, so StoreClient
// remains the engine's single remote dependency.
func (c *StoreClient) UploadMedia(ctx context.Context, m *types.Media, upload *types.MediaUpload) (string, error) {
	var url string
	err := c.withCallTimeout(ctx, "upload media", func(ctx context.Context) error {
		_, err := c.db.ExecContext(ctx,
			`INSERT INTO media_blobs (account_id, id, filename, mime_type, bytes) VALUES (?, ?, ?, ?, ?)
			 ON DUPLICATE KEY UPDATE bytes = VALUES(bytes)`,
			m.AccountID, m.ID, m.Filename, m.MimeType, m.Bytes,
		)
		if err != nil {
			return err
		}
		url = fmt.Sprintf("https://media.%s.example/%s", m.AccountID, m.ID)
		return nil
	})
	return url, err
}
