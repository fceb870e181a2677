package sqlite

import (
	"context"
	"database/sql"
	"time"

	"github.com/kilnworks/syncengine/internal/types"
)

func (s *SQLiteStore) PutItem(ctx context.Context, it *types.Item) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO items (
			item_id, account_id, qr_key, created_by, date_created, origin_transaction_id,
			name, description, source, sku, price, purchase_price, project_price, market_value,
			payment_method, disposition, notes, space, tax_rate_pct, tax_amount_purchase_price,
			tax_amount_project_price, bookmark, inventory_status, business_inventory_location,
			project_id, transaction_id, latest_transaction_id, version, last_updated, last_synced_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT (account_id, item_id) DO UPDATE SET
			qr_key = excluded.qr_key,
			origin_transaction_id = excluded.origin_transaction_id,
			name = excluded.name, description = excluded.description, source = excluded.source,
			sku = excluded.sku, price = excluded.price, purchase_price = excluded.purchase_price,
			project_price = excluded.project_price, market_value = excluded.market_value,
			payment_method = excluded.payment_method, disposition = excluded.disposition,
			notes = excluded.notes, space = excluded.space, tax_rate_pct = excluded.tax_rate_pct,
			tax_amount_purchase_price = excluded.tax_amount_purchase_price,
			tax_amount_project_price = excluded.tax_amount_project_price,
			bookmark = excluded.bookmark, inventory_status = excluded.inventory_status,
			business_inventory_location = excluded.business_inventory_location,
			project_id = excluded.project_id, transaction_id = excluded.transaction_id,
			latest_transaction_id = excluded.latest_transaction_id, version = excluded.version,
			last_updated = excluded.last_updated, last_synced_at = excluded.last_synced_at
	`,
		it.ItemID, it.AccountID, it.QRKey, it.CreatedBy, it.DateCreated, nullIfEmpty(it.OriginTransactionID),
		it.Name, it.Description, it.Source, it.SKU, it.Price, it.PurchasePrice, it.ProjectPrice, it.MarketValue,
		it.PaymentMethod, it.Disposition, it.Notes, it.Space, it.TaxRatePct, it.TaxAmountPurchasePrice,
		it.TaxAmountProjectPrice, it.Bookmark, string(it.InventoryStatus), it.BusinessInventoryLocation,
		nullIfEmpty(it.ProjectID), nullIfEmpty(it.TransactionID), nullIfEmpty(it.LatestTransactionID),
		it.Version, it.LastUpdated, it.LastSyncedAt,
	)
	return wrapDBErrorf(err, "put item %s", it.ItemID)
}

func (s *SQLiteStore) GetItem(ctx context.Context, accountID, itemID string) (*types.Item, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT item_id, account_id, qr_key, created_by, date_created, origin_transaction_id,
			name, description, source, sku, price, purchase_price, project_price, market_value,
			payment_method, disposition, notes, space, tax_rate_pct, tax_amount_purchase_price,
			tax_amount_project_price, bookmark, inventory_status, business_inventory_location,
			project_id, transaction_id, latest_transaction_id, version, last_updated, last_synced_at
		FROM items WHERE account_id = ? AND item_id = ?
	`, accountID, itemID)
	it, err := scanItem(row)
	if err != nil {
		return nil, wrapDBErrorf(err, "get item %s", itemID)
	}
	return it, nil
}

func (s *SQLiteStore) ListItems(ctx context.Context, accountID string) ([]*types.Item, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT item_id, account_id, qr_key, created_by, date_created, origin_transaction_id,
			name, description, source, sku, price, purchase_price, project_price, market_value,
			payment_method, disposition, notes, space, tax_rate_pct, tax_amount_purchase_price,
			tax_amount_project_price, bookmark, inventory_status, business_inventory_location,
			project_id, transaction_id, latest_transaction_id, version, last_updated, last_synced_at
		FROM items WHERE account_id = ? ORDER BY item_id
	`, accountID)
	if err != nil {
		return nil, wrapDBError("list items", err)
	}
	defer func() { _ = rows.Close() }()

	var out []*types.Item
	for rows.Next() {
		it, err := scanItem(rows)
		if err != nil {
			return nil, wrapDBError("scan item row", err)
		}
		out = append(out, it)
	}
	return out, wrapDBError("iterate item rows", rows.Err())
}

func (s *SQLiteStore) DeleteItem(ctx context.Context, accountID, itemID string) error {
	_, err := s.db.ExecContext(ctx, `DELETE FROM items WHERE account_id = ? AND item_id = ?`, accountID, itemID)
	return wrapDBErrorf(err, "delete item %s", itemID)
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanItem(row rowScanner) (*types.Item, error) {
	var it types.Item
	var originTxn, projectID, txnID, latestTxnID sql.NullString
	var lastSyncedAt sql.NullTime
	var inventoryStatus string

	err := row.Scan(
		&it.ItemID, &it.AccountID, &it.QRKey, &it.CreatedBy, &it.DateCreated, &originTxn,
		&it.Name, &it.Description, &it.Source, &it.SKU, &it.Price, &it.PurchasePrice, &it.ProjectPrice, &it.MarketValue,
		&it.PaymentMethod, &it.Disposition, &it.Notes, &it.Space, &it.TaxRatePct, &it.TaxAmountPurchasePrice,
		&it.TaxAmountProjectPrice, &it.Bookmark, &inventoryStatus, &it.BusinessInventoryLocation,
		&projectID, &txnID, &latestTxnID, &it.Version, &it.LastUpdated, &lastSyncedAt,
	)
	if err != nil {
		return nil, err
	}

	it.OriginTransactionID = originTxn.String
	it.ProjectID = projectID.String
	it.TransactionID = txnID.String
	it.LatestTransactionID = latestTxnID.String
	it.InventoryStatus = types.InventoryStatus(inventoryStatus)
	if lastSyncedAt.Valid {
		t := lastSyncedAt.Time
		it.LastSyncedAt = &t
	}
	return &it, nil
}

func nullIfEmpty(s string) any {
	if s == "" {
		return nil
	}
	return s
}

func nullableTime(t *time.Time) any {
	if t == nil {
		return nil
	}
	return *t
}
