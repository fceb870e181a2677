package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"

	"github.com/kilnworks/syncengine/internal/types"
)

func (s *SQLiteStore) PutTransaction(ctx context.Context, txn *types.Transaction) error {
	itemIDs, err := json.Marshal(txn.ItemIDs)
	if err != nil {
		return wrapDBErrorf(err, "marshal item ids for transaction %s", txn.TransactionID)
	}
	_, err = s.db.ExecContext(ctx, `
		INSERT INTO transactions (
			transaction_id, account_id, project_id, created_by, date_created,
			amount, allocated_amount, category_id, tax_rate_preset, tax_rate_pct, subtotal,
			status, notes, item_ids, needs_review, sum_item_purchase_prices, reimbursement_type,
			trigger_event, version, last_updated, last_synced_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT (account_id, transaction_id) DO UPDATE SET
			project_id = excluded.project_id, amount = excluded.amount,
			allocated_amount = excluded.allocated_amount, category_id = excluded.category_id,
			tax_rate_preset = excluded.tax_rate_preset, tax_rate_pct = excluded.tax_rate_pct,
			subtotal = excluded.subtotal, status = excluded.status, notes = excluded.notes,
			item_ids = excluded.item_ids, needs_review = excluded.needs_review,
			sum_item_purchase_prices = excluded.sum_item_purchase_prices,
			reimbursement_type = excluded.reimbursement_type, trigger_event = excluded.trigger_event,
			version = excluded.version, last_updated = excluded.last_updated,
			last_synced_at = excluded.last_synced_at
	`,
		txn.TransactionID, txn.AccountID, nullIfEmpty(txn.ProjectID), txn.CreatedBy, txn.DateCreated,
		txn.Amount, txn.AllocatedAmount, txn.CategoryID, txn.TaxRatePreset, txn.TaxRatePct, txn.Subtotal,
		string(txn.Status), txn.Notes, string(itemIDs), txn.NeedsReview, txn.SumItemPurchasePrices,
		string(txn.ReimbursementType), txn.TriggerEvent, txn.Version, txn.LastUpdated, txn.LastSyncedAt,
	)
	return wrapDBErrorf(err, "put transaction %s", txn.TransactionID)
}

func (s *SQLiteStore) GetTransaction(ctx context.Context, accountID, transactionID string) (*types.Transaction, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT transaction_id, account_id, project_id, created_by, date_created,
			amount, allocated_amount, category_id, tax_rate_preset, tax_rate_pct, subtotal,
			status, notes, item_ids, needs_review, sum_item_purchase_prices, reimbursement_type,
			trigger_event, version, last_updated, last_synced_at
		FROM transactions WHERE account_id = ? AND transaction_id = ?
	`, accountID, transactionID)
	t, err := scanTransaction(row)
	if err != nil {
		return nil, wrapDBErrorf(err, "get transaction %s", transactionID)
	}
	return t, nil
}

func (s *SQLiteStore) ListTransactions(ctx context.Context, accountID string) ([]*types.Transaction, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT transaction_id, account_id, project_id, created_by, date_created,
			amount, allocated_amount, category_id, tax_rate_preset, tax_rate_pct, subtotal,
			status, notes, item_ids, needs_review, sum_item_purchase_prices, reimbursement_type,
			trigger_event, version, last_updated, last_synced_at
		FROM transactions WHERE account_id = ? ORDER BY transaction_id
	`, accountID)
	if err != nil {
		return nil, wrapDBError("list transactions", err)
	}
	defer func() { _ = rows.Close() }()

	var out []*types.Transaction
	for rows.Next() {
		t, err := scanTransaction(rows)
		if err != nil {
			return nil, wrapDBError("scan transaction row", err)
		}
		out = append(out, t)
	}
	return out, wrapDBError("iterate transaction rows", rows.Err())
}

func (s *SQLiteStore) DeleteTransaction(ctx context.Context, accountID, transactionID string) error {
	_, err := s.db.ExecContext(ctx, `DELETE FROM transactions WHERE account_id = ? AND transaction_id = ?`, accountID, transactionID)
	return wrapDBErrorf(err, "delete transaction %s", transactionID)
}

func scanTransaction(row rowScanner) (*types.Transaction, error) {
	var t types.Transaction
	var projectID sql.NullString
	var lastSyncedAt sql.NullTime
	var status, reimbursement, itemIDsJSON string

	err := row.Scan(
		&t.TransactionID, &t.AccountID, &projectID, &t.CreatedBy, &t.DateCreated,
		&t.Amount, &t.AllocatedAmount, &t.CategoryID, &t.TaxRatePreset, &t.TaxRatePct, &t.Subtotal,
		&status, &t.Notes, &itemIDsJSON, &t.NeedsReview, &t.SumItemPurchasePrices, &reimbursement,
		&t.TriggerEvent, &t.Version, &t.LastUpdated, &lastSyncedAt,
	)
	if err != nil {
		return nil, err
	}

	t.ProjectID = projectID.String
	t.Status = types.TransactionStatus(status)
	t.ReimbursementType = types.ReimbursementType(reimbursement)
	if err := json.Unmarshal([]byte(itemIDsJSON), &t.ItemIDs); err != nil {
		return nil, err
	}
	if lastSyncedAt.Valid {
		ts := lastSyncedAt.Time
		t.LastSyncedAt = &ts
	}
	return &t, nil
}
