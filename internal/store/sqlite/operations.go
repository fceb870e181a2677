package sqlite

import (
	"context"
	"database/sql"

	"github.com/kilnworks/syncengine/internal/types"
)

func (s *SQLiteStore) EnqueueOperation(ctx context.Context, op *types.Operation) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO operations (id, type, timestamp, retry_count, last_error, account_id, updated_by, version, status, data)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`,
		op.ID, string(op.Type), op.Timestamp, op.RetryCount, op.LastError,
		op.AccountID, op.UpdatedBy, op.Version, string(op.Status), string(op.Data),
	)
	return wrapDBErrorf(err, "enqueue operation %s", op.ID)
}

func (s *SQLiteStore) ListPendingOperations(ctx context.Context, accountID string) ([]*types.Operation, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, type, timestamp, retry_count, last_error, account_id, updated_by, version, status, data
		FROM operations
		WHERE account_id = ? AND status != ?
		ORDER BY account_id, timestamp ASC
	`, accountID, string(types.OperationAbandoned))
	if err != nil {
		return nil, wrapDBError("list pending operations", err)
	}
	defer func() { _ = rows.Close() }()

	var out []*types.Operation
	for rows.Next() {
		var op types.Operation
		var opType, status, data string
		if err := rows.Scan(&op.ID, &opType, &op.Timestamp, &op.RetryCount, &op.LastError,
			&op.AccountID, &op.UpdatedBy, &op.Version, &status, &data); err != nil {
			return nil, wrapDBError("scan operation row", err)
		}
		op.Type = types.OperationType(opType)
		op.Status = types.OperationStatus(status)
		op.Data = []byte(data)
		out = append(out, &op)
	}
	return out, wrapDBError("iterate operation rows", rows.Err())
}

func (s *SQLiteStore) UpdateOperationStatus(ctx context.Context, opID string, status types.OperationStatus, lastErr string) error {
	_, err := s.db.ExecContext(ctx,
		`UPDATE operations SET status = ?, last_error = ? WHERE id = ?`, string(status), lastErr, opID)
	return wrapDBErrorf(err, "update operation %s status", opID)
}

func (s *SQLiteStore) IncrementOperationRetry(ctx context.Context, opID string) (int, error) {
	var retryCount int
	err := s.withTx(ctx, func(tx *sql.Tx) error {
		if err := tx.QueryRowContext(ctx, `SELECT retry_count FROM operations WHERE id = ?`, opID).Scan(&retryCount); err != nil {
			return err
		}
		retryCount++
		_, err := tx.ExecContext(ctx, `UPDATE operations SET retry_count = ? WHERE id = ?`, retryCount, opID)
		return err
	})
	if err != nil {
		return 0, wrapDBErrorf(err, "increment operation %s retry", opID)
	}
	return retryCount, nil
}

func (s *SQLiteStore) DeleteOperation(ctx context.Context, opID string) error {
	_, err := s.db.ExecContext(ctx, `DELETE FROM operations WHERE id = ?`, opID)
	return wrapDBErrorf(err, "delete operation %s", opID)
}

func (s *SQLiteStore) CountOperationsByStatus(ctx context.Context, accountID string, status types.OperationStatus) (int, error) {
	var count int
	err := s.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM operations WHERE account_id = ? AND status = ?`, accountID, string(status)).Scan(&count)
	return count, wrapDBError("count operations by status", err)
}
