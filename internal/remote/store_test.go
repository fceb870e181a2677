package remote

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/require"

	"github.com/kilnworks/syncengine/internal/netgate"
	"github.com/kilnworks/syncengine/internal/queue"
	"github.com/kilnworks/syncengine/internal/store"
	"github.com/kilnworks/syncengine/internal/types"
)

func newTestStoreClient(t *testing.T) (*StoreClient, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	return &StoreClient{db: db, gate: netgate.New("")}, mock
}

func updateItemOp(itemID string, version int) *types.Operation {
	payload := types.UpdateItemPayload{ItemID: itemID, Updates: map[string]any{"name": "Oak Table"}}
	raw, _ := json.Marshal(payload)
	return &types.Operation{
		ID:        "op-1",
		Type:      types.OpUpdateItem,
		Timestamp: time.Now().UTC(),
		AccountID: "acct-1",
		UpdatedBy: "user-1",
		Version:   version,
		Status:    types.OperationPending,
		Data:      raw,
	}
}

func TestStoreClientApplySucceedsOnMatchingVersion(t *testing.T) {
	ctx := context.Background()
	c, mock := newTestStoreClient(t)
	op := updateItemOp("item-1", 2)

	mock.ExpectQuery(`SELECT version FROM items`).
		WithArgs(op.AccountID, "item-1").
		WillReturnRows(sqlmock.NewRows([]string{"version"}).AddRow(2))
	mock.ExpectExec(`INSERT INTO items`).
		WillReturnResult(sqlmock.NewResult(0, 1))

	result, err := c.Apply(ctx, op)
	require.NoError(t, err)
	require.Equal(t, 3, result.Version)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestStoreClientApplyReturnsVersionConflictUnwrapped(t *testing.T) {
	ctx := context.Background()
	c, mock := newTestStoreClient(t)
	op := updateItemOp("item-1", 1)

	mock.ExpectQuery(`SELECT version FROM items`).
		WithArgs(op.AccountID, "item-1").
		WillReturnRows(sqlmock.NewRows([]string{"version"}).AddRow(5))

	_, err := c.Apply(ctx, op)
	require.ErrorIs(t, err, store.ErrVersionConflict)

	var transient *queue.TransientError
	require.False(t, errors.As(err, &transient))
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestStoreClientApplyNewRowFromVersionZeroInsertsVersionOne(t *testing.T) {
	ctx := context.Background()
	c, mock := newTestStoreClient(t)
	op := updateItemOp("item-new", 0)

	mock.ExpectQuery(`SELECT version FROM items`).
		WithArgs(op.AccountID, "item-new").
		WillReturnError(sql.ErrNoRows)
	mock.ExpectExec(`INSERT INTO items`).
		WillReturnResult(sqlmock.NewResult(0, 1))

	result, err := c.Apply(ctx, op)
	require.NoError(t, err)
	require.Equal(t, 1, result.Version)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestStoreClientApplyWrapsConnectionFailureAsTransient(t *testing.T) {
	ctx := context.Background()
	c, mock := newTestStoreClient(t)
	op := updateItemOp("item-1", 0)

	mock.ExpectQuery(`SELECT version FROM items`).
		WithArgs(op.AccountID, "item-1").
		WillReturnError(errors.New("driver: bad connection"))

	_, err := c.Apply(ctx, op)
	require.Error(t, err)
	var transient *queue.TransientError
	require.True(t, errors.As(err, &transient))
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestStoreClientWithCallTimeoutRefusesWhenGateOffline(t *testing.T) {
	ctx := context.Background()
	c, _ := newTestStoreClient(t)
	c.gate = netgate.New("127.0.0.1:1")

	called := false
	err := c.withCallTimeout(ctx, "probe", func(context.Context) error {
		called = true
		return nil
	})
	require.Error(t, err)
	require.False(t, called)
}

func TestStoreClientListItemsDecodesRows(t *testing.T) {
	ctx := context.Background()
	c, mock := newTestStoreClient(t)

	mock.ExpectQuery(`SELECT data FROM items WHERE account_id = \?`).
		WithArgs("acct-1").
		WillReturnRows(sqlmock.NewRows([]string{"data"}).AddRow(`{"itemId":"item-1","name":"Lamp"}`))

	items, err := c.ListItems(ctx, "acct-1")
	require.NoError(t, err)
	require.Len(t, items, 1)
	require.Equal(t, "item-1", items[0].ItemID)
}

func TestStoreClientFetchMetadataReturnsNilWhenNoRow(t *testing.T) {
	ctx := context.Background()
	c, mock := newTestStoreClient(t)

	mock.ExpectQuery(`SELECT data FROM budget_categories WHERE account_id = \?`).
		WithArgs("acct-1").
		WillReturnError(sql.ErrNoRows)

	cats, err := c.FetchBudgetCategories(ctx, "acct-1")
	require.NoError(t, err)
	require.Nil(t, cats)
}
