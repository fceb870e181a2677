// Package conflict implements the conflict detector and resolver (C4, C5):
// comparing local and server snapshots of each entity kind against a
// compile-time field whitelist, and applying a resolution strategy to
// close out a detected divergence.
package conflict

import (
	"context"
	"fmt"
	"time"

	"github.com/kilnworks/syncengine/internal/store"
	"github.com/kilnworks/syncengine/internal/types"
)

// justSyncedWindow suppresses self-reflection: a row synced this recently
// is not re-compared, since the server echo of our own write looks like a
// divergence for an instant.
const justSyncedWindow = 5 * time.Second

// clockSkewWindow absorbs ordinary clock skew between devices; the server
// must be newer than the local row by more than this to count as
// "time differs".
const clockSkewWindow = 10 * time.Second

// RemoteReader fetches the server's current rows for an account, the
// counterpart half of the comparison. Satisfied by *remote.StoreClient.
type RemoteReader interface {
	ListItems(ctx context.Context, accountID string) ([]*types.Item, error)
	ListTransactions(ctx context.Context, accountID string) ([]*types.Transaction, error)
	ListProjects(ctx context.Context, accountID string) ([]*types.Project, error)
}

// Detector runs the compare-and-record algorithm from spec §4.4.
type Detector struct {
	local  store.Store
	remote RemoteReader
}

// New constructs a Detector.
func New(local store.Store, remote RemoteReader) *Detector {
	return &Detector{local: local, remote: remote}
}

// HasBlockingConflict reports whether an unresolved conflict already names
// this entity, the signal the operation queue uses to skip a contested
// entity rather than fight the conflict mid-drain.
func (d *Detector) HasBlockingConflict(ctx context.Context, accountID string, entityType types.EntityType, entityID string) (bool, error) {
	conflicts, err := d.local.ListUnresolvedConflicts(ctx, accountID)
	if err != nil {
		return false, fmt.Errorf("conflict: list unresolved conflicts: %w", err)
	}
	for _, c := range conflicts {
		if c.EntityType == entityType && c.EntityID == entityID {
			return true, nil
		}
	}
	return false, nil
}

// DetectItems runs the algorithm for the Item aggregate and persists any
// conflicts found, after clearing the account's prior unresolved item
// conflicts (a fresh snapshot per run, per §4.4 step 3).
func (d *Detector) DetectItems(ctx context.Context, accountID string) ([]*types.Conflict, error) {
	local, err := d.local.ListItems(ctx, accountID)
	if err != nil {
		return nil, fmt.Errorf("conflict: list local items: %w", err)
	}
	server, err := d.remote.ListItems(ctx, accountID)
	if err != nil {
		return nil, fmt.Errorf("conflict: list server items: %w", err)
	}
	return runGeneric(ctx, d.local, accountID, types.EntityItem, local, server, itemAccessor, types.FieldsForItem())
}

// DetectTransactions runs the algorithm for the Transaction aggregate.
func (d *Detector) DetectTransactions(ctx context.Context, accountID string) ([]*types.Conflict, error) {
	local, err := d.local.ListTransactions(ctx, accountID)
	if err != nil {
		return nil, fmt.Errorf("conflict: list local transactions: %w", err)
	}
	server, err := d.remote.ListTransactions(ctx, accountID)
	if err != nil {
		return nil, fmt.Errorf("conflict: list server transactions: %w", err)
	}
	return runGeneric(ctx, d.local, accountID, types.EntityTransaction, local, server, transactionAccessor, types.FieldsForTransaction())
}

// DetectProjects runs the algorithm for the Project aggregate.
func (d *Detector) DetectProjects(ctx context.Context, accountID string) ([]*types.Conflict, error) {
	local, err := d.local.ListProjects(ctx, accountID)
	if err != nil {
		return nil, fmt.Errorf("conflict: list local projects: %w", err)
	}
	server, err := d.remote.ListProjects(ctx, accountID)
	if err != nil {
		return nil, fmt.Errorf("conflict: list server projects: %w", err)
	}
	return runGeneric(ctx, d.local, accountID, types.EntityProject, local, server, projectAccessor, types.FieldsForProject())
}

// accessor isolates the column-name/field-casing differences of one entity
// kind into a single aligner, per §4.4's requirement that reading server
// rows not leak field-casing concerns into the comparison itself.
type accessor[T any] struct {
	id           func(T) string
	version      func(T) int
	lastUpdated  func(T) time.Time
	lastSyncedAt func(T) *time.Time
}
