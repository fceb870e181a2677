package conflict

import (
	"context"
	"fmt"
	"time"

	"github.com/kilnworks/syncengine/internal/store"
	"github.com/kilnworks/syncengine/internal/types"
)

var itemAccessor = accessor[*types.Item]{
	id:           func(i *types.Item) string { return i.ItemID },
	version:      func(i *types.Item) int { return i.Version },
	lastUpdated:  func(i *types.Item) time.Time { return i.LastUpdated },
	lastSyncedAt: func(i *types.Item) *time.Time { return i.LastSyncedAt },
}

var transactionAccessor = accessor[*types.Transaction]{
	id:           func(t *types.Transaction) string { return t.TransactionID },
	version:      func(t *types.Transaction) int { return t.Version },
	lastUpdated:  func(t *types.Transaction) time.Time { return t.LastUpdated },
	lastSyncedAt: func(t *types.Transaction) *time.Time { return t.LastSyncedAt },
}

var projectAccessor = accessor[*types.Project]{
	id:           func(p *types.Project) string { return p.ID },
	version:      func(p *types.Project) int { return p.Version },
	lastUpdated:  func(p *types.Project) time.Time { return p.LastUpdated },
	lastSyncedAt: func(p *types.Project) *time.Time { return p.LastSyncedAt },
}

// runGeneric implements the §4.4 algorithm once for any entity kind T,
// driven by an accessor (identity/version/timestamps) and a
// FieldComparator whitelist (mutable fields).
func runGeneric[T any](
	ctx context.Context,
	local store.Conflicts,
	accountID string,
	entityType types.EntityType,
	localRows, serverRows []T,
	acc accessor[T],
	fields []types.FieldComparator[T],
) ([]*types.Conflict, error) {
	if err := local.ClearUnresolvedConflicts(ctx, accountID, entityType); err != nil {
		return nil, fmt.Errorf("conflict: clear prior %s conflicts: %w", entityType, err)
	}

	serverByID := make(map[string]T, len(serverRows))
	for _, row := range serverRows {
		serverByID[acc.id(row)] = row
	}

	now := time.Now().UTC()
	var found []*types.Conflict
	for _, localRow := range localRows {
		serverRow, ok := serverByID[acc.id(localRow)]
		if !ok {
			continue
		}

		if syncedAt := acc.lastSyncedAt(localRow); syncedAt != nil && now.Sub(*syncedAt) < justSyncedWindow {
			continue
		}

		versionDiffers := acc.version(localRow) != acc.version(serverRow)
		timeDiffers := acc.lastUpdated(serverRow).Sub(acc.lastUpdated(localRow)) > clockSkewWindow

		diffField := ""
		for _, fc := range fields {
			if !fc.Equal(localRow, serverRow) {
				diffField = fc.Name
				break
			}
		}
		if diffField == "" {
			// Identical content: version/timestamp-only divergence is not
			// a user-visible conflict (§4.4 step 4).
			continue
		}

		var conflictType types.ConflictType
		field := diffField
		switch {
		case versionDiffers:
			conflictType = types.ConflictVersion
			field = "version"
		case timeDiffers:
			conflictType = types.ConflictTimestamp
			field = "timestamp"
		default:
			conflictType = types.ConflictContent
		}

		c := &types.Conflict{
			AccountID:  accountID,
			EntityType: entityType,
			EntityID:   acc.id(localRow),
			Type:       conflictType,
			Field:      field,
			Local: types.SideSnapshot{
				Data:      toFieldMap(fields, localRow),
				Timestamp: acc.lastUpdated(localRow),
				Version:   acc.version(localRow),
			},
			Server: types.SideSnapshot{
				Data:      toFieldMap(fields, serverRow),
				Timestamp: acc.lastUpdated(serverRow),
				Version:   acc.version(serverRow),
			},
			CreatedAt: now,
		}
		if err := local.UpsertConflict(ctx, c); err != nil {
			return nil, fmt.Errorf("conflict: upsert %s conflict for %s: %w", entityType, c.EntityID, err)
		}
		found = append(found, c)
	}
	return found, nil
}

func toFieldMap[T any](fields []types.FieldComparator[T], row T) map[string]any {
	m := make(map[string]any, len(fields))
	for _, fc := range fields {
		m[fc.Name] = fc.Get(row)
	}
	return m
}
