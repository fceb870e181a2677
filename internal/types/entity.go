package types

import "time"

// SyncState is the mutually-exclusive sync state an entity occupies per
// Invariant 1: exactly one of synced, dirty, conflicted holds at any time.
type SyncState string

const (
	SyncStateSynced     SyncState = "synced"
	SyncStateDirty      SyncState = "dirty"
	SyncStateConflicted SyncState = "conflicted"
)

// syncStateOf derives the synced/dirty state from the last-synced and
// last-updated timestamps. Conflicted is a separate, externally-tracked
// state (see internal/conflict) layered on top of this by callers that also
// check whether an open conflict names the entity.
func syncStateOf(lastSyncedAt *time.Time, lastUpdated time.Time) SyncState {
	if lastSyncedAt == nil {
		return SyncStateDirty
	}
	if lastSyncedAt.Before(lastUpdated) {
		return SyncStateDirty
	}
	return SyncStateSynced
}

// EntityType identifies which table/kind an Operation, Conflict, or cache
// entry refers to.
type EntityType string

const (
	EntityItem        EntityType = "item"
	EntityTransaction  EntityType = "transaction"
	EntityProject      EntityType = "project"
)
