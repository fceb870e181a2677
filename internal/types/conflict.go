package types

import (
	"fmt"
	"time"
)

// ConflictType classifies what kind of divergence produced a Conflict
// record (§4.4 step 4).
type ConflictType string

const (
	ConflictVersion   ConflictType = "version"
	ConflictTimestamp ConflictType = "timestamp"
	ConflictContent   ConflictType = "content"
)

// ResolutionStrategy is the strategy applied by the conflict resolver.
// Modeled on the teacher's config.ConflictStrategy enum (newest/ours/
// theirs/manual), renamed to the spec's keep-local/keep-server/merge/manual
// vocabulary.
type ResolutionStrategy string

const (
	StrategyKeepLocal  ResolutionStrategy = "local"
	StrategyKeepServer ResolutionStrategy = "server"
	StrategyMerge      ResolutionStrategy = "merge"
	StrategyManual     ResolutionStrategy = "manual"
)

// SideSnapshot is one side (local or server) of a detected conflict.
type SideSnapshot struct {
	Data      map[string]any `json:"data"`
	Timestamp time.Time      `json:"timestamp"`
	Version   int            `json:"version"`
}

// Conflict is a fingerprinted record of a detected divergence between the
// local and server snapshot of one entity's one field.
type Conflict struct {
	AccountID  string       `json:"accountId"`
	EntityType EntityType   `json:"entityType"`
	EntityID   string       `json:"entityId"`
	Type       ConflictType `json:"type"`
	Field      string       `json:"field"`

	Local  SideSnapshot `json:"local"`
	Server SideSnapshot `json:"server"`

	CreatedAt  time.Time          `json:"createdAt"`
	Resolved   bool               `json:"resolved"`
	Resolution ResolutionStrategy `json:"resolution,omitempty"`
}

// Fingerprint returns the deterministic key a Conflict is stored under
// (§6 Persisted State Layout). Re-detection of the same fingerprint
// overwrites rather than duplicates (Invariant 5).
func (c *Conflict) Fingerprint() string {
	return Fingerprint(c.AccountID, c.EntityType, c.EntityID, c.Type, c.Field)
}

// Fingerprint computes the deterministic conflict key from its parts.
func Fingerprint(accountID string, entityType EntityType, entityID string, t ConflictType, field string) string {
	return fmt.Sprintf("conflict:%s:%s:%s:%s:%s", entityType, accountID, entityID, t, field)
}
