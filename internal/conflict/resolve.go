package conflict

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/kilnworks/syncengine/internal/queue"
	"github.com/kilnworks/syncengine/internal/store"
	"github.com/kilnworks/syncengine/internal/types"
)

// Resolver applies a ResolutionStrategy to a previously detected conflict
// (§4.5). It re-enqueues work through the operation queue rather than
// writing the server directly, so a resolution still flows through the
// normal retry/backoff machinery.
type Resolver struct {
	local store.Store
	q     *queue.Queue
	log   *slog.Logger
}

// NewResolver constructs a Resolver.
func NewResolver(local store.Store, q *queue.Queue) *Resolver {
	return &Resolver{local: local, q: q, log: slog.Default()}
}

// SetLogger overrides the resolver's structured logger (slog.Default() by
// default).
func (r *Resolver) SetLogger(log *slog.Logger) { r.log = log }

// Resolve applies strategy to the conflict named by fingerprint. merged is
// only consulted for StrategyMerge and must be the caller-supplied
// field-wise merged record.
func (r *Resolver) Resolve(ctx context.Context, fingerprint string, strategy types.ResolutionStrategy, merged map[string]any) error {
	c, err := r.local.GetConflict(ctx, fingerprint)
	if err != nil {
		return fmt.Errorf("conflict: load conflict %s: %w", fingerprint, err)
	}
	if c.Resolved {
		return nil
	}

	switch strategy {
	case types.StrategyKeepLocal:
		if err := r.reenqueueUpdate(ctx, c, c.Local.Data); err != nil {
			return err
		}
	case types.StrategyMerge:
		if err := r.reenqueueUpdate(ctx, c, merged); err != nil {
			return err
		}
	case types.StrategyKeepServer:
		if err := r.overwriteWithServer(ctx, c); err != nil {
			return err
		}
	case types.StrategyManual:
		// Leave both sides intact; the conflict remains open.
		r.log.Info("conflict left open for manual resolution", "fingerprint", fingerprint, "entity_type", c.EntityType, "entity_id", c.EntityID)
		return nil
	default:
		return fmt.Errorf("conflict: unknown resolution strategy %q", strategy)
	}

	r.log.Info("conflict resolved", "fingerprint", fingerprint, "entity_type", c.EntityType, "entity_id", c.EntityID, "strategy", strategy)
	return r.local.ResolveConflict(ctx, fingerprint, strategy)
}

// AutoResolve applies the drain-time auto-resolution policy from §4.5:
// version conflicts are never auto-resolved (manual only); pure timestamp
// conflicts with identical content are never surfaced as conflicts in the
// first place (handled upstream, in runGeneric). Content conflicts are
// likewise left for a human — AutoResolve only exists to make that policy
// explicit and auditable, not to silently resolve anything.
func (r *Resolver) AutoResolve(ctx context.Context, c *types.Conflict) error {
	if c.Type != types.ConflictTimestamp {
		return nil
	}
	// Timestamp conflicts reaching here already had differing content
	// (identical-content timestamp divergence is filtered in runGeneric),
	// so they still require a human decision; nothing to auto-resolve.
	return nil
}

func (r *Resolver) reenqueueUpdate(ctx context.Context, c *types.Conflict, data map[string]any) error {
	opType, payload, err := updatePayloadFor(c.EntityType, c.EntityID, data)
	if err != nil {
		return err
	}
	_, err = r.q.Enqueue(ctx, opType, payload)
	return err
}

func (r *Resolver) overwriteWithServer(ctx context.Context, c *types.Conflict) error {
	now := time.Now().UTC()
	switch c.EntityType {
	case types.EntityItem:
		item, err := r.local.GetItem(ctx, c.AccountID, c.EntityID)
		if err != nil {
			return fmt.Errorf("conflict: load local item %s: %w", c.EntityID, err)
		}
		applyItemFields(item, c.Server.Data)
		item.Version = c.Server.Version
		item.LastUpdated = c.Server.Timestamp
		item.LastSyncedAt = &now
		return r.local.PutItem(ctx, item)
	case types.EntityTransaction:
		txn, err := r.local.GetTransaction(ctx, c.AccountID, c.EntityID)
		if err != nil {
			return fmt.Errorf("conflict: load local transaction %s: %w", c.EntityID, err)
		}
		applyTransactionFields(txn, c.Server.Data)
		txn.Version = c.Server.Version
		txn.LastUpdated = c.Server.Timestamp
		txn.LastSyncedAt = &now
		return r.local.PutTransaction(ctx, txn)
	case types.EntityProject:
		proj, err := r.local.GetProject(ctx, c.AccountID, c.EntityID)
		if err != nil {
			return fmt.Errorf("conflict: load local project %s: %w", c.EntityID, err)
		}
		applyProjectFields(proj, c.Server.Data)
		proj.Version = c.Server.Version
		proj.LastUpdated = c.Server.Timestamp
		proj.LastSyncedAt = &now
		return r.local.PutProject(ctx, proj)
	default:
		return fmt.Errorf("conflict: unknown entity type %q", c.EntityType)
	}
}
