// Package queue implements the operation queue (C3): a durable, per-account
// FIFO of intended server writes with conflict gating, retry, and backoff.
package queue

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/google/uuid"

	"github.com/kilnworks/syncengine/internal/engineconfig"
	"github.com/kilnworks/syncengine/internal/engineerrors"
	"github.com/kilnworks/syncengine/internal/offlinectx"
	"github.com/kilnworks/syncengine/internal/store"
	"github.com/kilnworks/syncengine/internal/types"
)

// MaxRetries is the retry ceiling from spec §5: beyond this an operation is
// marked abandoned rather than retried again.
const MaxRetries = 5

// Gate reports whether the engine should currently attempt server calls.
// Satisfied by *netgate.Gate.
type Gate interface {
	IsOnline(ctx context.Context) bool
}

// ConflictGate asks whether a blocking conflict already exists for an
// entity, so the drain can skip an operation rather than fight a conflict
// it already knows about. Satisfied by *conflict.Detector.
type ConflictGate interface {
	HasBlockingConflict(ctx context.Context, accountID string, entityType types.EntityType, entityID string) (bool, error)
}

// ServerClient executes one operation's payload against the server. A
// retryable failure must be wrapped in *TransientError; any other error
// (other than store.ErrVersionConflict) is treated as a permanent
// rejection and the operation is abandoned.
type ServerClient interface {
	Apply(ctx context.Context, op *types.Operation) (*ApplyResult, error)
}

// ApplyResult carries the server-canonical version and timestamp a
// successful Apply produced, so the queue can stamp the local entity with
// them (spec §4.3 step (d)) instead of merely deleting the operation.
type ApplyResult struct {
	Version   int
	UpdatedAt time.Time
}

// TransientError marks a ServerClient failure as retryable (network, 5xx,
// timeout) rather than a permanent rejection.
type TransientError struct {
	Err error
}

func (e *TransientError) Error() string { return e.Err.Error() }
func (e *TransientError) Unwrap() error { return e.Err }

// Queue is the persistent per-account FIFO operation drain. st is the full
// local store (not just store.Operations) because a successful Apply must
// write the server-canonical version and last_synced_at back onto the
// synced entity, not only delete the operation.
type Queue struct {
	st        store.Store
	octx      *offlinectx.Context
	gate      Gate
	conflicts ConflictGate
	client    ServerClient
	cfg       engineconfig.Config

	mu       sync.Mutex
	draining map[string]bool

	log *slog.Logger
}

// New constructs a Queue. cfg supplies MaxRetries/BackoffBase/BackoffCeiling.
func New(st store.Store, octx *offlinectx.Context, gate Gate, conflicts ConflictGate, client ServerClient, cfg engineconfig.Config) *Queue {
	return &Queue{
		st:        st,
		octx:      octx,
		gate:      gate,
		conflicts: conflicts,
		client:    client,
		cfg:       cfg,
		draining:  make(map[string]bool),
		log:       slog.Default(),
	}
}

// SetLogger overrides the queue's structured logger (slog.Default() by
// default).
func (q *Queue) SetLogger(log *slog.Logger) { q.log = log }

// Enqueue appends a new pending operation for the current offline identity.
// The caller MUST have already committed its optimistic entity write before
// calling Enqueue — a crash between the two leaves a reconcilable local
// record rather than a queued ghost (spec §5 write ordering).
func (q *Queue) Enqueue(ctx context.Context, opType types.OperationType, data []byte) (*types.Operation, error) {
	cur, err := q.octx.RequireSet()
	if err != nil {
		return nil, err
	}

	op := &types.Operation{
		ID:         uuid.NewString(),
		Type:       opType,
		Timestamp:  time.Now().UTC(),
		RetryCount: 0,
		AccountID:  cur.AccountID,
		UpdatedBy:  cur.UserID,
		Version:    0,
		Status:     types.OperationPending,
		Data:       data,
	}
	if err := q.st.EnqueueOperation(ctx, op); err != nil {
		return nil, &engineerrors.OfflineStorageError{Op: "enqueue operation", Err: err}
	}
	return op, nil
}

// Drain processes pending operations for accountID one at a time, in
// ascending timestamp order, attempting each operation at most once per
// call, until every pending operation has been attempted, the gate goes
// offline, or the context is cancelled. It is a no-op if a drain for this
// account is already running (single-flight per account, per spec §5).
func (q *Queue) Drain(ctx context.Context, accountID string) error {
	if !q.beginDrain(accountID) {
		return nil
	}
	defer q.endDrain(accountID)

	attempted := make(map[string]bool)
	for {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		if !q.gate.IsOnline(ctx) {
			return nil
		}

		ops, err := q.st.ListPendingOperations(ctx, accountID)
		if err != nil {
			return fmt.Errorf("queue: list pending operations: %w", err)
		}
		pending := firstProcessable(ops, attempted)
		if pending == nil {
			return nil
		}
		attempted[pending.ID] = true

		if err := q.processOne(ctx, pending); err != nil {
			return err
		}
	}
}

func firstProcessable(ops []*types.Operation, attempted map[string]bool) *types.Operation {
	for _, op := range ops {
		if op.Status != types.OperationAbandoned && !attempted[op.ID] {
			return op
		}
	}
	return nil
}

// processOne runs the three-step drain for a single operation: conflict
// gate, server call, and status update.
func (q *Queue) processOne(ctx context.Context, op *types.Operation) error {
	entityType, entityID, err := op.EntityRef()
	if err != nil {
		// Programmer error: an unrecognized payload never silently drops.
		return fmt.Errorf("queue: decode operation %s: %w", op.ID, err)
	}

	blocked, err := q.conflicts.HasBlockingConflict(ctx, op.AccountID, entityType, entityID)
	if err != nil {
		return fmt.Errorf("queue: conflict check for operation %s: %w", op.ID, err)
	}
	if blocked {
		// Leave the operation in place; the conflict resolver will clear
		// the way once the conflict is resolved.
		return nil
	}

	if err := q.st.UpdateOperationStatus(ctx, op.ID, types.OperationInFlight, ""); err != nil {
		return fmt.Errorf("queue: mark operation %s in flight: %w", op.ID, err)
	}

	result, applyErr := q.client.Apply(ctx, op)
	if applyErr == nil {
		if err := q.writeBackSynced(ctx, op, entityType, entityID, result); err != nil {
			return err
		}
		return q.st.DeleteOperation(ctx, op.ID)
	}

	if errors.Is(applyErr, store.ErrVersionConflict) {
		// Leave the operation in place without burning a retry; the
		// conflict detector (C4) owns reconciling this entity next.
		q.log.Info("operation deferred to conflict resolution", "operation_id", op.ID, "account_id", op.AccountID)
		return q.st.UpdateOperationStatus(ctx, op.ID, types.OperationPending, applyErr.Error())
	}

	var transient *TransientError
	if !errors.As(applyErr, &transient) {
		// Permanent rejection: abandon immediately without burning retries.
		q.log.Warn("operation abandoned: permanent rejection", "operation_id", op.ID, "error", applyErr)
		return q.st.UpdateOperationStatus(ctx, op.ID, types.OperationAbandoned, applyErr.Error())
	}

	retryCount, err := q.st.IncrementOperationRetry(ctx, op.ID)
	if err != nil {
		return fmt.Errorf("queue: increment retry for operation %s: %w", op.ID, err)
	}
	if retryCount >= q.maxRetries() {
		q.log.Warn("operation abandoned: retry ceiling reached", "operation_id", op.ID, "retry_count", retryCount, "error", transient)
		return q.st.UpdateOperationStatus(ctx, op.ID, types.OperationAbandoned, transient.Error())
	}
	q.log.Info("operation retrying", "operation_id", op.ID, "retry_count", retryCount, "error", transient)
	if err := q.st.UpdateOperationStatus(ctx, op.ID, types.OperationRetrying, transient.Error()); err != nil {
		return fmt.Errorf("queue: mark operation %s retrying: %w", op.ID, err)
	}

	delay := q.backoffDelay(retryCount)
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-time.After(delay):
	}
	return nil
}

// writeBackSynced stamps the entity a just-applied operation targeted with
// the server-canonical version and timestamp, and records last_synced_at
// (spec §4.3 step (d); Invariant 1 requires this for the entity to ever
// leave the dirty state). A delete operation leaves nothing to stamp —
// ErrNotFound is expected and not an error here.
func (q *Queue) writeBackSynced(ctx context.Context, op *types.Operation, entityType types.EntityType, entityID string, result *ApplyResult) error {
	now := time.Now().UTC()
	switch entityType {
	case types.EntityItem:
		item, err := q.st.GetItem(ctx, op.AccountID, entityID)
		if err != nil {
			if errors.Is(err, store.ErrNotFound) {
				return nil
			}
			return fmt.Errorf("queue: load synced item %s: %w", entityID, err)
		}
		item.Version = result.Version
		item.LastUpdated = result.UpdatedAt
		item.LastSyncedAt = &now
		return q.st.PutItem(ctx, item)
	case types.EntityTransaction:
		txn, err := q.st.GetTransaction(ctx, op.AccountID, entityID)
		if err != nil {
			if errors.Is(err, store.ErrNotFound) {
				return nil
			}
			return fmt.Errorf("queue: load synced transaction %s: %w", entityID, err)
		}
		txn.Version = result.Version
		txn.LastUpdated = result.UpdatedAt
		txn.LastSyncedAt = &now
		return q.st.PutTransaction(ctx, txn)
	case types.EntityProject:
		proj, err := q.st.GetProject(ctx, op.AccountID, entityID)
		if err != nil {
			if errors.Is(err, store.ErrNotFound) {
				return nil
			}
			return fmt.Errorf("queue: load synced project %s: %w", entityID, err)
		}
		proj.Version = result.Version
		proj.LastUpdated = result.UpdatedAt
		proj.LastSyncedAt = &now
		return q.st.PutProject(ctx, proj)
	default:
		return fmt.Errorf("queue: write-back for unknown entity type %q", entityType)
	}
}

func (q *Queue) maxRetries() int {
	if q.cfg.MaxRetries > 0 {
		return q.cfg.MaxRetries
	}
	return MaxRetries
}

// backoffDelay computes the exponential delay for the given retry count
// using the same library the teacher uses for its server-mode retry loop,
// capped at the configured ceiling.
func (q *Queue) backoffDelay(retryCount int) time.Duration {
	bo := backoff.NewExponentialBackOff()
	bo.InitialInterval = q.cfg.BackoffBase
	bo.MaxInterval = q.cfg.BackoffCeiling
	bo.MaxElapsedTime = 0 // the queue itself enforces MaxRetries, not elapsed time

	var delay time.Duration
	for i := 0; i < retryCount; i++ {
		delay = bo.NextBackOff()
	}
	if delay > q.cfg.BackoffCeiling {
		delay = q.cfg.BackoffCeiling
	}
	return delay
}

func (q *Queue) beginDrain(accountID string) bool {
	q.mu.Lock()
	defer q.mu.Unlock()
	if q.draining[accountID] {
		return false
	}
	q.draining[accountID] = true
	return true
}

func (q *Queue) endDrain(accountID string) {
	q.mu.Lock()
	delete(q.draining, accountID)
	q.mu.Unlock()
}
