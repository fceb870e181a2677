// Package offlinectx implements the offline identity context (C2): a
// process-wide, persisted (userId, accountId) pair used to stamp queued
// operations without a live auth call.
package offlinectx

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/kilnworks/syncengine/internal/engineerrors"
	"github.com/kilnworks/syncengine/internal/eventbus"
	"github.com/kilnworks/syncengine/internal/store"
	"github.com/kilnworks/syncengine/internal/types"
)

// Context mirrors the persisted context table in memory and notifies
// subscribers via an eventbus.Bus whenever it changes.
type Context struct {
	st  store.ContextRow
	bus *eventbus.Bus

	mu              sync.RWMutex
	current         types.Context
	lastKnownUserID string
}

// New loads the current context (if any) from st and returns a Context
// wired to bus for change notification.
func New(ctx context.Context, st store.ContextRow, bus *eventbus.Bus) (*Context, error) {
	c := &Context{st: st, bus: bus}

	row, err := st.GetContext(ctx)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return c, nil
		}
		return nil, &engineerrors.OfflineStorageError{Op: "load context", Err: err}
	}
	c.current = *row
	c.lastKnownUserID = row.UserID
	return c, nil
}

// Set persists and broadcasts a new (userId, accountId) pair.
func (c *Context) Set(ctx context.Context, userID, accountID string) error {
	if userID == "" || accountID == "" {
		return &engineerrors.OfflineContextError{Reason: "userId and accountId are both required"}
	}

	row := types.Context{UserID: userID, AccountID: accountID, UpdatedAt: time.Now().UTC()}
	if err := c.st.PutContext(ctx, &row); err != nil {
		return &engineerrors.OfflineStorageError{Op: "put context", Err: err}
	}

	c.mu.Lock()
	c.current = row
	c.lastKnownUserID = userID
	c.mu.Unlock()

	if c.bus != nil {
		if _, err := c.bus.Dispatch(ctx, &eventbus.Event{
			Type:       eventbus.ContextChanged,
			AccountID:  accountID,
			UserID:     userID,
			OccurredAt: row.UpdatedAt,
		}); err != nil {
			return fmt.Errorf("offlinectx: dispatch context changed: %w", err)
		}
	}
	return nil
}

// Get returns a synchronous in-memory snapshot of the current context.
func (c *Context) Get() types.Context {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.current
}

// GetLastKnownUserID returns the most recent non-null user id even after
// sign-out, used to surface orphaned queued work in the UI.
func (c *Context) GetLastKnownUserID() string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.lastKnownUserID
}

// RequireSet returns the current context, or OfflineContextError if either
// identity field is unset. Every operation-enqueue path must call this
// instead of reading Get() directly.
func (c *Context) RequireSet() (types.Context, error) {
	cur := c.Get()
	if !cur.IsSet() {
		return types.Context{}, &engineerrors.OfflineContextError{Reason: "no active offline identity"}
	}
	return cur, nil
}
