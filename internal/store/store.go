package store

import (
	"context"
	"io"
	"time"

	"github.com/kilnworks/syncengine/internal/types"
)

// Store is the local durable cache's storage contract (C1). Every other
// component depends on this interface, never on a concrete driver, so test
// doubles substitute freely (§6).
type Store interface {
	io.Closer

	Items
	Transactions
	Projects
	Operations
	Conflicts
	Media
	Cache
	ContextRow
}

// Items covers entity persistence for the Item aggregate.
type Items interface {
	PutItem(ctx context.Context, item *types.Item) error
	GetItem(ctx context.Context, accountID, itemID string) (*types.Item, error)
	ListItems(ctx context.Context, accountID string) ([]*types.Item, error)
	DeleteItem(ctx context.Context, accountID, itemID string) error
}

// Transactions covers entity persistence for the Transaction aggregate.
type Transactions interface {
	PutTransaction(ctx context.Context, txn *types.Transaction) error
	GetTransaction(ctx context.Context, accountID, transactionID string) (*types.Transaction, error)
	ListTransactions(ctx context.Context, accountID string) ([]*types.Transaction, error)
	DeleteTransaction(ctx context.Context, accountID, transactionID string) error
}

// Projects covers entity persistence for the Project aggregate.
type Projects interface {
	PutProject(ctx context.Context, project *types.Project) error
	GetProject(ctx context.Context, accountID, projectID string) (*types.Project, error)
	ListProjects(ctx context.Context, accountID string) ([]*types.Project, error)
	DeleteProject(ctx context.Context, accountID, projectID string) error
}

// Operations is the persistent FIFO queue (C3).
type Operations interface {
	EnqueueOperation(ctx context.Context, op *types.Operation) error
	// ListPendingOperations returns operations ordered by (accountId,
	// timestamp) ascending, the crash-recovery replay order from §4.3.
	ListPendingOperations(ctx context.Context, accountID string) ([]*types.Operation, error)
	UpdateOperationStatus(ctx context.Context, opID string, status types.OperationStatus, lastErr string) error
	IncrementOperationRetry(ctx context.Context, opID string) (int, error)
	DeleteOperation(ctx context.Context, opID string) error
	CountOperationsByStatus(ctx context.Context, accountID string, status types.OperationStatus) (int, error)
}

// Conflicts persists detected conflicts keyed by their deterministic
// fingerprint (§4.4 step 4, Invariant 5).
type Conflicts interface {
	UpsertConflict(ctx context.Context, c *types.Conflict) error
	GetConflict(ctx context.Context, fingerprint string) (*types.Conflict, error)
	ListUnresolvedConflicts(ctx context.Context, accountID string) ([]*types.Conflict, error)
	ResolveConflict(ctx context.Context, fingerprint string, resolution types.ResolutionStrategy) error
	// ClearUnresolvedConflicts removes every unresolved conflict of
	// entityType in scope, so a fresh detection pass starts from an empty
	// set rather than accumulating stale rows (§4.4 step 3).
	ClearUnresolvedConflicts(ctx context.Context, accountID string, entityType types.EntityType) error
}

// Media tracks staged blobs and their upload queue (C6).
type Media interface {
	PutMedia(ctx context.Context, m *types.Media) error
	GetMedia(ctx context.Context, accountID, mediaID string) (*types.Media, error)
	DeleteMedia(ctx context.Context, accountID, mediaID string) error
	ListExpiredMedia(ctx context.Context, asOf time.Time) ([]*types.Media, error)
	SumMediaBytes(ctx context.Context, accountID string) (int64, error)

	EnqueueMediaUpload(ctx context.Context, u *types.MediaUpload) error
	ListQueuedMediaUploads(ctx context.Context, accountID string) ([]*types.MediaUpload, error)
	DequeueMediaUpload(ctx context.Context, uploadID string) error
	RetryMediaUpload(ctx context.Context, uploadID, lastErr string) (int, error)
}

// Cache is the read-through metadata cache (C7).
type Cache interface {
	GetCacheEntry(ctx context.Context, key string) (*types.CacheEntry, error)
	PutCacheEntry(ctx context.Context, e *types.CacheEntry) error
	DeleteCacheEntry(ctx context.Context, key string) error
}

// ContextRow persists the offline identity singleton (C2).
type ContextRow interface {
	GetContext(ctx context.Context) (*types.Context, error)
	PutContext(ctx context.Context, c *types.Context) error
}
