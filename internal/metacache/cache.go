// Package metacache implements the metadata cache (C7): a read-through
// cache for slowly-changing per-account reference data (budget categories,
// tax presets, vendor defaults), sharing one generic refresh path.
package metacache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/kilnworks/syncengine/internal/store"
	"github.com/kilnworks/syncengine/internal/types"
)

// ErrCacheEmpty is raised in strict mode when the cache is empty and a
// fresh fetch could not be made.
var ErrCacheEmpty = errors.New("cache is empty, go online and retry")

// Gate reports whether the engine should currently attempt server calls.
// Satisfied by *netgate.Gate.
type Gate interface {
	IsOnline(ctx context.Context) bool
}

// Remote fetches the current value of each reference-data category from
// the server. Satisfied by *remote.StoreClient.
type Remote interface {
	FetchBudgetCategories(ctx context.Context, accountID string) ([]types.BudgetCategory, error)
	FetchTaxPresets(ctx context.Context, accountID string) ([]types.TaxPreset, error)
	FetchVendorDefaults(ctx context.Context, accountID string) ([]types.VendorDefault, error)
}

// Cache is the read-through metadata cache.
type Cache struct {
	st     store.Cache
	gate   Gate
	remote Remote
}

// New constructs a Cache.
func New(st store.Cache, gate Gate, remote Remote) *Cache {
	return &Cache{st: st, gate: gate, remote: remote}
}

func cacheKey(category, accountID string) string {
	return fmt.Sprintf("metacache:%s:%s", category, accountID)
}

// getOrRefresh implements the one contract shared by every category
// (§4.7): fetch-and-persist when online, fall back to the last cached
// value otherwise, and surface ErrCacheEmpty in strict mode when there is
// nothing cached to fall back to.
func getOrRefresh[T any](ctx context.Context, c *Cache, category, accountID string, strict bool, fetch func(context.Context, string) (T, error)) (T, error) {
	var zero T
	key := cacheKey(category, accountID)

	if c.gate.IsOnline(ctx) {
		fresh, err := fetch(ctx, accountID)
		if err == nil {
			data, merr := json.Marshal(fresh)
			if merr != nil {
				return zero, fmt.Errorf("metacache: marshal %s: %w", category, merr)
			}
			_ = c.st.PutCacheEntry(ctx, &types.CacheEntry{Key: key, Data: data, Timestamp: time.Now().UTC()})
			return fresh, nil
		}
	}

	entry, err := c.st.GetCacheEntry(ctx, key)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			if strict {
				return zero, ErrCacheEmpty
			}
			return zero, nil
		}
		return zero, fmt.Errorf("metacache: load cached %s: %w", category, err)
	}

	var cached T
	if err := json.Unmarshal(entry.Data, &cached); err != nil {
		return zero, fmt.Errorf("metacache: decode cached %s: %w", category, err)
	}
	return cached, nil
}

// BudgetCategories returns the account's budget category list.
func (c *Cache) BudgetCategories(ctx context.Context, accountID string, strict bool) ([]types.BudgetCategory, error) {
	return getOrRefresh(ctx, c, "budgetCategories", accountID, strict, c.remote.FetchBudgetCategories)
}

// TaxPresets returns the account's tax preset list.
func (c *Cache) TaxPresets(ctx context.Context, accountID string, strict bool) ([]types.TaxPreset, error) {
	return getOrRefresh(ctx, c, "taxPresets", accountID, strict, c.remote.FetchTaxPresets)
}

// VendorDefaults returns the account's 10 ordered vendor-default slots.
func (c *Cache) VendorDefaults(ctx context.Context, accountID string, strict bool) ([]types.VendorDefault, error) {
	return getOrRefresh(ctx, c, "vendorDefaults", accountID, strict, c.remote.FetchVendorDefaults)
}

// PutVendorDefaults writes a locally-edited vendor default list, rejecting
// any length other than VendorDefaultSlotCount (§4.7).
func (c *Cache) PutVendorDefaults(ctx context.Context, accountID string, slots []types.VendorDefault) error {
	if len(slots) != types.VendorDefaultSlotCount {
		return fmt.Errorf("metacache: vendor defaults must have exactly %d slots, got %d", types.VendorDefaultSlotCount, len(slots))
	}
	data, err := json.Marshal(slots)
	if err != nil {
		return fmt.Errorf("metacache: marshal vendor defaults: %w", err)
	}
	return c.st.PutCacheEntry(ctx, &types.CacheEntry{
		Key:       cacheKey("vendorDefaults", accountID),
		Data:      data,
		Timestamp: time.Now().UTC(),
	})
}
