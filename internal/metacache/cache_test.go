package metacache

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	sqlitestore "github.com/kilnworks/syncengine/internal/store/sqlite"
	"github.com/kilnworks/syncengine/internal/types"
)

func newTestCache(t *testing.T, gate Gate, remote Remote) *Cache {
	t.Helper()
	st, err := sqlitestore.New(context.Background(), t.TempDir()+"/metacache.db")
	require.NoError(t, err)
	t.Cleanup(func() { _ = st.Close() })
	return New(st, gate, remote)
}

type gateState struct{ online bool }

func (g gateState) IsOnline(context.Context) bool { return g.online }

type stubFetcher struct {
	budget  []types.BudgetCategory
	presets []types.TaxPreset
	vendors []types.VendorDefault
	err     error
}

func (s stubFetcher) FetchBudgetCategories(context.Context, string) ([]types.BudgetCategory, error) {
	return s.budget, s.err
}
func (s stubFetcher) FetchTaxPresets(context.Context, string) ([]types.TaxPreset, error) {
	return s.presets, s.err
}
func (s stubFetcher) FetchVendorDefaults(context.Context, string) ([]types.VendorDefault, error) {
	return s.vendors, s.err
}

func TestBudgetCategoriesFetchesAndCachesWhenOnline(t *testing.T) {
	ctx := context.Background()
	remote := stubFetcher{budget: []types.BudgetCategory{{ID: "cat-1", Name: "Furniture", Amount: 100}}}
	c := newTestCache(t, gateState{online: true}, remote)

	got, err := c.BudgetCategories(ctx, "acct-1", false)
	require.NoError(t, err)
	require.Equal(t, remote.budget, got)
}

func TestBudgetCategoriesFallsBackToCacheWhenOffline(t *testing.T) {
	ctx := context.Background()
	remote := stubFetcher{budget: []types.BudgetCategory{{ID: "cat-1", Name: "Furniture", Amount: 100}}}

	online := &gateState{online: true}
	c := newTestCache(t, online, remote)
	_, err := c.BudgetCategories(ctx, "acct-1", false)
	require.NoError(t, err)

	online.online = false
	got, err := c.BudgetCategories(ctx, "acct-1", false)
	require.NoError(t, err)
	require.Equal(t, remote.budget, got)
}

func TestBudgetCategoriesStrictErrorsWhenCacheEmpty(t *testing.T) {
	ctx := context.Background()
	c := newTestCache(t, gateState{online: false}, stubFetcher{})

	_, err := c.BudgetCategories(ctx, "acct-1", true)
	require.ErrorIs(t, err, ErrCacheEmpty)
}

func TestBudgetCategoriesNonStrictReturnsZeroWhenCacheEmpty(t *testing.T) {
	ctx := context.Background()
	c := newTestCache(t, gateState{online: false}, stubFetcher{})

	got, err := c.BudgetCategories(ctx, "acct-1", false)
	require.NoError(t, err)
	require.Nil(t, got)
}

func TestPutVendorDefaultsRejectsWrongLength(t *testing.T) {
	ctx := context.Background()
	c := newTestCache(t, gateState{online: true}, stubFetcher{})

	err := c.PutVendorDefaults(ctx, "acct-1", []types.VendorDefault{{Slot: 0, Name: "Acme"}})
	require.Error(t, err)
}

func TestPutVendorDefaultsAcceptsExactSlotCount(t *testing.T) {
	ctx := context.Background()
	c := newTestCache(t, gateState{online: false}, stubFetcher{})

	slots := make([]types.VendorDefault, types.VendorDefaultSlotCount)
	for i := range slots {
		slots[i] = types.VendorDefault{Slot: i, Name: "vendor"}
	}
	require.NoError(t, c.PutVendorDefaults(ctx, "acct-1", slots))

	got, err := c.VendorDefaults(ctx, "acct-1", true)
	require.NoError(t, err)
	require.Len(t, got, types.VendorDefaultSlotCount)
}
