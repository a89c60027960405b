package sqlite

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"pgregory.net/rapid"
)

type snapshot = []map[string]any

func TestCacheManager_SetGet(t *testing.T) {
	ctx := context.Background()
	cache := NewCacheManager[string, snapshot](newTestDB(t), "modules", time.Hour)

	_, ok := cache.Get(ctx, "modhost")
	require.False(t, ok)

	cache.Set(ctx, "modhost", snapshot{{"name": "Blog", "active": 1}, {"name": "Shop"}}, 0)

	got, ok := cache.Get(ctx, "modhost")
	require.True(t, ok)
	require.Len(t, got, 2)
	require.Equal(t, "Blog", got[0]["name"])
	require.EqualValues(t, 1, got[0]["active"], "JSON numbers decode as float64")
	require.Equal(t, "Shop", got[1]["name"])

	cache.Set(ctx, "modhost", snapshot{}, 0)
	got, ok = cache.Get(ctx, "modhost")
	require.True(t, ok)
	require.Empty(t, got)
}

func TestCacheManager_Expiry(t *testing.T) {
	ctx := context.Background()
	cache := NewCacheManager[string, string](newTestDB(t), "modules", 0)
	now := time.Unix(1_700_000_000, 0)
	cache.now = func() time.Time { return now }

	cache.Set(ctx, "short", "v", time.Minute)
	cache.Set(ctx, "forever", "v", 0)

	now = now.Add(59 * time.Second)
	_, ok := cache.Get(ctx, "short")
	require.True(t, ok)

	_, ok = cache.GetWithRefresh(ctx, "short", time.Minute)
	require.True(t, ok)

	now = now.Add(59 * time.Second)
	_, ok = cache.Get(ctx, "short")
	require.True(t, ok, "refreshed")

	now = now.Add(2 * time.Minute)
	_, ok = cache.Get(ctx, "short")
	require.False(t, ok)

	_, ok = cache.Get(ctx, "forever")
	require.True(t, ok)
}

func TestCacheManager_DeleteAndFlushAreScopedToStore(t *testing.T) {
	ctx := context.Background()
	db := newTestDB(t)
	modules := NewCacheManager[string, string](db, "modules", time.Hour)
	other := NewCacheManager[string, string](db, "other", time.Hour)

	modules.Set(ctx, "a", "1", 0)
	modules.Set(ctx, "b", "2", 0)
	modules.Set(ctx, "c", "3", 0)
	other.Set(ctx, "a", "x", 0)

	require.NoError(t, modules.Delete(ctx, "a", "b"))
	require.NoError(t, modules.Delete(ctx))

	_, ok := modules.Get(ctx, "a")
	require.False(t, ok)
	_, ok = modules.Get(ctx, "b")
	require.False(t, ok)
	c, ok := modules.Get(ctx, "c")
	require.True(t, ok)
	require.Equal(t, "3", c)

	require.NoError(t, modules.Flush(ctx))
	_, ok = modules.Get(ctx, "c")
	require.False(t, ok)

	v, ok := other.Get(ctx, "a")
	require.True(t, ok)
	require.Equal(t, "x", v)
}

func TestCacheManager_LastWriteWins(t *testing.T) {
	db := newTestDB(t)
	rapid.Check(t, func(rt *rapid.T) {
		ctx := context.Background()
		cache := NewCacheManager[string, []string](db, rapid.StringMatching(`[a-z]{8}`).Draw(rt, "store"), time.Hour)

		writes := rapid.SliceOfN(rapid.SliceOf(rapid.StringMatching(`[A-Za-z]{0,8}`)), 1, 5).Draw(rt, "writes")
		for _, w := range writes {
			cache.Set(ctx, "modhost", w, 0)
		}

		got, ok := cache.Get(ctx, "modhost")
		require.True(rt, ok)
		want := writes[len(writes)-1]
		if len(want) == 0 {
			require.Empty(rt, got)
		} else {
			require.Equal(rt, want, got)
		}
	})
}
