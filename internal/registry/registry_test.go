package registry

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/spf13/afero"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"pgregory.net/rapid"

	"github.com/zjrosen/modhost/internal/config"
	"github.com/zjrosen/modhost/internal/host"
	"github.com/zjrosen/modhost/internal/mocks"
	"github.com/zjrosen/modhost/internal/module"
	"github.com/zjrosen/modhost/internal/testutil"
)

// globCounter counts Glob calls on an in-memory filesystem.
type globCounter struct {
	*host.AferoFilesystem
	calls atomic.Int32
}

func (g *globCounter) Glob(pattern string) ([]string, error) {
	g.calls.Add(1)
	return g.AferoFilesystem.Glob(pattern)
}

func newRegistry(t *testing.T, cfg *config.Config, opts ...host.Option) (*Registry, *host.Host) {
	t.Helper()
	h := testutil.NewHost(t, cfg, opts...)
	return New(h, ""), h
}

func names(modules []*module.Module) []string {
	out := make([]string, 0, len(modules))
	for _, m := range modules {
		out = append(out, m.Name())
	}
	return out
}

func TestScanPaths(t *testing.T) {
	cfg := testutil.Config(func(c *config.Config) {
		c.Scan.Enabled = true
		c.Scan.Paths = []string{"/app/vendor/*/*", "/app/packages"}
	})
	r, _ := newRegistry(t, cfg)
	r.AddLocation("/extra/one").AddLocation("/extra/two/*").AddLocation("/extra/one/")

	require.Equal(t, []string{
		"/extra/one/*",
		"/extra/two/*",
		"/extra/one/*",
		"/app/modules/*",
		"/app/vendor/*/*",
		"/app/packages/*",
	}, r.ScanPaths())
	require.Len(t, r.Paths(), 3)
}

func TestScanPaths_ScanDisabled(t *testing.T) {
	r, _ := newRegistry(t, nil)
	require.Equal(t, []string{"/app/modules/*"}, r.ScanPaths())

	r = New(r.Host(), "/custom")
	require.Equal(t, "/custom", r.BasePath())
	require.Equal(t, []string{"/custom/*"}, r.ScanPaths())
}

func TestScan(t *testing.T) {
	r, h := newRegistry(t, nil)
	testutil.NewBuilder(t, h.Files, testutil.BasePath).
		WithStandardModules().
		WithModule("Nameless", testutil.NoName()).
		WithModule("Broken", testutil.RawManifest(`{"name":`)).
		Build()
	testutil.NewBuilder(t, h.Files, "/extra").
		WithModule("Reports", testutil.Active()).
		Build()
	r.AddLocation("/extra")

	modules, err := r.Scan(context.Background())
	require.NoError(t, err)
	require.Equal(t, []string{"Reports", "Admin", "Blog", "Legacy", "Shop"}, names(modules))
	require.Equal(t, "/extra/Reports", modules[0].Path())
}

func TestScan_DuplicateNameReplacesInPlace(t *testing.T) {
	r, h := newRegistry(t, nil)
	testutil.NewBuilder(t, h.Files, testutil.BasePath).
		WithModule("Blog", testutil.Dir("Ablog"), testutil.Description("first")).
		WithModule("Shop").
		WithModule("Blog", testutil.Dir("Zblog"), testutil.Description("second")).
		Build()

	modules, err := r.All(context.Background())
	require.NoError(t, err)
	require.Equal(t, []string{"Blog", "Shop"}, names(modules))
	require.Equal(t, "second", modules[0].Description())
}

func TestAll_CacheDisabledGlobsEveryCall(t *testing.T) {
	files := &globCounter{AferoFilesystem: host.NewFilesystem(afero.NewMemMapFs())}
	r, h := newRegistry(t, nil, host.WithFilesystem(files))
	testutil.NewBuilder(t, h.Files, testutil.BasePath).WithStandardModules().Build()

	for i := 0; i < 3; i++ {
		n, err := r.Count(context.Background())
		require.NoError(t, err)
		require.Equal(t, 4, n)
	}
	require.EqualValues(t, 3, files.calls.Load())
}

func TestAll_CacheEnabledSkipsGlob(t *testing.T) {
	files := &globCounter{AferoFilesystem: host.NewFilesystem(afero.NewMemMapFs())}
	cfg := testutil.Config(func(c *config.Config) {
		c.Cache.Enabled = true
		c.Cache.Lifetime = time.Hour
	})
	r, h := newRegistry(t, cfg, host.WithFilesystem(files))
	testutil.NewBuilder(t, h.Files, testutil.BasePath).WithStandardModules().Build()
	ctx := context.Background()

	first, err := r.All(ctx)
	require.NoError(t, err)
	require.EqualValues(t, 1, files.calls.Load())

	second, err := r.All(ctx)
	require.NoError(t, err)
	require.EqualValues(t, 1, files.calls.Load(), "populated cache must not glob")
	require.Equal(t, names(first), names(second))
	require.NotSame(t, first[0], second[0], "modules are rebuilt on every call")

	cached, ok := h.Cache.Get(ctx, "modhost")
	require.True(t, ok)
	require.Len(t, cached, 4)
	require.Equal(t, "Admin", cached[0]["name"])
}

func TestAll_CacheRebuildsFromModulesPath(t *testing.T) {
	cfg := testutil.Config(func(c *config.Config) { c.Cache.Enabled = true })
	r, h := newRegistry(t, cfg)
	testutil.NewBuilder(t, h.Files, "/extra").WithModule("Reports", testutil.Active()).Build()
	r.AddLocation("/extra")
	ctx := context.Background()

	modules, err := r.All(ctx)
	require.NoError(t, err)
	require.Equal(t, []string{"Reports"}, names(modules))
	require.Empty(t, modules[0].Path(), "cached modules are rebuilt below paths.modules only")
	require.False(t, modules[0].Enabled())
}

func TestAll_CacheSeesManifestChanges(t *testing.T) {
	cfg := testutil.Config(func(c *config.Config) { c.Cache.Enabled = true })
	r, h := newRegistry(t, cfg)
	testutil.NewBuilder(t, h.Files, testutil.BasePath).WithModule("Blog").Build()
	ctx := context.Background()

	_, err := r.All(ctx)
	require.NoError(t, err)

	testutil.NewBuilder(t, h.Files, testutil.BasePath).WithModule("Blog", testutil.Active()).Build()
	enabled, err := r.Enabled(ctx)
	require.NoError(t, err)
	require.Equal(t, []string{"Blog"}, names(enabled), "manifests are parsed again after a cache hit")
}

func TestFlushCache(t *testing.T) {
	cfg := testutil.Config(func(c *config.Config) { c.Cache.Enabled = true })
	r, h := newRegistry(t, cfg)
	testutil.NewBuilder(t, h.Files, testutil.BasePath).WithModule("Blog").Build()
	ctx := context.Background()

	n, err := r.Count(ctx)
	require.NoError(t, err)
	require.Equal(t, 1, n)

	testutil.NewBuilder(t, h.Files, testutil.BasePath).WithModule("Shop").Build()
	n, err = r.Count(ctx)
	require.NoError(t, err)
	require.Equal(t, 1, n, "still cached")

	require.NoError(t, r.FlushCache(ctx))
	n, err = r.Count(ctx)
	require.NoError(t, err)
	require.Equal(t, 2, n)
}

func TestFlushAllCache(t *testing.T) {
	cfg := testutil.Config(func(c *config.Config) { c.Cache.Enabled = true })
	r, h := newRegistry(t, cfg)
	testutil.NewBuilder(t, h.Files, testutil.BasePath).WithModule("Blog").Build()
	ctx := context.Background()

	_, err := r.All(ctx)
	require.NoError(t, err)
	h.Cache.Set(ctx, "unrelated", host.Snapshot{{"name": "x"}}, 0)

	require.NoError(t, r.FlushAllCache(ctx))
	_, ok := h.Cache.Get(ctx, "modhost")
	require.False(t, ok)
	_, ok = h.Cache.Get(ctx, "unrelated")
	require.False(t, ok)
}

func TestAll_SlidingCacheRefreshesOnHit(t *testing.T) {
	cfg := testutil.Config(func(c *config.Config) {
		c.Cache.Enabled = true
		c.Cache.Sliding = true
	})
	cache := mocks.NewMockCacheManager[string, host.Snapshot](t)
	cache.EXPECT().GetWithRefresh(mock.Anything, "modhost", 60*time.Minute).
		Return(host.Snapshot{{"name": "Blog"}}, true).Once()
	r, h := newRegistry(t, cfg, host.WithCache(cache))
	testutil.NewBuilder(t, h.Files, testutil.BasePath).WithModule("Blog").Build()

	modules, err := r.All(context.Background())
	require.NoError(t, err)
	require.Equal(t, []string{"Blog"}, names(modules))
	cache.AssertNotCalled(t, "Get", mock.Anything, mock.Anything)
}

func TestAssetPath(t *testing.T) {
	r, _ := newRegistry(t, nil)
	require.Equal(t, "/app/public/modules", r.AssetsPath())
	require.Equal(t, "/app/public/modules/Blog", r.AssetPath("Blog"))
}

func TestGetOrdered(t *testing.T) {
	r, h := newRegistry(t, nil)
	testutil.NewBuilder(t, h.Files, testutil.BasePath).
		WithModule("Blog", testutil.Active(), testutil.Order(2)).
		WithModule("Shop", testutil.Active(), testutil.Order(1)).
		Build()
	ctx := context.Background()

	asc, err := r.GetOrdered(ctx, Asc)
	require.NoError(t, err)
	require.Equal(t, []string{"Shop", "Blog"}, names(asc))

	desc, err := r.GetOrdered(ctx, Desc)
	require.NoError(t, err)
	require.Equal(t, []string{"Blog", "Shop"}, names(desc))
}

func TestGetOrdered_OnlyEnabledAndStable(t *testing.T) {
	r, h := newRegistry(t, nil)
	testutil.NewBuilder(t, h.Files, testutil.BasePath).WithStandardModules().Build()
	ctx := context.Background()

	asc, err := r.GetOrdered(ctx, Asc)
	require.NoError(t, err)
	require.Equal(t, []string{"Admin", "Shop", "Blog"}, names(asc))

	desc, err := r.GetOrdered(ctx, Desc)
	require.NoError(t, err)
	require.Equal(t, []string{"Blog", "Admin", "Shop"}, names(desc))
}

func TestGetOrdered_StabilityLaw(t *testing.T) {
	rapid.Check(t, func(rt *rapid.T) {
		h := testutil.NewMemHost(nil)
		defer h.Close()

		n := rapid.IntRange(1, 12).Draw(rt, "modules")
		orders := make(map[string]int, n)
		b := testutil.NewBuilder(rt, h.Files, testutil.BasePath)
		for i := 0; i < n; i++ {
			name := fmt.Sprintf("M%02d", i)
			orders[name] = rapid.IntRange(-2, 3).Draw(rt, "order")
			b.WithModule(name, testutil.Active(), testutil.Order(orders[name]))
		}
		b.Build()

		r := New(h, "")
		asc, err := r.GetOrdered(context.Background(), Asc)
		require.NoError(rt, err)
		desc, err := r.GetOrdered(context.Background(), Desc)
		require.NoError(rt, err)

		pos := func(list []*module.Module) map[string]int {
			p := make(map[string]int, len(list))
			for i, m := range list {
				p[m.Name()] = i
			}
			return p
		}
		ascPos, descPos := pos(asc), pos(desc)
		require.Len(rt, ascPos, n)

		for x := range orders {
			for y := range orders {
				if x >= y {
					continue
				}
				ascBefore := ascPos[x] < ascPos[y]
				descBefore := descPos[x] < descPos[y]
				if orders[x] == orders[y] {
					require.True(rt, ascBefore, "%s before %s in asc (same order)", x, y)
					require.True(rt, descBefore, "%s before %s in desc (same order)", x, y)
				} else {
					require.NotEqual(rt, ascBefore, descBefore, "%s and %s swap", x, y)
					require.Equal(rt, orders[x] < orders[y], ascBefore)
				}
			}
		}
	})
}

func TestParseDirection(t *testing.T) {
	for in, want := range map[string]Direction{"": Asc, "asc": Asc, "DESC": Desc} {
		got, err := ParseDirection(in)
		require.NoError(t, err)
		require.Equal(t, want, got)
	}
	_, err := ParseDirection("sideways")
	require.ErrorIs(t, err, ErrInvalidDirection)
}

func TestByStatus(t *testing.T) {
	r, h := newRegistry(t, nil)
	testutil.NewBuilder(t, h.Files, testutil.BasePath).
		WithStandardModules().
		WithModule("Stringly", testutil.Status("1")).
		Build()
	ctx := context.Background()

	enabled, err := r.Enabled(ctx)
	require.NoError(t, err)
	require.Equal(t, []string{"Admin", "Blog", "Shop"}, names(enabled))

	disabled, err := r.Disabled(ctx)
	require.NoError(t, err)
	require.Equal(t, []string{"Legacy"}, names(disabled), `"1" is neither 1 nor 0`)
}

func TestFind(t *testing.T) {
	r, h := newRegistry(t, nil)
	testutil.NewBuilder(t, h.Files, testutil.BasePath).WithStandardModules().Build()
	ctx := context.Background()

	m, err := r.Find(ctx, "bLoG")
	require.NoError(t, err)
	require.Equal(t, "Blog", m.Name())

	m, err = r.Find(ctx, "nope")
	require.NoError(t, err)
	require.Nil(t, m)

	m, err = r.FindByAlias(ctx, "dashboard")
	require.NoError(t, err)
	require.Equal(t, "Admin", m.Name())

	m, err = r.FindByAlias(ctx, "Dashboard")
	require.NoError(t, err)
	require.Nil(t, m, "aliases match exactly")
}

func TestFindOrFail(t *testing.T) {
	r, h := newRegistry(t, nil)
	testutil.NewBuilder(t, h.Files, testutil.BasePath).WithStandardModules().Build()

	_, err := r.FindOrFail(context.Background(), "nope")
	require.ErrorIs(t, err, ErrModuleNotFound)
	require.Contains(t, err.Error(), "nope")

	var notFound *NotFoundError
	require.True(t, errors.As(err, &notFound))
	require.Equal(t, "nope", notFound.Name)

	m, err := r.FindOrFail(context.Background(), "SHOP")
	require.NoError(t, err)
	require.Equal(t, "Shop", m.Name())
}

func TestHasFindEquivalence(t *testing.T) {
	rapid.Check(t, func(rt *rapid.T) {
		h := testutil.NewMemHost(nil)
		defer h.Close()

		declared := rapid.SliceOfNDistinct(rapid.StringMatching(`[A-Za-z]{1,6}`), 0, 6, strings.ToLower).Draw(rt, "names")
		b := testutil.NewBuilder(rt, h.Files, testutil.BasePath)
		for i, name := range declared {
			b.WithModule(name, testutil.Dir(fmt.Sprintf("dir%d", i)))
		}
		b.Build()

		query := rapid.StringMatching(`[A-Za-z]{1,6}`).Draw(rt, "query")
		if len(declared) > 0 && rapid.Bool().Draw(rt, "existing") {
			query = strings.ToUpper(rapid.SampledFrom(declared).Draw(rt, "pick"))
		}

		r := New(h, "")
		has, err := r.Has(context.Background(), query)
		require.NoError(rt, err)
		found, err := r.Find(context.Background(), query)
		require.NoError(rt, err)

		matches := false
		for _, name := range declared {
			if strings.EqualFold(name, query) {
				matches = true
			}
		}
		require.Equal(rt, matches, has)
		require.Equal(rt, has, found != nil)
		if found != nil {
			require.True(rt, strings.EqualFold(found.Name(), query))
		}
	})
}

func TestFindRequirements(t *testing.T) {
	r, h := newRegistry(t, nil)
	testutil.NewBuilder(t, h.Files, testutil.BasePath).
		WithStandardModules().
		WithModule("Orders", testutil.Requires("dashboard", "nope", "shop", "dashboard")).
		Build()
	ctx := context.Background()

	required, err := r.FindRequirements(ctx, "Blog")
	require.NoError(t, err)
	require.Len(t, required, 2)
	require.Equal(t, "Shop", required[0].Name())
	require.Nil(t, required[1])

	required, err = r.FindRequirements(ctx, "orders")
	require.NoError(t, err)
	require.Len(t, required, 4)
	require.Equal(t, "Admin", required[0].Name())
	require.Nil(t, required[1])
	require.Equal(t, "Shop", required[2].Name())
	require.Equal(t, "Admin", required[3].Name())

	required, err = r.FindRequirements(ctx, "Shop")
	require.NoError(t, err)
	require.Empty(t, required)

	_, err = r.FindRequirements(ctx, "nope")
	require.ErrorIs(t, err, ErrModuleNotFound)
}

func TestModulePath(t *testing.T) {
	r, h := newRegistry(t, nil)
	testutil.NewBuilder(t, h.Files, testutil.BasePath).WithStandardModules().Build()
	ctx := context.Background()

	path, err := r.ModulePath(ctx, "blog")
	require.NoError(t, err)
	require.Equal(t, "/app/modules/Blog/", path)

	path, err = r.ModulePath(ctx, "blog-posts")
	require.NoError(t, err)
	require.Equal(t, "/app/modules/BlogPosts/", path)
}

func TestModulePath_CachedModuleOutsideBasePath(t *testing.T) {
	cfg := testutil.Config(func(c *config.Config) { c.Cache.Enabled = true })
	r, h := newRegistry(t, cfg)
	testutil.NewBuilder(t, h.Files, "/extra").WithModule("Reports").Build()
	r.AddLocation("/extra")

	path, err := r.ModulePath(context.Background(), "reports")
	require.NoError(t, err)
	require.Equal(t, "/app/modules/Reports/", path, "never the filesystem root")
}

func TestUsed(t *testing.T) {
	r, h := newRegistry(t, nil)
	testutil.NewBuilder(t, h.Files, testutil.BasePath).WithStandardModules().Build()
	ctx := context.Background()

	require.NoError(t, r.SetUsed(ctx, "blog"))
	raw, err := r.Used()
	require.NoError(t, err)
	require.Equal(t, "Blog", raw)

	m, err := r.UsedNow(ctx)
	require.NoError(t, err)
	require.Equal(t, "Blog", m.Name())

	require.NoError(t, r.ForgetUsed())
	_, err = r.UsedNow(ctx)
	require.ErrorIs(t, err, ErrModuleNotFound)

	require.ErrorIs(t, r.SetUsed(ctx, "nope"), ErrModuleNotFound)
	raw, err = r.Used()
	require.NoError(t, err)
	require.Empty(t, raw)
}

func TestUsed_StaleName(t *testing.T) {
	r, h := newRegistry(t, nil)
	testutil.NewBuilder(t, h.Files, testutil.BasePath).WithStandardModules().Build()
	require.NoError(t, h.Used.Set("Removed"))

	_, err := r.UsedNow(context.Background())
	require.ErrorIs(t, err, ErrModuleNotFound)
	require.Contains(t, err.Error(), "Removed")
}
