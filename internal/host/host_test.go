package host

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/spf13/afero"
	"github.com/stretchr/testify/require"

	"github.com/zjrosen/modhost/internal/config"
)

type fakeSubject struct{ name string }

func (s fakeSubject) Name() string      { return s.name }
func (s fakeSubject) LowerName() string { return s.name }
func (s fakeSubject) Path() string      { return "/modules/" + s.name }

func newMemHost(t *testing.T) *Host {
	t.Helper()
	h := New(config.NewStore(config.Defaults()), WithFilesystem(NewFilesystem(afero.NewMemMapFs())))
	t.Cleanup(h.Close)
	return h
}

func TestNew_Defaults(t *testing.T) {
	h := newMemHost(t)

	require.NotNil(t, h.Cache)
	require.NotNil(t, h.Translator)
	require.NotNil(t, h.Tracer)
	require.Equal(t, "storage/app/modules/modules.used", h.Used.Path())
	require.False(t, h.Flags.Enabled("strict-hooks"))
}

func TestFilesystem_GlobAndRealPath(t *testing.T) {
	fs := NewFilesystem(afero.NewMemMapFs())
	require.NoError(t, fs.WriteFile("/srv/modules/Blog/module.json", []byte(`{}`)))
	require.NoError(t, fs.WriteFile("/srv/modules/Shop/module.json", []byte(`{}`)))
	require.NoError(t, fs.WriteFile("/srv/modules/notes.txt", []byte(`x`)))

	matches, err := fs.Glob("/srv/modules/*/module.json")
	require.NoError(t, err)
	require.Equal(t, []string{"/srv/modules/Blog/module.json", "/srv/modules/Shop/module.json"}, matches)

	require.Equal(t, "/srv/modules/Blog", fs.RealPath("/srv/modules/Blog/"))
	require.Equal(t, "", fs.RealPath("/srv/modules/Missing"))
	require.Equal(t, "", fs.RealPath(""))
	require.True(t, fs.IsDir("/srv/modules/Blog"))
	require.False(t, fs.IsDir("/srv/modules/notes.txt"))
}

func TestFilesystem_RealPathResolvesSymlinksOnDisk(t *testing.T) {
	dir := t.TempDir()
	fs := NewOsFilesystem()
	require.NoError(t, fs.WriteFile(dir+"/real/module.json", []byte(`{}`)))
	require.NoError(t, afero.NewOsFs().(afero.Linker).SymlinkIfPossible(dir+"/real", dir+"/link"))

	require.Equal(t, fs.RealPath(dir+"/real"), fs.RealPath(dir+"/link"))
}

func TestFilesystem_DeleteDirectory(t *testing.T) {
	fs := NewFilesystem(afero.NewMemMapFs())
	require.NoError(t, fs.WriteFile("/m/Blog/Http/routes.json", []byte(`{}`)))

	require.NoError(t, fs.DeleteDirectory("/m/Blog"))
	require.False(t, fs.Exists("/m/Blog/Http/routes.json"))
	require.Error(t, fs.DeleteDirectory("/m/Blog"))
}

type recordingProvider struct {
	registered *[]string
	fail       bool
}

func (p recordingProvider) Register(c *Container) error {
	if p.fail {
		return errors.New("boom")
	}
	*p.registered = append(*p.registered, "register")
	c.Bind("blog.repository", "repo")
	return nil
}

func (p recordingProvider) Boot(c *Container) error {
	*p.registered = append(*p.registered, "boot")
	return nil
}

func TestContainer_RegisterAndBoot(t *testing.T) {
	var calls []string
	c := NewContainer()
	c.Provide("BlogServiceProvider", func() Provider { return recordingProvider{registered: &calls} })

	require.True(t, c.Knows("BlogServiceProvider"))
	require.NoError(t, c.Register("BlogServiceProvider"))
	require.NoError(t, c.Register("BlogServiceProvider"), "second registration is a no-op")
	require.NoError(t, c.BootProviders())
	require.NoError(t, c.BootProviders(), "providers boot once")

	require.Equal(t, []string{"register", "boot"}, calls)
	require.Equal(t, []string{"BlogServiceProvider"}, c.Registered())
	v, ok := c.Resolve("blog.repository")
	require.True(t, ok)
	require.Equal(t, "repo", v)
}

func TestContainer_RegisterErrors(t *testing.T) {
	var calls []string
	c := NewContainer()
	c.Provide("Broken", func() Provider { return recordingProvider{registered: &calls, fail: true} })

	require.ErrorIs(t, c.Register("Unknown"), ErrUnknownProvider)

	err := c.Register("Broken")
	require.Error(t, err)
	require.Contains(t, err.Error(), "register provider Broken: boom")
	require.Empty(t, c.Registered())
}

func TestRouter_GroupsNest(t *testing.T) {
	r := NewRouter()
	var order []string
	r.AliasMiddleware("web", func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
			order = append(order, "web")
			next.ServeHTTP(w, req)
		})
	})
	r.AliasMiddleware("auth", func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
			order = append(order, "auth")
			next.ServeHTTP(w, req)
		})
	})

	err := r.Group(RouteGroup{Prefix: "blog", Middleware: []string{"web"}, Namespace: `Modules\Blog\Http\Controllers`}, func(r *Router) error {
		if err := r.Get("/", "blog.index", func(w http.ResponseWriter, req *http.Request) {
			_, _ = w.Write([]byte("index"))
		}); err != nil {
			return err
		}
		return r.Group(RouteGroup{Prefix: "admin", Middleware: []string{"auth", "missing"}}, func(r *Router) error {
			return r.Post("/posts", "blog.admin.posts", func(w http.ResponseWriter, req *http.Request) {
				order = append(order, "handler")
			})
		})
	})
	require.NoError(t, err)
	require.NoError(t, r.Get("/health", "health", func(w http.ResponseWriter, req *http.Request) {}))

	routes := r.Routes()
	require.Len(t, routes, 3)
	require.Equal(t, Route{Method: "GET", Path: "/blog", Name: "blog.index", Middleware: []string{"web"}, Namespace: `Modules\Blog\Http\Controllers`}, routes[0])
	require.Equal(t, "/blog/admin/posts", routes[1].Path)
	require.Equal(t, []string{"web", "auth", "missing"}, routes[1].Middleware)
	require.Equal(t, `Modules\Blog\Http\Controllers`, routes[1].Namespace)
	require.Equal(t, Route{Method: "GET", Path: "/health", Name: "health"}, routes[2])

	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/blog/admin/posts", nil))
	require.Equal(t, []string{"web", "auth", "handler"}, order)

	rec = httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/blog", nil))
	require.Equal(t, "index", rec.Body.String())
}

func TestRouter_DuplicateRouteIgnored(t *testing.T) {
	r := NewRouter()
	require.NoError(t, r.Get("/x", "first", func(w http.ResponseWriter, req *http.Request) {}))
	require.NoError(t, r.Get("/x", "second", func(w http.ResponseWriter, req *http.Request) {}))
	require.Len(t, r.Routes(), 1)
	require.Equal(t, "first", r.Routes()[0].Name)
}

func TestRouter_RejectedPatterns(t *testing.T) {
	noop := func(w http.ResponseWriter, req *http.Request) {}

	t.Run("conflicting wildcard", func(t *testing.T) {
		r := NewRouter()
		require.NoError(t, r.Get("/content/{id}", "first", noop))
		var err error
		require.NotPanics(t, func() {
			err = r.Get("/content/{slug}", "second", noop)
		})
		require.ErrorIs(t, err, ErrInvalidRoute)
		require.Contains(t, err.Error(), "conflicts")
		require.Len(t, r.Routes(), 1)
	})

	t.Run("bad wildcard in prefix", func(t *testing.T) {
		r := NewRouter()
		var err error
		require.NotPanics(t, func() {
			err = r.Group(RouteGroup{Prefix: "blog{"}, func(r *Router) error {
				return r.Get("/", "index", noop)
			})
		})
		require.ErrorIs(t, err, ErrInvalidRoute)
		require.Empty(t, r.Routes())
	})
}

func TestHooks(t *testing.T) {
	h := NewHooks()
	web := func(r *Router, m Subject) error { return nil }
	blogWeb := func(r *Router, m Subject) error {
		return r.Get("/qualified", "", func(w http.ResponseWriter, req *http.Request) {})
	}
	h.OnRoutes("web", web)
	h.OnRoutes("blog/web", blogWeb)

	fn, ok := h.Routes("blog", "web")
	require.True(t, ok)
	router := NewRouter()
	require.NoError(t, fn(router, fakeSubject{"blog"}))
	require.Len(t, router.Routes(), 1, "module-qualified registrar wins")

	_, ok = h.Routes("shop", "web")
	require.True(t, ok)
	_, ok = h.Routes("shop", "api")
	require.False(t, ok)

	called := false
	h.OnInit("blog/helpers", func(ctx context.Context, host *Host, m Subject) error {
		called = true
		return nil
	})
	hook, ok := h.Init("blog/helpers")
	require.True(t, ok)
	require.NoError(t, hook(context.Background(), nil, fakeSubject{"blog"}))
	require.True(t, called)

	require.NoError(t, h.RegisterAliases(context.Background(), fakeSubject{"blog"}), "no-op by default")
	h.OnAliases(func(ctx context.Context, m Subject) error { return errors.New("alias clash") })
	require.EqualError(t, h.RegisterAliases(context.Background(), fakeSubject{"blog"}), "alias clash")
}

func TestUsedModule(t *testing.T) {
	fs := NewFilesystem(afero.NewMemMapFs())
	used := NewUsedModule(fs, "/storage/app/modules/modules.used")

	name, err := used.Get()
	require.NoError(t, err)
	require.Empty(t, name)

	require.NoError(t, used.Set("Blog"))
	name, err = used.Get()
	require.NoError(t, err)
	require.Equal(t, "Blog", name)

	require.NoError(t, used.Set(" spaced name\n"))
	name, err = used.Get()
	require.NoError(t, err)
	require.Equal(t, " spaced name\n", name, "stored verbatim")

	require.NoError(t, used.Forget())
	require.NoError(t, used.Forget(), "forgetting twice is fine")
	name, err = used.Get()
	require.NoError(t, err)
	require.Empty(t, name)
}
