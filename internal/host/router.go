package host

import (
	"errors"
	"fmt"
	"net/http"
	"path"
	"strings"
	"sync"

	"github.com/zjrosen/modhost/internal/log"
)

// ErrInvalidRoute is returned when a route pattern cannot be served, either
// because it does not parse or because it conflicts with a registered one.
var ErrInvalidRoute = errors.New("invalid route")

// RouteGroup holds attributes shared by routes declared inside Group.
type RouteGroup struct {
	Prefix     string
	Middleware []string
	Namespace  string
}

// Route is one registered endpoint.
type Route struct {
	Method     string
	Path       string
	Name       string
	Middleware []string
	Namespace  string
}

// Middleware wraps a handler.
type Middleware func(http.Handler) http.Handler

// Router records routes and serves them through an http.ServeMux.
// Groups nest: prefixes are joined, middleware lists are appended and the
// innermost non-empty namespace wins.
type Router struct {
	mu         sync.RWMutex
	mux        *http.ServeMux
	routes     []Route
	stack      []RouteGroup
	middleware map[string]Middleware
}

// NewRouter creates an empty router.
func NewRouter() *Router {
	return &Router{
		mux:        http.NewServeMux(),
		middleware: make(map[string]Middleware),
	}
}

// AliasMiddleware names a middleware so route groups can refer to it.
func (r *Router) AliasMiddleware(name string, mw Middleware) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.middleware[name] = mw
}

// Group runs fn with g applied to every route fn declares and returns the
// error fn returns.
func (r *Router) Group(g RouteGroup, fn func(r *Router) error) error {
	r.mu.Lock()
	r.stack = append(r.stack, g)
	r.mu.Unlock()

	defer func() {
		r.mu.Lock()
		r.stack = r.stack[:len(r.stack)-1]
		r.mu.Unlock()
	}()

	return fn(r)
}

// current merges the active group stack. Caller holds r.mu.
func (r *Router) current() RouteGroup {
	var merged RouteGroup
	for _, g := range r.stack {
		if g.Prefix != "" {
			merged.Prefix = path.Join("/", merged.Prefix, g.Prefix)
		}
		merged.Middleware = append(merged.Middleware, g.Middleware...)
		if g.Namespace != "" {
			merged.Namespace = g.Namespace
		}
	}
	return merged
}

// Handle registers h for method and pattern under the active groups.
// A repeated method and path is skipped with a warning.
func (r *Router) Handle(method, pattern, name string, h http.Handler) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	g := r.current()
	full := path.Join("/", g.Prefix, pattern)
	if strings.HasSuffix(pattern, "/") && pattern != "/" && full != "/" {
		full += "/"
	}
	for _, existing := range r.routes {
		if existing.Method == method && existing.Path == full {
			log.Warn(log.CatHost, "duplicate route ignored", "method", method, "route", full)
			return nil
		}
	}

	wrapped := h
	for i := len(g.Middleware) - 1; i >= 0; i-- {
		mw, ok := r.middleware[g.Middleware[i]]
		if !ok {
			log.Warn(log.CatHost, "unknown middleware", "middleware", g.Middleware[i], "route", full)
			continue
		}
		wrapped = mw(wrapped)
	}

	if err := register(r.mux, method+" "+full, wrapped); err != nil {
		return err
	}
	r.routes = append(r.routes, Route{
		Method:     method,
		Path:       full,
		Name:       name,
		Middleware: append([]string(nil), g.Middleware...),
		Namespace:  g.Namespace,
	})
	return nil
}

// register adds pattern to mux. ServeMux panics on patterns it rejects.
func register(mux *http.ServeMux, pattern string, h http.Handler) (err error) {
	defer func() {
		if p := recover(); p != nil {
			err = fmt.Errorf("%w: %v", ErrInvalidRoute, p)
		}
	}()
	mux.Handle(pattern, h)
	return nil
}

// Get registers a GET route.
func (r *Router) Get(pattern, name string, h http.HandlerFunc) error {
	return r.Handle(http.MethodGet, pattern, name, h)
}

// Post registers a POST route.
func (r *Router) Post(pattern, name string, h http.HandlerFunc) error {
	return r.Handle(http.MethodPost, pattern, name, h)
}

// Routes returns the registered routes in declaration order.
func (r *Router) Routes() []Route {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return append([]Route(nil), r.routes...)
}

func (r *Router) ServeHTTP(w http.ResponseWriter, req *http.Request) {
	r.mux.ServeHTTP(w, req)
}
