package host

import (
	"context"
	"sync"
)

// InitHook replaces file inclusion: a module's "files" entries name hooks
// the host application registered ahead of time.
type InitHook func(ctx context.Context, h *Host, module Subject) error

// RouteRegistrar declares the routes of one route file.
type RouteRegistrar func(r *Router, module Subject) error

// AliasRegistrar registers class/facade aliases for a module. It is the
// first step of module registration and does nothing by default.
type AliasRegistrar func(ctx context.Context, module Subject) error

// Hooks holds the extension points modules refer to by name.
type Hooks struct {
	mu      sync.RWMutex
	inits   map[string]InitHook
	routes  map[string]RouteRegistrar
	aliases AliasRegistrar
}

// NewHooks creates an empty hook table.
func NewHooks() *Hooks {
	return &Hooks{
		inits:  make(map[string]InitHook),
		routes: make(map[string]RouteRegistrar),
	}
}

// OnInit registers the hook a module reaches through its "files" list.
func (h *Hooks) OnInit(name string, fn InitHook) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.inits[name] = fn
}

// Init returns the hook registered under name.
func (h *Hooks) Init(name string) (InitHook, bool) {
	h.mu.RLock()
	defer h.mu.RUnlock()
	fn, ok := h.inits[name]
	return fn, ok
}

// OnRoutes registers the registrar for a route file. name is either the
// bare route file ("web") or qualified by module ("blog/web").
func (h *Hooks) OnRoutes(name string, fn RouteRegistrar) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.routes[name] = fn
}

// Routes returns the registrar for a module's route file, preferring the
// module-qualified name.
func (h *Hooks) Routes(module, file string) (RouteRegistrar, bool) {
	h.mu.RLock()
	defer h.mu.RUnlock()
	if fn, ok := h.routes[module+"/"+file]; ok {
		return fn, true
	}
	fn, ok := h.routes[file]
	return fn, ok
}

// OnAliases installs the alias registration step.
func (h *Hooks) OnAliases(fn AliasRegistrar) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.aliases = fn
}

// RegisterAliases runs the alias step for module.
func (h *Hooks) RegisterAliases(ctx context.Context, module Subject) error {
	h.mu.RLock()
	fn := h.aliases
	h.mu.RUnlock()
	if fn == nil {
		return nil
	}
	return fn(ctx, module)
}
