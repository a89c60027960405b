// Package host provides the application-side collaborators the module layer
// hands off to: configuration, filesystem, cache store, event dispatcher,
// service container, router, translations and named init hooks.
//
// Host is the application context object. Process-wide state such as the
// currently used module lives here instead of in package globals.
package host

import (
	"path/filepath"

	"go.opentelemetry.io/otel/trace"
	"go.opentelemetry.io/otel/trace/noop"
	"golang.org/x/text/language"

	"github.com/zjrosen/modhost/internal/cachemanager"
	"github.com/zjrosen/modhost/internal/config"
	"github.com/zjrosen/modhost/internal/flags"
	"github.com/zjrosen/modhost/internal/pubsub"
	"github.com/zjrosen/modhost/internal/translation"
)

// Subject is the payload of module lifecycle events.
type Subject interface {
	Name() string
	LowerName() string
	Path() string
}

// Snapshot is the cached result of module discovery: the serialized
// attributes of each module, in discovery order. Every entry has "name".
type Snapshot = []map[string]any

// DiscoveryCache stores Snapshots.
type DiscoveryCache = cachemanager.CacheManager[string, Snapshot]

// Host bundles the collaborators.
type Host struct {
	Config     config.Store
	Files      Filesystem
	Events     *pubsub.Broker[Subject]
	Container  *Container
	Router     *Router
	Hooks      *Hooks
	Translator *translation.Catalog
	Cache      DiscoveryCache
	Used       *UsedModule
	Flags      *flags.Registry
	Tracer     trace.Tracer
}

// Option customises a Host.
type Option func(*Host)

// WithFilesystem replaces the OS filesystem.
func WithFilesystem(files Filesystem) Option {
	return func(h *Host) { h.Files = files }
}

// WithCache replaces the in-memory discovery cache.
func WithCache(cache DiscoveryCache) Option {
	return func(h *Host) { h.Cache = cache }
}

// WithFlags sets the feature flags.
func WithFlags(f *flags.Registry) Option {
	return func(h *Host) { h.Flags = f }
}

// WithTracer sets the tracer used for lifecycle spans.
func WithTracer(t trace.Tracer) Option {
	return func(h *Host) { h.Tracer = t }
}

// WithEvents shares an existing broker.
func WithEvents(b *pubsub.Broker[Subject]) Option {
	return func(h *Host) { h.Events = b }
}

// New creates a Host reading settings from store.
func New(store config.Store, opts ...Option) *Host {
	h := &Host{
		Config:    store,
		Files:     NewOsFilesystem(),
		Events:    pubsub.NewBroker[Subject](),
		Container: NewContainer(),
		Router:    NewRouter(),
		Hooks:     NewHooks(),
		Flags:     flags.New(nil),
		Tracer:    noop.NewTracerProvider().Tracer("modhost"),
	}
	for _, opt := range opts {
		opt(h)
	}
	if h.Cache == nil {
		h.Cache = cachemanager.NewInMemoryCacheManager[string, Snapshot](
			"modules", cachemanager.DefaultExpiration, cachemanager.DefaultCleanupInterval)
	}
	if h.Translator == nil {
		h.Translator = translation.New(h.Files.Fs(), language.English)
	}
	if h.Used == nil {
		h.Used = NewUsedModule(h.Files, filepath.Clean(store.GetString(config.KeyUsedPath)))
	}
	return h
}

// Close releases resources held by the host.
func (h *Host) Close() {
	h.Events.Close()
}
