// Package registry discovers modules on disk, caches the discovery, orders
// modules for the lifecycle and resolves them by name or alias.
//
// A Registry does not hold on to modules: every All call either rescans
// the scan paths or rebuilds modules from the cached discovery, and each
// returned *module.Module is a fresh value.
package registry

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"

	"go.opentelemetry.io/otel/attribute"

	"github.com/zjrosen/modhost/internal/cachemanager"
	"github.com/zjrosen/modhost/internal/config"
	"github.com/zjrosen/modhost/internal/host"
	"github.com/zjrosen/modhost/internal/log"
	"github.com/zjrosen/modhost/internal/manifest"
	"github.com/zjrosen/modhost/internal/module"
	"github.com/zjrosen/modhost/internal/tracing"
)

// Registry finds modules below its base path and any added locations.
type Registry struct {
	host     *host.Host
	basePath string
	paths    []string
	cache    *cachemanager.Rememberer[string, host.Snapshot]
}

// New creates a registry. An empty basePath means the paths.modules config
// value.
func New(h *host.Host, basePath string) *Registry {
	if basePath == "" {
		basePath = h.Config.GetString(config.KeyModulesPath)
	}
	return &Registry{
		host:     h,
		basePath: basePath,
		cache:    cachemanager.NewRememberer(h.Cache, true).Sliding(h.Config.GetBool(config.KeyCacheSliding)),
	}
}

// Host returns the host the registry hands modules to.
func (r *Registry) Host() *host.Host {
	return r.host
}

// BasePath is the directory holding first-party modules.
func (r *Registry) BasePath() string {
	return r.basePath
}

// AddLocation adds a search path. Duplicates are kept. Paths added after
// the discovery was cached are only seen once the cache is flushed or
// expires.
func (r *Registry) AddLocation(path string) *Registry {
	r.paths = append(r.paths, path)
	return r
}

// Paths returns the added search paths.
func (r *Registry) Paths() []string {
	return append([]string(nil), r.paths...)
}

// ScanPaths returns the directory globs searched for modules: added
// locations, then {basePath}/*, then scan.paths when scan.enabled is set.
// Every entry ends in "/*".
func (r *Registry) ScanPaths() []string {
	paths := append([]string(nil), r.paths...)
	paths = append(paths, r.basePath+"/*")
	if r.host.Config.GetBool(config.KeyScanEnabled) {
		paths = append(paths, r.host.Config.GetStringSlice(config.KeyScanPaths)...)
	}

	for i, p := range paths {
		if !strings.HasSuffix(p, "/*") {
			paths[i] = strings.TrimSuffix(p, "/") + "/*"
		}
	}
	return paths
}

// Scan globs {scanPath}/module.json for every scan path and builds one
// module per manifest, keyed by the manifest "name". Manifests without a
// name or with invalid JSON are skipped. A later manifest with an already
// seen name replaces the earlier module in place.
func (r *Registry) Scan(ctx context.Context) (modules []*module.Module, err error) {
	scanPaths := r.ScanPaths()
	_, span := tracing.Start(ctx, r.host.Tracer, tracing.SpanRegistryScan,
		attribute.StringSlice(tracing.AttrScanPaths, scanPaths))
	defer func() {
		span.SetAttributes(attribute.Int(tracing.AttrModuleCount, len(modules)))
		tracing.End(span, err)
	}()

	index := make(map[string]int)
	for _, p := range scanPaths {
		manifests, err := r.host.Files.Glob(filepath.Join(p, manifest.ModuleFile))
		if err != nil {
			return nil, fmt.Errorf("scan %s: %w", p, err)
		}

		for _, file := range manifests {
			doc, err := manifest.Load(r.host.Files.Fs(), file)
			if err != nil {
				log.Warn(log.CatRegistry, "skipping unreadable manifest", "file", file, "error", err)
				continue
			}
			name := doc.String("name", "")
			if name == "" {
				log.Warn(log.CatRegistry, "skipping manifest without name", "file", file)
				continue
			}

			m := module.New(r.host, name, filepath.Dir(file))
			if i, seen := index[name]; seen {
				log.Warn(log.CatRegistry, "duplicate module name", "module", name, "file", file)
				modules[i] = m
				continue
			}
			index[name] = len(modules)
			modules = append(modules, m)
		}
	}

	log.Debug(log.CatRegistry, "scanned modules", "paths", len(scanPaths), "modules", len(modules))
	return modules, nil
}

// All returns every discovered module in discovery order. With cache.enabled
// the discovery is remembered and modules are rebuilt from it.
func (r *Registry) All(ctx context.Context) ([]*module.Module, error) {
	if !r.host.Config.GetBool(config.KeyCacheEnabled) {
		return r.Scan(ctx)
	}

	snapshot, err := r.getCached(ctx)
	if err != nil {
		return nil, err
	}
	return r.formatCached(snapshot), nil
}

func (r *Registry) cacheKey() string {
	return r.host.Config.GetString(config.KeyCacheKey)
}

// getCached remembers the serialized discovery under cache.key for
// cache.lifetime.
func (r *Registry) getCached(ctx context.Context) (host.Snapshot, error) {
	ttl := r.host.Config.GetDuration(config.KeyCacheLifetime)
	return r.cache.Remember(ctx, r.cacheKey(), ttl, func(ctx context.Context) (host.Snapshot, error) {
		modules, err := r.Scan(ctx)
		if err != nil {
			return nil, err
		}
		snapshot := make(host.Snapshot, 0, len(modules))
		for _, m := range modules {
			snapshot = append(snapshot, m.Snapshot())
		}
		return snapshot, nil
	})
}

// formatCached rebuilds modules from a cached discovery. Only the names are
// used: each module is rebuilt at {paths.modules}/{name} and parses its
// manifest again on first use, so the cache saves the glob and nothing else.
func (r *Registry) formatCached(snapshot host.Snapshot) []*module.Module {
	base := r.host.Config.GetString(config.KeyModulesPath)
	modules := make([]*module.Module, 0, len(snapshot))
	for _, attrs := range snapshot {
		name, _ := attrs["name"].(string)
		if name == "" {
			continue
		}
		modules = append(modules, module.New(r.host, name, filepath.Join(base, name)))
	}
	return modules
}

// FlushCache forgets the cached discovery.
func (r *Registry) FlushCache(ctx context.Context) error {
	if err := r.cache.Forget(ctx, r.cacheKey()); err != nil {
		return fmt.Errorf("flush module cache: %w", err)
	}
	log.Debug(log.CatRegistry, "module cache flushed", "key", r.cacheKey())
	return nil
}

// FlushAllCache empties the whole cache store behind the registry,
// including entries stored under other keys.
func (r *Registry) FlushAllCache(ctx context.Context) error {
	if err := r.cache.Flush(ctx); err != nil {
		return fmt.Errorf("flush cache store: %w", err)
	}
	log.Debug(log.CatRegistry, "cache store flushed")
	return nil
}

// Count returns the number of discovered modules.
func (r *Registry) Count(ctx context.Context) (int, error) {
	modules, err := r.All(ctx)
	if err != nil {
		return 0, err
	}
	return len(modules), nil
}

// AssetsPath is the public directory module assets are published to.
func (r *Registry) AssetsPath() string {
	return r.host.Config.GetString(config.KeyAssetsPath)
}

// AssetPath is the published asset directory of one module.
func (r *Registry) AssetPath(name string) string {
	return filepath.Join(r.AssetsPath(), name)
}
