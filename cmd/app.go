package cmd

import (
	"context"
	"errors"
	"fmt"

	"github.com/spf13/viper"

	"github.com/zjrosen/modhost/internal/config"
	"github.com/zjrosen/modhost/internal/flags"
	"github.com/zjrosen/modhost/internal/host"
	"github.com/zjrosen/modhost/internal/infrastructure/sqlite"
	"github.com/zjrosen/modhost/internal/log"
	"github.com/zjrosen/modhost/internal/paths"
	"github.com/zjrosen/modhost/internal/pubsub"
	"github.com/zjrosen/modhost/internal/registry"
	"github.com/zjrosen/modhost/internal/tracing"
)

// eventBuffer bounds the lifecycle events a module:boot --events
// subscriber can hold before the boot finishes.
const eventBuffer = 1024

// annotationNoApp marks commands that run without a host and registry.
const annotationNoApp = "modhost/no-app"

// application holds everything a command needs.
type application struct {
	host     *host.Host
	registry *registry.Registry
	tracing  *tracing.Provider
	db       *sqlite.DB
}

// newApplication resolves the configured paths against root and wires the
// host collaborators.
func newApplication(ctx context.Context, v *viper.Viper, root string) (*application, error) {
	cfg, err := config.Load(v)
	if err != nil {
		return nil, fmt.Errorf("loading config: %w", err)
	}
	if err := config.Validate(cfg); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	v.Set(config.KeyModulesPath, paths.Resolve(root, cfg.Paths.Modules))
	v.Set(config.KeyAssetsPath, paths.Resolve(root, cfg.Paths.Assets))
	v.Set(config.KeyUsedPath, paths.Resolve(root, cfg.Paths.Used))
	scanPaths := make([]string, len(cfg.Scan.Paths))
	for i, p := range cfg.Scan.Paths {
		scanPaths[i] = paths.Resolve(root, p)
	}
	v.Set(config.KeyScanPaths, scanPaths)

	if cfg.Tracing.FilePath == "" {
		cfg.Tracing.FilePath = config.DefaultTracesFilePath()
	}
	tp, err := tracing.NewProvider(cfg.Tracing)
	if err != nil {
		return nil, fmt.Errorf("creating tracer: %w", err)
	}

	featureFlags := flags.New(cfg.Flags)
	for _, name := range featureFlags.Unknown() {
		log.Warn(log.CatConfig, "unknown feature flag", "flag", name)
	}

	a := &application{tracing: tp}
	opts := []host.Option{
		host.WithFlags(featureFlags),
		host.WithEvents(pubsub.NewBrokerWithBuffer[host.Subject](eventBuffer)),
		host.WithTracer(tp.Tracer()),
	}

	if cfg.Cache.Enabled && cfg.Cache.Driver == config.CacheDriverSQLite {
		a.db, err = sqlite.NewDB(paths.Resolve(root, cfg.Cache.Path))
		if err != nil {
			_ = tp.Shutdown(ctx)
			return nil, fmt.Errorf("opening cache database: %w", err)
		}
		opts = append(opts, host.WithCache(
			sqlite.NewCacheManager[string, host.Snapshot](a.db, "modules", cfg.Cache.Lifetime)))
	}

	a.host = host.New(v, opts...)
	a.registry = registry.New(a.host, "")

	log.Debug(log.CatConfig, "application ready",
		"root", root,
		"modules", v.GetString(config.KeyModulesPath),
		"cache", cfg.Cache.Enabled,
		"driver", cfg.Cache.Driver)

	return a, nil
}

// Close shuts the host, the cache database and the tracer down.
func (a *application) Close() error {
	a.host.Close()

	var errs []error
	if a.db != nil {
		errs = append(errs, a.db.Close())
	}
	errs = append(errs, a.tracing.Shutdown(context.Background()))
	return errors.Join(errs...)
}
