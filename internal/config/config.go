// Package config provides configuration types and defaults for modhost.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"
)

// Dotted keys read by the module registry. Every key lives under one
// namespace so a host application can embed the block in its own config.
const (
	KeyModulesPath          = "paths.modules"
	KeyAssetsPath           = "paths.assets"
	KeyUsedPath             = "paths.used"
	KeyCacheEnabled         = "cache.enabled"
	KeyCacheDriver          = "cache.driver"
	KeyCacheKey             = "cache.key"
	KeyCacheLifetime        = "cache.lifetime"
	KeyCachePath            = "cache.path"
	KeyCacheSliding         = "cache.sliding"
	KeyScanEnabled          = "scan.enabled"
	KeyScanPaths            = "scan.paths"
	KeyRegisterTranslations = "register.translations"
)

// Cache drivers.
const (
	CacheDriverMemory = "memory"
	CacheDriverSQLite = "sqlite"
)

// Config holds all configuration options for modhost.
type Config struct {
	Paths    PathsConfig     `mapstructure:"paths"`
	Cache    CacheConfig     `mapstructure:"cache"`
	Scan     ScanConfig      `mapstructure:"scan"`
	Register RegisterConfig  `mapstructure:"register"`
	Tracing  TracingConfig   `mapstructure:"tracing"`
	Log      LogConfig       `mapstructure:"log"`
	Flags    map[string]bool `mapstructure:"flags"`
}

// PathsConfig locates modules and their published assets.
type PathsConfig struct {
	Modules string `mapstructure:"modules"` // base module directory, scanned as {modules}/*
	Assets  string `mapstructure:"assets"`  // public asset directory
	Used    string `mapstructure:"used"`    // file holding the currently used module name
}

// CacheConfig controls caching of module discovery.
type CacheConfig struct {
	Enabled  bool          `mapstructure:"enabled"`
	Driver   string        `mapstructure:"driver"` // "memory" (default) or "sqlite"
	Key      string        `mapstructure:"key"`
	Lifetime time.Duration `mapstructure:"lifetime"`
	Path     string        `mapstructure:"path"` // sqlite database file for the sqlite driver
	Sliding  bool          `mapstructure:"sliding"`
}

// ScanConfig adds glob patterns searched in addition to the base path.
type ScanConfig struct {
	Enabled bool     `mapstructure:"enabled"`
	Paths   []string `mapstructure:"paths"`
}

// RegisterConfig toggles optional boot steps.
type RegisterConfig struct {
	Translations bool `mapstructure:"translations"`
}

// LogConfig controls the debug log.
type LogConfig struct {
	Level  string `mapstructure:"level"`  // debug, info (default), warn, error
	Format string `mapstructure:"format"` // text (default) or json
	File   string `mapstructure:"file"`   // empty logs to stderr when --debug is set
}

// TracingConfig holds distributed tracing configuration.
type TracingConfig struct {
	// Enabled controls whether distributed tracing is active.
	// Default: false
	Enabled bool `mapstructure:"enabled"`

	// Exporter selects the trace export backend.
	// Options: "none", "file", "stdout", "otlp"
	// Default: "file"
	Exporter string `mapstructure:"exporter"`

	// FilePath is the output file for "file" exporter.
	// Default: ~/.config/modhost/traces/traces.jsonl
	FilePath string `mapstructure:"file_path"`

	// OTLPEndpoint is the collector endpoint for "otlp" exporter.
	// Default: "localhost:4317"
	OTLPEndpoint string `mapstructure:"otlp_endpoint"`

	// SampleRate controls trace sampling (0.0 to 1.0).
	SampleRate float64 `mapstructure:"sample_rate"`
}

// DefaultTracesFilePath returns the default path for trace files.
// Returns ~/.config/modhost/traces/traces.jsonl
func DefaultTracesFilePath() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ""
	}
	return filepath.Join(home, ".config", "modhost", "traces", "traces.jsonl")
}

// Defaults returns a Config with sensible default values.
func Defaults() Config {
	return Config{
		Paths: PathsConfig{
			Modules: "modules",
			Assets:  filepath.Join("public", "modules"),
			Used:    filepath.Join("storage", "app", "modules", "modules.used"),
		},
		Cache: CacheConfig{
			Enabled:  false,
			Driver:   CacheDriverMemory,
			Key:      "modhost",
			Lifetime: 60 * time.Minute,
			Path:     filepath.Join("storage", "framework", "cache", "modules.db"),
		},
		Scan: ScanConfig{
			Enabled: false,
			Paths:   []string{filepath.Join("vendor", "*", "*")},
		},
		Register: RegisterConfig{
			Translations: true,
		},
		Tracing: TracingConfig{
			Enabled:      false,
			Exporter:     "file",
			FilePath:     "", // Derived from config dir at runtime
			OTLPEndpoint: "localhost:4317",
			SampleRate:   1.0,
		},
		Log: LogConfig{
			Level:  "info",
			Format: "text",
		},
	}
}

// Validate checks the configuration for errors.
func Validate(c Config) error {
	if strings.TrimSpace(c.Paths.Modules) == "" {
		return fmt.Errorf("paths.modules is required")
	}
	if err := ValidateCache(c.Cache); err != nil {
		return err
	}
	if err := ValidateScan(c.Scan); err != nil {
		return err
	}
	if err := ValidateLog(c.Log); err != nil {
		return err
	}
	return ValidateTracing(c.Tracing)
}

// ValidateLog checks the log level and format names.
func ValidateLog(l LogConfig) error {
	switch strings.ToLower(l.Level) {
	case "", "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("log.level must be one of debug, info, warn, error; got %q", l.Level)
	}
	switch strings.ToLower(l.Format) {
	case "", "text", "json":
	default:
		return fmt.Errorf("log.format must be text or json, got %q", l.Format)
	}
	return nil
}

// ValidateCache checks cache configuration for errors.
func ValidateCache(cache CacheConfig) error {
	switch cache.Driver {
	case "", CacheDriverMemory:
	case CacheDriverSQLite:
		if cache.Enabled && cache.Path == "" {
			return fmt.Errorf("cache.path is required for the sqlite driver")
		}
	default:
		return fmt.Errorf("cache.driver must be %q or %q, got %q", CacheDriverMemory, CacheDriverSQLite, cache.Driver)
	}
	if cache.Enabled && cache.Key == "" {
		return fmt.Errorf("cache.key is required when caching is enabled")
	}
	if cache.Lifetime < 0 {
		return fmt.Errorf("cache.lifetime must not be negative")
	}
	return nil
}

// ValidateScan checks the extra scan patterns.
func ValidateScan(scan ScanConfig) error {
	if !scan.Enabled {
		return nil
	}
	for i, p := range scan.Paths {
		if strings.TrimSpace(p) == "" {
			return fmt.Errorf("scan.paths[%d]: path is empty", i)
		}
		if _, err := filepath.Match(p, ""); err != nil {
			return fmt.Errorf("scan.paths[%d] (%s): %w", i, p, err)
		}
	}
	return nil
}

// ValidateTracing checks tracing configuration for errors.
func ValidateTracing(tracing TracingConfig) error {
	if !tracing.Enabled {
		return nil
	}
	switch tracing.Exporter {
	case "", "none", "file", "stdout", "otlp":
	default:
		return fmt.Errorf("tracing.exporter must be one of none, file, stdout, otlp; got %q", tracing.Exporter)
	}
	if tracing.SampleRate < 0 || tracing.SampleRate > 1 {
		return fmt.Errorf("tracing.sample_rate must be between 0.0 and 1.0, got %v", tracing.SampleRate)
	}
	return nil
}

// DefaultConfigTemplate returns the default config as a YAML string with comments.
func DefaultConfigTemplate() string {
	return `# modhost configuration

paths:
  modules: modules                              # base directory scanned as modules/*
  assets: public/modules                        # published module assets
  used: storage/app/modules/modules.used        # currently used module (module:use)

# Cache module discovery. Only the directory scan is cached; manifests are
# always re-read from disk.
cache:
  enabled: false
  driver: memory                                # "memory" or "sqlite"
  key: modhost
  lifetime: 60m
  sliding: false                                # each hit restarts the lifetime
  path: storage/framework/cache/modules.db      # sqlite driver only

# Extra glob patterns searched for module.json files.
scan:
  enabled: false
  paths:
    - vendor/*/*

register:
  translations: true                            # load Resources/lang on boot

log:
  level: info
  format: text                                  # text or json

# tracing:
#   enabled: false
#   exporter: file                              # none, file, stdout, otlp
#   otlp_endpoint: localhost:4317
#   sample_rate: 1.0

# flags:
#   strict-hooks: true
`
}

// WriteDefaultConfig creates a config file with default settings.
// Creates parent directories if needed.
func WriteDefaultConfig(configPath string) error {
	dir := filepath.Dir(configPath)
	if err := os.MkdirAll(dir, 0750); err != nil {
		return fmt.Errorf("creating config directory: %w", err)
	}

	if err := os.WriteFile(configPath, []byte(DefaultConfigTemplate()), 0600); err != nil {
		return fmt.Errorf("writing config file: %w", err)
	}

	return nil
}
