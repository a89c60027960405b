package config

import (
	"time"

	"github.com/spf13/viper"
)

// Store is the read-only, dotted-key view of configuration consumed by the
// module registry and modules. *viper.Viper satisfies it.
type Store interface {
	GetString(key string) string
	GetBool(key string) bool
	GetStringSlice(key string) []string
	GetDuration(key string) time.Duration
	IsSet(key string) bool
}

var _ Store = (*viper.Viper)(nil)

// SetDefaults registers Defaults() on v so unset keys resolve to defaults.
func SetDefaults(v *viper.Viper) {
	d := Defaults()
	v.SetDefault(KeyModulesPath, d.Paths.Modules)
	v.SetDefault(KeyAssetsPath, d.Paths.Assets)
	v.SetDefault(KeyUsedPath, d.Paths.Used)
	v.SetDefault(KeyCacheEnabled, d.Cache.Enabled)
	v.SetDefault(KeyCacheDriver, d.Cache.Driver)
	v.SetDefault(KeyCacheKey, d.Cache.Key)
	v.SetDefault(KeyCacheLifetime, d.Cache.Lifetime)
	v.SetDefault(KeyCachePath, d.Cache.Path)
	v.SetDefault(KeyCacheSliding, d.Cache.Sliding)
	v.SetDefault(KeyScanEnabled, d.Scan.Enabled)
	v.SetDefault(KeyScanPaths, d.Scan.Paths)
	v.SetDefault(KeyRegisterTranslations, d.Register.Translations)
	v.SetDefault("tracing.enabled", d.Tracing.Enabled)
	v.SetDefault("tracing.exporter", d.Tracing.Exporter)
	v.SetDefault("tracing.otlp_endpoint", d.Tracing.OTLPEndpoint)
	v.SetDefault("tracing.sample_rate", d.Tracing.SampleRate)
	v.SetDefault("log.level", d.Log.Level)
	v.SetDefault("log.format", d.Log.Format)
}

// NewStore builds a Store holding exactly the values of c.
func NewStore(c Config) *viper.Viper {
	v := viper.New()
	v.Set(KeyModulesPath, c.Paths.Modules)
	v.Set(KeyAssetsPath, c.Paths.Assets)
	v.Set(KeyUsedPath, c.Paths.Used)
	v.Set(KeyCacheEnabled, c.Cache.Enabled)
	v.Set(KeyCacheDriver, c.Cache.Driver)
	v.Set(KeyCacheKey, c.Cache.Key)
	v.Set(KeyCacheLifetime, c.Cache.Lifetime)
	v.Set(KeyCachePath, c.Cache.Path)
	v.Set(KeyCacheSliding, c.Cache.Sliding)
	v.Set(KeyScanEnabled, c.Scan.Enabled)
	v.Set(KeyScanPaths, c.Scan.Paths)
	v.Set(KeyRegisterTranslations, c.Register.Translations)
	return v
}

// Load reads the config struct back out of v.
func Load(v *viper.Viper) (Config, error) {
	var c Config
	if err := v.Unmarshal(&c); err != nil {
		return Config{}, err
	}
	return c, nil
}
