package cachemanager

import (
	"context"
	"time"

	"github.com/zjrosen/modhost/internal/log"
)

// Rememberer returns cached values, computing and storing them on a miss.
// When disabled every call runs the generator and nothing is stored.
type Rememberer[K comparable, V any] struct {
	cache   CacheManager[K, V]
	enabled bool
	sliding bool
}

// NewRememberer wraps cache. enabled=false bypasses the cache entirely.
func NewRememberer[K comparable, V any](cache CacheManager[K, V], enabled bool) *Rememberer[K, V] {
	return &Rememberer[K, V]{
		cache:   cache,
		enabled: enabled && cache != nil,
	}
}

// Sliding makes every hit restart the entry's ttl.
func (r *Rememberer[K, V]) Sliding(on bool) *Rememberer[K, V] {
	r.sliding = on
	return r
}

// Enabled reports whether values are read from and written to the cache.
func (r *Rememberer[K, V]) Enabled() bool {
	return r.enabled
}

// Remember returns the value stored under key, or runs fn and stores its
// result for ttl. Errors from fn are returned and nothing is stored.
func (r *Rememberer[K, V]) Remember(ctx context.Context, key K, ttl time.Duration, fn func(ctx context.Context) (V, error)) (V, error) {
	if !r.enabled {
		return fn(ctx)
	}

	if value, ok := r.lookup(ctx, key, ttl); ok {
		return value, nil
	}

	value, err := fn(ctx)
	if err != nil {
		return value, err
	}

	log.Debug(log.CatCache, "remembered value", "key", key, "ttl", ttl)
	r.cache.Set(ctx, key, value, ttl)

	return value, nil
}

func (r *Rememberer[K, V]) lookup(ctx context.Context, key K, ttl time.Duration) (V, bool) {
	if r.sliding {
		return r.cache.GetWithRefresh(ctx, key, ttl)
	}
	return r.cache.Get(ctx, key)
}

// Forget drops key from the cache.
func (r *Rememberer[K, V]) Forget(ctx context.Context, key K) error {
	if r.cache == nil {
		return nil
	}
	return r.cache.Delete(ctx, key)
}

// Flush empties the whole cache store, not just the remembered keys.
func (r *Rememberer[K, V]) Flush(ctx context.Context) error {
	if r.cache == nil {
		return nil
	}
	return r.cache.Flush(ctx)
}
