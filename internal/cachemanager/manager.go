// Package cachemanager provides the cache store consumed by the module
// registry: a generic CacheManager interface, an in-memory implementation
// backed by go-cache, and a Remember helper with read-through semantics.
package cachemanager

import (
	"context"
	"time"
)

// CacheManager is the narrow cache-store surface. Implementations must be
// safe for concurrent use.
type CacheManager[K comparable, V any] interface {
	Get(ctx context.Context, key K) (V, bool)
	GetWithRefresh(ctx context.Context, key K, ttl time.Duration) (V, bool)
	Set(ctx context.Context, key K, value V, ttl time.Duration)
	Delete(ctx context.Context, keys ...K) error
	Flush(ctx context.Context) error
}
