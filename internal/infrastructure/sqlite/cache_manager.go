package sqlite

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/zjrosen/modhost/internal/cachemanager"
	"github.com/zjrosen/modhost/internal/log"
)

// CacheManager is a cachemanager.CacheManager persisted in cache_entries.
// Values are stored as JSON, so V must round-trip through encoding/json.
// Entries are partitioned by store name; Flush only clears its own store.
type CacheManager[K ~string, V any] struct {
	db         *DB
	store      string
	defaultTTL time.Duration
	now        func() time.Time
}

var _ cachemanager.CacheManager[string, []map[string]any] = (*CacheManager[string, []map[string]any])(nil)

// NewCacheManager returns a cache over db. A zero ttl passed to Set means
// defaultTTL; a zero defaultTTL means entries never expire.
func NewCacheManager[K ~string, V any](db *DB, store string, defaultTTL time.Duration) *CacheManager[K, V] {
	return &CacheManager[K, V]{
		db:         db,
		store:      store,
		defaultTTL: defaultTTL,
		now:        time.Now,
	}
}

func (c *CacheManager[K, V]) Get(ctx context.Context, key K) (V, bool) {
	var zero V

	var raw string
	var expiresAt int64
	err := c.db.conn.QueryRowContext(ctx,
		`SELECT value, expires_at FROM cache_entries WHERE store = ? AND key = ?`,
		c.store, string(key),
	).Scan(&raw, &expiresAt)
	if err != nil {
		return zero, false
	}

	if expiresAt > 0 && c.now().UnixMilli() >= expiresAt {
		_ = c.Delete(ctx, key)
		return zero, false
	}

	var v V
	if err := json.Unmarshal([]byte(raw), &v); err != nil {
		log.ErrorErr(log.CatCache, "undecodable cache entry", err, "store", c.store, "key", key)
		return zero, false
	}

	log.Debug(log.CatCache, "cache hit", "store", c.store, "key", key)
	return v, true
}

// GetWithRefresh returns the value and restarts its ttl.
func (c *CacheManager[K, V]) GetWithRefresh(ctx context.Context, key K, ttl time.Duration) (V, bool) {
	v, ok := c.Get(ctx, key)
	if ok {
		c.Set(ctx, key, v, ttl)
	}
	return v, ok
}

// Set stores value. Failures are logged; the cache is best effort.
func (c *CacheManager[K, V]) Set(ctx context.Context, key K, value V, ttl time.Duration) {
	raw, err := json.Marshal(value)
	if err != nil {
		log.ErrorErr(log.CatCache, "unencodable cache value", err, "store", c.store, "key", key)
		return
	}

	if ttl == 0 {
		ttl = c.defaultTTL
	}
	now := c.now()
	var expiresAt int64
	if ttl > 0 {
		expiresAt = now.Add(ttl).UnixMilli()
	}

	_, err = c.db.conn.ExecContext(ctx,
		`INSERT INTO cache_entries (store, key, value, expires_at, updated_at)
		 VALUES (?, ?, ?, ?, ?)
		 ON CONFLICT (store, key) DO UPDATE SET
		   value = excluded.value,
		   expires_at = excluded.expires_at,
		   updated_at = excluded.updated_at`,
		c.store, string(key), string(raw), expiresAt, now.UnixMilli(),
	)
	if err != nil {
		log.ErrorErr(log.CatCache, "cache write failed", err, "store", c.store, "key", key)
	}
}

func (c *CacheManager[K, V]) Delete(ctx context.Context, keys ...K) error {
	if len(keys) == 0 {
		return nil
	}
	args := make([]any, 0, len(keys)+1)
	args = append(args, c.store)
	for _, key := range keys {
		args = append(args, string(key))
	}
	placeholders := strings.TrimSuffix(strings.Repeat("?,", len(keys)), ",")

	query := fmt.Sprintf(`DELETE FROM cache_entries WHERE store = ? AND key IN (%s)`, placeholders) //nolint:gosec // placeholders only
	if _, err := c.db.conn.ExecContext(ctx, query, args...); err != nil {
		return fmt.Errorf("delete cache entries: %w", err)
	}
	return nil
}

func (c *CacheManager[K, V]) Flush(ctx context.Context) error {
	if _, err := c.db.conn.ExecContext(ctx, `DELETE FROM cache_entries WHERE store = ?`, c.store); err != nil {
		return fmt.Errorf("flush cache: %w", err)
	}
	log.Debug(log.CatCache, "cache flushed", "store", c.store)
	return nil
}
