package opregistry

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"
)

// SelectionCache is a best-effort presence cache for the qualifier-keyed
// Get shortcut (spec §4.5, §4.12): it records that a given qualifier was
// previously found in a named registry, letting a distributed deployment
// skip a round-trip before falling back to the real lookup. It is never
// consulted for correctness — a cache miss, a stale entry, or a cache
// outage all fall through to Registry.Get unchanged. Unlike a predicate-
// based Select, Get already names its target exactly, so a cache hit here
// can never shadow a higher-priority, differently-qualified match the way
// caching a Select result would.
type SelectionCache interface {
	// Get reports whether qualifier was previously confirmed present in
	// the registry named registryID, and whether that record has not
	// expired.
	Get(ctx context.Context, registryID, qualifier string) (found bool)
	// Set records that qualifier was just confirmed present in registryID,
	// valid for ttl.
	Set(ctx context.Context, registryID, qualifier string, ttl time.Duration)
}

// MemorySelectionCache is an in-process SelectionCache with per-entry
// TTL, grounded on runtime/registry/cache.go's MemoryCache.
type MemorySelectionCache struct {
	mu      sync.RWMutex
	entries map[string]time.Time
}

// NewMemorySelectionCache returns an empty in-process cache.
func NewMemorySelectionCache() *MemorySelectionCache {
	return &MemorySelectionCache{entries: make(map[string]time.Time)}
}

// Get implements SelectionCache.
func (c *MemorySelectionCache) Get(_ context.Context, registryID, qualifier string) bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	expiresAt, ok := c.entries[cacheKey(registryID, qualifier)]
	if !ok || time.Now().After(expiresAt) {
		return false
	}
	return true
}

// Set implements SelectionCache.
func (c *MemorySelectionCache) Set(_ context.Context, registryID, qualifier string, ttl time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries[cacheKey(registryID, qualifier)] = time.Now().Add(ttl)
}

// RedisSelectionCache is a SelectionCache backed by Redis, letting
// presence hints survive across gateway nodes in a distributed deployment
// (spec §4.12), grounded on registry/result_stream.go's Redis-backed
// cross-node lookup pattern. Any Redis error is treated as a cache miss —
// callers always have the local Registry.Get scan to fall back to.
type RedisSelectionCache struct {
	client    redis.UniversalClient
	keyPrefix string
}

// NewRedisSelectionCache wraps client. keyPrefix namespaces keys (e.g.
// "mediaflow:selection:") to avoid collisions with other Redis users.
func NewRedisSelectionCache(client redis.UniversalClient, keyPrefix string) *RedisSelectionCache {
	return &RedisSelectionCache{client: client, keyPrefix: keyPrefix}
}

// Get implements SelectionCache.
func (c *RedisSelectionCache) Get(ctx context.Context, registryID, qualifier string) bool {
	_, err := c.client.Get(ctx, c.redisKey(cacheKey(registryID, qualifier))).Result()
	return err == nil
}

// Set implements SelectionCache.
func (c *RedisSelectionCache) Set(ctx context.Context, registryID, qualifier string, ttl time.Duration) {
	c.client.Set(ctx, c.redisKey(cacheKey(registryID, qualifier)), "1", ttl)
}

func (c *RedisSelectionCache) redisKey(key string) string {
	return fmt.Sprintf("%s%s", c.keyPrefix, key)
}

func cacheKey(registryID, qualifier string) string {
	return registryID + ":" + qualifier
}
