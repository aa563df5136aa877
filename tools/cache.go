package tools

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"time"

	"github.com/redis/go-redis/v9"
)

const defaultCacheTTL = 15 * time.Minute

// Cache stores tool results in Redis, keyed by tool name and argument hash.
// Search APIs are metered; repeated identical queries within the TTL are
// served from here instead.
type Cache struct {
	rdb *redis.Client
	ttl time.Duration
}

// NewCache creates a cache backed by the Redis instance at addr.
func NewCache(addr string, ttl time.Duration) *Cache {
	if ttl <= 0 {
		ttl = defaultCacheTTL
	}
	return &Cache{
		rdb: redis.NewClient(&redis.Options{Addr: addr}),
		ttl: ttl,
	}
}

// Ping checks the Redis connection.
func (c *Cache) Ping(ctx context.Context) error {
	return c.rdb.Ping(ctx).Err()
}

// Close releases the Redis client.
func (c *Cache) Close() error {
	return c.rdb.Close()
}

// Get returns the cached result for a tool call, if present.
func (c *Cache) Get(ctx context.Context, name, args string) (string, bool) {
	val, err := c.rdb.Get(ctx, cacheKey(name, args)).Result()
	if err != nil {
		return "", false
	}
	return val, true
}

// Set stores a tool result. Failures are ignored; the cache is best-effort.
func (c *Cache) Set(ctx context.Context, name, args, result string) {
	c.rdb.Set(ctx, cacheKey(name, args), result, c.ttl)
}

func cacheKey(name, args string) string {
	sum := sha256.Sum256([]byte(args))
	return "toolcache:" + name + ":" + hex.EncodeToString(sum[:])
}
