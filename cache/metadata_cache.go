// Package cache holds the Redis-backed cache sitting in front of the
// out-of-scope metadata resolver, grounded on the teacher's cache/room_cache.go (struct wrapping the shared
// Redis client, JSON-marshaled values, pipelined TTL refresh).
package cache

import (
	"context"
	"encoding/json"
	"time"

	"oneradio/core/fetch"
	"oneradio/db"

	"github.com/go-redis/redis/v8"
)

const metadataKeyPrefix = "metadata:"
const metadataTTL = time.Hour

// MetadataCache caches resolved title/duration/thumbnail for a normalized
// track URL, so replaying a URL within the TTL window skips the external
// metadata round-trip. A cache miss or Redis outage is not fatal — callers
// always fall through to the resolver unchanged.
type MetadataCache struct {
	client *redis.Client
}

// NewMetadataCache builds a MetadataCache over the shared Redis client.
func NewMetadataCache() *MetadataCache {
	return &MetadataCache{client: db.RedisClient}
}

func metadataKey(url string) string {
	return metadataKeyPrefix + url
}

// Get returns the cached Metadata for url, or ok=false on a miss or error.
func (c *MetadataCache) Get(ctx context.Context, url string) (fetch.Metadata, bool) {
	if c.client == nil {
		return fetch.Metadata{}, false
	}

	data, err := c.client.Get(ctx, metadataKey(url)).Bytes()
	if err != nil {
		return fetch.Metadata{}, false
	}

	var m fetch.Metadata
	if err := json.Unmarshal(data, &m); err != nil {
		return fetch.Metadata{}, false
	}
	return m, true
}

// Set caches m for url with a one-hour TTL. Errors are swallowed; the cache
// is a pure optimization layer.
func (c *MetadataCache) Set(ctx context.Context, url string, m fetch.Metadata) {
	if c.client == nil {
		return
	}

	data, err := json.Marshal(m)
	if err != nil {
		return
	}
	c.client.Set(ctx, metadataKey(url), data, metadataTTL)
}
