// Package cache provides the shared TTL+capacity-bounded LRU response cache
// used by both the metadata and enrichment endpoints.
package cache

import (
	"sync"
	"time"

	lru "github.com/hashicorp/golang-lru/v2"
)

// Entry is a single cached value paired with its expiry and the model
// version it was produced under. A stored entry whose ModelVersion differs
// from the cache's current version is rewritten in place on next retrieval
// rather than treated as a miss.
type Entry[V any] struct {
	Value        V
	ExpiresAt    time.Time
	ModelVersion string
}

// Cache is a keyed, move-to-front LRU with a shared TTL and a model-version
// tag. It is safe for concurrent use; individual Get/Set calls are atomic,
// but two concurrent misses on the same key may both compute and the last
// Set wins; in-flight misses are not de-duplicated.
type Cache[V any] struct {
	mu           sync.Mutex
	inner        *lru.Cache[string, Entry[V]]
	ttl          time.Duration
	modelVersion string
}

// New builds a cache bounded to capacity entries, each living for ttl after
// insertion, tagged with modelVersion. Entries tagged with an older version
// are rewritten under the new version when next accessed rather than purged
// eagerly.
func New[V any](capacity int, ttl time.Duration, modelVersion string) (*Cache[V], error) {
	inner, err := lru.New[string, Entry[V]](capacity)
	if err != nil {
		return nil, err
	}
	return &Cache[V]{inner: inner, ttl: ttl, modelVersion: modelVersion}, nil
}

// Get returns the cached value for key if present and unexpired. Expired
// entries are removed and reported as a miss. An entry stored under a
// stale model version is refreshed with the cache's current version (same
// value, new expiry and version tag) before being returned.
func (c *Cache[V]) Get(key string) (V, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	var zero V
	entry, ok := c.inner.Get(key)
	if !ok {
		return zero, false
	}
	if !time.Now().Before(entry.ExpiresAt) {
		c.inner.Remove(key)
		return zero, false
	}
	if entry.ModelVersion != c.modelVersion {
		entry.ModelVersion = c.modelVersion
		entry.ExpiresAt = time.Now().Add(c.ttl)
		c.inner.Add(key, entry)
	}
	return entry.Value, true
}

// Set inserts or replaces value under key, resetting its TTL and tagging it
// with the cache's current model version. If the cache is at capacity, the
// least-recently-used entry is evicted by the underlying LRU.
func (c *Cache[V]) Set(key string, value V) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.inner.Add(key, Entry[V]{
		Value:        value,
		ExpiresAt:    time.Now().Add(c.ttl),
		ModelVersion: c.modelVersion,
	})
}

// Len reports the number of entries currently held, including any not yet
// lazily evicted for having expired.
func (c *Cache[V]) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.inner.Len()
}

// Purge removes every entry. Nothing in the service or its tests calls it.
func (c *Cache[V]) Purge() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.inner.Purge()
}

// MetadataKey builds the semantic cache key for a bare NVD metadata lookup.
func MetadataKey(cveID string) string {
	return "cve:" + cveID
}

// EnrichKey builds the semantic cache key for a full SecScore response.
func EnrichKey(cveID string) string {
	return "enrich:" + cveID
}
