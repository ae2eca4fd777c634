// Package cache provides fingerprint-keyed memoization with TTL expiry and
// single-flight computation. It bounds latency and provider load for
// embeddings, retrieval results, and external signal bundles.
package cache

import (
	"crypto/sha256"
	"encoding/hex"
	"strings"
	"time"

	"github.com/hashicorp/golang-lru/v2/expirable"
	"golang.org/x/sync/singleflight"
)

// Fingerprint returns the hex sha256 digest of content. Used to key
// embeddings by chunk text.
func Fingerprint(content string) string {
	sum := sha256.Sum256([]byte(content))
	return hex.EncodeToString(sum[:])
}

// QueryFingerprint normalizes a query (lowercased, whitespace collapsed)
// before hashing, so trivially different spellings of the same question
// share retrieval and signal cache entries.
func QueryFingerprint(query string) string {
	return Fingerprint(strings.Join(strings.Fields(strings.ToLower(query)), " "))
}

// Cache memoizes values by fingerprint. Expired entries are treated as
// absent; concurrent callers for the same key share one computation.
type Cache[V any] struct {
	lru   *expirable.LRU[string, V]
	group singleflight.Group
}

// New creates a cache holding up to size entries for at most ttl each.
// size <= 0 means unbounded; entries still expire by ttl.
func New[V any](size int, ttl time.Duration) *Cache[V] {
	return &Cache[V]{
		lru: expirable.NewLRU[string, V](size, nil, ttl),
	}
}

// Get returns the cached value for key, if present and unexpired.
func (c *Cache[V]) Get(key string) (V, bool) {
	return c.lru.Get(key)
}

// Add stores a value under key.
func (c *Cache[V]) Add(key string, value V) {
	c.lru.Add(key, value)
}

// Remove drops a key.
func (c *Cache[V]) Remove(key string) {
	c.lru.Remove(key)
}

// Len returns the number of live entries.
func (c *Cache[V]) Len() int {
	return c.lru.Len()
}

// GetOrCompute returns the cached value for key, computing and storing it on
// a miss. Duplicate concurrent calls for the same key wait on the in-flight
// computation instead of recomputing. Failed computations are not cached, so
// the next caller retries.
func (c *Cache[V]) GetOrCompute(key string, compute func() (V, error)) (V, error) {
	if v, ok := c.lru.Get(key); ok {
		return v, nil
	}

	v, err, _ := c.group.Do(key, func() (any, error) {
		// A racing caller may have populated the entry while this one
		// waited on the flight group.
		if v, ok := c.lru.Get(key); ok {
			return v, nil
		}

		value, err := compute()
		if err != nil {
			return nil, err
		}

		c.lru.Add(key, value)
		return value, nil
	})
	if err != nil {
		var zero V
		return zero, err
	}

	return v.(V), nil
}
