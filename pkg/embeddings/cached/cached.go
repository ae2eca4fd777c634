// Package cached wraps an Embedder with content-fingerprint memoization.
// Identical text embeds once; concurrent requests for the same text share
// the in-flight backend call.
package cached

import (
	"context"
	"time"

	"github.com/atmoslabs/atmos/pkg/cache"
	"github.com/atmoslabs/atmos/pkg/embeddings"
)

const (
	// DefaultSize bounds the number of memoized embeddings.
	DefaultSize = 4096

	// DefaultTTL is how long a memoized embedding stays valid. Embeddings
	// are deterministic, so the TTL mostly bounds memory, not staleness.
	DefaultTTL = 24 * time.Hour
)

// Embedder memoizes another Embedder by content fingerprint.
type Embedder struct {
	inner embeddings.Embedder
	cache *cache.Cache[[]float32]
}

// Config holds cache sizing for the cached embedder.
type Config struct {
	Size int
	TTL  time.Duration
}

// NewEmbedder wraps inner with a fingerprint cache.
func NewEmbedder(inner embeddings.Embedder, cfg Config) *Embedder {
	size := cfg.Size
	if size <= 0 {
		size = DefaultSize
	}

	ttl := cfg.TTL
	if ttl <= 0 {
		ttl = DefaultTTL
	}

	return &Embedder{
		inner: inner,
		cache: cache.New[[]float32](size, ttl),
	}
}

// Embed returns the memoized embedding for text, computing it through the
// wrapped embedder on a miss. Backend failures are never cached.
func (e *Embedder) Embed(ctx context.Context, text string) ([]float32, error) {
	key := cache.Fingerprint(text)
	return e.cache.GetOrCompute(key, func() ([]float32, error) {
		return e.inner.Embed(ctx, text)
	})
}

// Close releases the wrapped embedder.
func (e *Embedder) Close() error {
	return e.inner.Close()
}

var _ embeddings.Embedder = (*Embedder)(nil)
