// Package embeddings
package embeddings

import "context"

// Embedder provides text embedding capabilities.
//
// Embed must be deterministic for identical input so that embeddings can be
// memoized by content fingerprint. When the backend is unreachable the error
// wraps vector.ErrEmbedding and must propagate to the caller — substituting
// a zero vector would silently poison the index.
type Embedder interface {
	// Embed converts text into a vector embedding.
	Embed(ctx context.Context, text string) ([]float32, error)

	// Close releases any resources held by the embedder.
	Close() error
}
