// Package embeddingutils is the embeddings utility package
package embeddingutils

import (
	"fmt"

	"github.com/atmoslabs/atmos/pkg/embeddings"
	"github.com/atmoslabs/atmos/pkg/embeddings/cached"
	"github.com/atmoslabs/atmos/pkg/embeddings/ollama"
)

type NewEmbedderOpts struct {
	ProviderType string
	TargetURL    string
	Model        string
}

// NewEmbedder builds an embedder for the configured provider, wrapped in
// the content-fingerprint cache.
func NewEmbedder(o *NewEmbedderOpts) (embeddings.Embedder, error) {
	var inner embeddings.Embedder

	switch o.ProviderType {
	case "ollama":
		e, err := ollama.NewEmbedder(ollama.EmbedderConfig{
			BaseURL: o.TargetURL,
			Model:   o.Model,
		})
		if err != nil {
			return nil, err
		}
		inner = e
	default:
		return nil, fmt.Errorf("unsupported embedding provider: %s", o.ProviderType)
	}

	return cached.NewEmbedder(inner, cached.Config{}), nil
}
