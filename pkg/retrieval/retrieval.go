// Package retrieval ranks indexed passages against a query. It embeds the
// query, searches the vector index, applies the minimum-score floor, and
// hydrates the surviving matches with chunk text from the document store.
package retrieval

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/atmoslabs/atmos/pkg/cache"
	"github.com/atmoslabs/atmos/pkg/document"
	"github.com/atmoslabs/atmos/pkg/embeddings"
	"github.com/atmoslabs/atmos/pkg/storage"
	"github.com/atmoslabs/atmos/pkg/vector"
)

const (
	// DefaultTopK is the number of passages retrieved when the caller
	// does not say otherwise.
	DefaultTopK = 5

	// DefaultMinScore keeps every ranked result.
	DefaultMinScore = 0.0

	// DefaultCacheSize bounds the retrieval result cache.
	DefaultCacheSize = 1024

	// DefaultCacheTTL keeps retrieval results fresh enough for an
	// interactive session without re-embedding every repeated query.
	DefaultCacheTTL = 5 * time.Minute
)

// Match is one retrieved passage with its relevance score.
type Match struct {
	Chunk document.Chunk
	Score float32
}

// Config tunes retrieval behavior.
type Config struct {
	// TopK is the default result count for Retrieve calls with k <= 0
	// left to the caller's entrypoint; Retrieve itself rejects k <= 0.
	TopK int

	// MinScore filters matches scoring below the floor. The floor is
	// applied after ranking so ordering semantics are preserved.
	MinScore float32
}

// Reindexer repairs one document's index entries from its stored chunks.
// Satisfied by ingest.Ingestor.
type Reindexer interface {
	Reindex(ctx context.Context, documentID string) error
}

// Retriever answers "which passages are relevant to this query".
type Retriever struct {
	embedder  embeddings.Embedder
	index     vector.Driver
	store     storage.Driver
	config    Config
	cache     *cache.Cache[[]Match]
	reindexer Reindexer
	logger    *zap.Logger
}

// NewRetriever wires a retriever from its collaborators.
func NewRetriever(embedder embeddings.Embedder, index vector.Driver, store storage.Driver, config Config, logger *zap.Logger) *Retriever {
	if config.TopK <= 0 {
		config.TopK = DefaultTopK
	}

	return &Retriever{
		embedder: embedder,
		index:    index,
		store:    store,
		config:   config,
		cache:    cache.New[[]Match](DefaultCacheSize, DefaultCacheTTL),
		logger:   logger,
	}
}

// SetReindexer enables self-healing when retrieval finds index entries with
// no backing chunk. Without one, drifted entries are skipped and logged.
func (r *Retriever) SetReindexer(reindexer Reindexer) {
	r.reindexer = reindexer
}

// Retrieve returns up to k passages relevant to the query, ordered by
// descending score with ties broken by ascending chunk id. An empty index
// yields an empty result, never an error. k <= 0 fails with
// ErrInvalidArgument.
func (r *Retriever) Retrieve(ctx context.Context, query string, k int) ([]Match, error) {
	if k <= 0 {
		return nil, fmt.Errorf("%w: k must be positive, got %d", vector.ErrInvalidArgument, k)
	}

	key := fmt.Sprintf("%s:%d", cache.QueryFingerprint(query), k)
	return r.cache.GetOrCompute(key, func() ([]Match, error) {
		return r.retrieve(ctx, query, k)
	})
}

func (r *Retriever) retrieve(ctx context.Context, query string, k int) ([]Match, error) {
	count, err := r.index.Count(ctx)
	if err != nil {
		return nil, fmt.Errorf("counting index entries: %w", err)
	}
	if count == 0 {
		r.logger.Debug("retrieval against empty index", zap.String("query", query))
		return []Match{}, nil
	}

	embedding, err := r.embedder.Embed(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("embedding query: %w", err)
	}

	results, err := r.index.Query(ctx, embedding, k)
	if err != nil {
		return nil, fmt.Errorf("searching index: %w", err)
	}

	// Floor filtering happens after ranking, so the caller sees a prefix
	// of the ranked list rather than a reshuffled one.
	kept := make([]vector.QueryResult, 0, len(results))
	for _, result := range results {
		if result.Score >= r.config.MinScore {
			kept = append(kept, result)
		}
	}

	ids := make([]string, len(kept))
	for i, result := range kept {
		ids[i] = result.ID
	}

	chunks, err := r.store.GetChunks(ctx, ids)
	if err != nil {
		return nil, fmt.Errorf("hydrating chunks: %w", err)
	}

	byID := make(map[string]document.Chunk, len(chunks))
	for _, chunk := range chunks {
		byID[chunk.ID] = chunk
	}

	matches := make([]Match, 0, len(kept))
	for _, result := range kept {
		chunk, ok := byID[result.ID]
		if !ok {
			// Index entry without a chunk means the derived view has
			// drifted from the store. Skip it for this query and repair
			// just the affected document.
			r.logger.Warn("index entry missing from chunk store",
				zap.String("chunk_id", result.ID),
				zap.String("document_id", result.DocumentID),
				zap.Error(vector.ErrIndexCorruption),
			)
			r.repairDocument(ctx, result.DocumentID)
			continue
		}
		matches = append(matches, Match{Chunk: chunk, Score: result.Score})
	}

	r.logger.Debug("retrieval complete",
		zap.String("query", query),
		zap.Int("matches", len(matches)),
	)

	return matches, nil
}

func (r *Retriever) repairDocument(ctx context.Context, documentID string) {
	if r.reindexer == nil {
		return
	}
	if err := r.reindexer.Reindex(ctx, documentID); err != nil {
		r.logger.Warn("reindexing drifted document failed",
			zap.String("document_id", documentID),
			zap.Error(err),
		)
	}
}
