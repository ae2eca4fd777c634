// Package ingest runs the document pipeline: chunk, embed, index, persist.
// The chunk store is the system of record; the vector index is a derived
// view this package keeps consistent with it.
package ingest

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/atmoslabs/atmos/pkg/document"
	"github.com/atmoslabs/atmos/pkg/embeddings"
	"github.com/atmoslabs/atmos/pkg/eventstream"
	"github.com/atmoslabs/atmos/pkg/storage"
	"github.com/atmoslabs/atmos/pkg/vector"
)

// Ingestor owns the chunk-embed-index pipeline for documents.
type Ingestor struct {
	chunker   *document.Chunker
	embedder  embeddings.Embedder
	index     vector.Driver
	store     storage.Driver
	publisher eventstream.Publisher
	logger    *zap.Logger
}

// NewIngestor wires an ingestor from its collaborators.
func NewIngestor(
	chunker *document.Chunker,
	embedder embeddings.Embedder,
	index vector.Driver,
	store storage.Driver,
	publisher eventstream.Publisher,
	logger *zap.Logger,
) *Ingestor {
	return &Ingestor{
		chunker:   chunker,
		embedder:  embedder,
		index:     index,
		store:     store,
		publisher: publisher,
		logger:    logger,
	}
}

// Ingest chunks, embeds, indexes, and persists one document. Re-ingesting an
// existing document replaces it entirely: stale index entries are dropped
// before the new chunk set lands, so the index never mixes generations.
func (i *Ingestor) Ingest(ctx context.Context, doc document.Document) ([]document.Chunk, error) {
	chunks, err := i.chunker.Split(doc)
	if err != nil {
		return nil, fmt.Errorf("chunking document %s: %w", doc.ID, err)
	}

	entries, err := i.embedChunks(ctx, chunks)
	if err != nil {
		return nil, err
	}

	// Replacement drops the previous generation from both stores before
	// writing the new one. PutChunks only upserts by id, so when the new
	// text yields fewer chunks the surplus old ones must be deleted
	// explicitly or they survive in the store and Reindex would resurrect
	// them. The store write happens last so a crash leaves a missing
	// index, repairable by Reindex, rather than orphaned entries.
	if err := i.index.DeleteByDocument(ctx, doc.ID); err != nil {
		return nil, fmt.Errorf("clearing stale index entries for %s: %w", doc.ID, err)
	}
	if err := i.index.Add(ctx, entries); err != nil {
		return nil, fmt.Errorf("indexing document %s: %w", doc.ID, err)
	}

	if err := i.store.DeleteDocument(ctx, doc.ID); err != nil {
		return nil, fmt.Errorf("clearing stale chunks for %s: %w", doc.ID, err)
	}
	if err := i.store.PutDocument(ctx, doc); err != nil {
		return nil, fmt.Errorf("storing document %s: %w", doc.ID, err)
	}
	if err := i.store.PutChunks(ctx, chunks); err != nil {
		return nil, fmt.Errorf("storing chunks for %s: %w", doc.ID, err)
	}

	i.logger.Info("document ingested",
		zap.String("document_id", doc.ID),
		zap.Int("chunks", len(chunks)),
	)

	i.publishIngested(ctx, doc, len(chunks), false)

	return chunks, nil
}

// Delete removes a document from the store and the index. Chunks never
// outlive their document.
func (i *Ingestor) Delete(ctx context.Context, documentID string) error {
	if err := i.store.DeleteDocument(ctx, documentID); err != nil {
		return fmt.Errorf("deleting document %s: %w", documentID, err)
	}
	if err := i.index.DeleteByDocument(ctx, documentID); err != nil {
		return fmt.Errorf("deindexing document %s: %w", documentID, err)
	}

	i.logger.Info("document deleted", zap.String("document_id", documentID))

	if err := i.publisher.PublishDocumentDeleted(ctx, &eventstream.DocumentDeletedEvent{
		SchemaVersion: eventstream.SchemaVersionV1,
		EventType:     eventstream.EventTypeDocumentDeleted,
		EventID:       uuid.NewString(),
		EmittedAt:     time.Now().UTC(),
		DocumentID:    documentID,
	}); err != nil {
		i.logger.Warn("publishing delete event failed", zap.Error(err))
	}

	return nil
}

// Reindex rebuilds one document's index entries from its stored chunks.
// Used when the index has drifted from the chunk store; the repair is
// scoped to the affected document, never a full rebuild.
func (i *Ingestor) Reindex(ctx context.Context, documentID string) error {
	doc, err := i.store.GetDocument(ctx, documentID)
	if err != nil {
		return fmt.Errorf("loading document %s: %w", documentID, err)
	}

	chunks, err := i.store.ChunksByDocument(ctx, documentID)
	if err != nil {
		return fmt.Errorf("loading chunks for %s: %w", documentID, err)
	}

	entries, err := i.embedChunks(ctx, chunks)
	if err != nil {
		return err
	}

	if err := i.index.DeleteByDocument(ctx, documentID); err != nil {
		return fmt.Errorf("clearing index entries for %s: %w", documentID, err)
	}
	if err := i.index.Add(ctx, entries); err != nil {
		return fmt.Errorf("reindexing document %s: %w", documentID, err)
	}

	i.logger.Info("document reindexed",
		zap.String("document_id", documentID),
		zap.Int("chunks", len(chunks)),
	)

	i.publishIngested(ctx, doc, len(chunks), true)

	return nil
}

func (i *Ingestor) embedChunks(ctx context.Context, chunks []document.Chunk) ([]vector.Entry, error) {
	entries := make([]vector.Entry, len(chunks))
	for idx, chunk := range chunks {
		embedding, err := i.embedder.Embed(ctx, chunk.Text)
		if err != nil {
			return nil, fmt.Errorf("embedding chunk %s: %w", chunk.ID, err)
		}

		entries[idx] = vector.Entry{
			ID:         chunk.ID,
			DocumentID: chunk.DocumentID,
			Embedding:  embedding,
		}
	}

	return entries, nil
}

func (i *Ingestor) publishIngested(ctx context.Context, doc document.Document, chunkCount int, reindexed bool) {
	if err := i.publisher.PublishDocumentIngested(ctx, &eventstream.DocumentIngestedEvent{
		SchemaVersion: eventstream.SchemaVersionV1,
		EventType:     eventstream.EventTypeDocumentIngested,
		EventID:       uuid.NewString(),
		EmittedAt:     time.Now().UTC(),
		DocumentID:    doc.ID,
		Source:        doc.Metadata.Source,
		ChunkCount:    chunkCount,
		Reindexed:     reindexed,
	}); err != nil {
		i.logger.Warn("publishing ingest event failed", zap.Error(err))
	}
}
