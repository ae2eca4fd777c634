// Package storage
package storage

import (
	"context"

	"github.com/atmoslabs/atmos/pkg/document"
)

// Driver defines the interface for persisting documents and their chunks.
// The chunk store is the system of record; the vector index holds a derived
// view that is reconciled against it. Chunks never outlive their document:
// DeleteDocument cascades to the document's chunks.
type Driver interface {
	// PutDocument stores a document. Storing an existing ID replaces the
	// document; the caller is responsible for re-chunking.
	PutDocument(ctx context.Context, doc document.Document) error

	// GetDocument retrieves a document by ID. Returns ErrNotFound when
	// the document does not exist.
	GetDocument(ctx context.Context, id string) (document.Document, error)

	// DeleteDocument removes a document and all of its chunks.
	DeleteDocument(ctx context.Context, id string) error

	// ListDocuments returns all stored documents, ordered by ID.
	ListDocuments(ctx context.Context) ([]document.Document, error)

	// PutChunks stores chunks, replacing any with matching IDs.
	PutChunks(ctx context.Context, chunks []document.Chunk) error

	// GetChunk retrieves one chunk by ID. Returns ErrNotFound when the
	// chunk does not exist.
	GetChunk(ctx context.Context, id string) (document.Chunk, error)

	// GetChunks retrieves chunks by ID, skipping missing IDs and
	// preserving the requested order for those found.
	GetChunks(ctx context.Context, ids []string) ([]document.Chunk, error)

	// ChunksByDocument returns a document's chunks ordered by start offset.
	ChunksByDocument(ctx context.Context, documentID string) ([]document.Chunk, error)

	// Close closes the store and releases any resources.
	Close() error
}
