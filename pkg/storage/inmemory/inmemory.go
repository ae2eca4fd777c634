// Package inmemory provides a map-backed storage driver for tests and
// local development.
package inmemory

import (
	"context"
	"sort"
	"sync"

	"github.com/atmoslabs/atmos/pkg/document"
	"github.com/atmoslabs/atmos/pkg/storage"
)

// Driver implements storage.Driver with in-process maps.
type Driver struct {
	mu        sync.RWMutex
	documents map[string]document.Document
	chunks    map[string]document.Chunk
}

// NewDriver creates an empty in-memory store.
func NewDriver() *Driver {
	return &Driver{
		documents: make(map[string]document.Document),
		chunks:    make(map[string]document.Chunk),
	}
}

// PutDocument stores a document, replacing any existing one with the same ID.
func (d *Driver) PutDocument(_ context.Context, doc document.Document) error {
	d.mu.Lock()
	defer d.mu.Unlock()

	d.documents[doc.ID] = doc
	return nil
}

// GetDocument retrieves a document by ID.
func (d *Driver) GetDocument(_ context.Context, id string) (document.Document, error) {
	d.mu.RLock()
	defer d.mu.RUnlock()

	doc, ok := d.documents[id]
	if !ok {
		return document.Document{}, storage.ErrNotFound{ID: id}
	}

	return doc, nil
}

// DeleteDocument removes a document and cascades to its chunks.
func (d *Driver) DeleteDocument(_ context.Context, id string) error {
	d.mu.Lock()
	defer d.mu.Unlock()

	delete(d.documents, id)
	for chunkID, chunk := range d.chunks {
		if chunk.DocumentID == id {
			delete(d.chunks, chunkID)
		}
	}

	return nil
}

// ListDocuments returns all documents ordered by ID.
func (d *Driver) ListDocuments(_ context.Context) ([]document.Document, error) {
	d.mu.RLock()
	defer d.mu.RUnlock()

	docs := make([]document.Document, 0, len(d.documents))
	for _, doc := range d.documents {
		docs = append(docs, doc)
	}

	sort.Slice(docs, func(i, j int) bool { return docs[i].ID < docs[j].ID })
	return docs, nil
}

// PutChunks stores chunks, replacing any with matching IDs.
func (d *Driver) PutChunks(_ context.Context, chunks []document.Chunk) error {
	d.mu.Lock()
	defer d.mu.Unlock()

	for _, chunk := range chunks {
		d.chunks[chunk.ID] = chunk
	}

	return nil
}

// GetChunk retrieves one chunk by ID.
func (d *Driver) GetChunk(_ context.Context, id string) (document.Chunk, error) {
	d.mu.RLock()
	defer d.mu.RUnlock()

	chunk, ok := d.chunks[id]
	if !ok {
		return document.Chunk{}, storage.ErrNotFound{ID: id}
	}

	return chunk, nil
}

// GetChunks retrieves chunks by ID, skipping missing IDs.
func (d *Driver) GetChunks(_ context.Context, ids []string) ([]document.Chunk, error) {
	d.mu.RLock()
	defer d.mu.RUnlock()

	chunks := make([]document.Chunk, 0, len(ids))
	for _, id := range ids {
		if chunk, ok := d.chunks[id]; ok {
			chunks = append(chunks, chunk)
		}
	}

	return chunks, nil
}

// ChunksByDocument returns a document's chunks ordered by start offset.
func (d *Driver) ChunksByDocument(_ context.Context, documentID string) ([]document.Chunk, error) {
	d.mu.RLock()
	defer d.mu.RUnlock()

	var chunks []document.Chunk
	for _, chunk := range d.chunks {
		if chunk.DocumentID == documentID {
			chunks = append(chunks, chunk)
		}
	}

	sort.Slice(chunks, func(i, j int) bool { return chunks[i].Start < chunks[j].Start })
	return chunks, nil
}

// Close is a no-op for the in-memory driver.
func (d *Driver) Close() error {
	return nil
}

var _ storage.Driver = (*Driver)(nil)
