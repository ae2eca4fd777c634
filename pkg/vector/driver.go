// Package vector provides interfaces and implementations for vector storage
// and nearest-neighbor retrieval over chunk embeddings.
package vector

import "context"

// Entry represents a stored chunk embedding.
type Entry struct {
	// ID is the chunk id this entry indexes.
	ID string

	// DocumentID is the parent document, used for cascade deletes and
	// per-document re-indexing.
	DocumentID string

	// Embedding is the vector representation of the chunk text.
	Embedding []float32
}

// QueryResult represents a search result with a normalized similarity score.
type QueryResult struct {
	Entry

	// Score is cosine similarity mapped onto [0,1]; higher is more similar.
	Score float32
}

// Driver handles storage and retrieval of chunk embeddings.
//
// Implementations must replace entries atomically by id: concurrent readers
// never observe a half-written entry. Query results are ordered by
// descending score; equal scores are ordered by ascending chunk id so that
// result ordering is deterministic across drivers.
type Driver interface {
	// Add stores entries with their embeddings. Adding an entry whose ID
	// already exists replaces it; repeated calls with the same entry are
	// idempotent.
	Add(ctx context.Context, entries []Entry) error

	// Query finds the topK most similar entries to the given embedding.
	// topK <= 0 is a caller mistake and fails with ErrInvalidArgument.
	// An empty index yields an empty result, not an error.
	Query(ctx context.Context, embedding []float32, topK int) ([]QueryResult, error)

	// Get retrieves entries by their IDs. Missing IDs are skipped.
	Get(ctx context.Context, ids []string) ([]Entry, error)

	// Delete removes entries by their IDs.
	Delete(ctx context.Context, ids []string) error

	// DeleteByDocument removes every entry belonging to a document.
	DeleteByDocument(ctx context.Context, documentID string) error

	// Count returns the number of entries in the index.
	Count(ctx context.Context) (int, error)

	// Close releases any resources held by the driver.
	Close() error
}
