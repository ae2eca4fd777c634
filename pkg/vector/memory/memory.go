// Package memory provides an in-process vector driver with exact cosine
// scoring. It is the reference implementation for query ordering semantics
// and the default index for tests and local development.
package memory

import (
	"context"
	"fmt"
	"math"
	"sort"
	"sync"

	"go.uber.org/zap"

	"github.com/atmoslabs/atmos/pkg/vector"
)

// Driver implements vector.Driver with an in-process map guarded by an
// RWMutex. Entries are replaced wholesale by id, so readers never observe a
// partially written entry.
type Driver struct {
	logger *zap.Logger

	mu      sync.RWMutex
	entries map[string]vector.Entry
}

// NewDriver creates an empty in-memory vector driver.
func NewDriver(logger *zap.Logger) *Driver {
	return &Driver{
		logger:  logger,
		entries: make(map[string]vector.Entry),
	}
}

// Add stores entries, replacing any existing entry with the same ID.
func (d *Driver) Add(_ context.Context, entries []vector.Entry) error {
	if len(entries) == 0 {
		return nil
	}

	d.mu.Lock()
	defer d.mu.Unlock()

	for _, e := range entries {
		stored := e
		stored.Embedding = make([]float32, len(e.Embedding))
		copy(stored.Embedding, e.Embedding)
		d.entries[e.ID] = stored
	}

	d.logger.Debug("added entries to memory index", zap.Int("count", len(entries)))
	return nil
}

// Query scores every entry by cosine similarity normalized onto [0,1] and
// returns the topK, ordered by descending score with ties broken by
// ascending chunk id.
func (d *Driver) Query(_ context.Context, embedding []float32, topK int) ([]vector.QueryResult, error) {
	if topK <= 0 {
		return nil, fmt.Errorf("%w: topK must be positive, got %d", vector.ErrInvalidArgument, topK)
	}

	d.mu.RLock()
	defer d.mu.RUnlock()

	results := make([]vector.QueryResult, 0, len(d.entries))
	for _, e := range d.entries {
		score, err := cosineScore(embedding, e.Embedding)
		if err != nil {
			return nil, fmt.Errorf("scoring entry %s: %w", e.ID, err)
		}
		results = append(results, vector.QueryResult{Entry: e, Score: score})
	}

	sort.Slice(results, func(i, j int) bool {
		if results[i].Score != results[j].Score {
			return results[i].Score > results[j].Score
		}
		return results[i].ID < results[j].ID
	})

	if len(results) > topK {
		results = results[:topK]
	}

	return results, nil
}

// Get retrieves entries by ID; unknown IDs are skipped.
func (d *Driver) Get(_ context.Context, ids []string) ([]vector.Entry, error) {
	d.mu.RLock()
	defer d.mu.RUnlock()

	entries := make([]vector.Entry, 0, len(ids))
	for _, id := range ids {
		if e, ok := d.entries[id]; ok {
			entries = append(entries, e)
		}
	}

	return entries, nil
}

// Delete removes entries by ID.
func (d *Driver) Delete(_ context.Context, ids []string) error {
	d.mu.Lock()
	defer d.mu.Unlock()

	for _, id := range ids {
		delete(d.entries, id)
	}

	return nil
}

// DeleteByDocument removes every entry belonging to the given document.
func (d *Driver) DeleteByDocument(_ context.Context, documentID string) error {
	d.mu.Lock()
	defer d.mu.Unlock()

	for id, e := range d.entries {
		if e.DocumentID == documentID {
			delete(d.entries, id)
		}
	}

	return nil
}

// Count returns the number of stored entries.
func (d *Driver) Count(_ context.Context) (int, error) {
	d.mu.RLock()
	defer d.mu.RUnlock()

	return len(d.entries), nil
}

// Close is a no-op for the in-memory driver.
func (d *Driver) Close() error {
	return nil
}

// cosineScore maps cosine similarity from [-1,1] onto [0,1]. A zero-length
// or zero-magnitude vector scores 0 against everything.
func cosineScore(a, b []float32) (float32, error) {
	if len(a) != len(b) {
		return 0, fmt.Errorf("%w: %d vs %d", vector.ErrDimensionMismatch, len(a), len(b))
	}

	var dot, normA, normB float64
	for i := range a {
		dot += float64(a[i]) * float64(b[i])
		normA += float64(a[i]) * float64(a[i])
		normB += float64(b[i]) * float64(b[i])
	}

	if normA == 0 || normB == 0 {
		return 0, nil
	}

	cos := dot / (math.Sqrt(normA) * math.Sqrt(normB))
	return float32((cos + 1) / 2), nil
}

var _ vector.Driver = (*Driver)(nil)
