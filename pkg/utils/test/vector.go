package testutils

import (
	"context"
	"sort"

	"github.com/atmoslabs/atmos/pkg/vector"
)

// MockVectorDriver is a test vector driver that records calls and returns
// configurable results.
type MockVectorDriver struct {
	// AddedEntries accumulates all entries passed to Add.
	AddedEntries []vector.Entry

	// QueryResults is returned by Query for any embedding.
	QueryResults []vector.QueryResult

	// DeletedIDs accumulates all ids passed to Delete.
	DeletedIDs []string

	// DeletedDocuments accumulates document ids passed to DeleteByDocument.
	DeletedDocuments []string

	// FailAdd causes Add to return an error.
	FailAdd bool

	// FailQuery causes Query to return an error.
	FailQuery bool
}

// NewMockVectorDriver creates a new mock vector driver.
func NewMockVectorDriver() *MockVectorDriver {
	return &MockVectorDriver{}
}

func (m *MockVectorDriver) Add(_ context.Context, entries []vector.Entry) error {
	if m.FailAdd {
		return vector.ErrConnection
	}
	m.AddedEntries = append(m.AddedEntries, entries...)
	return nil
}

func (m *MockVectorDriver) Query(_ context.Context, _ []float32, topK int) ([]vector.QueryResult, error) {
	if m.FailQuery {
		return nil, vector.ErrConnection
	}
	if topK <= 0 {
		return nil, vector.ErrInvalidArgument
	}

	results := make([]vector.QueryResult, len(m.QueryResults))
	copy(results, m.QueryResults)
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

func (m *MockVectorDriver) Get(_ context.Context, ids []string) ([]vector.Entry, error) {
	byID := make(map[string]vector.Entry, len(m.AddedEntries))
	for _, entry := range m.AddedEntries {
		byID[entry.ID] = entry
	}

	var entries []vector.Entry
	for _, id := range ids {
		if entry, ok := byID[id]; ok {
			entries = append(entries, entry)
		}
	}
	return entries, nil
}

func (m *MockVectorDriver) Delete(_ context.Context, ids []string) error {
	m.DeletedIDs = append(m.DeletedIDs, ids...)
	return nil
}

func (m *MockVectorDriver) DeleteByDocument(_ context.Context, documentID string) error {
	m.DeletedDocuments = append(m.DeletedDocuments, documentID)
	return nil
}

func (m *MockVectorDriver) Count(_ context.Context) (int, error) {
	return len(m.AddedEntries) + len(m.QueryResults), nil
}

func (m *MockVectorDriver) Close() error {
	return nil
}

var _ vector.Driver = (*MockVectorDriver)(nil)
