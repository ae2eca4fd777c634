package eventstream

import (
	"time"

	"github.com/atmoslabs/atmos/pkg/signals"
)

const (
	// SchemaVersionV1 is the first version of the event payload schema.
	SchemaVersionV1 = 1

	// EventTypeDocumentIngested is emitted after a document is chunked,
	// embedded, and indexed.
	EventTypeDocumentIngested = "atmos.document.ingested"

	// EventTypeDocumentDeleted is emitted after a document and its chunks
	// are removed from the store and index.
	EventTypeDocumentDeleted = "atmos.document.deleted"

	// EventTypeAnswerComposed is emitted after an answer record is built.
	EventTypeAnswerComposed = "atmos.answer.composed"
)

// DocumentIngestedEvent is a transport-neutral event payload for an ingested
// document.
type DocumentIngestedEvent struct {
	SchemaVersion int       `json:"schema_version"`
	EventType     string    `json:"event_type"`
	EventID       string    `json:"event_id"`
	EmittedAt     time.Time `json:"emitted_at"`
	DocumentID    string    `json:"document_id"`
	Source        string    `json:"source,omitempty"`
	ChunkCount    int       `json:"chunk_count"`
	Reindexed     bool      `json:"reindexed,omitempty"`
}

// DocumentDeletedEvent is a transport-neutral event payload for a deleted
// document.
type DocumentDeletedEvent struct {
	SchemaVersion int       `json:"schema_version"`
	EventType     string    `json:"event_type"`
	EventID       string    `json:"event_id"`
	EmittedAt     time.Time `json:"emitted_at"`
	DocumentID    string    `json:"document_id"`
}

// AnswerComposedEvent is a transport-neutral event payload for a composed
// answer.
type AnswerComposedEvent struct {
	SchemaVersion  int             `json:"schema_version"`
	EventType      string          `json:"event_type"`
	EventID        string          `json:"event_id"`
	EmittedAt      time.Time       `json:"emitted_at"`
	Query          string          `json:"query"`
	OverallQuality signals.Quality `json:"overall_quality"`
	Backend        string          `json:"backend,omitempty"`
	SourceCount    int             `json:"source_count"`
	DurationMs     int64           `json:"duration_ms"`
}
