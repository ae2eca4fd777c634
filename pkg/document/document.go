// Package document defines the document and chunk types that flow through
// the ingestion pipeline, plus the chunker that splits raw text into
// overlapping, retrieval-sized passages.
package document

import (
	"time"
)

// Metadata carries provenance for an ingested document.
type Metadata struct {
	// Source identifies where the document came from (file path, URL,
	// dataset name).
	Source string `json:"source"`

	// Timestamp is when the document was produced or ingested.
	Timestamp time.Time `json:"timestamp"`

	// MimeType is the original content type before text extraction
	// (e.g. "text/plain", "application/pdf").
	MimeType string `json:"mime_type,omitempty"`
}

// Document is a unit of ingested raw text. Documents are immutable once
// stored; re-ingesting the same ID replaces the document and its chunks.
type Document struct {
	ID       string   `json:"id"`
	Text     string   `json:"text"`
	Metadata Metadata `json:"metadata"`
}

// Chunk is a bounded span of a document's text, the unit of retrieval.
// A chunk never outlives its document: deleting the document cascades to
// its chunks and their index entries.
type Chunk struct {
	ID         string `json:"id"`
	DocumentID string `json:"document_id"`
	Text       string `json:"text"`

	// Start and End are byte offsets into the parent document's text,
	// half-open [Start, End).
	Start int `json:"start"`
	End   int `json:"end"`

	// Embedding is the chunk's vector representation, set by the
	// ingestion pipeline after embedding. Fixed dimension per index.
	Embedding []float32 `json:"embedding,omitempty"`
}
