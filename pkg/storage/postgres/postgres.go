// Package postgres provides a PostgreSQL-backed storage driver for documents
// and chunks, built on pgx connection pooling.
package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/atmoslabs/atmos/pkg/document"
	"github.com/atmoslabs/atmos/pkg/storage"
)

// Driver implements storage.Driver using PostgreSQL.
type Driver struct {
	pool *pgxpool.Pool
}

// NewDriver connects to PostgreSQL and ensures the schema exists.
// The connString uses the standard postgres:// URL form.
func NewDriver(ctx context.Context, connString string) (*Driver, error) {
	pool, err := pgxpool.New(ctx, connString)
	if err != nil {
		return nil, fmt.Errorf("connecting to postgres: %w", err)
	}

	schema := `
		CREATE TABLE IF NOT EXISTS documents (
			id TEXT PRIMARY KEY,
			text TEXT NOT NULL,
			source TEXT NOT NULL DEFAULT '',
			mime_type TEXT NOT NULL DEFAULT '',
			created_at TIMESTAMPTZ NOT NULL
		);
		CREATE TABLE IF NOT EXISTS chunks (
			id TEXT PRIMARY KEY,
			document_id TEXT NOT NULL REFERENCES documents(id) ON DELETE CASCADE,
			text TEXT NOT NULL,
			start_offset BIGINT NOT NULL,
			end_offset BIGINT NOT NULL
		);
		CREATE INDEX IF NOT EXISTS idx_chunks_document ON chunks(document_id);
	`
	if _, err := pool.Exec(ctx, schema); err != nil {
		pool.Close()
		return nil, fmt.Errorf("creating schema: %w", err)
	}

	return &Driver{pool: pool}, nil
}

// PutDocument stores a document, replacing any existing one with the same ID.
func (d *Driver) PutDocument(ctx context.Context, doc document.Document) error {
	_, err := d.pool.Exec(ctx, `
		INSERT INTO documents (id, text, source, mime_type, created_at)
		VALUES ($1, $2, $3, $4, $5)
		ON CONFLICT (id) DO UPDATE SET
			text = EXCLUDED.text,
			source = EXCLUDED.source,
			mime_type = EXCLUDED.mime_type,
			created_at = EXCLUDED.created_at
	`, doc.ID, doc.Text, doc.Metadata.Source, doc.Metadata.MimeType, doc.Metadata.Timestamp.UTC())
	if err != nil {
		return fmt.Errorf("storing document %s: %w", doc.ID, err)
	}

	return nil
}

// GetDocument retrieves a document by ID.
func (d *Driver) GetDocument(ctx context.Context, id string) (document.Document, error) {
	var doc document.Document
	var ts time.Time

	err := d.pool.QueryRow(ctx, `
		SELECT id, text, source, mime_type, created_at FROM documents WHERE id = $1
	`, id).Scan(&doc.ID, &doc.Text, &doc.Metadata.Source, &doc.Metadata.MimeType, &ts)
	if errors.Is(err, pgx.ErrNoRows) {
		return document.Document{}, storage.ErrNotFound{ID: id}
	}
	if err != nil {
		return document.Document{}, fmt.Errorf("loading document %s: %w", id, err)
	}

	doc.Metadata.Timestamp = ts
	return doc, nil
}

// DeleteDocument removes a document; chunks cascade via the foreign key.
func (d *Driver) DeleteDocument(ctx context.Context, id string) error {
	if _, err := d.pool.Exec(ctx,
		`DELETE FROM documents WHERE id = $1`, id,
	); err != nil {
		return fmt.Errorf("deleting document %s: %w", id, err)
	}

	return nil
}

// ListDocuments returns all documents ordered by ID.
func (d *Driver) ListDocuments(ctx context.Context) ([]document.Document, error) {
	rows, err := d.pool.Query(ctx, `
		SELECT id, text, source, mime_type, created_at FROM documents ORDER BY id
	`)
	if err != nil {
		return nil, fmt.Errorf("listing documents: %w", err)
	}
	defer rows.Close()

	var docs []document.Document
	for rows.Next() {
		var doc document.Document
		var ts time.Time
		if err := rows.Scan(&doc.ID, &doc.Text, &doc.Metadata.Source, &doc.Metadata.MimeType, &ts); err != nil {
			return nil, fmt.Errorf("scanning document: %w", err)
		}
		doc.Metadata.Timestamp = ts
		docs = append(docs, doc)
	}

	return docs, rows.Err()
}

// PutChunks stores chunks inside one transaction.
func (d *Driver) PutChunks(ctx context.Context, chunks []document.Chunk) error {
	if len(chunks) == 0 {
		return nil
	}

	tx, err := d.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	for _, chunk := range chunks {
		if _, err := tx.Exec(ctx, `
			INSERT INTO chunks (id, document_id, text, start_offset, end_offset)
			VALUES ($1, $2, $3, $4, $5)
			ON CONFLICT (id) DO UPDATE SET
				document_id = EXCLUDED.document_id,
				text = EXCLUDED.text,
				start_offset = EXCLUDED.start_offset,
				end_offset = EXCLUDED.end_offset
		`, chunk.ID, chunk.DocumentID, chunk.Text, chunk.Start, chunk.End); err != nil {
			return fmt.Errorf("storing chunk %s: %w", chunk.ID, err)
		}
	}

	return tx.Commit(ctx)
}

// GetChunk retrieves one chunk by ID.
func (d *Driver) GetChunk(ctx context.Context, id string) (document.Chunk, error) {
	var chunk document.Chunk

	err := d.pool.QueryRow(ctx, `
		SELECT id, document_id, text, start_offset, end_offset FROM chunks WHERE id = $1
	`, id).Scan(&chunk.ID, &chunk.DocumentID, &chunk.Text, &chunk.Start, &chunk.End)
	if errors.Is(err, pgx.ErrNoRows) {
		return document.Chunk{}, storage.ErrNotFound{ID: id}
	}
	if err != nil {
		return document.Chunk{}, fmt.Errorf("loading chunk %s: %w", id, err)
	}

	return chunk, nil
}

// GetChunks retrieves chunks by ID, preserving request order and skipping
// missing IDs.
func (d *Driver) GetChunks(ctx context.Context, ids []string) ([]document.Chunk, error) {
	if len(ids) == 0 {
		return nil, nil
	}

	rows, err := d.pool.Query(ctx, `
		SELECT id, document_id, text, start_offset, end_offset
		FROM chunks WHERE id = ANY($1)
	`, ids)
	if err != nil {
		return nil, fmt.Errorf("loading chunks: %w", err)
	}
	defer rows.Close()

	byID := make(map[string]document.Chunk, len(ids))
	for rows.Next() {
		var chunk document.Chunk
		if err := rows.Scan(&chunk.ID, &chunk.DocumentID, &chunk.Text, &chunk.Start, &chunk.End); err != nil {
			return nil, fmt.Errorf("scanning chunk: %w", err)
		}
		byID[chunk.ID] = chunk
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	chunks := make([]document.Chunk, 0, len(byID))
	for _, id := range ids {
		if chunk, ok := byID[id]; ok {
			chunks = append(chunks, chunk)
		}
	}

	return chunks, nil
}

// ChunksByDocument returns a document's chunks ordered by start offset.
func (d *Driver) ChunksByDocument(ctx context.Context, documentID string) ([]document.Chunk, error) {
	rows, err := d.pool.Query(ctx, `
		SELECT id, document_id, text, start_offset, end_offset
		FROM chunks WHERE document_id = $1 ORDER BY start_offset
	`, documentID)
	if err != nil {
		return nil, fmt.Errorf("loading document chunks: %w", err)
	}
	defer rows.Close()

	var chunks []document.Chunk
	for rows.Next() {
		var chunk document.Chunk
		if err := rows.Scan(&chunk.ID, &chunk.DocumentID, &chunk.Text, &chunk.Start, &chunk.End); err != nil {
			return nil, fmt.Errorf("scanning chunk: %w", err)
		}
		chunks = append(chunks, chunk)
	}

	return chunks, rows.Err()
}

// Close releases the connection pool.
func (d *Driver) Close() error {
	d.pool.Close()
	return nil
}

var _ storage.Driver = (*Driver)(nil)
