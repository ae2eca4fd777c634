// Package sqlite provides a SQLite-backed storage driver for documents and
// chunks. Embeddings live in the vector index, not here; the chunk store
// keeps only text and offsets.
package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	_ "github.com/mattn/go-sqlite3"

	"github.com/atmoslabs/atmos/pkg/document"
	"github.com/atmoslabs/atmos/pkg/storage"
)

// Driver implements storage.Driver using SQLite.
type Driver struct {
	db *sql.DB
}

// NewDriver creates a new SQLite-backed store.
// The dbPath can be a file path or ":memory:" for an in-memory database.
func NewDriver(dbPath string) (*Driver, error) {
	// foreign_keys is a per-connection pragma, so it has to ride the DSN:
	// database/sql opens connections lazily and a plain Exec would only
	// reach one of them, leaving ON DELETE CASCADE off everywhere else.
	dsn := dbPath + "?_foreign_keys=on"
	if strings.ContainsRune(dbPath, '?') {
		dsn = dbPath + "&_foreign_keys=on"
	}

	db, err := sql.Open("sqlite3", dsn)
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}

	schema := `
		CREATE TABLE IF NOT EXISTS documents (
			id TEXT PRIMARY KEY,
			text TEXT NOT NULL,
			source TEXT NOT NULL DEFAULT '',
			mime_type TEXT NOT NULL DEFAULT '',
			created_at TIMESTAMP NOT NULL
		);
		CREATE TABLE IF NOT EXISTS chunks (
			id TEXT PRIMARY KEY,
			document_id TEXT NOT NULL REFERENCES documents(id) ON DELETE CASCADE,
			text TEXT NOT NULL,
			start_offset INTEGER NOT NULL,
			end_offset INTEGER NOT NULL
		);
		CREATE INDEX IF NOT EXISTS idx_chunks_document ON chunks(document_id);
	`
	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("creating schema: %w", err)
	}

	return &Driver{db: db}, nil
}

// PutDocument stores a document, replacing any existing one with the same ID.
func (d *Driver) PutDocument(ctx context.Context, doc document.Document) error {
	_, err := d.db.ExecContext(ctx, `
		INSERT INTO documents (id, text, source, mime_type, created_at)
		VALUES (?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			text = excluded.text,
			source = excluded.source,
			mime_type = excluded.mime_type,
			created_at = excluded.created_at
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

	err := d.db.QueryRowContext(ctx, `
		SELECT id, text, source, mime_type, created_at FROM documents WHERE id = ?
	`, id).Scan(&doc.ID, &doc.Text, &doc.Metadata.Source, &doc.Metadata.MimeType, &ts)
	if errors.Is(err, sql.ErrNoRows) {
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
	if _, err := d.db.ExecContext(ctx,
		`DELETE FROM documents WHERE id = ?`, id,
	); err != nil {
		return fmt.Errorf("deleting document %s: %w", id, err)
	}

	return nil
}

// ListDocuments returns all documents ordered by ID.
func (d *Driver) ListDocuments(ctx context.Context) ([]document.Document, error) {
	rows, err := d.db.QueryContext(ctx, `
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

	tx, err := d.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback()

	for _, chunk := range chunks {
		if _, err := tx.ExecContext(ctx, `
			INSERT INTO chunks (id, document_id, text, start_offset, end_offset)
			VALUES (?, ?, ?, ?, ?)
			ON CONFLICT(id) DO UPDATE SET
				document_id = excluded.document_id,
				text = excluded.text,
				start_offset = excluded.start_offset,
				end_offset = excluded.end_offset
		`, chunk.ID, chunk.DocumentID, chunk.Text, chunk.Start, chunk.End); err != nil {
			return fmt.Errorf("storing chunk %s: %w", chunk.ID, err)
		}
	}

	return tx.Commit()
}

// GetChunk retrieves one chunk by ID.
func (d *Driver) GetChunk(ctx context.Context, id string) (document.Chunk, error) {
	var chunk document.Chunk

	err := d.db.QueryRowContext(ctx, `
		SELECT id, document_id, text, start_offset, end_offset FROM chunks WHERE id = ?
	`, id).Scan(&chunk.ID, &chunk.DocumentID, &chunk.Text, &chunk.Start, &chunk.End)
	if errors.Is(err, sql.ErrNoRows) {
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

	placeholders := make([]string, len(ids))
	args := make([]any, len(ids))
	for i, id := range ids {
		placeholders[i] = "?"
		args[i] = id
	}

	rows, err := d.db.QueryContext(ctx, fmt.Sprintf(`
		SELECT id, document_id, text, start_offset, end_offset
		FROM chunks WHERE id IN (%s)
	`, strings.Join(placeholders, ",")), args...)
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
	rows, err := d.db.QueryContext(ctx, `
		SELECT id, document_id, text, start_offset, end_offset
		FROM chunks WHERE document_id = ? ORDER BY start_offset
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

// Close closes the underlying database.
func (d *Driver) Close() error {
	return d.db.Close()
}

var _ storage.Driver = (*Driver)(nil)
