package api

import (
	"time"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	"github.com/atmoslabs/atmos/api/ask"
	"github.com/atmoslabs/atmos/pkg/document"
	"github.com/atmoslabs/atmos/pkg/signals"
)

// ErrorResponse is the JSON body for failed requests.
type ErrorResponse struct {
	Error string `json:"error"`
}

// IngestRequest is the body for document ingestion.
type IngestRequest struct {
	ID       string `json:"id"`
	Text     string `json:"text"`
	Source   string `json:"source,omitempty"`
	MimeType string `json:"mime_type,omitempty"`
}

// IngestResponse reports what ingestion produced.
type IngestResponse struct {
	DocumentID string `json:"document_id"`
	ChunkCount int    `json:"chunk_count"`
}

// SignalsResponse carries a signal bundle for a query.
type SignalsResponse struct {
	Query   string         `json:"query"`
	Signals signals.Bundle `json:"signals"`
}

// handlePing returns a simple health check response.
func (s *Server) handlePing(c *fiber.Ctx) error {
	return c.JSON("pong")
}

// handleAsk answers a question.
func (s *Server) handleAsk(c *fiber.Ctx) error {
	var input ask.Input
	if err := c.BodyParser(&input); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(ErrorResponse{Error: "invalid request body"})
	}

	record, err := s.asker.Ask(c.Context(), input)
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(ErrorResponse{Error: err.Error()})
	}

	return c.JSON(record)
}

// handleSignals returns the live signal bundle for a query without running
// retrieval or generation.
func (s *Server) handleSignals(c *fiber.Ctx) error {
	query := c.Query("query")
	if query == "" {
		return c.Status(fiber.StatusBadRequest).JSON(ErrorResponse{Error: "query parameter required"})
	}

	bundle := s.aggregator.Aggregate(c.Context(), ask.QueryParams(query))

	return c.JSON(SignalsResponse{
		Query:   query,
		Signals: bundle,
	})
}

// handleListDocuments returns all stored documents.
func (s *Server) handleListDocuments(c *fiber.Ctx) error {
	docs, err := s.storer.ListDocuments(c.Context())
	if err != nil {
		s.logger.Error("listing documents failed", zap.Error(err))
		return c.Status(fiber.StatusInternalServerError).JSON(ErrorResponse{Error: "failed to list documents"})
	}

	return c.JSON(docs)
}

// handleIngestDocument ingests one document through the pipeline.
func (s *Server) handleIngestDocument(c *fiber.Ctx) error {
	var req IngestRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(ErrorResponse{Error: "invalid request body"})
	}
	if req.ID == "" || req.Text == "" {
		return c.Status(fiber.StatusBadRequest).JSON(ErrorResponse{Error: "id and text are required"})
	}

	doc := document.Document{
		ID:   req.ID,
		Text: req.Text,
		Metadata: document.Metadata{
			Source:    req.Source,
			MimeType:  req.MimeType,
			Timestamp: time.Now().UTC(),
		},
	}

	chunks, err := s.ingestor.Ingest(c.Context(), doc)
	if err != nil {
		s.logger.Error("ingestion failed",
			zap.String("document_id", req.ID),
			zap.Error(err),
		)
		return c.Status(fiber.StatusInternalServerError).JSON(ErrorResponse{Error: "ingestion failed"})
	}

	return c.Status(fiber.StatusCreated).JSON(IngestResponse{
		DocumentID: doc.ID,
		ChunkCount: len(chunks),
	})
}

// handleDeleteDocument removes a document and its chunks.
func (s *Server) handleDeleteDocument(c *fiber.Ctx) error {
	id := c.Params("id")
	if id == "" {
		return c.Status(fiber.StatusBadRequest).JSON(ErrorResponse{Error: "id parameter required"})
	}

	if err := s.ingestor.Delete(c.Context(), id); err != nil {
		s.logger.Error("deletion failed",
			zap.String("document_id", id),
			zap.Error(err),
		)
		return c.Status(fiber.StatusInternalServerError).JSON(ErrorResponse{Error: "deletion failed"})
	}

	return c.SendStatus(fiber.StatusNoContent)
}
