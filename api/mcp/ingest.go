package mcp

import (
	"context"
	"fmt"
	"time"

	"github.com/modelcontextprotocol/go-sdk/mcp"
	"go.uber.org/zap"

	"github.com/atmoslabs/atmos/pkg/document"
)

var (
	ingestToolName    = "ingest_document"
	ingestDescription = "Add a document to the climate corpus: the text is chunked, embedded, and indexed for retrieval. Re-ingesting an existing id replaces the document."
)

// IngestInput represents the input arguments for the ingest tool.
type IngestInput struct {
	ID     string `json:"id" jsonschema:"unique document id"`
	Text   string `json:"text" jsonschema:"the raw document text"`
	Source string `json:"source,omitempty" jsonschema:"where the document came from"`
}

// IngestOutput represents the output of the ingest tool.
type IngestOutput struct {
	DocumentID string `json:"document_id"`
	ChunkCount int    `json:"chunk_count"`
}

// handleIngest processes an ingest request.
func (s *Server) handleIngest(ctx context.Context, req *mcp.CallToolRequest, input IngestInput) (*mcp.CallToolResult, IngestOutput, error) {
	logger := s.config.Logger

	if input.ID == "" || input.Text == "" {
		return &mcp.CallToolResult{
			IsError: true,
			Content: []mcp.Content{
				&mcp.TextContent{Text: "id and text are required"},
			},
		}, IngestOutput{}, nil
	}

	chunks, err := s.config.Ingestor.Ingest(ctx, document.Document{
		ID:   input.ID,
		Text: input.Text,
		Metadata: document.Metadata{
			Source:    input.Source,
			Timestamp: time.Now().UTC(),
		},
	})
	if err != nil {
		logger.Error("MCP ingest failed",
			zap.String("document_id", input.ID),
			zap.Error(err),
		)
		return &mcp.CallToolResult{
			IsError: true,
			Content: []mcp.Content{
				&mcp.TextContent{Text: fmt.Sprintf("Failed to ingest: %v", err)},
			},
		}, IngestOutput{}, nil
	}

	output := IngestOutput{
		DocumentID: input.ID,
		ChunkCount: len(chunks),
	}

	return &mcp.CallToolResult{
		Content: []mcp.Content{
			&mcp.TextContent{Text: fmt.Sprintf("Ingested %s as %d chunks", input.ID, len(chunks))},
		},
	}, output, nil
}
