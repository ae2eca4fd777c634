package mcp

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/modelcontextprotocol/go-sdk/mcp"
	"go.uber.org/zap"

	"github.com/atmoslabs/atmos/api/ask"
)

var (
	askToolName    = "ask"
	askDescription = "Answer a climate question by fusing retrieved document passages with live climate data. Returns the answer, source attribution, the signal bundle, and an overall data-quality label."
)

// AskInput represents the input arguments for the ask tool.
type AskInput struct {
	Query          string `json:"query" jsonschema:"the climate question to answer"`
	TopK           int    `json:"top_k,omitempty" jsonschema:"number of passages to retrieve (default: 5)"`
	IncludeSources bool   `json:"include_sources,omitempty" jsonschema:"attach source attribution to the answer"`
}

// handleAsk processes an ask request.
func (s *Server) handleAsk(ctx context.Context, req *mcp.CallToolRequest, input AskInput) (*mcp.CallToolResult, any, error) {
	logger := s.config.Logger

	logger.Debug("MCP ask request",
		zap.String("query", input.Query),
		zap.Int("topK", input.TopK),
	)

	record, err := s.config.Asker.Ask(ctx, ask.Input{
		Query:          input.Query,
		TopK:           input.TopK,
		IncludeSources: input.IncludeSources,
	})
	if err != nil {
		return &mcp.CallToolResult{
			IsError: true,
			Content: []mcp.Content{
				&mcp.TextContent{Text: fmt.Sprintf("Failed to answer: %v", err)},
			},
		}, nil, nil
	}

	// Serialize the structured output as JSON for the text field
	// Per MCP spec: tools returning structured content should also return
	// serialized JSON in a TextContent block for backwards compatibility
	jsonBytes, err := json.Marshal(record)
	if err != nil {
		logger.Error("failed to marshal answer record", zap.Error(err))
		return &mcp.CallToolResult{
			IsError: true,
			Content: []mcp.Content{
				&mcp.TextContent{Text: fmt.Sprintf("Failed to serialize answer: %v", err)},
			},
		}, nil, nil
	}

	return &mcp.CallToolResult{
		Content: []mcp.Content{
			&mcp.TextContent{Text: string(jsonBytes)},
		},
	}, record, nil
}
