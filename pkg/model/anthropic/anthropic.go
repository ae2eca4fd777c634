// Package anthropic implements pkg/model's Backend for the Anthropic
// Messages API.
package anthropic

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"

	"github.com/atmoslabs/atmos/pkg/model"
)

const (
	// DefaultModel is the default Claude model.
	DefaultModel = "claude-sonnet-4-20250514"

	// DefaultMaxTokens caps responses when the caller does not.
	DefaultMaxTokens = 1024
)

// Backend wraps the Anthropic Messages API.
type Backend struct {
	client    anthropic.Client
	modelName string
}

// Config holds configuration for the Anthropic backend.
type Config struct {
	// APIKey authenticates requests.
	APIKey string

	// Model is the Claude model to use. Defaults to DefaultModel if empty.
	Model string
}

// NewBackend creates a backend using the Anthropic Messages API.
func NewBackend(cfg Config) (*Backend, error) {
	if cfg.APIKey == "" {
		return nil, fmt.Errorf("%w: anthropic api key is required", model.ErrUnavailable)
	}

	modelName := cfg.Model
	if modelName == "" {
		modelName = DefaultModel
	}

	return &Backend{
		client:    anthropic.NewClient(option.WithAPIKey(cfg.APIKey)),
		modelName: modelName,
	}, nil
}

func (b *Backend) Name() string {
	return "anthropic"
}

// Generate produces an answer to query grounded in contextText. The context
// rides in the system prompt; the query is the sole user message.
func (b *Backend) Generate(ctx context.Context, contextText, query string, opts model.Options) (string, error) {
	maxTokens := opts.MaxTokens
	if maxTokens <= 0 {
		maxTokens = DefaultMaxTokens
	}

	params := anthropic.MessageNewParams{
		Model:     anthropic.Model(b.modelName),
		MaxTokens: int64(maxTokens),
		Messages: []anthropic.MessageParam{
			anthropic.NewUserMessage(anthropic.NewTextBlock(query)),
		},
	}
	if opts.Temperature > 0 {
		params.Temperature = anthropic.Float(opts.Temperature)
	}
	if contextText != "" {
		params.System = []anthropic.TextBlockParam{
			{Text: contextText},
		}
	}

	resp, err := b.client.Messages.New(ctx, params)
	if err != nil {
		if errors.Is(ctx.Err(), context.DeadlineExceeded) {
			return "", fmt.Errorf("%w: %v", model.ErrTimeout, err)
		}
		return "", fmt.Errorf("%w: %v", model.ErrUnavailable, err)
	}

	var answer strings.Builder
	for _, block := range resp.Content {
		if block.Type == "text" {
			answer.WriteString(block.Text)
		}
	}

	if answer.Len() == 0 {
		return "", fmt.Errorf("%w: empty response", model.ErrUnavailable)
	}

	return answer.String(), nil
}

// Close releases resources held by the backend.
func (b *Backend) Close() error {
	return nil
}

var _ model.Backend = (*Backend)(nil)
