// Package ollama implements pkg/model's Backend for Ollama's chat API.
package ollama

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/atmoslabs/atmos/pkg/model"
)

const (
	// DefaultModel is the default chat model.
	DefaultModel = "llama3.2"

	// DefaultBaseURL is the default Ollama API URL.
	DefaultBaseURL = "http://localhost:11434"
)

// Backend wraps Ollama's chat API.
type Backend struct {
	baseURL    string
	model      string
	httpClient *http.Client
}

// Config holds configuration for the Ollama backend.
type Config struct {
	// BaseURL is the Ollama API URL. Defaults to DefaultBaseURL if empty.
	BaseURL string

	// Model is the chat model to use. Defaults to DefaultModel if empty.
	Model string
}

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type chatOptions struct {
	Temperature float64 `json:"temperature,omitempty"`
	NumPredict  int     `json:"num_predict,omitempty"`
}

type chatRequest struct {
	Model    string        `json:"model"`
	Messages []chatMessage `json:"messages"`
	Stream   bool          `json:"stream"`
	Options  *chatOptions  `json:"options,omitempty"`
}

type chatResponse struct {
	Message chatMessage `json:"message"`
}

// NewBackend creates a backend using Ollama's chat API.
func NewBackend(cfg Config) *Backend {
	baseURL := cfg.BaseURL
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}

	chatModel := cfg.Model
	if chatModel == "" {
		chatModel = DefaultModel
	}

	return &Backend{
		baseURL: baseURL,
		model:   chatModel,
		httpClient: &http.Client{
			Timeout: 120 * time.Second,
		},
	}
}

func (b *Backend) Name() string {
	return "ollama"
}

// Generate produces an answer to query grounded in contextText.
func (b *Backend) Generate(ctx context.Context, contextText, query string, opts model.Options) (string, error) {
	reqBody := chatRequest{
		Model: b.model,
		Messages: []chatMessage{
			{Role: "system", Content: contextText},
			{Role: "user", Content: query},
		},
		Stream: false,
	}
	if opts.Temperature > 0 || opts.MaxTokens > 0 {
		reqBody.Options = &chatOptions{
			Temperature: opts.Temperature,
			NumPredict:  opts.MaxTokens,
		}
	}

	jsonBody, err := json.Marshal(reqBody)
	if err != nil {
		return "", fmt.Errorf("%w: marshaling request: %v", model.ErrUnavailable, err)
	}

	req, err := http.NewRequestWithContext(ctx, "POST", b.baseURL+"/api/chat", bytes.NewReader(jsonBody))
	if err != nil {
		return "", fmt.Errorf("%w: creating request: %v", model.ErrUnavailable, err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := b.httpClient.Do(req)
	if err != nil {
		if errors.Is(ctx.Err(), context.DeadlineExceeded) {
			return "", fmt.Errorf("%w: %v", model.ErrTimeout, err)
		}
		return "", fmt.Errorf("%w: sending request: %v", model.ErrUnavailable, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		return "", fmt.Errorf("%w: ollama returned status %d: %s", model.ErrUnavailable, resp.StatusCode, string(body))
	}

	var chat chatResponse
	if err := json.NewDecoder(resp.Body).Decode(&chat); err != nil {
		return "", fmt.Errorf("%w: decoding response: %v", model.ErrUnavailable, err)
	}

	if chat.Message.Content == "" {
		return "", fmt.Errorf("%w: empty response", model.ErrUnavailable)
	}

	return chat.Message.Content, nil
}

// Close releases resources held by the backend.
func (b *Backend) Close() error {
	return nil
}

var _ model.Backend = (*Backend)(nil)
