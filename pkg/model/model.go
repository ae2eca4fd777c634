// Package model defines the language-model backend contract used by answer
// composition. Backends are provider-agnostic: callers swap them without
// touching the composer.
package model

import (
	"context"
	"errors"
)

var (
	// ErrUnavailable indicates the backend cannot be reached or refused
	// the request.
	ErrUnavailable = errors.New("model unavailable")

	// ErrTimeout indicates generation exceeded its deadline.
	ErrTimeout = errors.New("model timeout")
)

// Options tunes a single generation call.
type Options struct {
	// Temperature controls sampling randomness. Zero means the backend
	// default.
	Temperature float64

	// MaxTokens caps the generated response length. Zero means the
	// backend default.
	MaxTokens int
}

// Backend generates an answer from a prepared context and a query. Failures
// wrap ErrUnavailable or ErrTimeout.
type Backend interface {
	// Name identifies the backend in logs and records.
	Name() string

	// Generate produces an answer to query grounded in contextText.
	Generate(ctx context.Context, contextText, query string, opts Options) (string, error)

	// Close releases any resources held by the backend.
	Close() error
}
