// Package modelutils constructs model backends from configuration.
package modelutils

import (
	"fmt"

	"go.uber.org/zap"

	"github.com/atmoslabs/atmos/pkg/model"
	"github.com/atmoslabs/atmos/pkg/model/anthropic"
	"github.com/atmoslabs/atmos/pkg/model/ollama"
)

type NewBackendOpts struct {
	// Provider selects the backend: "ollama" or "anthropic".
	Provider string

	// BaseURL applies to HTTP backends.
	BaseURL string

	// Model names the generation model.
	Model string

	// APIKey applies to hosted backends.
	APIKey string
}

// NewBackend builds one backend from the closed set of supported providers.
func NewBackend(o *NewBackendOpts) (model.Backend, error) {
	switch o.Provider {
	case "ollama":
		return ollama.NewBackend(ollama.Config{
			BaseURL: o.BaseURL,
			Model:   o.Model,
		}), nil
	case "anthropic":
		return anthropic.NewBackend(anthropic.Config{
			APIKey: o.APIKey,
			Model:  o.Model,
		})
	default:
		return nil, fmt.Errorf("unsupported model provider: %s", o.Provider)
	}
}

// NewFailoverBackend builds a primary backend with an optional secondary.
// An empty secondary provider means no failover.
func NewFailoverBackend(primary, secondary *NewBackendOpts, logger *zap.Logger) (model.Backend, error) {
	first, err := NewBackend(primary)
	if err != nil {
		return nil, err
	}

	if secondary == nil || secondary.Provider == "" {
		return model.NewFailover(first, nil, logger), nil
	}

	second, err := NewBackend(secondary)
	if err != nil {
		first.Close()
		return nil, err
	}

	return model.NewFailover(first, second, logger), nil
}
