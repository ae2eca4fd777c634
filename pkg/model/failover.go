package model

import (
	"context"
	"fmt"

	"go.uber.org/zap"
)

// Failover tries a primary backend and retries exactly once against a
// secondary when the primary fails. A nil secondary means no retry.
type Failover struct {
	primary   Backend
	secondary Backend
	logger    *zap.Logger
}

// NewFailover wires a failover chain.
func NewFailover(primary, secondary Backend, logger *zap.Logger) *Failover {
	return &Failover{
		primary:   primary,
		secondary: secondary,
		logger:    logger,
	}
}

func (f *Failover) Name() string {
	if f.secondary == nil {
		return f.primary.Name()
	}
	return fmt.Sprintf("%s+%s", f.primary.Name(), f.secondary.Name())
}

// Generate delegates to the primary backend, falling back to the secondary
// on failure. The secondary's error surfaces when both fail.
func (f *Failover) Generate(ctx context.Context, contextText, query string, opts Options) (string, error) {
	answer, err := f.primary.Generate(ctx, contextText, query, opts)
	if err == nil {
		return answer, nil
	}

	if f.secondary == nil {
		return "", err
	}

	f.logger.Warn("primary model backend failed, trying secondary",
		zap.String("primary", f.primary.Name()),
		zap.String("secondary", f.secondary.Name()),
		zap.Error(err),
	)

	return f.secondary.Generate(ctx, contextText, query, opts)
}

// Close closes both backends, reporting the first failure.
func (f *Failover) Close() error {
	err := f.primary.Close()
	if f.secondary != nil {
		if cerr := f.secondary.Close(); err == nil {
			err = cerr
		}
	}
	return err
}

var _ Backend = (*Failover)(nil)
