// Package ask provides the shared question-answering orchestration used by
// both the REST API and the MCP server tool. It runs retrieval and signal
// aggregation concurrently, joins once both settle, and hands the evidence
// to the composer.
package ask

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/atmoslabs/atmos/pkg/eventstream"
	"github.com/atmoslabs/atmos/pkg/fusion"
	"github.com/atmoslabs/atmos/pkg/retrieval"
	"github.com/atmoslabs/atmos/pkg/signals"
)

const (
	// DefaultTopK is the passage count when the caller does not choose.
	DefaultTopK = 5

	// DefaultDeadline bounds a whole query: retrieval, every provider
	// fetch, and generation together.
	DefaultDeadline = 12 * time.Second
)

// Input represents one question.
type Input struct {
	Query          string `json:"query"`
	TopK           int    `json:"top_k,omitempty"`
	IncludeSources bool   `json:"include_sources,omitempty"`
}

// Config tunes the asker.
type Config struct {
	// TopK is the default passage count.
	TopK int

	// Deadline is the overall per-query timeout.
	Deadline time.Duration
}

// Asker answers questions by fusing retrieved passages with live signals.
type Asker struct {
	retriever  *retrieval.Retriever
	aggregator *signals.Aggregator
	composer   *fusion.Composer
	publisher  eventstream.Publisher
	config     Config
	logger     *zap.Logger
}

// NewAsker wires an asker from its collaborators.
func NewAsker(
	retriever *retrieval.Retriever,
	aggregator *signals.Aggregator,
	composer *fusion.Composer,
	publisher eventstream.Publisher,
	config Config,
	logger *zap.Logger,
) *Asker {
	if config.TopK <= 0 {
		config.TopK = DefaultTopK
	}
	if config.Deadline <= 0 {
		config.Deadline = DefaultDeadline
	}

	return &Asker{
		retriever:  retriever,
		aggregator: aggregator,
		composer:   composer,
		publisher:  publisher,
		config:     config,
		logger:     logger,
	}
}

// Ask answers one question. A well-formed query always yields an
// AnswerRecord: retrieval failures, provider failures, and backend failures
// degrade the quality label instead of erroring. Only an empty query is a
// hard failure.
func (a *Asker) Ask(ctx context.Context, input Input) (fusion.AnswerRecord, error) {
	query := strings.TrimSpace(input.Query)
	if query == "" {
		return fusion.AnswerRecord{}, fmt.Errorf("query must not be empty")
	}

	topK := input.TopK
	if topK <= 0 {
		topK = a.config.TopK
	}

	started := time.Now()

	ctx, cancel := context.WithTimeout(ctx, a.config.Deadline)
	defer cancel()

	var (
		matches []retrieval.Match
		bundle  signals.Bundle
	)

	// Retrieval and aggregation run concurrently and both must settle
	// before composition; there is no partial mid-flight composition.
	group, groupCtx := errgroup.WithContext(ctx)
	group.Go(func() error {
		found, err := a.retriever.Retrieve(groupCtx, query, topK)
		if err != nil {
			// Absorbed: an unreachable embedder or index degrades the
			// answer, it does not abort the query.
			a.logger.Warn("retrieval failed, continuing without passages",
				zap.String("query", query),
				zap.Error(err),
			)
			return nil
		}
		matches = found
		return nil
	})
	group.Go(func() error {
		bundle = a.aggregator.Aggregate(groupCtx, QueryParams(query))
		return nil
	})
	_ = group.Wait()

	record := a.composer.Compose(ctx, query, matches, bundle)

	if !input.IncludeSources {
		record.Sources = nil
	}

	a.publishComposed(ctx, record, time.Since(started))

	return record, nil
}

func (a *Asker) publishComposed(ctx context.Context, record fusion.AnswerRecord, duration time.Duration) {
	if err := a.publisher.PublishAnswerComposed(ctx, &eventstream.AnswerComposedEvent{
		SchemaVersion:  eventstream.SchemaVersionV1,
		EventType:      eventstream.EventTypeAnswerComposed,
		EventID:        uuid.NewString(),
		EmittedAt:      time.Now().UTC(),
		Query:          record.Query,
		OverallQuality: record.OverallQuality,
		Backend:        record.Backend,
		SourceCount:    len(record.Sources),
		DurationMs:     duration.Milliseconds(),
	}); err != nil {
		a.logger.Warn("publishing answer event failed", zap.Error(err))
	}
}
