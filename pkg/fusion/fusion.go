// Package fusion merges retrieved passages and live signal bundles into a
// single generation context, invokes a model backend, and labels the result
// with source attribution and a data-quality verdict. A well-formed query
// always yields an answer: when every generation path fails the composer
// assembles a deterministic templated answer from the evidence alone.
package fusion

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/atmoslabs/atmos/pkg/model"
	"github.com/atmoslabs/atmos/pkg/retrieval"
	"github.com/atmoslabs/atmos/pkg/signals"
	"github.com/atmoslabs/atmos/pkg/utils"
)

const (
	// DefaultExcerptChars truncates attribution excerpts.
	DefaultExcerptChars = 240

	// DefaultHighScore is the retrieval score a match must reach for the
	// answer to qualify as high quality.
	DefaultHighScore = 0.5
)

// SourceAttribution ties part of an answer back to a retrieved chunk.
type SourceAttribution struct {
	ChunkID string  `json:"chunk_id"`
	Score   float32 `json:"score"`
	Excerpt string  `json:"excerpt"`
}

// AnswerRecord is the immutable result of one composed answer.
type AnswerRecord struct {
	Query          string              `json:"query"`
	AnswerText     string              `json:"answer_text"`
	Sources        []SourceAttribution `json:"sources"`
	Signals        signals.Bundle      `json:"signals"`
	OverallQuality signals.Quality     `json:"overall_quality"`
	Backend        string              `json:"backend,omitempty"`
	GeneratedAt    time.Time           `json:"generated_at"`
}

// ComposerConfig tunes generation.
type ComposerConfig struct {
	// Temperature and MaxTokens pass through to the backend.
	Temperature float64
	MaxTokens   int

	// HighScore is the retrieval score floor for a high quality verdict.
	// Zero means DefaultHighScore.
	HighScore float32
}

// Composer builds answers from evidence.
type Composer struct {
	backend model.Backend
	config  ComposerConfig
	logger  *zap.Logger
}

// NewComposer wires a composer to its model backend. The backend is usually
// a failover chain; the composer itself retries nothing.
func NewComposer(backend model.Backend, config ComposerConfig, logger *zap.Logger) *Composer {
	if config.HighScore == 0 {
		config.HighScore = DefaultHighScore
	}
	return &Composer{
		backend: backend,
		config:  config,
		logger:  logger,
	}
}

// Compose merges matches and the signal bundle into a generation context,
// asks the backend for an answer, and always returns a usable AnswerRecord.
// Backend failure downgrades to the templated answer rather than erroring.
func (c *Composer) Compose(ctx context.Context, query string, matches []retrieval.Match, bundle signals.Bundle) AnswerRecord {
	record := AnswerRecord{
		Query:          query,
		Sources:        attributions(matches),
		Signals:        bundle,
		OverallQuality: deriveQuality(matches, bundle, c.config.HighScore),
		GeneratedAt:    time.Now().UTC(),
	}

	generationContext := BuildContext(matches, bundle)

	answer, err := c.backend.Generate(ctx, generationContext, query, model.Options{
		Temperature: c.config.Temperature,
		MaxTokens:   c.config.MaxTokens,
	})
	if err != nil {
		c.logger.Warn("generation failed, composing templated answer",
			zap.String("query", query),
			zap.Error(err),
		)

		record.AnswerText = templatedAnswer(query, matches, bundle)
		return record
	}

	record.AnswerText = answer
	record.Backend = c.backend.Name()
	return record
}

// BuildContext renders matches and signals into the text handed to the
// model. Passages come first, ordered by descending score; the signal block
// follows with explicit quality tags so the model can weigh each value.
func BuildContext(matches []retrieval.Match, bundle signals.Bundle) string {
	var b strings.Builder

	b.WriteString("You answer climate questions using the document passages and live data below. Cite only what is given.\n")

	if len(matches) > 0 {
		b.WriteString("\nDocument passages:\n")
		for i, match := range matches {
			fmt.Fprintf(&b, "[%d] (relevance %.2f) %s\n", i+1, match.Score, match.Chunk.Text)
		}
	}

	if len(bundle) > 0 {
		b.WriteString("\nLive data:\n")
		b.WriteString(renderBundle(bundle))
	}

	return b.String()
}

// renderBundle renders a bundle deterministically, sorted by provider name.
func renderBundle(bundle signals.Bundle) string {
	names := make([]string, 0, len(bundle))
	for name := range bundle {
		names = append(names, name)
	}
	sort.Strings(names)

	var b strings.Builder
	for _, name := range names {
		entry := bundle[name]
		if entry.Value == nil {
			fmt.Fprintf(&b, "- %s: unavailable (status: %s)\n", name, entry.Status)
			continue
		}
		fmt.Fprintf(&b, "- %s: %g %s (quality: %s, status: %s)\n",
			name, *entry.Value, entry.Unit, entry.Quality, entry.Status)
	}

	return b.String()
}

// templatedAnswer assembles a purely extractive answer, used when no
// generation path is available.
func templatedAnswer(query string, matches []retrieval.Match, bundle signals.Bundle) string {
	var b strings.Builder

	fmt.Fprintf(&b, "Generated answer unavailable for: %q\n", query)

	if len(matches) > 0 {
		b.WriteString("\nMost relevant passages:\n")
		for i, match := range matches {
			fmt.Fprintf(&b, "[%d] %s\n", i+1, excerpt(match.Chunk.Text))
		}
	} else {
		b.WriteString("\nNo relevant passages were found in the document corpus.\n")
	}

	if len(bundle) > 0 {
		b.WriteString("\nLive data:\n")
		b.WriteString(renderBundle(bundle))
	}

	return b.String()
}

// deriveQuality applies the deterministic quality rule: high needs a strong
// retrieval match and fully healthy signals, low means no evidence at all,
// everything in between is medium.
func deriveQuality(matches []retrieval.Match, bundle signals.Bundle, highScore float32) signals.Quality {
	strongMatch := false
	for _, match := range matches {
		if match.Score >= highScore {
			strongMatch = true
			break
		}
	}

	allOK := true
	allErrored := true
	for _, entry := range bundle {
		if entry.Status != signals.StatusOK {
			allOK = false
		}
		if entry.Status != signals.StatusError {
			allErrored = false
		}
	}

	switch {
	case strongMatch && allOK:
		return signals.QualityHigh
	case len(matches) == 0 && allErrored && len(bundle) > 0:
		return signals.QualityLow
	case len(matches) == 0 && len(bundle) == 0:
		return signals.QualityLow
	default:
		return signals.QualityMedium
	}
}

func attributions(matches []retrieval.Match) []SourceAttribution {
	sources := make([]SourceAttribution, len(matches))
	for i, match := range matches {
		sources[i] = SourceAttribution{
			ChunkID: match.Chunk.ID,
			Score:   match.Score,
			Excerpt: excerpt(match.Chunk.Text),
		}
	}
	return sources
}

func excerpt(text string) string {
	return utils.Truncate(text, DefaultExcerptChars)
}
