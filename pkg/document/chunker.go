package document

import (
	"errors"
	"fmt"
	"strings"
)

// ErrInvalidConfig is returned when chunker configuration is unusable.
var ErrInvalidConfig = errors.New("invalid chunker config")

const (
	// DefaultMaxChars is the default maximum chunk size.
	DefaultMaxChars = 1000

	// DefaultOverlapChars is the default overlap between consecutive chunks.
	DefaultOverlapChars = 200
)

// sentenceEnders mark positions after which a chunk may be cut without
// splitting a sentence.
var sentenceEnders = []string{". ", "! ", "? ", ".\n", "!\n", "?\n", "\n\n"}

// ChunkerConfig controls how documents are split.
type ChunkerConfig struct {
	// MaxChars is the maximum chunk length in bytes. Must be positive.
	MaxChars int

	// OverlapChars is the exact overlap shared by consecutive chunks.
	// Must be non-negative and strictly less than MaxChars.
	OverlapChars int
}

// Chunker splits documents into overlapping chunks. It is a pure function
// of its input: no I/O, no shared state.
type Chunker struct {
	config ChunkerConfig
}

// NewChunker validates the configuration and returns a Chunker.
func NewChunker(config ChunkerConfig) (*Chunker, error) {
	if config.MaxChars <= 0 {
		return nil, fmt.Errorf("%w: max chars must be positive, got %d", ErrInvalidConfig, config.MaxChars)
	}
	if config.OverlapChars < 0 {
		return nil, fmt.Errorf("%w: overlap must be non-negative, got %d", ErrInvalidConfig, config.OverlapChars)
	}
	if config.OverlapChars >= config.MaxChars {
		return nil, fmt.Errorf("%w: overlap %d must be smaller than max chars %d",
			ErrInvalidConfig, config.OverlapChars, config.MaxChars)
	}

	return &Chunker{config: config}, nil
}

// Split cuts the document text into ordered chunks that cover the full text
// with no gaps. Consecutive chunks share exactly OverlapChars characters.
// When a sentence boundary exists inside the window, the cut lands on it
// instead of mid-sentence; the following chunk still starts OverlapChars
// before the cut, so reassembly by dropping each chunk's leading overlap
// reconstructs the document exactly.
func (c *Chunker) Split(doc Document) ([]Chunk, error) {
	text := doc.Text
	if len(text) == 0 {
		return nil, nil
	}

	var chunks []Chunk
	start := 0

	for {
		end := start + c.config.MaxChars
		if end >= len(text) {
			chunks = append(chunks, c.newChunk(doc, len(chunks), text, start, len(text)))
			break
		}

		// Cut on the last sentence boundary inside the window, as long as
		// the next start (end - overlap) still advances past this start.
		if cut := lastSentenceEnd(text[start:end]); cut > 0 && start+cut-c.config.OverlapChars > start {
			end = start + cut
		}

		chunks = append(chunks, c.newChunk(doc, len(chunks), text, start, end))
		start = end - c.config.OverlapChars
	}

	return chunks, nil
}

func (c *Chunker) newChunk(doc Document, idx int, text string, start, end int) Chunk {
	return Chunk{
		ID:         fmt.Sprintf("%s-%d", doc.ID, idx),
		DocumentID: doc.ID,
		Text:       text[start:end],
		Start:      start,
		End:        end,
	}
}

// lastSentenceEnd returns the offset just past the final sentence-ending
// punctuation in window, or 0 when the window contains none.
func lastSentenceEnd(window string) int {
	best := 0
	for _, ender := range sentenceEnders {
		if idx := strings.LastIndex(window, ender); idx >= 0 && idx+len(ender) > best {
			best = idx + len(ender)
		}
	}
	return best
}

// Reassemble concatenates chunk texts with overlaps removed. It is the
// inverse of Split and exists mainly to make the coverage property testable.
func Reassemble(chunks []Chunk, overlapChars int) string {
	var b strings.Builder
	for i, chunk := range chunks {
		if i == 0 {
			b.WriteString(chunk.Text)
			continue
		}
		b.WriteString(chunk.Text[overlapChars:])
	}
	return b.String()
}
