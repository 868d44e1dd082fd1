// Package chunker splits document text at markdown-safe boundaries.
//
// Chunks aim for a target size but never break inside a fenced code block,
// a math span, bold text, or between a table header and its separator row
// when a safe break point is reachable within a short lookahead.
package chunker

import (
	"context"
	"regexp"
	"strings"
	"unicode/utf8"

	"github.com/google/uuid"

	"github.com/custodia-labs/readwell/internal/core/domain"
	"github.com/custodia-labs/readwell/internal/core/ports/driven"
)

// DefaultChunkSize is the default target number of characters per chunk.
const DefaultChunkSize = 8000

// DefaultLookahead is how many lines past an unsafe break the chunker scans.
const DefaultLookahead = 10

// Ensure Processor implements the interface.
var _ driven.PostProcessor = (*Processor)(nil)

var (
	headingPattern     = regexp.MustCompile(`^#{1,6}\s`)
	rulePattern        = regexp.MustCompile(`^[-*_]{3,}$`)
	tableDividerRow    = regexp.MustCompile(`^[|\s:-]+$`)
	bulletPattern      = regexp.MustCompile(`^[-*+]\s`)
	orderedItemPattern = regexp.MustCompile(`^\d+\.\s`)
	blockMathSpan      = regexp.MustCompile(`(?s)\$\$.*?\$\$`)
)

// Processor splits document content into boundary-aware chunks.
// It implements the PostProcessor interface.
type Processor struct {
	chunkSize int
	lookahead int
}

// Option configures the chunker processor.
type Option func(*Processor)

// WithChunkSize sets the target chunk size in characters.
func WithChunkSize(size int) Option {
	return func(p *Processor) {
		if size > 0 {
			p.chunkSize = size
		}
	}
}

// WithLookahead sets how many lines may be scanned for a safe break.
func WithLookahead(lines int) Option {
	return func(p *Processor) {
		if lines >= 0 {
			p.lookahead = lines
		}
	}
}

// New creates a new chunker processor with the given options.
func New(opts ...Option) *Processor {
	p := &Processor{
		chunkSize: DefaultChunkSize,
		lookahead: DefaultLookahead,
	}

	for _, opt := range opts {
		opt(p)
	}

	return p
}

// Name returns the processor name.
func (p *Processor) Name() string {
	return "chunker"
}

// Process splits the draft content into chunks.
// Input chunks are ignored; this processor creates new chunks from the draft.
func (p *Processor) Process(_ context.Context, draft *domain.Draft, _ []domain.Chunk) ([]domain.Chunk, error) {
	if draft == nil || draft.Content == "" {
		return nil, nil
	}

	parts := p.Split(draft.Content)
	chunks := make([]domain.Chunk, 0, len(parts))
	for i, part := range parts {
		chunks = append(chunks, domain.Chunk{
			ID:         uuid.New().String(),
			DocumentID: draft.DocumentID,
			Content:    part,
			Position:   i,
			Metadata:   make(map[string]any),
		})
	}

	return chunks, nil
}

// Split breaks text into trimmed, non-empty chunks.
// A line longer than the chunk size becomes its own oversized chunk.
func (p *Processor) Split(text string) []string {
	lines := strings.Split(text, "\n")

	var chunks []string
	var current strings.Builder
	currentLen := 0

	emit := func() {
		if s := strings.TrimSpace(current.String()); s != "" {
			chunks = append(chunks, s)
		}
		current.Reset()
		currentLen = 0
	}
	appendLine := func(line string) {
		current.WriteString(line)
		current.WriteByte('\n')
		currentLen += utf8.RuneCountInString(line) + 1
	}

	for i := 0; i < len(lines); {
		line := lines[i]

		if currentLen == 0 || currentLen+utf8.RuneCountInString(line)+1 <= p.chunkSize {
			appendLine(line)
			i++
			continue
		}

		if IsBoundary(line) && Balanced(current.String()) {
			emit()
			continue
		}

		if j := p.safeBreak(lines, i, current.String()); j > i {
			for ; i < j; i++ {
				appendLine(lines[i])
			}
		}
		emit()
	}
	emit()

	return chunks
}

// safeBreak returns the first line index j in (i, i+lookahead] such that lines[j]
// is a boundary and current extended with lines[i:j] is balanced. Returns i if
// there is none.
func (p *Processor) safeBreak(lines []string, i int, current string) int {
	var extended strings.Builder
	extended.WriteString(current)

	for j := i + 1; j <= i+p.lookahead && j < len(lines); j++ {
		extended.WriteString(lines[j-1])
		extended.WriteByte('\n')
		if IsBoundary(lines[j]) && Balanced(extended.String()) {
			return j
		}
	}

	return i
}

// IsBoundary reports whether a chunk may start at line.
func IsBoundary(line string) bool {
	trimmed := strings.TrimSpace(line)

	switch {
	case headingPattern.MatchString(trimmed):
		return true
	case strings.HasPrefix(trimmed, "```"), rulePattern.MatchString(trimmed):
		return true
	case strings.HasPrefix(trimmed, "|") && !tableDividerRow.MatchString(trimmed):
		return true
	case bulletPattern.MatchString(trimmed), orderedItemPattern.MatchString(trimmed):
		return true
	case strings.HasPrefix(trimmed, ">"):
		return true
	default:
		return false
	}
}

// Balanced reports whether every markdown delimiter opened in text is closed.
// Block math ($$), inline math ($ outside block spans), code fences and bold
// markers must each appear an even number of times.
func Balanced(text string) bool {
	if strings.Count(text, "$$")%2 != 0 {
		return false
	}
	if strings.Count(blockMathSpan.ReplaceAllString(text, ""), "$")%2 != 0 {
		return false
	}
	if strings.Count(text, "```")%2 != 0 {
		return false
	}
	return strings.Count(text, "**")%2 == 0
}
