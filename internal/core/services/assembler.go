package services

import (
	"context"
	"fmt"
	"math"
	"strings"

	"github.com/custodia-labs/readwell/internal/core/domain"
	"github.com/custodia-labs/readwell/internal/core/ports/driven"
	"github.com/custodia-labs/readwell/internal/logger"
	"github.com/custodia-labs/readwell/internal/normalisers/textclean"
)

// contentType is the MIME type of assembled document content.
const contentType = "text/markdown"

// Assembler accumulates refined chunks and writes batched progress updates
// to the document record.
//
// Every write replaces the content blob and the full metadata tuple together,
// so readers never see word counts that disagree with the stored content.
type Assembler struct {
	docs  driven.DocumentStore
	blobs driven.BlobStore

	documentID string
	total      int
	flushEvery int

	base       domain.Metadata
	parts      []string
	progress   int
	contentRef string
}

// AssemblerOption configures an Assembler.
type AssemblerOption func(*Assembler)

// WithFlushEvery sets how many chunks are accumulated per write.
func WithFlushEvery(n int) AssemblerOption {
	return func(a *Assembler) {
		if n > 0 {
			a.flushEvery = n
		}
	}
}

// WithBaseMetadata carries author, date, tags and images into every write.
func WithBaseMetadata(meta *domain.Metadata) AssemblerOption {
	return func(a *Assembler) {
		if meta != nil {
			a.base = *meta.Clone()
		}
	}
}

// WithPreviousContent sets the content blob the first write supersedes.
func WithPreviousContent(ref string) AssemblerOption {
	return func(a *Assembler) {
		a.contentRef = ref
	}
}

// NewAssembler creates an assembler for total chunks of documentID.
func NewAssembler(
	docs driven.DocumentStore,
	blobs driven.BlobStore,
	documentID string,
	total int,
	opts ...AssemblerOption,
) *Assembler {
	a := &Assembler{
		docs:       docs,
		blobs:      blobs,
		documentID: documentID,
		total:      total,
		flushEvery: domain.DefaultProcessingSettings().FlushEvery,
	}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

// Preview writes the unrefined opening of the document at 1% progress and
// clears any error left by a previous run.
// Word count and reading time describe fullText, not the preview.
func (a *Assembler) Preview(ctx context.Context, title, preview, fullText string) error {
	words := textclean.WordCount(fullText)
	cleared := ""
	return a.write(ctx, preview, words, 1, domain.StatusProcessing, func(p *domain.DocumentPatch) {
		p.Title = &title
		p.Error = &cleared
	})
}

// Add appends a refined chunk and flushes when a batch is complete
// or the last chunk has arrived.
func (a *Assembler) Add(ctx context.Context, refined string) error {
	if a.Done() {
		return fmt.Errorf("%w: all %d chunks already assembled", domain.ErrInvalidInput, a.total)
	}

	a.parts = append(a.parts, refined)
	done := len(a.parts)

	if done%a.flushEvery != 0 && done != a.total {
		return nil
	}

	status := domain.StatusProcessing
	if done == a.total {
		status = domain.StatusCompleted
	}

	content := a.Content()
	return a.write(ctx, content, textclean.WordCount(content), a.percent(done), status, nil)
}

// Done reports whether every chunk has been added.
func (a *Assembler) Done() bool {
	return len(a.parts) >= a.total
}

// Content returns the chunks assembled so far.
func (a *Assembler) Content() string {
	return strings.Join(a.parts, "\n\n")
}

// Progress returns the last progress value written.
func (a *Assembler) Progress() int {
	return a.progress
}

func (a *Assembler) percent(done int) int {
	if a.total <= 0 || done >= a.total {
		return 100
	}
	p := int(math.Round(float64(done) / float64(a.total) * 100))
	return max(p, a.progress)
}

// write stores content as a new blob, points the record at it, then drops
// the superseded blob.
func (a *Assembler) write(
	ctx context.Context,
	content string,
	words int,
	progress int,
	status domain.ProcessingStatus,
	extra func(*domain.DocumentPatch),
) error {
	progress = max(progress, a.progress)

	ref, err := a.blobs.Store(ctx, []byte(content), contentType)
	if err != nil {
		return fmt.Errorf("%w: store content: %w", domain.ErrStorage, err)
	}

	meta := a.base.Clone()
	meta.WordCount = words
	meta.EstimatedReadingTime = textclean.ReadingTime(words)

	patch := domain.DocumentPatch{
		ContentRef: &ref,
		Status:     &status,
		Progress:   &progress,
		Metadata:   meta,
	}
	if extra != nil {
		extra(&patch)
	}
	if err := a.docs.Patch(ctx, a.documentID, patch); err != nil {
		if delErr := a.blobs.Delete(context.WithoutCancel(ctx), ref); delErr != nil {
			logger.Warn("assembler: drop orphaned content %s: %v", ref, delErr)
		}
		return fmt.Errorf("%w: update document: %w", domain.ErrStorage, err)
	}

	previous := a.contentRef
	a.contentRef = ref
	a.progress = progress

	if previous != "" && previous != ref {
		if err := a.blobs.Delete(ctx, previous); err != nil {
			logger.Warn("assembler: delete superseded content %s: %v", previous, err)
		}
	}

	logger.Debug("assembler: document %s at %d%% (%s)", a.documentID, progress, status)
	return nil
}
