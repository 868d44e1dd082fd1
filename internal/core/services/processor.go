package services

import (
	"context"
	"errors"
	"fmt"
	"path"
	"strings"
	"time"

	"github.com/custodia-labs/readwell/internal/core/domain"
	"github.com/custodia-labs/readwell/internal/core/ports/driven"
	"github.com/custodia-labs/readwell/internal/core/ports/driving"
	"github.com/custodia-labs/readwell/internal/logger"
)

// Ensure Processor implements the interface.
var _ driving.DocumentProcessor = (*Processor)(nil)

// ImageDecoder turns an extracted image data URI into its MIME type and bytes.
type ImageDecoder func(dataURI string) (string, []byte, error)

// Processor runs the ingestion pipeline for a single document:
// OCR, normalisation, image storage, chunking, refinement and incremental assembly.
// A run is strictly sequential.
type Processor struct {
	docStore   driven.DocumentStore
	blobStore  driven.BlobStore
	ocr        driven.OCRService
	normaliser driven.Normaliser
	pipeline   driven.PostProcessorPipeline
	refiners   driven.RefinerFactory
	decode     ImageDecoder
	settings   domain.ProcessingSettings
}

// NewProcessor creates a new document processor.
// ocr and refiners may be nil when credentials are missing; runs then fail
// with domain.ErrMissingCredentials before any external call.
func NewProcessor(
	docStore driven.DocumentStore,
	blobStore driven.BlobStore,
	ocr driven.OCRService,
	normaliser driven.Normaliser,
	pipeline driven.PostProcessorPipeline,
	refiners driven.RefinerFactory,
	decode ImageDecoder,
	settings domain.ProcessingSettings,
) *Processor {
	defaults := domain.DefaultProcessingSettings()
	if settings.FlushEvery <= 0 {
		settings.FlushEvery = defaults.FlushEvery
	}
	if settings.PreviewLength <= 0 {
		settings.PreviewLength = defaults.PreviewLength
	}

	return &Processor{
		docStore:   docStore,
		blobStore:  blobStore,
		ocr:        ocr,
		normaliser: normaliser,
		pipeline:   pipeline,
		refiners:   refiners,
		decode:     decode,
		settings:   settings,
	}
}

// Process runs the pipeline for req.
//
// Any failure after the ownership check is recorded on the document as
// status failed with the error message, leaving previously flushed content
// in place. The failure write survives cancellation of ctx.
func (p *Processor) Process(ctx context.Context, req domain.ProcessRequest) error {
	logger.Section("Process " + req.DocumentID)
	started := time.Now()

	doc, err := p.docStore.Get(ctx, req.DocumentID)
	if err != nil {
		return fmt.Errorf("get document: %w", err)
	}
	if doc.OwnerID != req.OwnerID {
		return fmt.Errorf("%w: document %s", domain.ErrOwnerMismatch, req.DocumentID)
	}

	if req.Restart {
		if err := p.reset(ctx, doc); err != nil {
			return err
		}
	}

	if err := p.run(ctx, req, doc); err != nil {
		p.RecordFailure(ctx, req.DocumentID, err)
		return err
	}

	logger.L().Info("document processed", "document", req.DocumentID, "duration", time.Since(started).Round(time.Millisecond))
	return nil
}

// reset marks doc pending with no progress or error. Content from the
// previous run stays readable until the first flush replaces it.
func (p *Processor) reset(ctx context.Context, doc *domain.Document) error {
	status := domain.StatusPending
	progress := 0
	cleared := ""
	if err := p.docStore.Patch(ctx, doc.ID, domain.DocumentPatch{
		Status:   &status,
		Progress: &progress,
		Error:    &cleared,
	}); err != nil {
		return fmt.Errorf("reset document: %w", err)
	}
	doc.Status = status
	doc.Progress = progress
	doc.Error = cleared
	return nil
}

func (p *Processor) run(ctx context.Context, req domain.ProcessRequest, doc *domain.Document) error {
	if p.ocr == nil || p.refiners == nil {
		return domain.ErrMissingCredentials
	}

	logger.Debug("processor: OCR %s", req.SourceURL)
	result, err := p.ocr.Process(ctx, req.SourceURL)
	if err != nil {
		return fmt.Errorf("ocr: %w", err)
	}

	normalised, err := p.normaliser.Normalise(ctx, result)
	if err != nil {
		return err
	}

	images, err := p.storeImages(ctx, normalised.Images)
	if err != nil {
		return err
	}

	chunks, err := p.pipeline.Process(ctx, &domain.Draft{DocumentID: doc.ID, Content: normalised.Text})
	if err != nil {
		p.discardImages(ctx, images)
		return fmt.Errorf("chunk: %w", err)
	}
	if len(chunks) == 0 {
		p.discardImages(ctx, images)
		return domain.ErrInsufficientContent
	}
	logger.Debug("processor: %d chunks, %d images", len(chunks), len(images))

	base := &domain.Metadata{Images: images}
	if doc.Metadata != nil {
		base.Author = doc.Metadata.Author
		base.PublishedDate = doc.Metadata.PublishedDate
		base.Tags = doc.Metadata.Tags
	}

	asm := NewAssembler(p.docStore, p.blobStore, doc.ID, len(chunks),
		WithFlushEvery(p.settings.FlushEvery),
		WithBaseMetadata(base),
		WithPreviousContent(doc.ContentRef),
	)

	preview := truncateRunes(normalised.Text, p.settings.PreviewLength)
	if err := asm.Preview(ctx, resolveTitle(req, doc), preview, normalised.Text); err != nil {
		p.discardImages(ctx, images)
		return err
	}
	p.dropSupersededImages(ctx, doc.Metadata, images)

	refiner := p.refiners()
	for i, chunk := range chunks {
		refined, err := refiner.Refine(ctx, chunk.Content)
		if err != nil {
			return fmt.Errorf("refine chunk %d/%d: %w", i+1, len(chunks), err)
		}
		if err := asm.Add(ctx, refined); err != nil {
			return err
		}
	}

	return nil
}

// storeImages decodes and stores every extracted image in order.
// Any failure aborts the run; images stored so far are removed.
func (p *Processor) storeImages(ctx context.Context, images []domain.ExtractedImage) ([]domain.ImageRef, error) {
	refs := make([]domain.ImageRef, 0, len(images))
	for _, img := range images {
		mime, data, err := p.decode(img.DataURI)
		if err != nil {
			p.discardImages(ctx, refs)
			return nil, fmt.Errorf("decode image %s: %w", img.ID, err)
		}

		ref, err := p.blobStore.Store(ctx, data, mime)
		if err != nil {
			p.discardImages(ctx, refs)
			return nil, fmt.Errorf("%w: store image %s: %w", domain.ErrStorage, img.ID, err)
		}

		refs = append(refs, domain.ImageRef{Index: img.Index, ID: img.ID, StorageRef: ref})
	}
	return refs, nil
}

// discardImages removes image blobs that never made it onto the record.
func (p *Processor) discardImages(ctx context.Context, refs []domain.ImageRef) {
	ctx = context.WithoutCancel(ctx)
	for _, ref := range refs {
		if err := p.blobStore.Delete(ctx, ref.StorageRef); err != nil {
			logger.Warn("processor: delete image %s: %v", ref.StorageRef, err)
		}
	}
}

// dropSupersededImages removes images from a previous run once the record
// points at the new set.
func (p *Processor) dropSupersededImages(ctx context.Context, previous *domain.Metadata, current []domain.ImageRef) {
	if previous == nil || len(previous.Images) == 0 {
		return
	}

	keep := make(map[string]bool, len(current))
	for _, ref := range current {
		keep[ref.StorageRef] = true
	}

	var stale []domain.ImageRef
	for _, ref := range previous.Images {
		if !keep[ref.StorageRef] {
			stale = append(stale, ref)
		}
	}
	p.discardImages(ctx, stale)
}

// RecordFailure marks the document failed with cause. It runs detached from
// ctx so cancellation and deadline expiry are still recorded.
func (p *Processor) RecordFailure(ctx context.Context, documentID string, cause error) {
	ctx = context.WithoutCancel(ctx)

	status := domain.StatusFailed
	msg := failureMessage(cause)
	if err := p.docStore.Patch(ctx, documentID, domain.DocumentPatch{Status: &status, Error: &msg}); err != nil {
		logger.Error("processor: record failure for %s: %v", documentID, err)
		return
	}
	logger.Warn("processor: document %s failed: %s", documentID, msg)
}

func failureMessage(err error) string {
	switch {
	case errors.Is(err, context.DeadlineExceeded):
		return "processing timed out: " + err.Error()
	case err.Error() == "":
		return "unknown error"
	default:
		return err.Error()
	}
}

// resolveTitle prefers the requested title, then the file name without its
// .pdf extension, then the existing title.
func resolveTitle(req domain.ProcessRequest, doc *domain.Document) string {
	if t := strings.TrimSpace(req.Title); t != "" {
		return t
	}
	if name := TitleFromFileName(req.FileName); name != "" {
		return name
	}
	return doc.Title
}

// TitleFromFileName strips directories and a trailing .pdf extension, case-insensitively.
func TitleFromFileName(name string) string {
	name = path.Base(strings.ReplaceAll(strings.TrimSpace(name), "\\", "/"))
	if name == "." || name == "/" {
		return ""
	}
	if ext := path.Ext(name); strings.EqualFold(ext, ".pdf") {
		name = strings.TrimSuffix(name, ext)
	}
	return name
}

func truncateRunes(s string, n int) string {
	if n <= 0 {
		return s
	}
	count := 0
	for i := range s {
		if count == n {
			return s[:i]
		}
		count++
	}
	return s
}
