package driven

import (
	"context"

	"github.com/custodia-labs/readwell/internal/core/domain"
)

// Normaliser turns raw OCR output into clean document text and images.
type Normaliser interface {
	// Normalise extracts text and images from an OCR result.
	// Returns domain.ErrInsufficientContent when too little text survives.
	Normalise(ctx context.Context, result *domain.OCRResult) (*NormaliseResult, error)
}

// NormaliseResult contains the output of normalisation.
// Chunking is handled by the PostProcessor pipeline.
type NormaliseResult struct {
	// Text is the cleaned markdown of all pages.
	Text string

	// Images are the extracted images in page order.
	Images []domain.ExtractedImage
}
