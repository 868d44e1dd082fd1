package driven

import (
	"context"

	"github.com/custodia-labs/readwell/internal/core/domain"
)

// OCRService turns a PDF into structured page markdown and images.
type OCRService interface {
	// Process runs OCR on the PDF at locator.
	// Locators are http(s) URLs or file:// paths.
	Process(ctx context.Context, locator string) (*domain.OCRResult, error)

	// Close releases resources.
	Close() error
}
