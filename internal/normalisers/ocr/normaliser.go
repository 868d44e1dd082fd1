// Package ocr turns OCR service output into clean markdown and images.
package ocr

import (
	"context"
	"encoding/base64"
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/custodia-labs/readwell/internal/core/domain"
	"github.com/custodia-labs/readwell/internal/core/ports/driven"
	"github.com/custodia-labs/readwell/internal/normalisers/textclean"
)

// DefaultMinTextLength is the minimum number of characters a usable document has.
const DefaultMinTextLength = 50

// Ensure Normaliser implements the interface.
var _ driven.Normaliser = (*Normaliser)(nil)

// Normaliser extracts text and images from OCR results.
type Normaliser struct {
	minTextLength int
}

// Option configures the normaliser.
type Option func(*Normaliser)

// WithMinTextLength sets the minimum normalised text length.
func WithMinTextLength(n int) Option {
	return func(nm *Normaliser) {
		if n > 0 {
			nm.minTextLength = n
		}
	}
}

// New creates a new OCR normaliser.
func New(opts ...Option) *Normaliser {
	n := &Normaliser{minTextLength: DefaultMinTextLength}
	for _, opt := range opts {
		opt(n)
	}
	return n
}

// Normalise extracts cleaned text and images from result.
func (n *Normaliser) Normalise(_ context.Context, result *domain.OCRResult) (*driven.NormaliseResult, error) {
	if result == nil {
		return nil, fmt.Errorf("%w: nil OCR result", domain.ErrInvalidInput)
	}

	text := ExtractText(result)
	if utf8.RuneCountInString(text) < n.minTextLength {
		return nil, domain.ErrInsufficientContent
	}

	return &driven.NormaliseResult{
		Text:   text,
		Images: ExtractImages(result),
	}, nil
}

// ExtractText joins page markdown with blank lines and normalises it.
// Pages without markdown fall back to their plain text.
func ExtractText(result *domain.OCRResult) string {
	if result == nil {
		return ""
	}

	parts := make([]string, 0, len(result.Pages))
	for _, page := range result.Pages {
		body := page.Markdown
		if body == "" {
			body = page.Text
		}
		parts = append(parts, body)
	}

	return textclean.Normalise(strings.TrimSpace(strings.Join(parts, "\n\n")))
}

// ExtractImages flattens page images into a sequentially indexed list.
// Images without a payload are skipped and do not consume an index.
func ExtractImages(result *domain.OCRResult) []domain.ExtractedImage {
	if result == nil {
		return nil
	}

	var images []domain.ExtractedImage
	for _, page := range result.Pages {
		for _, img := range page.Images {
			payload := strings.TrimSpace(img.ImageBase64)
			if payload == "" {
				continue
			}

			index := len(images) + 1
			id := img.ID
			if id == "" {
				id = fmt.Sprintf("img-%d", index)
			}

			images = append(images, domain.ExtractedImage{
				Index:   index,
				ID:      id,
				DataURI: toDataURI(payload),
			})
		}
	}

	return images
}

// SniffMIME guesses an image MIME type from the first bytes of a base64 payload.
func SniffMIME(payload string) string {
	switch {
	case strings.HasPrefix(payload, "/9j/"):
		return "image/jpeg"
	case strings.HasPrefix(payload, "iVBORw0KGgo"):
		return "image/png"
	case strings.HasPrefix(payload, "R0lGOD"):
		return "image/gif"
	case strings.HasPrefix(payload, "UklGR"):
		return "image/webp"
	default:
		return "image/png"
	}
}

// DecodeDataURI splits a data:<mime>;base64,<payload> string into its MIME type and bytes.
func DecodeDataURI(uri string) (string, []byte, error) {
	rest, ok := strings.CutPrefix(uri, "data:")
	if !ok {
		return "", nil, fmt.Errorf("%w: not a data URI", domain.ErrInvalidInput)
	}

	header, payload, ok := strings.Cut(rest, ",")
	if !ok {
		return "", nil, fmt.Errorf("%w: data URI has no payload", domain.ErrInvalidInput)
	}

	mime, ok := strings.CutSuffix(header, ";base64")
	if !ok {
		return "", nil, fmt.Errorf("%w: data URI is not base64", domain.ErrInvalidInput)
	}

	data, err := base64.StdEncoding.DecodeString(payload)
	if err != nil {
		return "", nil, fmt.Errorf("decode image payload: %w", err)
	}

	return mime, data, nil
}

func toDataURI(payload string) string {
	if strings.HasPrefix(payload, "data:") {
		return payload
	}
	return "data:" + SniffMIME(payload) + ";base64," + payload
}
