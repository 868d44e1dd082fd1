package driving

import (
	"context"

	"github.com/custodia-labs/readwell/internal/core/domain"
)

// Explainer produces plain-language explanations of a text selection.
type Explainer interface {
	// Explain returns an ELI5, summary and jargon breakdown of text.
	Explain(ctx context.Context, text string) (*domain.Explanation, error)
}
