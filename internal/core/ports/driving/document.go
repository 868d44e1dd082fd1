package driving

import (
	"context"

	"github.com/custodia-labs/readwell/internal/core/domain"
)

// DocumentService reads and deletes processed documents.
type DocumentService interface {
	// List returns all documents for an owner.
	List(ctx context.Context, ownerID string) ([]domain.Document, error)

	// Get retrieves a document by ID.
	Get(ctx context.Context, documentID string) (*domain.Document, error)

	// Content returns the assembled markdown. Empty before the first flush.
	Content(ctx context.Context, documentID string) (string, error)

	// Images returns the stored images with fetchable URLs.
	Images(ctx context.Context, documentID string) ([]ImageView, error)

	// Delete removes the document, its content and its images.
	Delete(ctx context.Context, ownerID, documentID string) error
}

// ImageView is an image reference resolved for display.
type ImageView struct {
	domain.ImageRef

	// URL is where the image can be fetched from.
	URL string
}
