package driven

import (
	"context"

	"github.com/custodia-labs/readwell/internal/core/domain"
)

// DocumentStore persists document records.
type DocumentStore interface {
	// Create stores a new document.
	Create(ctx context.Context, doc *domain.Document) error

	// Get retrieves a document by ID.
	// Returns domain.ErrNotFound if it does not exist.
	Get(ctx context.Context, id string) (*domain.Document, error)

	// Patch applies a partial update and bumps UpdatedAt.
	// Returns domain.ErrNotFound if the document does not exist.
	Patch(ctx context.Context, id string, patch domain.DocumentPatch) error

	// List returns documents for an owner, newest first.
	List(ctx context.Context, ownerID string) ([]domain.Document, error)

	// Delete removes a document record.
	Delete(ctx context.Context, id string) error
}
