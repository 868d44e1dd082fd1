package driven

import "context"

// BlobStore holds document content and image bytes.
// References returned by Store are opaque to callers.
type BlobStore interface {
	// Store saves data and returns a new reference.
	Store(ctx context.Context, data []byte, contentType string) (string, error)

	// Get returns the bytes stored under ref.
	// Returns domain.ErrNotFound if the reference is unknown.
	Get(ctx context.Context, ref string) ([]byte, error)

	// Delete removes ref. Deleting an unknown reference is not an error.
	Delete(ctx context.Context, ref string) error

	// URL returns a location a client can fetch ref from.
	URL(ctx context.Context, ref string) (string, error)
}
