package driving

import (
	"context"

	"github.com/custodia-labs/readwell/internal/core/domain"
)

// IngestService accepts new PDFs and re-runs failed ones.
type IngestService interface {
	// Submit validates req, creates a pending document and queues processing.
	Submit(ctx context.Context, req domain.SubmitRequest) (*domain.Document, error)

	// Retry queues a fresh processing run for an existing document.
	Retry(ctx context.Context, ownerID, documentID string) error

	// Wait blocks until every queued run has finished.
	Wait()
}
