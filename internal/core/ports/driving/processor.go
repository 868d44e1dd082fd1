package driving

import (
	"context"

	"github.com/custodia-labs/readwell/internal/core/domain"
)

// DocumentProcessor runs the ingestion pipeline for one document.
type DocumentProcessor interface {
	// Process OCRs, cleans, chunks, refines and stores the document.
	// Failures are recorded on the document record and also returned.
	Process(ctx context.Context, req domain.ProcessRequest) error
}

// JobDispatcher runs processing requests in the background.
type JobDispatcher interface {
	// Enqueue schedules req. Returns domain.ErrRunInProgress if the document
	// already has a run in flight.
	Enqueue(req domain.ProcessRequest) error

	// InFlight reports whether a run for documentID is queued or running.
	InFlight(documentID string) bool

	// Wait blocks until every enqueued run has finished.
	Wait()

	// Stop cancels running jobs and waits for them to exit.
	Stop()
}
