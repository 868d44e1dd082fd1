package services

import (
	"context"
	"errors"
	"fmt"

	"github.com/custodia-labs/readwell/internal/core/domain"
	"github.com/custodia-labs/readwell/internal/core/ports/driven"
	"github.com/custodia-labs/readwell/internal/core/ports/driving"
	"github.com/custodia-labs/readwell/internal/logger"
)

// Ensure DocumentService implements the interface.
var _ driving.DocumentService = (*DocumentService)(nil)

// DocumentService reads processed documents and deletes them with their blobs.
type DocumentService struct {
	docStore   driven.DocumentStore
	blobStore  driven.BlobStore
	dispatcher driving.JobDispatcher
}

// NewDocumentService creates a new document service.
// dispatcher may be nil; deletes are then never refused for in-flight runs.
func NewDocumentService(
	docStore driven.DocumentStore,
	blobStore driven.BlobStore,
	dispatcher driving.JobDispatcher,
) *DocumentService {
	return &DocumentService{
		docStore:   docStore,
		blobStore:  blobStore,
		dispatcher: dispatcher,
	}
}

// List returns all documents for an owner, newest first.
func (s *DocumentService) List(ctx context.Context, ownerID string) ([]domain.Document, error) {
	docs, err := s.docStore.List(ctx, ownerID)
	if err != nil {
		return nil, fmt.Errorf("list documents: %w", err)
	}
	return docs, nil
}

// Get retrieves a document by ID.
func (s *DocumentService) Get(ctx context.Context, documentID string) (*domain.Document, error) {
	return s.docStore.Get(ctx, documentID)
}

// Content returns the assembled markdown, or "" before the first flush.
func (s *DocumentService) Content(ctx context.Context, documentID string) (string, error) {
	doc, err := s.docStore.Get(ctx, documentID)
	if err != nil {
		return "", err
	}
	if doc.ContentRef == "" {
		return "", nil
	}
	data, err := s.blobStore.Get(ctx, doc.ContentRef)
	if err != nil {
		return "", fmt.Errorf("read content: %w", err)
	}
	return string(data), nil
}

// Images returns the stored images with fetchable URLs, in extraction order.
func (s *DocumentService) Images(ctx context.Context, documentID string) ([]driving.ImageView, error) {
	doc, err := s.docStore.Get(ctx, documentID)
	if err != nil {
		return nil, err
	}
	if doc.Metadata == nil {
		return nil, nil
	}

	views := make([]driving.ImageView, 0, len(doc.Metadata.Images))
	for _, ref := range doc.Metadata.Images {
		u, err := s.blobStore.URL(ctx, ref.StorageRef)
		if err != nil {
			return nil, fmt.Errorf("resolve image %s: %w", ref.ID, err)
		}
		views = append(views, driving.ImageView{ImageRef: ref, URL: u})
	}
	return views, nil
}

// Delete removes the document's blobs and then its record.
// Blob failures other than not-found abort before the record is removed,
// so a retry can finish the cleanup.
func (s *DocumentService) Delete(ctx context.Context, ownerID, documentID string) error {
	doc, err := s.docStore.Get(ctx, documentID)
	if err != nil {
		return err
	}
	if doc.OwnerID != ownerID {
		return fmt.Errorf("%w: document %s", domain.ErrOwnerMismatch, documentID)
	}
	if s.dispatcher != nil && s.dispatcher.InFlight(documentID) {
		return fmt.Errorf("%w: document %s", domain.ErrRunInProgress, documentID)
	}

	refs := make([]string, 0, 1)
	if doc.ContentRef != "" {
		refs = append(refs, doc.ContentRef)
	}
	if doc.Metadata != nil {
		for _, img := range doc.Metadata.Images {
			refs = append(refs, img.StorageRef)
		}
	}

	for _, ref := range refs {
		if err := s.blobStore.Delete(ctx, ref); err != nil && !errors.Is(err, domain.ErrNotFound) {
			return fmt.Errorf("%w: delete blob %s: %w", domain.ErrStorage, ref, err)
		}
	}

	if err := s.docStore.Delete(ctx, documentID); err != nil {
		return fmt.Errorf("delete document: %w", err)
	}
	logger.Debug("document: deleted %s and %d blobs", documentID, len(refs))
	return nil
}
