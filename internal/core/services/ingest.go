package services

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"path"
	"strings"

	"github.com/google/uuid"

	"github.com/custodia-labs/readwell/internal/core/domain"
	"github.com/custodia-labs/readwell/internal/core/ports/driven"
	"github.com/custodia-labs/readwell/internal/core/ports/driving"
	"github.com/custodia-labs/readwell/internal/logger"
)

// Ensure IngestService implements the interface.
var _ driving.IngestService = (*IngestService)(nil)

// IngestService creates document records and hands them to the dispatcher.
type IngestService struct {
	docStore     driven.DocumentStore
	dispatcher   driving.JobDispatcher
	allowedHosts []string
}

// NewIngestService creates a new ingest service.
// allowedHosts are host suffixes accepted for http(s) sources; empty allows any host.
func NewIngestService(
	docStore driven.DocumentStore,
	dispatcher driving.JobDispatcher,
	allowedHosts []string,
) *IngestService {
	hosts := make([]string, 0, len(allowedHosts))
	for _, h := range allowedHosts {
		h = strings.ToLower(strings.Trim(strings.TrimSpace(h), "."))
		if h != "" {
			hosts = append(hosts, h)
		}
	}
	return &IngestService{
		docStore:     docStore,
		dispatcher:   dispatcher,
		allowedHosts: hosts,
	}
}

// Submit validates req, creates a pending document and queues processing.
func (s *IngestService) Submit(ctx context.Context, req domain.SubmitRequest) (*domain.Document, error) {
	if strings.TrimSpace(req.OwnerID) == "" {
		return nil, fmt.Errorf("%w: owner required", domain.ErrInvalidInput)
	}

	locator, err := s.validateSource(req.SourceURL)
	if err != nil {
		return nil, err
	}

	fileName := strings.TrimSpace(req.FileName)
	if fileName == "" {
		fileName = path.Base(locator.Path)
	}
	if fileName == "" || fileName == "." || fileName == "/" {
		return nil, fmt.Errorf("%w: file name required", domain.ErrInvalidInput)
	}

	source := req.Source
	if source == "" {
		source = domain.SourceUpload
	}
	if !source.IsValid() {
		return nil, fmt.Errorf("%w: unknown source %q", domain.ErrInvalidInput, source)
	}

	title := strings.TrimSpace(req.Title)
	if title == "" {
		title = TitleFromFileName(fileName)
	}

	doc := &domain.Document{
		ID:        uuid.NewString(),
		OwnerID:   req.OwnerID,
		Title:     title,
		Source:    source,
		SourceURL: locator.String(),
		FileName:  fileName,
		Status:    domain.StatusPending,
		Metadata:  &domain.Metadata{},
	}
	if err := s.docStore.Create(ctx, doc); err != nil {
		return nil, fmt.Errorf("create document: %w", err)
	}
	logger.Debug("ingest: created %s for %s", doc.ID, doc.SourceURL)

	if err := s.enqueue(ctx, doc, false); err != nil {
		return doc, err
	}
	return doc, nil
}

// Retry queues a fresh run for an existing document.
// The dispatcher's per-document guard decides whether the run may start;
// the run itself resets the record to pending.
func (s *IngestService) Retry(ctx context.Context, ownerID, documentID string) error {
	doc, err := s.docStore.Get(ctx, documentID)
	if err != nil {
		return fmt.Errorf("get document: %w", err)
	}
	if doc.OwnerID != ownerID {
		return fmt.Errorf("%w: document %s", domain.ErrOwnerMismatch, documentID)
	}
	return s.enqueue(ctx, doc, true)
}

// Wait blocks until every queued run has finished.
func (s *IngestService) Wait() {
	s.dispatcher.Wait()
}

// enqueue hands doc to the dispatcher. A refused run marks the record
// failed unless another run already owns it.
func (s *IngestService) enqueue(ctx context.Context, doc *domain.Document, restart bool) error {
	err := s.dispatcher.Enqueue(domain.ProcessRequest{
		OwnerID:    doc.OwnerID,
		DocumentID: doc.ID,
		SourceURL:  doc.SourceURL,
		FileName:   doc.FileName,
		Title:      doc.Title,
		Restart:    restart,
	})
	if err == nil {
		return nil
	}
	if errors.Is(err, domain.ErrRunInProgress) {
		return err
	}

	status := domain.StatusFailed
	msg := "could not queue processing: " + err.Error()
	if patchErr := s.docStore.Patch(context.WithoutCancel(ctx), doc.ID, domain.DocumentPatch{
		Status: &status,
		Error:  &msg,
	}); patchErr != nil {
		logger.Warn("ingest: mark %s failed: %v", doc.ID, patchErr)
	}
	return fmt.Errorf("enqueue: %w", err)
}

// validateSource parses raw and applies the host allowlist.
func (s *IngestService) validateSource(raw string) (*url.URL, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return nil, fmt.Errorf("%w: source URL required", domain.ErrInvalidInput)
	}

	u, err := url.Parse(raw)
	if err != nil {
		return nil, fmt.Errorf("%w: source URL: %w", domain.ErrInvalidInput, err)
	}

	switch strings.ToLower(u.Scheme) {
	case "file":
		if u.Path == "" {
			return nil, fmt.Errorf("%w: file URL has no path", domain.ErrInvalidInput)
		}
		return u, nil
	case "http", "https":
		if !s.hostAllowed(u.Hostname()) {
			return nil, fmt.Errorf("%w: %s", domain.ErrHostNotAllowed, u.Hostname())
		}
		return u, nil
	default:
		return nil, fmt.Errorf("%w: unsupported URL scheme %q", domain.ErrInvalidInput, u.Scheme)
	}
}

// hostAllowed matches host against the allowlist by exact name or subdomain.
func (s *IngestService) hostAllowed(host string) bool {
	host = strings.ToLower(strings.TrimSuffix(host, "."))
	if host == "" {
		return false
	}
	if len(s.allowedHosts) == 0 {
		return true
	}
	for _, allowed := range s.allowedHosts {
		if host == allowed || strings.HasSuffix(host, "."+allowed) {
			return true
		}
	}
	return false
}
