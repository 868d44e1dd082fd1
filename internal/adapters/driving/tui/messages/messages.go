// Package messages defines Bubbletea message types for the TUI.
package messages

import (
	"github.com/custodia-labs/readwell/internal/core/domain"
)

// ViewType identifies which view is currently active.
type ViewType int

const (
	// ViewDocuments lists the owner's documents.
	ViewDocuments ViewType = iota
	// ViewReader shows one document's markdown.
	ViewReader
	// ViewExplain asks the explainer about a passage.
	ViewExplain
)

// String returns the string representation of the view type.
func (v ViewType) String() string {
	switch v {
	case ViewDocuments:
		return "documents"
	case ViewReader:
		return "reader"
	case ViewExplain:
		return "explain"
	default:
		return "unknown"
	}
}

// ViewChanged is sent when navigating between views.
type ViewChanged struct {
	View ViewType
}

// DocumentsLoaded carries the owner's documents.
type DocumentsLoaded struct {
	Documents []domain.Document
	Err       error
}

// DocumentSelected signals a document was opened.
type DocumentSelected struct {
	Document domain.Document
}

// DocumentContentLoaded carries the markdown of a document.
type DocumentContentLoaded struct {
	DocumentID string
	Content    string
	Err        error
}

// ExplainRequested opens the explain view, optionally prefilled.
type ExplainRequested struct {
	Text string
}

// ExplanationLoaded carries the explainer's answer.
type ExplanationLoaded struct {
	Text        string
	Explanation *domain.Explanation
	Err         error
}

// RefreshTick triggers a reload while documents are still being processed.
type RefreshTick struct{}

// ErrorOccurred signals that an error happened.
type ErrorOccurred struct {
	Err error
}
