// Package tui provides an interactive terminal reader for processed documents.
// It implements a driving adapter following hexagonal architecture principles.
package tui

import (
	"github.com/custodia-labs/readwell/internal/core/ports/driving"
)

// Ports aggregates the driving ports the TUI needs.
type Ports struct {
	// Documents lists and loads processed documents.
	Documents driving.DocumentService

	// Explainer answers explain requests.
	Explainer driving.Explainer

	// Owner scopes the document list.
	Owner string
}

// Validate ensures all required ports are set.
func (p *Ports) Validate() error {
	if p.Documents == nil {
		return ErrMissingDocumentService
	}
	if p.Explainer == nil {
		return ErrMissingExplainer
	}
	if p.Owner == "" {
		return ErrMissingOwner
	}
	return nil
}
