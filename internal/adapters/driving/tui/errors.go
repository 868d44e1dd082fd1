package tui

import "errors"

// ErrMissingDocumentService is returned when the document service is not provided.
var ErrMissingDocumentService = errors.New("tui: document service is required")

// ErrMissingExplainer is returned when the explainer is not provided.
var ErrMissingExplainer = errors.New("tui: explainer is required")

// ErrMissingOwner is returned when no owner is set.
var ErrMissingOwner = errors.New("tui: owner is required")
