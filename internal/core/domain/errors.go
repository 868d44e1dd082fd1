package domain

import "errors"

// Domain errors represent business logic failures.
// These are distinct from infrastructure errors.
var (
	// ErrNotFound indicates a requested entity does not exist.
	ErrNotFound = errors.New("not found")

	// ErrAlreadyExists indicates an entity already exists.
	ErrAlreadyExists = errors.New("already exists")

	// ErrInvalidInput indicates malformed or invalid input.
	ErrInvalidInput = errors.New("invalid input")

	// ErrUnsupportedType indicates an unknown provider or backend type.
	ErrUnsupportedType = errors.New("unsupported type")

	// Processing Errors.

	// ErrInsufficientContent indicates OCR produced too little text to be worth refining.
	ErrInsufficientContent = errors.New("insufficient content extracted from PDF")

	// ErrMissingCredentials indicates the OCR or LLM service has not been configured.
	ErrMissingCredentials = errors.New("missing OCR or LLM credentials")

	// ErrOwnerMismatch indicates a request was made for a document owned by someone else.
	ErrOwnerMismatch = errors.New("document owner mismatch")

	// ErrRunInProgress indicates a processing run for the document is already in flight.
	ErrRunInProgress = errors.New("processing run in progress")

	// ErrHostNotAllowed indicates a source URL points at a host outside the allow list.
	ErrHostNotAllowed = errors.New("source host not allowed")

	// Service Errors.

	// ErrLLMUnavailable indicates the LLM service is not configured.
	// Refinement and explanations are disabled.
	ErrLLMUnavailable = errors.New("LLM service unavailable")

	// ErrOCRUnavailable indicates the OCR service is not configured.
	ErrOCRUnavailable = errors.New("OCR service unavailable")

	// ErrRateLimited indicates the API rate limit was exceeded.
	ErrRateLimited = errors.New("rate limited")

	// ErrStorage indicates a blob or record storage failure.
	ErrStorage = errors.New("storage failure")
)
