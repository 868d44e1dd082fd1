// Package domain defines the core business entities for readwell.
//
// This package is part of the hexagonal architecture's innermost layer.
// It has NO external dependencies and defines the fundamental types:
//
//   - Document: A user-owned reading record and its processing state
//   - Metadata / ImageRef: Derived facts about the assembled content
//   - Chunk: A slice of document text refined as a unit
//   - OCRResult: Structured OCR output for a PDF
//
// # Architectural Position
//
// Domain is at the centre of the hexagon. It may only import
// the Go standard library. All other packages depend on domain,
// never the reverse.
//
// # Import Rules
//
//   - Can Import: Standard library only
//   - Cannot Import: Any internal/ package, any external dependency
package domain
