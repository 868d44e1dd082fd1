// Package driven defines the interfaces that core calls OUT to infrastructure.
//
// These are the "driven" or "secondary" ports in hexagonal architecture.
// Core services depend on these interfaces, and infrastructure adapters
// implement them.
//
// # Required Interfaces
//
// These must be provided for the application to function:
//
//   - DocumentStore: Document record persistence
//   - BlobStore: Content and image bytes
//   - ConfigStore: Application configuration
//   - PostProcessorPipeline: Splits document text into chunks
//
// # Credentialed Interfaces
//
// Processing runs fail fast when these are nil:
//
//   - OCRService: Converts PDFs to page markdown and images
//   - LLMService: Refines chunks and explains selections
//
// # Optional Interfaces
//
//   - Cache: Explanation cache. Falls back to an in-process cache.
//   - PromptStore: User-editable prompts. Falls back to built-in defaults.
//
// # Import Rules
//
//   - Can Import: domain package only
//   - Cannot Import: Any adapter or normaliser package
package driven
