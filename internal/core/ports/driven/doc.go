// Package driven defines the interfaces that core calls OUT to infrastructure.
//
// These are the "driven" or "secondary" ports in hexagonal architecture.
// Core services depend on these interfaces, and infrastructure adapters
// implement them.
//
// # Interfaces
//
//   - Embedder: Converts text to fixed-length vectors
//   - Generator: Streams a text completion for a prompt
//   - ModelCatalog: Lists models and probes daemon liveness
//   - CollectionStore / Collection: Vector index persistence
//   - Extractor / ExtractorRegistry: Yields page text for a document
//   - Chunker: Splits page text into chunks
//   - ConfigStore: Application configuration
//
// # Import Rules
//
//   - Can Import: domain package only
//   - Cannot Import: Any adapter package
package driven
