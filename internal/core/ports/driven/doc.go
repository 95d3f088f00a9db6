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
//   - KnowledgeStore: Chunk and question/answer history persistence
//   - Ranker: Orders candidate vectors by similarity to a query
//   - Chunker: Splits document text before embedding
//   - TextExtractor: Selects a Normaliser by file extension
//   - ConfigStore: Application configuration
//
// # Optional Interfaces
//
// These can be nil - the application degrades gracefully:
//
//   - EmbeddingService: Without it nothing can be ingested or asked, but
//     listing, rename, delete and keyword history search still work.
//   - LLMService: Answer generation. Without it questions cannot be answered.
//   - PromptStore: Customisable prompt templates. Without it, built-in
//     defaults are used.
//   - FileStore: Keeps uploaded originals. Only the HTTP API needs it.
//   - AIConfigValidator: Pings providers when settings change.
//
// # Import Rules
//
//   - Can Import: domain package only
//   - Cannot Import: Any adapter or normaliser package
package driven
