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
//   - CorpusStore: Per-channel chunk and vector persistence (Qdrant or in-memory)
//   - PromptStore: Versioned prompt persistence
//   - ConfigStore: Application configuration
//
// # Optional Interfaces
//
// These can be nil - the application degrades gracefully:
//
//   - EmbeddingService: Generates query embeddings. Without it, retrieval is disabled.
//   - LLMService: Language model operations. Without it, query expansion and
//     re-ranking are skipped and answers fall back to retrieval-only output.
//   - AnswerCache: Response caching. Without it, every question hits the LLM.
//
// # Import Rules
//
//   - Can Import: domain package only
//   - Cannot Import: Any adapter package
package driven
