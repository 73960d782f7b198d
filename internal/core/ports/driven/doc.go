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
//   - Materializer: brings a Resource's content onto the filesystem (git clone/fetch or local path validation)
//   - TextSearcher: live grep over materialized files for the text search subtrack
//   - ResourceStore, ChunkStore, JobStore, ResearchJobStore: metadata persistence
//
// # Optional Interfaces
//
// These can be nil - the application degrades gracefully:
//
//   - VectorIndex: Vector storage/search (HNSWlib). Only enabled when an Embedder is configured.
//   - Embedder: Generates vector embeddings. Without it, the vector subtrack is disabled.
//   - ChatModel: Language model operations. Used only by the Agent Driver.
//
// # Import Rules
//
//   - Can Import: domain package only
//   - Cannot Import: Any adapter package
package driven
