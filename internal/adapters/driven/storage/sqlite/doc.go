// Package sqlite provides a unified SQLite-based implementation of the
// driven storage port interfaces.
//
// This adapter uses modernc.org/sqlite, a pure Go SQLite implementation that
// requires no CGO, enabling easy cross-compilation. It implements multiple
// store interfaces through a single database connection:
//
//   - ResourceStore: resource (repository/directory) metadata persistence
//   - ChunkStore: chunk content, embeddings, and candidate-scan support
//   - JobStore: sync/index job lifecycle persistence
//   - ResearchJobStore: asynchronous deep-research job persistence
//
// # Schema
//
// The database schema is managed through versioned migrations stored in the
// migrations/ directory. Each migration is a pair of .up.sql and .down.sql
// files.
//
// # Data Location
//
// By default, the database path is resolved by the process configuration
// layer (~/.ctxpack/metadata.db).
//
// # Thread Safety
//
// All operations are thread-safe. The store uses database-level locking
// provided by SQLite in WAL mode.
package sqlite
