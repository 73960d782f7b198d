// Package memory provides in-memory implementations of the storage ports,
// used by tests. The ctxpack binary always uses the SQLite store.
package memory
