// Package driving defines interfaces that external actors (an HTTP surface,
// a CLI, an MCP tool host) use to drive the core: resource registration,
// job scheduling, hybrid search, the agent driver and the tool surface.
//
// Implementations of these interfaces live in internal/core/services.
package driving
