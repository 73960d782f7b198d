// Package mcp exposes ctxpack's search and tool-surface ports over the
// Model Context Protocol, so any MCP-speaking assistant can
// search and browse registered resources without going through the CLI.
package mcp

import "errors"

// ErrMissingSearchService is returned when the search service is not provided.
var ErrMissingSearchService = errors.New("mcp: search service is required")
