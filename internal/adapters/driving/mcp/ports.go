package mcp

import (
	"github.com/custodia-labs/ctxpack/internal/core/ports/driving"
)

// Ports aggregates the driving port interfaces the MCP server dispatches
// tool and resource calls to. This is the single injection point for
// wiring the server to the core.
type Ports struct {
	// Search runs hybrid search over registered resources.
	Search driving.SearchService

	// Tools exposes the search/grep/read/list/glob tool surface.
	Tools driving.ToolSurface

	// Agent runs quick-answer and exploration queries. Optional; the
	// server registers no tool for it.
	Agent driving.AgentDriver

	// Resource lists registered resources for the resources listing.
	// Optional: the static resource falls back to an empty list if nil.
	Resource driving.ResourceService
}

// Validate ensures the required ports are set.
func (p *Ports) Validate() error {
	if p.Search == nil {
		return ErrMissingSearchService
	}
	return nil
}
