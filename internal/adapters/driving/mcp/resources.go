package mcp

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/modelcontextprotocol/go-sdk/mcp"
)

// uriScheme is the custom URI scheme for ctxpack resources.
const uriScheme = "ctxpack://"

// registerResources registers the resources listing with the MCP server.
func (s *Server) registerResources() {
	s.server.AddResource(&mcp.Resource{
		URI:         uriScheme + "resources",
		Name:        "resources",
		Description: "List of all registered resources",
		MIMEType:    "application/json",
	}, s.handleResourcesResource)
}

// handleResourcesResource returns a JSON listing of every registered
// resource visible to the caller.
func (s *Server) handleResourcesResource(
	ctx context.Context,
	req *mcp.ReadResourceRequest,
) (*mcp.ReadResourceResult, error) {
	if s.ports.Resource == nil {
		return &mcp.ReadResourceResult{
			Contents: []*mcp.ResourceContents{{
				URI:      req.Params.URI,
				MIMEType: "application/json",
				Text:     "[]",
			}},
		}, nil
	}

	resources, err := s.ports.Resource.List(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("listing resources: %w", err)
	}

	type resourceInfo struct {
		ID            string `json:"id"`
		Name          string `json:"name"`
		Kind          string `json:"kind"`
		ContentStatus string `json:"content_status"`
		VectorStatus  string `json:"vector_status"`
	}

	infos := make([]resourceInfo, len(resources))
	for i := range resources {
		r := &resources[i]
		infos[i] = resourceInfo{
			ID:            r.ID,
			Name:          r.DisplayName(),
			Kind:          string(r.Kind),
			ContentStatus: string(r.ContentStatus),
			VectorStatus:  string(r.VectorStatus),
		}
	}

	data, err := json.MarshalIndent(infos, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("marshalling resources: %w", err)
	}

	return &mcp.ReadResourceResult{
		Contents: []*mcp.ResourceContents{{
			URI:      req.Params.URI,
			MIMEType: "application/json",
			Text:     string(data),
		}},
	}, nil
}
