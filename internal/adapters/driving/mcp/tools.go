package mcp

import (
	"context"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/custodia-labs/ctxpack/internal/core/domain"
)

// SearchInput is the input schema for the search tool.
type SearchInput struct {
	Query       string   `json:"query" jsonschema:"the search query"`
	ResourceIDs []string `json:"resource_ids,omitempty" jsonschema:"restrict to these resource IDs; empty searches every visible resource"`
	TopK        int      `json:"top_k,omitempty" jsonschema:"maximum number of results to return (default 10)"`
}

// SearchOutput is the output schema for the search tool.
type SearchOutput struct {
	Results []SearchHitOutput `json:"results"`
	Count   int               `json:"count"`
}

// SearchHitOutput is one hybrid search hit.
type SearchHitOutput struct {
	ResourceID   string  `json:"resource_id"`
	ResourceName string  `json:"resource_name"`
	Filepath     string  `json:"filepath"`
	LineStart    int     `json:"line_start"`
	LineEnd      int     `json:"line_end"`
	Text         string  `json:"text"`
	Score        float64 `json:"score"`
	MatchType    string  `json:"match_type"`
}

// ToolSearchInput is the input schema for the per-resource search tool.
type ToolSearchInput struct {
	ResourceID string `json:"resource_id" jsonschema:"the resource to search within"`
	Query      string `json:"query" jsonschema:"the search query"`
	TopK       int    `json:"top_k,omitempty" jsonschema:"maximum number of results (default 10)"`
}

// ToolSearchOutput is the output schema for the per-resource search tool.
type ToolSearchOutput struct {
	Hits []ToolSearchHitOutput `json:"hits"`
}

// ToolSearchHitOutput is a truncated preview of one search hit.
type ToolSearchHitOutput struct {
	Filepath  string  `json:"filepath"`
	LineStart int     `json:"line_start"`
	LineEnd   int     `json:"line_end"`
	Preview   string  `json:"preview"`
	Score     float64 `json:"score"`
}

// GrepInput is the input schema for the grep tool.
type GrepInput struct {
	ResourceID string `json:"resource_id" jsonschema:"the resource to grep within"`
	Pattern    string `json:"pattern" jsonschema:"the literal string or regular expression to match"`
	IsRegex    bool   `json:"is_regex,omitempty" jsonschema:"treat pattern as a regular expression"`
}

// GrepOutput is the output schema for the grep tool.
type GrepOutput struct {
	Matches []GrepMatchOutput `json:"matches"`
}

// GrepMatchOutput is one matched line.
type GrepMatchOutput struct {
	Filepath string `json:"filepath"`
	Line     int    `json:"line"`
	Text     string `json:"text"`
}

// ReadInput is the input schema for the read tool.
type ReadInput struct {
	ResourceID string `json:"resource_id" jsonschema:"the resource to read from"`
	Filepath   string `json:"filepath" jsonschema:"the file path, relative to the resource root"`
	LineStart  int    `json:"line_start,omitempty" jsonschema:"first line to include, 1-based (default 1)"`
	LineEnd    int    `json:"line_end,omitempty" jsonschema:"last line to include (default: end of file)"`
}

// ReadOutput is the output schema for the read tool.
type ReadOutput struct {
	Content string `json:"content"`
}

// ListInput is the input schema for the list tool.
type ListInput struct {
	ResourceID string `json:"resource_id" jsonschema:"the resource to list within"`
	Dir        string `json:"dir,omitempty" jsonschema:"directory path, relative to the resource root (default: root)"`
}

// GlobInput is the input schema for the glob tool.
type GlobInput struct {
	ResourceID string `json:"resource_id" jsonschema:"the resource to glob within"`
	Pattern    string `json:"pattern" jsonschema:"a glob pattern, e.g. **/*.go"`
}

// PathsOutput is the shared output schema for the list and glob tools.
type PathsOutput struct {
	Paths []string `json:"paths"`
	Count int      `json:"count"`
}

// registerTools registers the search, grep, read, list, and glob tool
// handlers with the MCP server.
func (s *Server) registerTools() {
	mcp.AddTool(s.server, &mcp.Tool{
		Name:        "search",
		Description: "Hybrid (keyword + vector) search across registered resources",
	}, s.handleSearch)

	if s.ports.Tools == nil {
		return
	}

	mcp.AddTool(s.server, &mcp.Tool{
		Name:        "resource_search",
		Description: "Search within a single resource, returning truncated previews",
	}, s.handleToolSearch)
	mcp.AddTool(s.server, &mcp.Tool{
		Name:        "grep",
		Description: "Search for a literal string or regular expression within a resource, up to 100 matches",
	}, s.handleGrep)
	mcp.AddTool(s.server, &mcp.Tool{
		Name:        "read",
		Description: "Read a file (or a line range of it) from a resource, up to 500 lines",
	}, s.handleRead)
	mcp.AddTool(s.server, &mcp.Tool{
		Name:        "list",
		Description: "List files under a directory in a resource, up to 500 entries",
	}, s.handleList)
	mcp.AddTool(s.server, &mcp.Tool{
		Name:        "glob",
		Description: "Match files in a resource against a glob pattern, up to 500 entries",
	}, s.handleGlob)
}

func (s *Server) handleSearch(
	ctx context.Context,
	_ *mcp.CallToolRequest,
	input SearchInput,
) (*mcp.CallToolResult, SearchOutput, error) {
	opts := domain.SearchOptions{
		Query:       input.Query,
		ResourceIDs: input.ResourceIDs,
		TopK:        input.TopK,
	}
	opts.Clamp()

	results, err := s.ports.Search.Search(ctx, opts)
	if err != nil {
		return nil, SearchOutput{}, err
	}

	output := SearchOutput{Results: make([]SearchHitOutput, len(results)), Count: len(results)}
	for i := range results {
		r := &results[i]
		output.Results[i] = SearchHitOutput{
			ResourceID:   r.ResourceID,
			ResourceName: r.ResourceName,
			Filepath:     r.Filepath,
			LineStart:    r.LineStart,
			LineEnd:      r.LineEnd,
			Text:         r.Text,
			Score:        r.Score,
			MatchType:    string(r.MatchType),
		}
	}
	return nil, output, nil
}

func (s *Server) handleToolSearch(
	ctx context.Context,
	_ *mcp.CallToolRequest,
	input ToolSearchInput,
) (*mcp.CallToolResult, ToolSearchOutput, error) {
	topK := input.TopK
	if topK <= 0 {
		topK = 10
	}
	hits, err := s.ports.Tools.Search(ctx, input.ResourceID, input.Query, topK)
	if err != nil {
		return nil, ToolSearchOutput{}, err
	}
	out := ToolSearchOutput{Hits: make([]ToolSearchHitOutput, len(hits))}
	for i, h := range hits {
		out.Hits[i] = ToolSearchHitOutput{
			Filepath: h.Filepath, LineStart: h.LineStart, LineEnd: h.LineEnd,
			Preview: h.Preview, Score: h.Score,
		}
	}
	return nil, out, nil
}

func (s *Server) handleGrep(
	ctx context.Context,
	_ *mcp.CallToolRequest,
	input GrepInput,
) (*mcp.CallToolResult, GrepOutput, error) {
	hits, err := s.ports.Tools.Grep(ctx, input.ResourceID, input.Pattern, input.IsRegex)
	if err != nil {
		return nil, GrepOutput{}, err
	}
	out := GrepOutput{Matches: make([]GrepMatchOutput, len(hits))}
	for i, h := range hits {
		out.Matches[i] = GrepMatchOutput{Filepath: h.Filepath, Line: h.Line, Text: h.Text}
	}
	return nil, out, nil
}

func (s *Server) handleRead(
	ctx context.Context,
	_ *mcp.CallToolRequest,
	input ReadInput,
) (*mcp.CallToolResult, ReadOutput, error) {
	content, err := s.ports.Tools.Read(ctx, input.ResourceID, input.Filepath, input.LineStart, input.LineEnd)
	if err != nil {
		return nil, ReadOutput{}, err
	}
	return nil, ReadOutput{Content: content}, nil
}

func (s *Server) handleList(
	ctx context.Context,
	_ *mcp.CallToolRequest,
	input ListInput,
) (*mcp.CallToolResult, PathsOutput, error) {
	paths, err := s.ports.Tools.List(ctx, input.ResourceID, input.Dir)
	if err != nil {
		return nil, PathsOutput{}, err
	}
	return nil, PathsOutput{Paths: paths, Count: len(paths)}, nil
}

func (s *Server) handleGlob(
	ctx context.Context,
	_ *mcp.CallToolRequest,
	input GlobInput,
) (*mcp.CallToolResult, PathsOutput, error) {
	paths, err := s.ports.Tools.Glob(ctx, input.ResourceID, input.Pattern)
	if err != nil {
		return nil, PathsOutput{}, err
	}
	return nil, PathsOutput{Paths: paths, Count: len(paths)}, nil
}
