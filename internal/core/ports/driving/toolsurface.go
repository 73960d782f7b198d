package driving

import "context"

// ToolSurface exposes the same five tools the Agent Driver uses internally
// (search, grep, read, list, glob) to external callers. Scoping to a
// resource is mandatory; outputs are capped (grep 100 matches, list/glob
// 500 files, read 500 lines).
type ToolSurface interface {
	Search(ctx context.Context, resourceID, query string, topK int) ([]ToolSearchHit, error)
	Grep(ctx context.Context, resourceID, pattern string, isRegex bool) ([]ToolGrepHit, error)
	Read(ctx context.Context, resourceID, filepath string, lineStart, lineEnd int) (string, error)
	List(ctx context.Context, resourceID, dir string) ([]string, error)
	Glob(ctx context.Context, resourceID, pattern string) ([]string, error)
}

// ToolSearchHit is a truncated preview (first 12 lines, 600 characters) of
// one Hybrid Search result, as the agent's search tool returns it.
type ToolSearchHit struct {
	Filepath  string
	LineStart int
	LineEnd   int
	Preview   string
	Score     float64
}

// ToolGrepHit is a single matched line from the grep tool.
type ToolGrepHit struct {
	Filepath string
	Line     int
	Text     string
}
