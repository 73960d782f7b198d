package services

import (
	"bufio"
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/custodia-labs/ctxpack/internal/core/domain"
	"github.com/custodia-labs/ctxpack/internal/core/ports/driven"
	"github.com/custodia-labs/ctxpack/internal/core/ports/driving"
)

const (
	toolGrepCap      = 100
	toolListCap      = 500
	toolReadLineCap  = 500
	toolPreviewLines = 12
	toolPreviewChars = 600
)

var _ driving.ToolSurface = (*ToolSurface)(nil)

// ToolSurface exposes search/grep/read/list/glob to the Agent Driver and,
// through the same implementation, to external MCP callers.
type ToolSurface struct {
	Resources    driven.ResourceStore
	Searcher     *Search
	TextSearcher driven.TextSearcher
	Materializer driven.Materializer
}

// NewToolSurface wires a ToolSurface.
func NewToolSurface(resources driven.ResourceStore, search *Search, text driven.TextSearcher, mat driven.Materializer) *ToolSurface {
	return &ToolSurface{Resources: resources, Searcher: search, TextSearcher: text, Materializer: mat}
}

// openUnder opens relPath rooted at dir, rejecting any path that escapes
// dir via "..".
func openUnder(dir, relPath string) (*os.File, error) {
	full := filepath.Join(dir, relPath)
	rel, err := filepath.Rel(dir, full)
	if err != nil || strings.HasPrefix(rel, "..") {
		return nil, fmt.Errorf("%w: path escapes resource root", domain.ErrValidation)
	}
	return os.Open(full)
}

func (t *ToolSurface) resolve(ctx context.Context, resourceID string) (*domain.Resource, string, error) {
	r, err := t.Resources.Get(ctx, resourceID)
	if err != nil {
		return nil, "", err
	}
	if r.ContentStatus != domain.ContentReady {
		return nil, "", fmt.Errorf("%w: resource %s content not ready", domain.ErrValidation, resourceID)
	}
	return r, t.Materializer.ResolvedDir(r), nil
}

// Search runs Hybrid Search scoped to one resource and truncates each hit
// to a short preview, per the external tool contract.
func (t *ToolSurface) Search(ctx context.Context, resourceID, query string, topK int) ([]driving.ToolSearchHit, error) {
	if _, _, err := t.resolve(ctx, resourceID); err != nil {
		return nil, err
	}
	opts := domain.SearchOptions{Query: query, ResourceIDs: []string{resourceID}, TopK: topK}
	results, err := t.Searcher.Search(ctx, opts)
	if err != nil {
		return nil, err
	}
	hits := make([]driving.ToolSearchHit, 0, len(results))
	for _, r := range results {
		hits = append(hits, driving.ToolSearchHit{
			Filepath:  r.Filepath,
			LineStart: r.LineStart,
			LineEnd:   r.LineEnd,
			Preview:   previewOf(r.Text),
			Score:     r.Score,
		})
	}
	return hits, nil
}

func previewOf(text string) string {
	lines := strings.Split(text, "\n")
	if len(lines) > toolPreviewLines {
		lines = lines[:toolPreviewLines]
	}
	preview := strings.Join(lines, "\n")
	if len(preview) > toolPreviewChars {
		preview = preview[:toolPreviewChars]
	}
	return preview
}

// Grep runs a live pattern search against the resource's materialized
// directory, capped at 100 matches.
func (t *ToolSurface) Grep(ctx context.Context, resourceID, pattern string, isRegex bool) ([]driving.ToolGrepHit, error) {
	_, dir, err := t.resolve(ctx, resourceID)
	if err != nil {
		return nil, err
	}
	hits, err := t.TextSearcher.Search(ctx, dir, pattern, isRegex, toolGrepCap)
	if err != nil {
		return nil, err
	}
	out := make([]driving.ToolGrepHit, 0, len(hits))
	for _, h := range hits {
		text := readOneLine(dir, h.Filepath, h.Line)
		out = append(out, driving.ToolGrepHit{Filepath: h.Filepath, Line: h.Line, Text: text})
	}
	return out, nil
}

func readOneLine(dir, relPath string, line int) string {
	f, err := openUnder(dir, relPath)
	if err != nil {
		return ""
	}
	defer f.Close()
	scanner := bufio.NewScanner(f)
	n := 0
	for scanner.Scan() {
		n++
		if n == line {
			return scanner.Text()
		}
	}
	return ""
}

// Read returns lines [lineStart, lineEnd] (1-based, inclusive) from a file
// under the resource's directory, capped at 500 lines per call.
func (t *ToolSurface) Read(ctx context.Context, resourceID, path string, lineStart, lineEnd int) (string, error) {
	_, dir, err := t.resolve(ctx, resourceID)
	if err != nil {
		return "", err
	}
	if lineStart < 1 {
		lineStart = 1
	}
	if lineEnd < lineStart {
		lineEnd = lineStart
	}
	if lineEnd-lineStart+1 > toolReadLineCap {
		lineEnd = lineStart + toolReadLineCap - 1
	}

	f, err := openUnder(dir, path)
	if err != nil {
		return "", fmt.Errorf("%w: %s: %v", domain.ErrNotFound, path, err)
	}
	defer f.Close()

	var out []string
	scanner := bufio.NewScanner(f)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	n := 0
	for scanner.Scan() {
		n++
		if n < lineStart {
			continue
		}
		if n > lineEnd {
			break
		}
		out = append(out, scanner.Text())
	}
	return strings.Join(out, "\n"), nil
}

// List enumerates immediate entries of dir (relative to the resource root),
// capped at 500 entries.
func (t *ToolSurface) List(ctx context.Context, resourceID, dir string) ([]string, error) {
	_, root, err := t.resolve(ctx, resourceID)
	if err != nil {
		return nil, err
	}
	paths, err := t.Materializer.ListTracked(ctx, root)
	if err != nil {
		return nil, err
	}
	prefix := strings.Trim(filepath.ToSlash(dir), "/")
	seen := map[string]bool{}
	var out []string
	for _, p := range paths {
		rel := p
		if prefix != "" {
			if !strings.HasPrefix(p, prefix+"/") {
				continue
			}
			rel = strings.TrimPrefix(p, prefix+"/")
		}
		entry := rel
		if idx := strings.IndexByte(rel, '/'); idx >= 0 {
			entry = rel[:idx] + "/"
		}
		if !seen[entry] {
			seen[entry] = true
			out = append(out, entry)
		}
	}
	sort.Strings(out)
	if len(out) > toolListCap {
		out = out[:toolListCap]
	}
	return out, nil
}

// Glob matches tracked paths against a shell-style pattern, capped at 500.
func (t *ToolSurface) Glob(ctx context.Context, resourceID, pattern string) ([]string, error) {
	_, root, err := t.resolve(ctx, resourceID)
	if err != nil {
		return nil, err
	}
	paths, err := t.Materializer.ListTracked(ctx, root)
	if err != nil {
		return nil, err
	}
	var out []string
	for _, p := range paths {
		if ok, _ := filepath.Match(pattern, p); ok {
			out = append(out, p)
			continue
		}
		if ok, _ := filepath.Match(pattern, filepath.Base(p)); ok {
			out = append(out, p)
		}
	}
	sort.Strings(out)
	if len(out) > toolListCap {
		out = out[:toolListCap]
	}
	return out, nil
}
