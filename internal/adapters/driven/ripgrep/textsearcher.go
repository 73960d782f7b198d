// Package ripgrep provides a driven.TextSearcher adapter that shells out to
// ripgrep and decodes its line-delimited JSON match records.
package ripgrep

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"os/exec"
	"path/filepath"
	"strings"
	"time"

	"github.com/custodia-labs/ctxpack/internal/core/domain"
	"github.com/custodia-labs/ctxpack/internal/core/ports/driven"
)

var _ driven.TextSearcher = (*TextSearcher)(nil)

// excludeGlobs keeps lock files, minified assets, maps, and snapshots out
// of text-search hits.
var excludeGlobs = []string{
	"*.lock", "*.min.js", "*.min.css", "*.map", "*.snap",
	"node_modules/*", ".git/*", "dist/*", "build/*", ".next/*", "coverage/*",
}

// TextSearcher shells out to `rg --json`.
type TextSearcher struct {
	Binary  string
	Timeout time.Duration
}

// New constructs a TextSearcher; binary defaults to "rg" on PATH.
func New(binary string) *TextSearcher {
	if binary == "" {
		binary = "rg"
	}
	return &TextSearcher{Binary: binary, Timeout: 10 * time.Second}
}

type rgMessage struct {
	Type string `json:"type"`
	Data struct {
		Path struct {
			Text string `json:"text"`
		} `json:"path"`
		LineNumber int `json:"line_number"`
	} `json:"data"`
}

// Search runs pattern against dir, case-insensitively unless pattern
// contains an uppercase letter (ripgrep smart case), returning at most
// maxHits matched lines.
func (t *TextSearcher) Search(ctx context.Context, dir, pattern string, isRegex bool, maxHits int) ([]driven.TextHit, error) {
	if strings.TrimSpace(pattern) == "" {
		return nil, nil
	}
	timeout := t.Timeout
	if timeout == 0 {
		timeout = 10 * time.Second
	}
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	args := []string{"--json", "--line-number", "--no-heading", "--ignore-case", "--smart-case"}
	if !isRegex {
		args = append(args, "--fixed-strings")
	}
	for _, g := range excludeGlobs {
		args = append(args, "--glob", "!"+g)
	}
	args = append(args, "--", pattern, ".")

	cmd := exec.CommandContext(ctx, t.Binary, args...)
	cmd.Dir = dir
	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr
	cmd.Stdin = nil

	err := cmd.Run()
	// ripgrep exits 1 when no matches are found; that is not an error here.
	if err != nil {
		if exitErr, ok := err.(*exec.ExitError); ok && exitErr.ExitCode() == 1 {
			return nil, nil
		}
		return nil, fmt.Errorf("%w: rg %s: %s", domain.ErrTool, strings.Join(args, " "), strings.TrimSpace(stderr.String()))
	}

	var hits []driven.TextHit
	scanner := bufio.NewScanner(&stdout)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	for scanner.Scan() {
		if len(hits) >= maxHits {
			break
		}
		var msg rgMessage
		if jsonErr := json.Unmarshal(scanner.Bytes(), &msg); jsonErr != nil {
			continue
		}
		if msg.Type != "match" {
			continue
		}
		hits = append(hits, driven.TextHit{
			Filepath: filepath.ToSlash(strings.TrimPrefix(msg.Data.Path.Text, "./")),
			Line:     msg.Data.LineNumber,
		})
	}
	return hits, nil
}
