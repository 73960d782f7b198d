// Package git provides a driven.Materializer adapter backed by the git
// CLI, invoked as a subprocess with a bounded timeout; local resources are
// listed with a directory walk.
package git

import (
	"bytes"
	"context"
	"fmt"
	"io/fs"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"time"

	"github.com/custodia-labs/ctxpack/internal/core/domain"
	"github.com/custodia-labs/ctxpack/internal/core/ports/driven"
)

// CommandExecutor abstracts subprocess execution for testing.
type CommandExecutor interface {
	Run(ctx context.Context, dir, name string, args ...string) ([]byte, error)
}

// DefaultExecutor runs commands via os/exec with a bounded timeout, no
// inherited stdin, and captured stdout/stderr.
type DefaultExecutor struct {
	Timeout time.Duration
}

// Run executes name with args in dir (if non-empty) and returns stdout.
// Non-zero exit codes surface as domain.ErrTool carrying the command line
// and captured stderr.
func (e *DefaultExecutor) Run(ctx context.Context, dir, name string, args ...string) ([]byte, error) {
	timeout := e.Timeout
	if timeout == 0 {
		timeout = 30 * time.Second
	}
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	cmd := exec.CommandContext(ctx, name, args...)
	if dir != "" {
		cmd.Dir = dir
	}
	cmd.Stdin = nil

	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		line := name + " " + strings.Join(args, " ")
		if stderr.Len() > 0 {
			return nil, fmt.Errorf("%w: %s: %s", domain.ErrTool, line, strings.TrimSpace(stderr.String()))
		}
		return nil, fmt.Errorf("%w: %s: %v", domain.ErrTool, line, err)
	}
	return stdout.Bytes(), nil
}

// excludedDirs are skipped when walking a local resource or a git
// working tree that isn't tracked-file aware.
var excludedDirs = map[string]bool{
	".git": true, "node_modules": true, "dist": true, "build": true,
	".next": true, "coverage": true,
}

var _ driven.Materializer = (*Materializer)(nil)

// Materializer implements driven.Materializer for git and local resources.
type Materializer struct {
	root     string // directory under which git resources are cloned, keyed by resource id
	executor CommandExecutor
}

// New constructs a Materializer rooted at root (typically <home>/repos).
func New(root string, executor CommandExecutor) *Materializer {
	if executor == nil {
		executor = &DefaultExecutor{}
	}
	return &Materializer{root: root, executor: executor}
}

func (m *Materializer) repoDir(resourceID string) string {
	return filepath.Join(m.root, resourceID)
}

// ResolvedDir returns where r's content lives without any I/O.
func (m *Materializer) ResolvedDir(r *domain.Resource) string {
	if r.Kind == domain.KindLocal && r.LocalPath != nil {
		return *r.LocalPath
	}
	return m.repoDir(r.ID)
}

// Prepare is idempotent: clones, fetches, or validates depending on
// resource kind and current on-disk state.
func (m *Materializer) Prepare(ctx context.Context, r *domain.Resource) (string, error) {
	switch r.Kind {
	case domain.KindLocal:
		return m.prepareLocal(r)
	case domain.KindGit:
		return m.prepareGit(ctx, r)
	default:
		return "", fmt.Errorf("%w: unknown resource kind %q", domain.ErrValidation, r.Kind)
	}
}

func (m *Materializer) prepareLocal(r *domain.Resource) (string, error) {
	if r.LocalPath == nil || *r.LocalPath == "" {
		return "", fmt.Errorf("%w: local resource requires a path", domain.ErrValidation)
	}
	info, err := os.Stat(*r.LocalPath)
	if err != nil {
		return "", fmt.Errorf("%w: local path %s: %v", domain.ErrNotFound, *r.LocalPath, err)
	}
	if !info.IsDir() {
		return "", fmt.Errorf("%w: local path %s is not a directory", domain.ErrValidation, *r.LocalPath)
	}
	return *r.LocalPath, nil
}

func (m *Materializer) prepareGit(ctx context.Context, r *domain.Resource) (string, error) {
	if r.RemoteURL == nil || *r.RemoteURL == "" {
		return "", fmt.Errorf("%w: git resource requires a remote url", domain.ErrValidation)
	}
	dir := m.repoDir(r.ID)
	branch := ""
	if r.Branch != nil {
		branch = *r.Branch
	}

	gitMeta := filepath.Join(dir, ".git")
	if _, err := os.Stat(gitMeta); err != nil {
		// Missing or incomplete: clean and shallow-clone.
		_ = os.RemoveAll(dir)
		if err := os.MkdirAll(filepath.Dir(dir), 0o755); err != nil {
			return "", fmt.Errorf("%w: mkdir %s: %v", domain.ErrTool, dir, err)
		}
		args := []string{"clone", "--depth", "1"}
		if branch != "" {
			args = append(args, "--branch", branch, "--single-branch")
		}
		args = append(args, *r.RemoteURL, dir)
		if _, err := m.executor.Run(ctx, "", "git", args...); err != nil {
			// Fall back to a plain depth-1 clone without a pinned branch.
			_ = os.RemoveAll(dir)
			if _, err2 := m.executor.Run(ctx, "", "git", "clone", "--depth", "1", *r.RemoteURL, dir); err2 != nil {
				return "", err2
			}
		}
		return dir, nil
	}

	// Present: repoint origin, fetch depth-1, force checkout.
	if _, err := m.executor.Run(ctx, dir, "git", "remote", "set-url", "origin", *r.RemoteURL); err != nil {
		return "", err
	}
	target := branch
	if r.Commit != nil && *r.Commit != "" {
		target = *r.Commit
	}
	fetchArgs := []string{"fetch", "--depth", "1", "origin"}
	if target != "" {
		fetchArgs = append(fetchArgs, target)
	}
	if _, err := m.executor.Run(ctx, dir, "git", fetchArgs...); err != nil {
		return "", err
	}
	checkoutTarget := "FETCH_HEAD"
	if target != "" {
		checkoutTarget = target
	}
	if _, err := m.executor.Run(ctx, dir, "git", "checkout", "--force", checkoutTarget); err != nil {
		return "", err
	}
	return dir, nil
}

// HeadCommit returns HEAD or nil on any failure; failures here are
// non-fatal to the caller.
func (m *Materializer) HeadCommit(ctx context.Context, dir string) (*string, error) {
	out, err := m.executor.Run(ctx, dir, "git", "rev-parse", "HEAD")
	if err != nil {
		return nil, nil //nolint:nilerr // non-fatal, caller treats nil as unknown
	}
	sha := strings.TrimSpace(string(out))
	return &sha, nil
}

// RemoteHead runs ls-remote --heads and returns the requested branch's SHA.
func (m *Materializer) RemoteHead(ctx context.Context, url, branch string) (*string, error) {
	if url == "" {
		return nil, nil
	}
	out, err := m.executor.Run(ctx, "", "git", "ls-remote", "--heads", url)
	if err != nil {
		return nil, nil //nolint:nilerr
	}
	for _, line := range strings.Split(strings.TrimSpace(string(out)), "\n") {
		fields := strings.Fields(line)
		if len(fields) != 2 {
			continue
		}
		ref := fields[1]
		name := strings.TrimPrefix(ref, "refs/heads/")
		if branch == "" || name == branch {
			sha := fields[0]
			return &sha, nil
		}
	}
	return nil, nil
}

// ListTracked enumerates tracked files for a git working tree, or walks the
// directory (skipping excludedDirs) for a local resource.
func (m *Materializer) ListTracked(ctx context.Context, dir string) ([]string, error) {
	if isGitDir(dir) {
		out, err := m.executor.Run(ctx, dir, "git", "ls-files", "-z")
		if err != nil {
			return nil, err
		}
		var paths []string
		for _, p := range strings.Split(string(out), "\x00") {
			if p != "" {
				paths = append(paths, filepath.ToSlash(p))
			}
		}
		return paths, nil
	}
	return walkLocal(dir)
}

func isGitDir(dir string) bool {
	info, err := os.Stat(filepath.Join(dir, ".git"))
	return err == nil && (info.IsDir() || info.Mode().IsRegular())
}

func walkLocal(root string) ([]string, error) {
	var paths []string
	err := filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			if path != root && excludedDirs[d.Name()] {
				return filepath.SkipDir
			}
			return nil
		}
		rel, err := filepath.Rel(root, path)
		if err != nil {
			return err
		}
		paths = append(paths, filepath.ToSlash(rel))
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("%w: walk %s: %v", domain.ErrTool, root, err)
	}
	return paths, nil
}
