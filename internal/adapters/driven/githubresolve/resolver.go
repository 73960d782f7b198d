package githubresolve

import (
	"context"
	"regexp"

	"github.com/custodia-labs/ctxpack/internal/core/ports/driven"
	"github.com/custodia-labs/ctxpack/internal/logger"
)

// githubURLPattern matches the owner/repo pair out of both the HTTPS and
// SSH forms of a GitHub remote URL, with or without a trailing ".git".
var githubURLPattern = regexp.MustCompile(
	`^(?:https://github\.com/|git@github\.com:)([^/]+)/([^/]+?)(?:\.git)?/?$`,
)

// headResolver is the subset of client exercised by Materializer, narrowed
// for substitution in tests.
type headResolver interface {
	branchHeadSHA(ctx context.Context, owner, repo, branch string) (string, error)
}

// Materializer decorates a driven.Materializer with a GitHub API fast path
// for RemoteHead. Resources whose URL isn't a github.com remote, or any
// request the API can't satisfy, fall through to the wrapped Materializer.
type Materializer struct {
	driven.Materializer

	resolver headResolver
}

// New wraps next with a GitHub-backed RemoteHead fast path. token may be
// empty, in which case requests are unauthenticated and subject to GitHub's
// much lower rate limit for anonymous callers.
func New(next driven.Materializer, token string) *Materializer {
	return &Materializer{
		Materializer: next,
		resolver:     newClient(context.Background(), token),
	}
}

// RemoteHead resolves url/branch via the GitHub API when url is a
// github.com remote, falling back to the wrapped Materializer otherwise
// or on any API error.
func (m *Materializer) RemoteHead(ctx context.Context, url, branch string) (*string, error) {
	owner, repo, ok := parseGitHubURL(url)
	if !ok {
		return m.Materializer.RemoteHead(ctx, url, branch)
	}

	sha, err := m.resolver.branchHeadSHA(ctx, owner, repo, branch)
	if err != nil {
		logger.Debug("github api remote head failed, falling back", "url", url, "branch", branch, "error", err)
		return m.Materializer.RemoteHead(ctx, url, branch)
	}
	return &sha, nil
}

// parseGitHubURL extracts owner/repo from a GitHub remote URL.
func parseGitHubURL(url string) (owner, repo string, ok bool) {
	m := githubURLPattern.FindStringSubmatch(url)
	if m == nil {
		return "", "", false
	}
	return m[1], m[2], true
}
