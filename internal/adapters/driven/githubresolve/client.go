package githubresolve

import (
	"context"
	"fmt"
	"time"

	gh "github.com/google/go-github/v80/github"
	"golang.org/x/oauth2"
)

const requestTimeout = 15 * time.Second

// client is a thin, rate-limited wrapper around go-github scoped to the
// single call this package needs: resolving a branch to its head commit.
type client struct {
	gh    *gh.Client
	limit *rateLimiter
}

// newClient builds a client. An empty token yields an unauthenticated
// client, which GitHub allows but rate-limits far more aggressively.
func newClient(ctx context.Context, token string) *client {
	if token == "" {
		return &client{gh: gh.NewClient(nil), limit: newRateLimiter()}
	}

	ts := oauth2.StaticTokenSource(&oauth2.Token{AccessToken: token})
	hc := oauth2.NewClient(ctx, ts)
	hc.Timeout = requestTimeout
	return &client{gh: gh.NewClient(hc), limit: newRateLimiter()}
}

// branchHeadSHA fetches the current commit SHA for owner/repo's branch.
func (c *client) branchHeadSHA(ctx context.Context, owner, repo, branch string) (string, error) {
	if err := c.limit.wait(ctx); err != nil {
		return "", err
	}

	b, resp, err := c.gh.Repositories.GetBranch(ctx, owner, repo, branch, 1)
	if resp != nil {
		c.limit.updateFromResponse(resp.Response)
	}
	if err != nil {
		return "", fmt.Errorf("get branch %s/%s@%s: %w", owner, repo, branch, err)
	}
	if b.Commit == nil || b.Commit.SHA == nil {
		return "", fmt.Errorf("get branch %s/%s@%s: missing commit SHA", owner, repo, branch)
	}
	return *b.Commit.SHA, nil
}
