package services

import (
	"context"
	"os"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/custodia-labs/ctxpack/internal/core/domain"
	"github.com/custodia-labs/ctxpack/internal/core/ports/driven"
	"github.com/custodia-labs/ctxpack/internal/logger"
)

const updateCheckConcurrency = 4

// UpdateChecker runs a fire-and-forget background pass: for every ready git
// resource in scope, compare local vs remote HEAD and write back freshness
// fields. Failures are logged and swallowed — Check never returns an error
// to its caller.
type UpdateChecker struct {
	Resources    driven.ResourceStore
	Materializer driven.Materializer
}

// NewUpdateChecker wires an UpdateChecker.
func NewUpdateChecker(resources driven.ResourceStore, mat driven.Materializer) *UpdateChecker {
	return &UpdateChecker{Resources: resources, Materializer: mat}
}

// Check runs one pass over resourceIDs (empty means every resource visible
// to ownerID). Intended to be invoked with go uc.Check(...) so it never
// blocks the request that scheduled it.
func (c *UpdateChecker) Check(ctx context.Context, ownerID *string, resourceIDs []string) {
	resources, err := c.resolveScope(ctx, ownerID, resourceIDs)
	if err != nil {
		logger.Warn("update checker: list resources failed", "err", err)
		return
	}

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(updateCheckConcurrency)
	for i := range resources {
		r := &resources[i]
		if r.Kind != domain.KindGit || r.ContentStatus != domain.ContentReady {
			continue
		}
		g.Go(func() error {
			c.checkOne(gctx, r)
			return nil
		})
	}
	_ = g.Wait()
}

func (c *UpdateChecker) resolveScope(ctx context.Context, ownerID *string, resourceIDs []string) ([]domain.Resource, error) {
	if len(resourceIDs) == 0 {
		return c.Resources.List(ctx, ownerID)
	}
	var out []domain.Resource
	for _, id := range resourceIDs {
		r, err := c.Resources.Get(ctx, id)
		if err != nil {
			continue
		}
		out = append(out, *r)
	}
	return out, nil
}

func (c *UpdateChecker) checkOne(ctx context.Context, r *domain.Resource) {
	now := time.Now()
	dir := c.Materializer.ResolvedDir(r)
	if _, err := os.Stat(dir); err != nil {
		r.LastUpdateCheckAt = &now
		if err := c.Resources.Update(ctx, r); err != nil {
			logger.Warn("update checker: persist check-only update failed", "resource", r.ID, "err", err)
		}
		return
	}

	local, _ := c.Materializer.HeadCommit(ctx, dir)
	branch := ""
	if r.Branch != nil {
		branch = *r.Branch
	}
	remote, _ := c.Materializer.RemoteHead(ctx, derefOr(r.RemoteURL, ""), branch)

	r.LastLocalCommit = local
	r.LastRemoteCommit = remote
	r.UpdateAvailable = local != nil && remote != nil && *local != *remote
	r.LastUpdateCheckAt = &now

	if err := c.Resources.Update(ctx, r); err != nil {
		logger.Warn("update checker: persist failed", "resource", r.ID, "err", err)
	}
}
