package driving

import (
	"context"

	"github.com/custodia-labs/ctxpack/internal/core/domain"
)

// Scheduler guarantees at most one running job per resource at a time,
// draining a resource's queued jobs in strict (createdAt, id) order while
// different resources proceed independently.
type Scheduler interface {
	// Ensure records overrides (if any) for the next job this resource's
	// worker picks up and, if no worker is currently active for it, spawns
	// one to drain its queue. Returns once the worker has been spawned or
	// confirmed already running; it does not wait for queued jobs to finish.
	Ensure(ctx context.Context, resourceID string, overrides domain.JobOverrides) error
}
