package driven

import (
	"context"

	"github.com/custodia-labs/ctxpack/internal/core/domain"
)

// JobStore persists IndexJob rows.
type JobStore interface {
	Create(ctx context.Context, j *domain.IndexJob) error
	Update(ctx context.Context, j *domain.IndexJob) error
	Get(ctx context.Context, id string) (*domain.IndexJob, error)
	// OldestQueued returns the oldest queued job for a resource by
	// (createdAt, id), or nil if none are queued.
	OldestQueued(ctx context.Context, resourceID string) (*domain.IndexJob, error)
	ListByResource(ctx context.Context, resourceID string) ([]domain.IndexJob, error)
}

// ResearchJobStore persists ResearchJob rows.
type ResearchJobStore interface {
	Create(ctx context.Context, j *domain.ResearchJob) error
	Update(ctx context.Context, j *domain.ResearchJob) error
	Get(ctx context.Context, id string) (*domain.ResearchJob, error)
}
