package driving

import (
	"context"

	"github.com/custodia-labs/ctxpack/internal/core/domain"
)

// ResourceService manages Resource records: registration, lookup and
// deletion. It does not itself run sync/index jobs — callers trigger those
// through Scheduler.Ensure after Create/Update.
type ResourceService interface {
	Create(ctx context.Context, r *domain.Resource) error
	Get(ctx context.Context, id string) (*domain.Resource, error)
	List(ctx context.Context, ownerID *string) ([]domain.Resource, error)
	Update(ctx context.Context, r *domain.Resource) error

	// Delete removes a Resource and cascades to its chunks and index jobs.
	Delete(ctx context.Context, id string) error
}
