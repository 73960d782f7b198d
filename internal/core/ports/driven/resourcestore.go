package driven

import (
	"context"

	"github.com/custodia-labs/ctxpack/internal/core/domain"
)

// ResourceStore persists Resource rows.
type ResourceStore interface {
	Create(ctx context.Context, r *domain.Resource) error
	Get(ctx context.Context, id string) (*domain.Resource, error)
	// GetByName looks up the unique (ownerID, scope, projectKey, name) tuple.
	GetByName(ctx context.Context, ownerID *string, scope domain.Scope, projectKey, name string) (*domain.Resource, error)
	List(ctx context.Context, ownerID *string) ([]domain.Resource, error)
	Update(ctx context.Context, r *domain.Resource) error
	// Delete cascades to the resource's chunks and index jobs.
	Delete(ctx context.Context, id string) error
}
