package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/custodia-labs/ctxpack/internal/core/domain"
	"github.com/custodia-labs/ctxpack/internal/core/ports/driven"
	"github.com/custodia-labs/ctxpack/internal/core/ports/driving"
)

var _ driving.ResourceService = (*Resource)(nil)

// Resource implements driving.ResourceService over a ResourceStore,
// enforcing the data-model invariants and uniqueness tuple.
type Resource struct {
	Store driven.ResourceStore
}

// NewResource wires a Resource service.
func NewResource(store driven.ResourceStore) *Resource {
	return &Resource{Store: store}
}

// Create validates r, assigns an id and timestamps, and checks the
// (ownerId, scope, projectKey, name) tuple for uniqueness before persisting.
func (s *Resource) Create(ctx context.Context, r *domain.Resource) error {
	if err := r.Validate(); err != nil {
		return err
	}
	existing, err := s.Store.GetByName(ctx, r.OwnerID, r.Scope, r.ProjectKey, r.Name)
	if err != nil && !errors.Is(err, domain.ErrNotFound) {
		return err
	}
	if existing != nil {
		return fmt.Errorf("%w: resource %q already registered", domain.ErrConflict, r.DisplayName())
	}

	if r.ID == "" {
		r.ID = uuid.NewString()
	}
	now := time.Now()
	r.CreatedAt = now
	r.UpdatedAt = now
	if r.ContentStatus == "" {
		r.ContentStatus = domain.ContentMissing
	}
	if r.VectorStatus == "" {
		r.VectorStatus = domain.VectorMissing
	}
	return s.Store.Create(ctx, r)
}

// Get returns a resource by id.
func (s *Resource) Get(ctx context.Context, id string) (*domain.Resource, error) {
	return s.Store.Get(ctx, id)
}

// List returns all resources visible to ownerID (nil for every resource an
// unscoped caller, e.g. the CLI, is allowed to see).
func (s *Resource) List(ctx context.Context, ownerID *string) ([]domain.Resource, error) {
	return s.Store.List(ctx, ownerID)
}

// Update re-validates and persists r, bumping updatedAt.
func (s *Resource) Update(ctx context.Context, r *domain.Resource) error {
	if err := r.Validate(); err != nil {
		return err
	}
	r.UpdatedAt = time.Now()
	return s.Store.Update(ctx, r)
}

// Delete cascades to the resource's chunks and index jobs via the store.
func (s *Resource) Delete(ctx context.Context, id string) error {
	return s.Store.Delete(ctx, id)
}
