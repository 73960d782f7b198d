package memory

import (
	"context"
	"sync"

	"github.com/custodia-labs/ctxpack/internal/core/domain"
	"github.com/custodia-labs/ctxpack/internal/core/ports/driven"
)

// Ensure ResourceStore implements the interface.
var _ driven.ResourceStore = (*ResourceStore)(nil)

// ResourceStore is an in-memory implementation of driven.ResourceStore.
type ResourceStore struct {
	mu        sync.RWMutex
	resources map[string]domain.Resource
}

// NewResourceStore creates a new in-memory resource store.
func NewResourceStore() *ResourceStore {
	return &ResourceStore{
		resources: make(map[string]domain.Resource),
	}
}

// Create stores a new resource.
func (s *ResourceStore) Create(_ context.Context, r *domain.Resource) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.resources[r.ID] = *r
	return nil
}

// Get retrieves a resource by ID.
func (s *ResourceStore) Get(_ context.Context, id string) (*domain.Resource, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	r, ok := s.resources[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	return &r, nil
}

// GetByName looks up the unique (ownerID, scope, projectKey, name) tuple.
func (s *ResourceStore) GetByName(_ context.Context, ownerID *string, scope domain.Scope, projectKey, name string) (*domain.Resource, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, r := range s.resources {
		if sameOwner(r.OwnerID, ownerID) && r.Scope == scope && r.ProjectKey == projectKey && r.Name == name {
			found := r
			return &found, nil
		}
	}
	return nil, domain.ErrNotFound
}

// List returns every resource visible to ownerID (nil means every resource).
func (s *ResourceStore) List(_ context.Context, ownerID *string) ([]domain.Resource, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	result := make([]domain.Resource, 0, len(s.resources))
	for _, r := range s.resources {
		if ownerID == nil || sameOwner(r.OwnerID, ownerID) {
			result = append(result, r)
		}
	}
	return result, nil
}

// Update overwrites a resource's stored state.
func (s *ResourceStore) Update(_ context.Context, r *domain.Resource) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.resources[r.ID]; !ok {
		return domain.ErrNotFound
	}
	s.resources[r.ID] = *r
	return nil
}

// Delete removes a resource. Cascading to chunks/jobs is the caller's
// responsibility when wiring multiple in-memory stores together.
func (s *ResourceStore) Delete(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.resources, id)
	return nil
}

func sameOwner(a, b *string) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}
	return *a == *b
}
