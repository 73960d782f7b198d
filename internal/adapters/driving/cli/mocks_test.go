package cli

import (
	"context"

	"github.com/custodia-labs/ctxpack/internal/core/domain"
	"github.com/custodia-labs/ctxpack/internal/core/ports/driving"
)

// mockResourceService is a mock implementation of driving.ResourceService.
type mockResourceService struct {
	resource  *domain.Resource
	resources []domain.Resource
	err       error
	created   []*domain.Resource
	deleted   []string
}

func (m *mockResourceService) Create(_ context.Context, r *domain.Resource) error {
	if m.err != nil {
		return m.err
	}
	if r.ID == "" {
		r.ID = "resource-1"
	}
	m.created = append(m.created, r)
	return nil
}

func (m *mockResourceService) Get(_ context.Context, _ string) (*domain.Resource, error) {
	return m.resource, m.err
}

func (m *mockResourceService) List(_ context.Context, _ *string) ([]domain.Resource, error) {
	return m.resources, m.err
}

func (m *mockResourceService) Update(_ context.Context, _ *domain.Resource) error {
	return m.err
}

func (m *mockResourceService) Delete(_ context.Context, id string) error {
	if m.err != nil {
		return m.err
	}
	m.deleted = append(m.deleted, id)
	return nil
}

// mockScheduler is a mock implementation of driving.Scheduler.
type mockScheduler struct {
	err     error
	ensured []string
}

func (m *mockScheduler) Ensure(_ context.Context, resourceID string, _ domain.JobOverrides) error {
	if m.err != nil {
		return m.err
	}
	m.ensured = append(m.ensured, resourceID)
	return nil
}

// mockSearchService is a mock implementation of driving.SearchService.
type mockSearchService struct {
	results []domain.SearchResult
	err     error
}

func (m *mockSearchService) Search(_ context.Context, _ domain.SearchOptions) ([]domain.SearchResult, error) {
	return m.results, m.err
}

var (
	_ driving.ResourceService = (*mockResourceService)(nil)
	_ driving.Scheduler       = (*mockScheduler)(nil)
	_ driving.SearchService   = (*mockSearchService)(nil)
)

// resetServices clears every package-level service var so tests don't leak
// state into each other.
func resetServices() {
	resourceService = nil
	scheduler = nil
	searchService = nil
	agentDriver = nil
	toolSurface = nil
}
