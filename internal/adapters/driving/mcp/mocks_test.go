package mcp

import (
	"context"

	"github.com/custodia-labs/ctxpack/internal/core/domain"
	"github.com/custodia-labs/ctxpack/internal/core/ports/driving"
)

// mockSearchService is a mock implementation of driving.SearchService.
type mockSearchService struct {
	results []domain.SearchResult
	err     error
}

func (m *mockSearchService) Search(_ context.Context, _ domain.SearchOptions) ([]domain.SearchResult, error) {
	return m.results, m.err
}

// mockToolSurface is a mock implementation of driving.ToolSurface.
type mockToolSurface struct {
	searchHits []driving.ToolSearchHit
	grepHits   []driving.ToolGrepHit
	content    string
	paths      []string
	err        error
}

func (m *mockToolSurface) Search(_ context.Context, _, _ string, _ int) ([]driving.ToolSearchHit, error) {
	return m.searchHits, m.err
}

func (m *mockToolSurface) Grep(_ context.Context, _, _ string, _ bool) ([]driving.ToolGrepHit, error) {
	return m.grepHits, m.err
}

func (m *mockToolSurface) Read(_ context.Context, _, _ string, _, _ int) (string, error) {
	return m.content, m.err
}

func (m *mockToolSurface) List(_ context.Context, _, _ string) ([]string, error) {
	return m.paths, m.err
}

func (m *mockToolSurface) Glob(_ context.Context, _, _ string) ([]string, error) {
	return m.paths, m.err
}

// mockResourceService is a mock implementation of driving.ResourceService.
type mockResourceService struct {
	resources []domain.Resource
	err       error
}

func (m *mockResourceService) Create(_ context.Context, _ *domain.Resource) error {
	return m.err
}

func (m *mockResourceService) Get(_ context.Context, _ string) (*domain.Resource, error) {
	return nil, m.err
}

func (m *mockResourceService) List(_ context.Context, _ *string) ([]domain.Resource, error) {
	return m.resources, m.err
}

func (m *mockResourceService) Update(_ context.Context, _ *domain.Resource) error {
	return m.err
}

func (m *mockResourceService) Delete(_ context.Context, _ string) error {
	return m.err
}

var (
	_ driving.SearchService   = (*mockSearchService)(nil)
	_ driving.ToolSurface     = (*mockToolSurface)(nil)
	_ driving.ResourceService = (*mockResourceService)(nil)
)
