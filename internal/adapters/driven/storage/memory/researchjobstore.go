package memory

import (
	"context"
	"sync"

	"github.com/custodia-labs/ctxpack/internal/core/domain"
	"github.com/custodia-labs/ctxpack/internal/core/ports/driven"
)

// Ensure ResearchJobStore implements the interface.
var _ driven.ResearchJobStore = (*ResearchJobStore)(nil)

// ResearchJobStore is an in-memory implementation of driven.ResearchJobStore.
type ResearchJobStore struct {
	mu   sync.RWMutex
	jobs map[string]domain.ResearchJob
}

// NewResearchJobStore creates a new in-memory research job store.
func NewResearchJobStore() *ResearchJobStore {
	return &ResearchJobStore{
		jobs: make(map[string]domain.ResearchJob),
	}
}

// Create stores a new research job.
func (s *ResearchJobStore) Create(_ context.Context, j *domain.ResearchJob) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.jobs[j.ID] = *j
	return nil
}

// Update overwrites a research job's stored state.
func (s *ResearchJobStore) Update(_ context.Context, j *domain.ResearchJob) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.jobs[j.ID]; !ok {
		return domain.ErrNotFound
	}
	s.jobs[j.ID] = *j
	return nil
}

// Get retrieves a research job by ID.
func (s *ResearchJobStore) Get(_ context.Context, id string) (*domain.ResearchJob, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	j, ok := s.jobs[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	return &j, nil
}
