package memory

import (
	"context"
	"sort"
	"sync"

	"github.com/custodia-labs/ctxpack/internal/core/domain"
	"github.com/custodia-labs/ctxpack/internal/core/ports/driven"
)

// Ensure JobStore implements the interface.
var _ driven.JobStore = (*JobStore)(nil)

// JobStore is an in-memory implementation of driven.JobStore.
type JobStore struct {
	mu   sync.RWMutex
	jobs map[string]domain.IndexJob
}

// NewJobStore creates a new in-memory index job store.
func NewJobStore() *JobStore {
	return &JobStore{
		jobs: make(map[string]domain.IndexJob),
	}
}

// Create stores a new job.
func (s *JobStore) Create(_ context.Context, j *domain.IndexJob) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.jobs[j.ID] = *j
	return nil
}

// Update overwrites a job's stored state.
func (s *JobStore) Update(_ context.Context, j *domain.IndexJob) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.jobs[j.ID]; !ok {
		return domain.ErrNotFound
	}
	s.jobs[j.ID] = *j
	return nil
}

// Get retrieves a job by ID.
func (s *JobStore) Get(_ context.Context, id string) (*domain.IndexJob, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	j, ok := s.jobs[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	return &j, nil
}

// OldestQueued returns the oldest queued job for resourceID by
// (createdAt, id), or nil if none are queued.
func (s *JobStore) OldestQueued(_ context.Context, resourceID string) (*domain.IndexJob, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var queued []domain.IndexJob
	for _, j := range s.jobs {
		if j.ResourceID == resourceID && j.Status == domain.JobQueued {
			queued = append(queued, j)
		}
	}
	if len(queued) == 0 {
		return nil, nil
	}
	sort.Slice(queued, func(i, k int) bool {
		if !queued[i].CreatedAt.Equal(queued[k].CreatedAt) {
			return queued[i].CreatedAt.Before(queued[k].CreatedAt)
		}
		return queued[i].ID < queued[k].ID
	})
	oldest := queued[0]
	return &oldest, nil
}

// ListByResource returns every job belonging to resourceID.
func (s *JobStore) ListByResource(_ context.Context, resourceID string) ([]domain.IndexJob, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var result []domain.IndexJob
	for _, j := range s.jobs {
		if j.ResourceID == resourceID {
			result = append(result, j)
		}
	}
	sort.Slice(result, func(i, k int) bool {
		return result[i].CreatedAt.Before(result[k].CreatedAt)
	})
	return result, nil
}
