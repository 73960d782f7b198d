package services

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/custodia-labs/ctxpack/internal/core/domain"
	"github.com/custodia-labs/ctxpack/internal/core/ports/driven"
	"github.com/custodia-labs/ctxpack/internal/core/ports/driving"
	"github.com/custodia-labs/ctxpack/internal/logger"
)

var _ driving.Scheduler = (*Scheduler)(nil)

// worker tracks the active goroutine (if any) draining a resource's queue
// and the most recently primed overrides for it.
type worker struct {
	active    bool
	overrides domain.JobOverrides
}

// Scheduler guarantees at most one running job per resource, draining each
// resource's queued jobs in strict createdAt order while different
// resources proceed independently.
type Scheduler struct {
	Jobs      driven.JobStore
	Resources driven.ResourceStore
	Indexer   *Indexer

	mu      sync.Mutex
	workers map[string]*worker
}

// NewScheduler wires a Scheduler.
func NewScheduler(jobs driven.JobStore, resources driven.ResourceStore, indexer *Indexer) *Scheduler {
	return &Scheduler{Jobs: jobs, Resources: resources, Indexer: indexer, workers: map[string]*worker{}}
}

// Ensure queues a sync job followed by an index job for resourceID, primes
// overrides for the next job its worker picks up, and spawns a worker if
// none is active. It never blocks on the worker draining the queue.
func (s *Scheduler) Ensure(ctx context.Context, resourceID string, overrides domain.JobOverrides) error {
	if err := s.enqueue(ctx, resourceID, domain.JobSync); err != nil {
		return err
	}
	if err := s.enqueue(ctx, resourceID, domain.JobIndex); err != nil {
		return err
	}

	s.mu.Lock()
	w, ok := s.workers[resourceID]
	if !ok {
		w = &worker{}
		s.workers[resourceID] = w
	}
	w.overrides = overrides
	alreadyActive := w.active
	if !alreadyActive {
		w.active = true
	}
	s.mu.Unlock()

	if alreadyActive {
		return nil
	}

	go s.drain(resourceID)
	return nil
}

// enqueue persists a queued job of the given kind for resourceID.
func (s *Scheduler) enqueue(ctx context.Context, resourceID string, kind domain.JobKind) error {
	job := &domain.IndexJob{
		ID:         uuid.NewString(),
		ResourceID: resourceID,
		Kind:       kind,
		Status:     domain.JobQueued,
		CreatedAt:  time.Now(),
	}
	return s.Jobs.Create(ctx, job)
}

// drain runs the oldest queued job for resourceID to completion, then
// repeats until the queue is empty, then releases the worker slot.
//
// Releasing the slot and re-checking for queued work must happen under the
// same lock Ensure uses to test whether a worker is already active: without
// that, an Ensure call landing between this loop's last empty OldestQueued
// check and the slot's release would see "already active" for a worker that
// is in fact about to exit, stranding its newly queued jobs undrained.
func (s *Scheduler) drain(resourceID string) {
	ctx := context.Background()
	for {
		job, err := s.Jobs.OldestQueued(ctx, resourceID)
		if err != nil {
			logger.Error("scheduler: lookup oldest queued job failed", "resource", resourceID, "err", err)
			s.release(resourceID)
			return
		}
		if job == nil {
			if s.releaseIfStillIdle(resourceID) {
				return
			}
			continue
		}

		resource, err := s.Resources.Get(ctx, resourceID)
		if err != nil {
			logger.Error("scheduler: resource lookup failed", "resource", resourceID, "err", err)
			s.release(resourceID)
			return
		}

		now := time.Now()
		job.Status = domain.JobRunning
		job.StartedAt = &now
		job.Progress = 0
		job.ProcessedFiles = 0
		job.Error = nil
		if err := s.Jobs.Update(ctx, job); err != nil {
			logger.Error("scheduler: mark running failed", "job", job.ID, "err", err)
			s.release(resourceID)
			return
		}

		s.mu.Lock()
		var overrides domain.JobOverrides
		if w, ok := s.workers[resourceID]; ok {
			overrides = w.overrides
		}
		s.mu.Unlock()

		runErr := s.Indexer.Run(ctx, job, resource, overrides)

		completed := time.Now()
		job.CompletedAt = &completed
		if runErr != nil {
			msg := runErr.Error()
			job.Status = domain.JobFailed
			job.Error = &msg
			job.Progress = 100
			logger.Warn("job failed", "job", job.ID, "resource", resourceID, "kind", job.Kind, "err", runErr)
		} else {
			job.Status = domain.JobCompleted
			job.Progress = 100
		}
		if err := s.Jobs.Update(ctx, job); err != nil {
			logger.Error("scheduler: persist job completion failed", "job", job.ID, "err", err)
		}
		resource.UpdatedAt = completed
		if err := s.Resources.Update(ctx, resource); err != nil {
			logger.Error("scheduler: persist resource update failed", "resource", resourceID, "err", err)
		}
	}
}

// release unconditionally drops the worker slot for resourceID.
func (s *Scheduler) release(resourceID string) {
	s.mu.Lock()
	delete(s.workers, resourceID)
	s.mu.Unlock()
}

// releaseIfStillIdle re-queries for queued work while holding the same lock
// Ensure uses to decide whether a worker is already active, then either
// drops the worker slot and reports true (caller should exit), or reports
// false (caller should loop again and pick up the job that appeared).
func (s *Scheduler) releaseIfStillIdle(resourceID string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	job, err := s.Jobs.OldestQueued(context.Background(), resourceID)
	if err != nil {
		logger.Error("scheduler: lookup oldest queued job failed", "resource", resourceID, "err", err)
		delete(s.workers, resourceID)
		return true
	}
	if job != nil {
		return false
	}
	delete(s.workers, resourceID)
	return true
}
