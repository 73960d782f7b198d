package services

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/ctxpack/internal/adapters/driven/storage/memory"
	"github.com/custodia-labs/ctxpack/internal/core/domain"
)

// noopMaterializer makes sync/index jobs complete instantly without
// touching the filesystem or network, so scheduler tests exercise the
// queue-draining behaviour without depending on the indexing internals.
type noopMaterializer struct{}

func (noopMaterializer) Prepare(_ context.Context, r *domain.Resource) (string, error) {
	return "/tmp/" + r.ID, nil
}

func (noopMaterializer) HeadCommit(_ context.Context, _ string) (*string, error) {
	return nil, nil
}

func (noopMaterializer) RemoteHead(_ context.Context, _, _ string) (*string, error) {
	return nil, nil
}

func (noopMaterializer) ListTracked(_ context.Context, _ string) ([]string, error) {
	return nil, nil
}

func (noopMaterializer) ResolvedDir(r *domain.Resource) string {
	return "/tmp/" + r.ID
}

func newTestScheduler() (*Scheduler, *memory.ResourceStore, *memory.JobStore) {
	resources := memory.NewResourceStore()
	jobs := memory.NewJobStore()
	chunks := memory.NewChunkStore()
	indexer := NewIndexer(resources, chunks, noopMaterializer{}, nil, nil, nil)
	return NewScheduler(jobs, resources, indexer), resources, jobs
}

func waitForIdle(t *testing.T, sched *Scheduler, resourceID string) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		sched.mu.Lock()
		_, active := sched.workers[resourceID]
		sched.mu.Unlock()
		if !active {
			return
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatalf("worker for %s never went idle", resourceID)
}

func TestScheduler_Ensure_QueuesSyncThenIndex(t *testing.T) {
	sched, resources, jobs := newTestScheduler()
	ctx := context.Background()

	r := &domain.Resource{ID: "r-1", Name: "widgets", Kind: domain.KindLocal}
	require.NoError(t, resources.Create(ctx, r))

	require.NoError(t, sched.Ensure(ctx, "r-1", domain.JobOverrides{}))
	waitForIdle(t, sched, "r-1")

	history, err := jobs.ListByResource(ctx, "r-1")
	require.NoError(t, err)
	require.Len(t, history, 2)
	assert.Equal(t, domain.JobSync, history[0].Kind)
	assert.Equal(t, domain.JobIndex, history[1].Kind)
	assert.Equal(t, domain.JobCompleted, history[0].Status)
	assert.Equal(t, domain.JobCompleted, history[1].Status)

	updated, err := resources.Get(ctx, "r-1")
	require.NoError(t, err)
	assert.Equal(t, domain.ContentReady, updated.ContentStatus)
	assert.Equal(t, domain.VectorReady, updated.VectorStatus)
}

func TestScheduler_Ensure_DoesNotDoubleSpawnWorker(t *testing.T) {
	sched, resources, _ := newTestScheduler()
	ctx := context.Background()

	r := &domain.Resource{ID: "r-2", Name: "gadgets", Kind: domain.KindLocal}
	require.NoError(t, resources.Create(ctx, r))

	require.NoError(t, sched.Ensure(ctx, "r-2", domain.JobOverrides{}))
	require.NoError(t, sched.Ensure(ctx, "r-2", domain.JobOverrides{}))
	waitForIdle(t, sched, "r-2")

	sched.mu.Lock()
	_, stillActive := sched.workers["r-2"]
	sched.mu.Unlock()
	assert.False(t, stillActive)
}

// TestScheduler_Ensure_RaceAgainstDrainExit fires many concurrent Ensure
// calls for the same resource while its worker is repeatedly draining down
// to idle and exiting, reproducing the window where a worker is about to
// release its slot just as new jobs land for it. Every queued job must
// eventually run to completion; none may be stranded.
func TestScheduler_Ensure_RaceAgainstDrainExit(t *testing.T) {
	sched, resources, jobs := newTestScheduler()
	ctx := context.Background()

	r := &domain.Resource{ID: "r-race", Name: "race", Kind: domain.KindLocal}
	require.NoError(t, resources.Create(ctx, r))

	const n = 50
	var wg sync.WaitGroup
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			require.NoError(t, sched.Ensure(ctx, "r-race", domain.JobOverrides{}))
		}()
	}
	wg.Wait()
	waitForIdle(t, sched, "r-race")

	deadline := time.Now().Add(3 * time.Second)
	for time.Now().Before(deadline) {
		history, err := jobs.ListByResource(ctx, "r-race")
		require.NoError(t, err)
		allDone := len(history) > 0
		for _, j := range history {
			if j.Status != domain.JobCompleted && j.Status != domain.JobFailed {
				allDone = false
				break
			}
		}
		if allDone {
			break
		}
		waitForIdle(t, sched, "r-race")
		time.Sleep(5 * time.Millisecond)
	}

	history, err := jobs.ListByResource(ctx, "r-race")
	require.NoError(t, err)
	for _, j := range history {
		assert.Equal(t, domain.JobCompleted, j.Status, "job %s (%s) never completed", j.ID, j.Kind)
	}
}

func TestScheduler_Ensure_RequeuesAfterCompletion(t *testing.T) {
	sched, resources, jobs := newTestScheduler()
	ctx := context.Background()

	r := &domain.Resource{ID: "r-3", Name: "sprockets", Kind: domain.KindLocal}
	require.NoError(t, resources.Create(ctx, r))

	require.NoError(t, sched.Ensure(ctx, "r-3", domain.JobOverrides{}))
	waitForIdle(t, sched, "r-3")

	require.NoError(t, sched.Ensure(ctx, "r-3", domain.JobOverrides{}))
	waitForIdle(t, sched, "r-3")

	history, err := jobs.ListByResource(ctx, "r-3")
	require.NoError(t, err)
	assert.Len(t, history, 4)
}
