package memory

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/ctxpack/internal/core/domain"
)

func TestNewJobStore(t *testing.T) {
	store := NewJobStore()
	require.NotNil(t, store)
	assert.NotNil(t, store.jobs)
}

func TestJobStore_CreateGetUpdate(t *testing.T) {
	store := NewJobStore()
	ctx := context.Background()

	j := &domain.IndexJob{ID: "j-1", ResourceID: "r-1", Status: domain.JobQueued}
	require.NoError(t, store.Create(ctx, j))

	got, err := store.Get(ctx, "j-1")
	require.NoError(t, err)
	assert.Equal(t, domain.JobQueued, got.Status)

	j.Status = domain.JobRunning
	require.NoError(t, store.Update(ctx, j))

	got, err = store.Get(ctx, "j-1")
	require.NoError(t, err)
	assert.Equal(t, domain.JobRunning, got.Status)
}

func TestJobStore_Update_NotFound(t *testing.T) {
	store := NewJobStore()
	err := store.Update(context.Background(), &domain.IndexJob{ID: "ghost"})
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestJobStore_OldestQueued_PicksEarliestByCreatedAt(t *testing.T) {
	store := NewJobStore()
	ctx := context.Background()
	now := time.Now()

	require.NoError(t, store.Create(ctx, &domain.IndexJob{ID: "j-2", ResourceID: "r-1", Status: domain.JobQueued, CreatedAt: now.Add(time.Minute)}))
	require.NoError(t, store.Create(ctx, &domain.IndexJob{ID: "j-1", ResourceID: "r-1", Status: domain.JobQueued, CreatedAt: now}))
	require.NoError(t, store.Create(ctx, &domain.IndexJob{ID: "j-3", ResourceID: "r-1", Status: domain.JobRunning, CreatedAt: now.Add(-time.Hour)}))

	oldest, err := store.OldestQueued(ctx, "r-1")
	require.NoError(t, err)
	require.NotNil(t, oldest)
	assert.Equal(t, "j-1", oldest.ID)
}

func TestJobStore_OldestQueued_NoneReturnsNil(t *testing.T) {
	store := NewJobStore()
	oldest, err := store.OldestQueued(context.Background(), "r-1")
	require.NoError(t, err)
	assert.Nil(t, oldest)
}

func TestJobStore_ListByResource_SortedByCreatedAt(t *testing.T) {
	store := NewJobStore()
	ctx := context.Background()
	now := time.Now()

	require.NoError(t, store.Create(ctx, &domain.IndexJob{ID: "j-2", ResourceID: "r-1", CreatedAt: now.Add(time.Minute)}))
	require.NoError(t, store.Create(ctx, &domain.IndexJob{ID: "j-1", ResourceID: "r-1", CreatedAt: now}))
	require.NoError(t, store.Create(ctx, &domain.IndexJob{ID: "j-other", ResourceID: "r-2", CreatedAt: now}))

	list, err := store.ListByResource(ctx, "r-1")
	require.NoError(t, err)
	require.Len(t, list, 2)
	assert.Equal(t, "j-1", list[0].ID)
	assert.Equal(t, "j-2", list[1].ID)
}
