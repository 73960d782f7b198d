package memory

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/ctxpack/internal/core/domain"
)

func TestNewResearchJobStore(t *testing.T) {
	store := NewResearchJobStore()
	require.NotNil(t, store)
	assert.NotNil(t, store.jobs)
}

func TestResearchJobStore_CreateGetUpdate(t *testing.T) {
	store := NewResearchJobStore()
	ctx := context.Background()

	j := &domain.ResearchJob{ID: "rj-1", Query: "how does auth work", Status: domain.JobQueued}
	require.NoError(t, store.Create(ctx, j))

	got, err := store.Get(ctx, "rj-1")
	require.NoError(t, err)
	assert.Equal(t, "how does auth work", got.Query)

	j.Status = domain.JobCompleted
	j.Result = &domain.AgentResult{Text: "done"}
	require.NoError(t, store.Update(ctx, j))

	got, err = store.Get(ctx, "rj-1")
	require.NoError(t, err)
	assert.Equal(t, domain.JobCompleted, got.Status)
	require.NotNil(t, got.Result)
	assert.Equal(t, "done", got.Result.Text)
}

func TestResearchJobStore_Update_NotFound(t *testing.T) {
	store := NewResearchJobStore()
	err := store.Update(context.Background(), &domain.ResearchJob{ID: "ghost"})
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestResearchJobStore_Get_NotFound(t *testing.T) {
	store := NewResearchJobStore()
	_, err := store.Get(context.Background(), "missing")
	assert.ErrorIs(t, err, domain.ErrNotFound)
}
