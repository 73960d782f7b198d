package memory

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/ctxpack/internal/core/domain"
)

func TestNewChunkStore(t *testing.T) {
	store := NewChunkStore()
	require.NotNil(t, store)
	assert.NotNil(t, store.chunks)
}

func TestChunkStore_ReplaceAll_FreshInsert(t *testing.T) {
	store := NewChunkStore()
	ctx := context.Background()

	chunks := []domain.Chunk{
		{ID: "c-1", ResourceID: "r-1", Filepath: "a.go", LineStart: 1, LineEnd: 5},
		{ID: "c-2", ResourceID: "r-1", Filepath: "b.go", LineStart: 1, LineEnd: 5},
	}
	require.NoError(t, store.ReplaceAll(ctx, "r-1", chunks))

	list, err := store.ListByResource(ctx, "r-1")
	require.NoError(t, err)
	assert.Len(t, list, 2)
}

func TestChunkStore_ReplaceAll_SwapsOldForNew(t *testing.T) {
	store := NewChunkStore()
	ctx := context.Background()

	require.NoError(t, store.ReplaceAll(ctx, "r-1", []domain.Chunk{
		{ID: "c-1", ResourceID: "r-1", Filepath: "old.go", LineStart: 1, LineEnd: 2},
	}))
	require.NoError(t, store.ReplaceAll(ctx, "r-1", []domain.Chunk{
		{ID: "c-2", ResourceID: "r-1", Filepath: "new.go", LineStart: 1, LineEnd: 2},
	}))

	list, err := store.ListByResource(ctx, "r-1")
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, "c-2", list[0].ID)

	_, err = store.Get(ctx, "c-1")
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestChunkStore_ReplaceAll_DoesNotTouchOtherResources(t *testing.T) {
	store := NewChunkStore()
	ctx := context.Background()

	require.NoError(t, store.ReplaceAll(ctx, "r-1", []domain.Chunk{{ID: "c-1", ResourceID: "r-1"}}))
	require.NoError(t, store.ReplaceAll(ctx, "r-2", []domain.Chunk{{ID: "c-2", ResourceID: "r-2"}}))
	require.NoError(t, store.ReplaceAll(ctx, "r-1", nil))

	list, err := store.ListByResource(ctx, "r-2")
	require.NoError(t, err)
	assert.Len(t, list, 1)
}

func TestChunkStore_GetMany_PreservesOrderAndOmitsMissing(t *testing.T) {
	store := NewChunkStore()
	ctx := context.Background()

	require.NoError(t, store.ReplaceAll(ctx, "r-1", []domain.Chunk{
		{ID: "c-1", ResourceID: "r-1"},
		{ID: "c-2", ResourceID: "r-1"},
		{ID: "c-3", ResourceID: "r-1"},
	}))

	got, err := store.GetMany(ctx, []string{"c-3", "missing", "c-1"})
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, "c-3", got[0].ID)
	assert.Equal(t, "c-1", got[1].ID)
}

func TestChunkStore_NearestByResources(t *testing.T) {
	store := NewChunkStore()
	ctx := context.Background()

	require.NoError(t, store.ReplaceAll(ctx, "r-1", []domain.Chunk{
		{ID: "c-1", ResourceID: "r-1", Embedding: []float32{0.1}},
		{ID: "c-2", ResourceID: "r-1", Embedding: nil},
	}))
	require.NoError(t, store.ReplaceAll(ctx, "r-2", []domain.Chunk{
		{ID: "c-3", ResourceID: "r-2", Embedding: []float32{0.2}},
	}))

	ids, err := store.NearestByResources(ctx, []string{"r-1"})
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{"c-1"}, ids)

	all, err := store.NearestByResources(ctx, nil)
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{"c-1", "c-3"}, all)
}

func TestChunkStore_DeleteByResource(t *testing.T) {
	store := NewChunkStore()
	ctx := context.Background()

	require.NoError(t, store.ReplaceAll(ctx, "r-1", []domain.Chunk{{ID: "c-1", ResourceID: "r-1"}}))
	require.NoError(t, store.DeleteByResource(ctx, "r-1"))

	list, err := store.ListByResource(ctx, "r-1")
	require.NoError(t, err)
	assert.Empty(t, list)
}
