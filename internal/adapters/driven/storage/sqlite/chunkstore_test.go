package sqlite

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/ctxpack/internal/core/domain"
)

func seedResource(t *testing.T, store *Store, id string) {
	t.Helper()
	require.NoError(t, store.ResourceStore().Create(context.Background(), newTestResource(id, id)))
}

func TestChunkStore_ReplaceAll_RoundTripsEmbedding(t *testing.T) {
	store, cleanup := setupTestStore(t)
	defer cleanup()
	ctx := context.Background()
	seedResource(t, store, "r-1")
	cs := store.ChunkStore()

	chunks := []domain.Chunk{
		{
			ID: "c-1", ResourceID: "r-1", Filepath: "a.go", LineStart: 1, LineEnd: 10,
			Text: "func A() {}", ContextualizedText: "pkg.A:\nfunc A() {}",
			Scope: "pkg", Entities: []string{"A"}, Language: "go", Hash: "hash-1",
			Embedding: []float32{0.1, -0.2, 0.3},
		},
	}
	require.NoError(t, cs.ReplaceAll(ctx, "r-1", chunks))

	got, err := cs.Get(ctx, "c-1")
	require.NoError(t, err)
	assert.Equal(t, []string{"A"}, got.Entities)
	require.Len(t, got.Embedding, 3)
	assert.InDelta(t, 0.1, got.Embedding[0], 1e-6)
	assert.InDelta(t, -0.2, got.Embedding[1], 1e-6)
	assert.InDelta(t, 0.3, got.Embedding[2], 1e-6)
}

func TestChunkStore_ReplaceAll_SwapsOldForNew(t *testing.T) {
	store, cleanup := setupTestStore(t)
	defer cleanup()
	ctx := context.Background()
	seedResource(t, store, "r-1")
	cs := store.ChunkStore()

	require.NoError(t, cs.ReplaceAll(ctx, "r-1", []domain.Chunk{
		{ID: "c-1", ResourceID: "r-1", Filepath: "old.go", LineStart: 1, LineEnd: 1, Hash: "h1"},
	}))
	require.NoError(t, cs.ReplaceAll(ctx, "r-1", []domain.Chunk{
		{ID: "c-2", ResourceID: "r-1", Filepath: "new.go", LineStart: 1, LineEnd: 1, Hash: "h2"},
	}))

	list, err := cs.ListByResource(ctx, "r-1")
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, "c-2", list[0].ID)
}

func TestChunkStore_GetMany_PreservesOrderAndOmitsMissing(t *testing.T) {
	store, cleanup := setupTestStore(t)
	defer cleanup()
	ctx := context.Background()
	seedResource(t, store, "r-1")
	cs := store.ChunkStore()

	require.NoError(t, cs.ReplaceAll(ctx, "r-1", []domain.Chunk{
		{ID: "c-1", ResourceID: "r-1", Hash: "h1"},
		{ID: "c-2", ResourceID: "r-1", Hash: "h2"},
		{ID: "c-3", ResourceID: "r-1", Hash: "h3"},
	}))

	got, err := cs.GetMany(ctx, []string{"c-3", "missing", "c-1"})
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, "c-3", got[0].ID)
	assert.Equal(t, "c-1", got[1].ID)
}

func TestChunkStore_NearestByResources(t *testing.T) {
	store, cleanup := setupTestStore(t)
	defer cleanup()
	ctx := context.Background()
	seedResource(t, store, "r-1")
	seedResource(t, store, "r-2")
	cs := store.ChunkStore()

	require.NoError(t, cs.ReplaceAll(ctx, "r-1", []domain.Chunk{
		{ID: "c-1", ResourceID: "r-1", Hash: "h1", Embedding: []float32{0.1}},
		{ID: "c-2", ResourceID: "r-1", Hash: "h2"},
	}))
	require.NoError(t, cs.ReplaceAll(ctx, "r-2", []domain.Chunk{
		{ID: "c-3", ResourceID: "r-2", Hash: "h3", Embedding: []float32{0.2}},
	}))

	scoped, err := cs.NearestByResources(ctx, []string{"r-1"})
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{"c-1"}, scoped)

	all, err := cs.NearestByResources(ctx, nil)
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{"c-1", "c-3"}, all)
}

func TestChunkStore_DeleteByResource(t *testing.T) {
	store, cleanup := setupTestStore(t)
	defer cleanup()
	ctx := context.Background()
	seedResource(t, store, "r-1")
	cs := store.ChunkStore()

	require.NoError(t, cs.ReplaceAll(ctx, "r-1", []domain.Chunk{{ID: "c-1", ResourceID: "r-1", Hash: "h1"}}))
	require.NoError(t, cs.DeleteByResource(ctx, "r-1"))

	list, err := cs.ListByResource(ctx, "r-1")
	require.NoError(t, err)
	assert.Empty(t, list)
}
