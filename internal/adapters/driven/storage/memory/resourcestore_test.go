package memory

import (
	"context"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/ctxpack/internal/core/domain"
)

func strp(s string) *string { return &s }

func TestNewResourceStore(t *testing.T) {
	store := NewResourceStore()
	require.NotNil(t, store)
	assert.NotNil(t, store.resources)
}

func TestResourceStore_CreateAndGet(t *testing.T) {
	store := NewResourceStore()
	ctx := context.Background()

	r := &domain.Resource{ID: "r-1", Name: "repo", Scope: domain.ScopeGlobal, Kind: domain.KindGit}
	require.NoError(t, store.Create(ctx, r))

	got, err := store.Get(ctx, "r-1")
	require.NoError(t, err)
	assert.Equal(t, "repo", got.Name)
}

func TestResourceStore_Get_NotFound(t *testing.T) {
	store := NewResourceStore()
	_, err := store.Get(context.Background(), "missing")
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestResourceStore_GetByName(t *testing.T) {
	store := NewResourceStore()
	ctx := context.Background()
	owner := strp("owner-1")

	require.NoError(t, store.Create(ctx, &domain.Resource{
		ID: "r-1", OwnerID: owner, Scope: domain.ScopeProject, ProjectKey: "proj", Name: "repo", Kind: domain.KindGit,
	}))

	got, err := store.GetByName(ctx, owner, domain.ScopeProject, "proj", "repo")
	require.NoError(t, err)
	assert.Equal(t, "r-1", got.ID)

	_, err = store.GetByName(ctx, owner, domain.ScopeProject, "other-proj", "repo")
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestResourceStore_List_FiltersByOwner(t *testing.T) {
	store := NewResourceStore()
	ctx := context.Background()
	ownerA, ownerB := strp("a"), strp("b")

	require.NoError(t, store.Create(ctx, &domain.Resource{ID: "r-1", OwnerID: ownerA, Name: "x", Kind: domain.KindLocal}))
	require.NoError(t, store.Create(ctx, &domain.Resource{ID: "r-2", OwnerID: ownerB, Name: "y", Kind: domain.KindLocal}))

	list, err := store.List(ctx, ownerA)
	require.NoError(t, err)
	assert.Len(t, list, 1)
	assert.Equal(t, "r-1", list[0].ID)

	all, err := store.List(ctx, nil)
	require.NoError(t, err)
	assert.Len(t, all, 2)
}

func TestResourceStore_Update_NotFound(t *testing.T) {
	store := NewResourceStore()
	err := store.Update(context.Background(), &domain.Resource{ID: "ghost"})
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestResourceStore_Update_Success(t *testing.T) {
	store := NewResourceStore()
	ctx := context.Background()
	r := &domain.Resource{ID: "r-1", Name: "before", Kind: domain.KindLocal}
	require.NoError(t, store.Create(ctx, r))

	r.Name = "after"
	require.NoError(t, store.Update(ctx, r))

	got, err := store.Get(ctx, "r-1")
	require.NoError(t, err)
	assert.Equal(t, "after", got.Name)
}

func TestResourceStore_Delete(t *testing.T) {
	store := NewResourceStore()
	ctx := context.Background()
	require.NoError(t, store.Create(ctx, &domain.Resource{ID: "r-1", Kind: domain.KindLocal}))

	require.NoError(t, store.Delete(ctx, "r-1"))
	_, err := store.Get(ctx, "r-1")
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestResourceStore_Concurrency(t *testing.T) {
	store := NewResourceStore()
	ctx := context.Background()

	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			id := "r-" + string(rune('A'+i))
			_ = store.Create(ctx, &domain.Resource{ID: id, Kind: domain.KindLocal})
			_, _ = store.Get(ctx, id)
			_, _ = store.List(ctx, nil)
		}(i)
	}
	wg.Wait()

	list, err := store.List(ctx, nil)
	require.NoError(t, err)
	assert.Len(t, list, 50)
}
