package services

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/ctxpack/internal/adapters/driven/storage/memory"
	"github.com/custodia-labs/ctxpack/internal/core/domain"
)

func gitResource(name string) *domain.Resource {
	url := "https://github.com/acme/widgets"
	return &domain.Resource{
		Name:      name,
		Kind:      domain.KindGit,
		Scope:     domain.ScopeGlobal,
		RemoteURL: &url,
	}
}

func TestNewResource(t *testing.T) {
	svc := NewResource(memory.NewResourceStore())
	assert.NotNil(t, svc)
}

func TestResource_Create_Success(t *testing.T) {
	svc := NewResource(memory.NewResourceStore())
	r := gitResource("widgets")

	require.NoError(t, svc.Create(context.Background(), r))
	assert.NotEmpty(t, r.ID)
	assert.False(t, r.CreatedAt.IsZero())
	assert.Equal(t, r.CreatedAt, r.UpdatedAt)
	assert.Equal(t, domain.ContentMissing, r.ContentStatus)
	assert.Equal(t, domain.VectorMissing, r.VectorStatus)
}

func TestResource_Create_InvalidGitResource(t *testing.T) {
	svc := NewResource(memory.NewResourceStore())
	r := &domain.Resource{Name: "widgets", Kind: domain.KindGit}

	err := svc.Create(context.Background(), r)
	assert.ErrorIs(t, err, domain.ErrValidation)
}

func TestResource_Create_DuplicateTupleConflicts(t *testing.T) {
	svc := NewResource(memory.NewResourceStore())
	ctx := context.Background()

	require.NoError(t, svc.Create(ctx, gitResource("widgets")))
	err := svc.Create(ctx, gitResource("widgets"))
	assert.ErrorIs(t, err, domain.ErrConflict)
}

func TestResource_Create_SameNameDifferentScopeAllowed(t *testing.T) {
	svc := NewResource(memory.NewResourceStore())
	ctx := context.Background()

	require.NoError(t, svc.Create(ctx, gitResource("widgets")))

	other := gitResource("widgets")
	other.Scope = domain.ScopeProject
	other.ProjectKey = "proj-1"
	require.NoError(t, svc.Create(ctx, other))
}

func TestResource_Get(t *testing.T) {
	svc := NewResource(memory.NewResourceStore())
	ctx := context.Background()
	r := gitResource("widgets")
	require.NoError(t, svc.Create(ctx, r))

	got, err := svc.Get(ctx, r.ID)
	require.NoError(t, err)
	assert.Equal(t, r.ID, got.ID)

	_, err = svc.Get(ctx, "missing")
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestResource_List(t *testing.T) {
	svc := NewResource(memory.NewResourceStore())
	ctx := context.Background()
	require.NoError(t, svc.Create(ctx, gitResource("widgets")))
	require.NoError(t, svc.Create(ctx, gitResource("gadgets")))

	all, err := svc.List(ctx, nil)
	require.NoError(t, err)
	assert.Len(t, all, 2)
}

func TestResource_Update(t *testing.T) {
	svc := NewResource(memory.NewResourceStore())
	ctx := context.Background()
	r := gitResource("widgets")
	require.NoError(t, svc.Create(ctx, r))

	createdAt := r.UpdatedAt
	r.ContentStatus = domain.ContentReady
	require.NoError(t, svc.Update(ctx, r))

	got, err := svc.Get(ctx, r.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.ContentReady, got.ContentStatus)
	assert.True(t, got.UpdatedAt.Compare(createdAt) >= 0)
}

func TestResource_Update_InvalidRejected(t *testing.T) {
	svc := NewResource(memory.NewResourceStore())
	ctx := context.Background()
	r := gitResource("widgets")
	require.NoError(t, svc.Create(ctx, r))

	r.RemoteURL = nil
	err := svc.Update(ctx, r)
	assert.ErrorIs(t, err, domain.ErrValidation)
}

func TestResource_Delete(t *testing.T) {
	svc := NewResource(memory.NewResourceStore())
	ctx := context.Background()
	r := gitResource("widgets")
	require.NoError(t, svc.Create(ctx, r))

	require.NoError(t, svc.Delete(ctx, r.ID))
	_, err := svc.Get(ctx, r.ID)
	assert.ErrorIs(t, err, domain.ErrNotFound)
}
