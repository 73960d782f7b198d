package githubresolve

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/ctxpack/internal/core/domain"
)

func TestParseGitHubURL(t *testing.T) {
	tests := []struct {
		name      string
		url       string
		wantOwner string
		wantRepo  string
		wantOK    bool
	}{
		{
			name:      "https URL",
			url:       "https://github.com/owner/repo",
			wantOwner: "owner",
			wantRepo:  "repo",
			wantOK:    true,
		},
		{
			name:      "https URL with .git suffix",
			url:       "https://github.com/owner/repo.git",
			wantOwner: "owner",
			wantRepo:  "repo",
			wantOK:    true,
		},
		{
			name:      "ssh URL",
			url:       "git@github.com:owner/repo.git",
			wantOwner: "owner",
			wantRepo:  "repo",
			wantOK:    true,
		},
		{
			name:   "non-github host",
			url:    "https://gitlab.com/owner/repo.git",
			wantOK: false,
		},
		{
			name:   "local path",
			url:    "/home/user/repos/widgets",
			wantOK: false,
		},
		{
			name:   "empty url",
			url:    "",
			wantOK: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			owner, repo, ok := parseGitHubURL(tt.url)
			assert.Equal(t, tt.wantOK, ok)
			if tt.wantOK {
				assert.Equal(t, tt.wantOwner, owner)
				assert.Equal(t, tt.wantRepo, repo)
			}
		})
	}
}

// fakeMaterializer records whether RemoteHead was delegated to it.
type fakeMaterializer struct {
	called bool
	sha    string
}

func (f *fakeMaterializer) Prepare(_ context.Context, _ *domain.Resource) (string, error) {
	return "", nil
}

func (f *fakeMaterializer) HeadCommit(_ context.Context, _ string) (*string, error) {
	return nil, nil
}

func (f *fakeMaterializer) RemoteHead(_ context.Context, _, _ string) (*string, error) {
	f.called = true
	if f.sha == "" {
		return nil, nil
	}
	return &f.sha, nil
}

func (f *fakeMaterializer) ListTracked(_ context.Context, _ string) ([]string, error) {
	return nil, nil
}

func (f *fakeMaterializer) ResolvedDir(_ *domain.Resource) string {
	return ""
}

// fakeResolver stubs the GitHub API call so tests never touch the network.
type fakeResolver struct {
	sha string
	err error
}

func (f *fakeResolver) branchHeadSHA(_ context.Context, _, _, _ string) (string, error) {
	return f.sha, f.err
}

func TestMaterializer_RemoteHead_FallsThroughForNonGitHubURL(t *testing.T) {
	fake := &fakeMaterializer{sha: "deadbeef"}
	m := &Materializer{Materializer: fake, resolver: &fakeResolver{}}

	sha, err := m.RemoteHead(context.Background(), "https://gitlab.com/owner/repo.git", "main")

	require.NoError(t, err)
	require.NotNil(t, sha)
	assert.Equal(t, "deadbeef", *sha)
	assert.True(t, fake.called)
}

func TestMaterializer_RemoteHead_UsesAPIForGitHubURL(t *testing.T) {
	fake := &fakeMaterializer{sha: "should-not-be-used"}
	m := &Materializer{Materializer: fake, resolver: &fakeResolver{sha: "api-sha"}}

	sha, err := m.RemoteHead(context.Background(), "https://github.com/owner/repo", "main")

	require.NoError(t, err)
	require.NotNil(t, sha)
	assert.Equal(t, "api-sha", *sha)
	assert.False(t, fake.called)
}

func TestMaterializer_RemoteHead_FallsThroughOnAPIFailure(t *testing.T) {
	fake := &fakeMaterializer{sha: "fallback-sha"}
	m := &Materializer{
		Materializer: fake,
		resolver:     &fakeResolver{err: errors.New("api unreachable")},
	}

	sha, err := m.RemoteHead(context.Background(), "https://github.com/owner/repo", "main")

	require.NoError(t, err)
	require.NotNil(t, sha)
	assert.Equal(t, "fallback-sha", *sha)
	assert.True(t, fake.called)
}
