package services

import (
	"bufio"
	"context"
	"math"
	"os"
	"path/filepath"
	"regexp"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/ctxpack/internal/adapters/driven/storage/memory"
	"github.com/custodia-labs/ctxpack/internal/core/domain"
	"github.com/custodia-labs/ctxpack/internal/core/ports/driven"
)

// fakeTextSearcher is a minimal stand-in for the ripgrep adapter: a
// case-insensitive literal/regex scan over files under dir.
type fakeTextSearcher struct{}

func (fakeTextSearcher) Search(_ context.Context, dir, pattern string, _ bool, maxHits int) ([]driven.TextHit, error) {
	re, err := regexp.Compile("(?i)" + pattern)
	if err != nil {
		return nil, err
	}
	var hits []driven.TextHit
	_ = filepath.Walk(dir, func(path string, info os.FileInfo, err error) error {
		if err != nil || info.IsDir() || len(hits) >= maxHits {
			return nil
		}
		rel, _ := filepath.Rel(dir, path)
		f, ferr := os.Open(path)
		if ferr != nil {
			return nil
		}
		defer f.Close()
		scanner := bufio.NewScanner(f)
		line := 0
		for scanner.Scan() {
			line++
			if re.MatchString(scanner.Text()) {
				hits = append(hits, driven.TextHit{Filepath: filepath.ToSlash(rel), Line: line})
				if len(hits) >= maxHits {
					break
				}
			}
		}
		return nil
	})
	return hits, nil
}

// fakeVectorIndex brute-forces cosine similarity over whatever was Add-ed.
type fakeVectorIndex struct {
	vectors map[string][]float32
}

func newFakeVectorIndex() *fakeVectorIndex { return &fakeVectorIndex{vectors: map[string][]float32{}} }

func (f *fakeVectorIndex) Add(_ context.Context, chunkID string, embedding []float32) error {
	f.vectors[chunkID] = embedding
	return nil
}

func (f *fakeVectorIndex) Delete(_ context.Context, chunkID string) error {
	delete(f.vectors, chunkID)
	return nil
}

func (f *fakeVectorIndex) Search(_ context.Context, query []float32, k int) ([]driven.VectorHit, error) {
	type scored struct {
		id  string
		sim float64
	}
	var all []scored
	for id, v := range f.vectors {
		all = append(all, scored{id: id, sim: cosine(query, v)})
	}
	// simple selection sort, good enough for small test fixtures; ties are
	// broken by id so the order does not depend on map iteration
	for i := 0; i < len(all); i++ {
		best := i
		for j := i + 1; j < len(all); j++ {
			if all[j].sim > all[best].sim || (all[j].sim == all[best].sim && all[j].id < all[best].id) {
				best = j
			}
		}
		all[i], all[best] = all[best], all[i]
	}
	if len(all) > k {
		all = all[:k]
	}
	hits := make([]driven.VectorHit, len(all))
	for i, a := range all {
		hits[i] = driven.VectorHit{ChunkID: a.id, Similarity: a.sim}
	}
	return hits, nil
}

func (f *fakeVectorIndex) Close() error { return nil }

func cosine(a, b []float32) float64 {
	var dot, na, nb float64
	n := len(a)
	if len(b) < n {
		n = len(b)
	}
	for i := 0; i < n; i++ {
		dot += float64(a[i]) * float64(b[i])
		na += float64(a[i]) * float64(a[i])
		nb += float64(b[i]) * float64(b[i])
	}
	if na == 0 || nb == 0 {
		return 0
	}
	return dot / (math.Sqrt(na) * math.Sqrt(nb))
}

// betaEmbedder returns [1,0,0] for text containing "beta", else [0,1,0].
type betaEmbedder struct{}

func (betaEmbedder) EmbedOne(_ context.Context, text string) ([]float32, error) {
	return betaVec(text), nil
}

func (betaEmbedder) EmbedMany(_ context.Context, texts []string) ([][]float32, error) {
	out := make([][]float32, len(texts))
	for i, t := range texts {
		out[i] = betaVec(t)
	}
	return out, nil
}

func betaVec(text string) []float32 {
	if regexp.MustCompile(`(?i)beta`).MatchString(text) {
		return []float32{1, 0, 0}
	}
	return []float32{0, 1, 0}
}

func (betaEmbedder) Dimensions() int              { return 3 }
func (betaEmbedder) ModelName() string            { return "beta-embed" }
func (betaEmbedder) Ping(_ context.Context) error { return nil }
func (betaEmbedder) Close() error                 { return nil }

// buildDemoSearch sets up the literal end-to-end scenario from the spec:
// a two-file local resource, synced and indexed, ready for hybrid search.
func buildDemoSearch(t *testing.T) (*Search, *memory.ResourceStore) {
	t.Helper()
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "a.txt"), []byte("alpha\nbeta\n"), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "b.txt"), []byte("beta\ngamma\n"), 0o644))

	resources := memory.NewResourceStore()
	chunks := memory.NewChunkStore()
	mat := &fsMaterializer{dir: dir}
	vec := newFakeVectorIndex()
	ix := NewIndexer(resources, chunks, mat, nil, betaEmbedder{}, vec)

	path := dir
	resource := &domain.Resource{ID: "demo", Name: "demo", Scope: domain.ScopeProject, ProjectKey: "/p", Kind: domain.KindLocal, LocalPath: &path}
	require.NoError(t, resources.Create(context.Background(), resource))

	syncJob := &domain.IndexJob{Kind: domain.JobSync}
	require.NoError(t, ix.RunSync(context.Background(), syncJob, resource))
	indexJob := &domain.IndexJob{Kind: domain.JobIndex}
	require.NoError(t, ix.RunIndex(context.Background(), indexJob, resource, domain.JobOverrides{}))
	require.NoError(t, resources.Update(context.Background(), resource))

	search := NewSearch(resources, chunks, fakeTextSearcher{}, vec, betaEmbedder{}, mat, 0)
	return search, resources
}

func TestSearch_HybridQuery_ReturnsBothFiles(t *testing.T) {
	search, _ := buildDemoSearch(t)

	results, err := search.Search(context.Background(), domain.SearchOptions{Query: "beta", Mode: domain.SearchHybrid, TopK: 5, Alpha: 0.5})
	require.NoError(t, err)
	require.Len(t, results, 2)

	files := map[string]bool{}
	hasHybrid := false
	for _, r := range results {
		files[r.Filepath] = true
		assert.Greater(t, r.Score, 0.0)
		if r.MatchType == domain.MatchHybrid {
			hasHybrid = true
		}
	}
	assert.True(t, files["a.txt"])
	assert.True(t, files["b.txt"])
	assert.True(t, hasHybrid)
}

func TestSearch_HybridQuery_StableAcrossRepeatRuns(t *testing.T) {
	search, _ := buildDemoSearch(t)
	opts := domain.SearchOptions{Query: "beta", Mode: domain.SearchHybrid, TopK: 5, Alpha: 0.5}

	first, err := search.Search(context.Background(), opts)
	require.NoError(t, err)
	second, err := search.Search(context.Background(), opts)
	require.NoError(t, err)

	require.Len(t, first, len(second))
	for i := range first {
		assert.Equal(t, first[i].Filepath, second[i].Filepath)
		assert.Equal(t, first[i].Score, second[i].Score)
	}
}

func TestSearch_EmptyQuery_ReturnsEmptyNoSubtrackCalls(t *testing.T) {
	search, _ := buildDemoSearch(t)
	results, err := search.Search(context.Background(), domain.SearchOptions{Query: "   "})
	require.NoError(t, err)
	assert.Nil(t, results)
}

func TestSearch_TextOnlyMode_ReturnsOnlyTextMatches(t *testing.T) {
	search, _ := buildDemoSearch(t)
	results, err := search.Search(context.Background(), domain.SearchOptions{Query: "beta", Mode: domain.SearchText, TopK: 5})
	require.NoError(t, err)
	for _, r := range results {
		assert.Equal(t, domain.MatchText, r.MatchType)
	}
}

func TestSearch_VectorOnlyMode_ReturnsOnlyVectorMatches(t *testing.T) {
	search, _ := buildDemoSearch(t)
	results, err := search.Search(context.Background(), domain.SearchOptions{Query: "beta", Mode: domain.SearchVector, TopK: 5})
	require.NoError(t, err)
	for _, r := range results {
		assert.Equal(t, domain.MatchVector, r.MatchType)
		assert.NotNil(t, r.ChunkID)
	}
}

// --- buildPattern / keyword extraction ---

func TestBuildPattern_NoKeywords_FallsBackToOriginalQuery(t *testing.T) {
	pattern, isRegex := buildPattern("the a of")
	assert.Equal(t, "the a of", pattern)
	assert.False(t, isRegex)
}

func TestBuildPattern_SingleKeyword_IsFixedString(t *testing.T) {
	pattern, isRegex := buildPattern("widgets")
	assert.Equal(t, "widgets", pattern)
	assert.False(t, isRegex)
}

func TestBuildPattern_MultipleKeywords_IsRegexAlternation(t *testing.T) {
	pattern, isRegex := buildPattern("widgets sprockets")
	assert.True(t, isRegex)
	assert.Contains(t, pattern, "|")
}

// --- fusion (spec §8 scenario 6) ---

func TestFuse_LiteralExampleFromSpec(t *testing.T) {
	t1 := domain.SearchResult{ResourceID: "r", Filepath: "t1.go", LineStart: 1}
	t2 := domain.SearchResult{ResourceID: "r", Filepath: "t2.go", LineStart: 1}
	t3 := domain.SearchResult{ResourceID: "r", Filepath: "t3.go", LineStart: 1}
	v1 := t2 // V1 = T2, same key
	v2 := domain.SearchResult{ResourceID: "r", Filepath: "v2.go", LineStart: 1}
	v3 := domain.SearchResult{ResourceID: "r", Filepath: "v3.go", LineStart: 1}

	text := []domain.SearchResult{t1, t2, t3}
	vector := []domain.SearchResult{v1, v2, v3}

	fused := fuse(text, vector, 0.5, 3)
	require.Len(t, fused, 3)

	const k = 60.0
	expectedT2 := 0.5*(1.0/(k+1)) + 0.5*(1.0/(k+2))
	expectedT1 := 0.5 * (1.0 / (k + 1))
	expectedV2 := 0.5 * (1.0 / (k + 2))

	assert.Equal(t, "t2.go", fused[0].Filepath)
	assert.InDelta(t, expectedT2, fused[0].Score, 1e-9)
	assert.Equal(t, domain.MatchHybrid, fused[0].MatchType)

	// T1 and V2 tie isn't exact here (T1 uses rank 1 in text => textScore
	// 1/61 weighted 0.5; V2 uses rank 2 in vector => vectorScore 1/62
	// weighted 0.5), matching the spec's "T1 = 0.5*(1/61); V2 = 0.5*(1/62)".
	assert.InDelta(t, expectedT1, scoreOf(fused, "t1.go"), 1e-9)
	assert.InDelta(t, expectedV2, scoreOf(fused, "v2.go"), 1e-9)
}

func scoreOf(results []domain.SearchResult, filepath string) float64 {
	for _, r := range results {
		if r.Filepath == filepath {
			return r.Score
		}
	}
	return -1
}

func TestFuse_SymmetricAtAlphaHalf(t *testing.T) {
	a := domain.SearchResult{ResourceID: "r", Filepath: "a.go", LineStart: 1}
	b := domain.SearchResult{ResourceID: "r", Filepath: "b.go", LineStart: 1}

	forward := fuse([]domain.SearchResult{a, b}, []domain.SearchResult{b, a}, 0.5, 2)
	backward := fuse([]domain.SearchResult{b, a}, []domain.SearchResult{a, b}, 0.5, 2)

	require.Len(t, forward, 2)
	require.Len(t, backward, 2)
	assert.InDelta(t, forward[0].Score, backward[0].Score, 1e-9)
	assert.InDelta(t, forward[1].Score, backward[1].Score, 1e-9)
}
