package services

import (
	"bufio"
	"context"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"sort"
	"strings"
	"sync"
	"time"

	lru "github.com/hashicorp/golang-lru/v2"

	"github.com/custodia-labs/ctxpack/internal/core/domain"
	"github.com/custodia-labs/ctxpack/internal/core/ports/driven"
	"github.com/custodia-labs/ctxpack/internal/core/ports/driving"
	"github.com/custodia-labs/ctxpack/internal/logger"
)

const (
	textHitCapPerResource = 400
	subtrackTimeout       = 10 * time.Second
	contextWindowPad      = 15
	contextWindowMax      = 60
	mergeGapLines         = 10
)

var stopWords = map[string]bool{
	"the": true, "a": true, "an": true, "and": true, "or": true, "of": true,
	"to": true, "in": true, "is": true, "it": true, "for": true, "on": true,
	"with": true, "as": true, "by": true, "at": true, "this": true, "that": true,
	"be": true, "are": true, "was": true, "were": true, "from": true,
}

var tokenTrim = regexp.MustCompile(`^[^A-Za-z0-9_.]+|[^A-Za-z0-9_.]+$`)

var _ driving.SearchService = (*Search)(nil)

// Search implements driving.SearchService: hybrid text+vector fusion over
// a resource's materialized content.
type Search struct {
	Resources    driven.ResourceStore
	Chunks       driven.ChunkStore
	TextSearcher driven.TextSearcher
	VectorIndex  driven.VectorIndex
	Embedder     driven.Embedder
	Materializer driven.Materializer

	cache *lru.Cache[string, []domain.SearchResult]
}

// NewSearch wires a Search service. cacheSize <= 0 disables the response cache.
func NewSearch(resources driven.ResourceStore, chunks driven.ChunkStore, text driven.TextSearcher, vec driven.VectorIndex, emb driven.Embedder, mat driven.Materializer, cacheSize int) *Search {
	s := &Search{Resources: resources, Chunks: chunks, TextSearcher: text, VectorIndex: vec, Embedder: emb, Materializer: mat}
	if cacheSize > 0 {
		c, err := lru.New[string, []domain.SearchResult](cacheSize)
		if err == nil {
			s.cache = c
		}
	}
	return s
}

// Search runs the fusion pipeline in domain.SearchOptions.
func (s *Search) Search(ctx context.Context, opts domain.SearchOptions) ([]domain.SearchResult, error) {
	opts.Clamp()
	query := strings.TrimSpace(opts.Query)
	if query == "" {
		return nil, nil
	}
	opts.Query = query

	cacheKey := fmt.Sprintf("%s|%v|%s|%.3f|%d", opts.Query, opts.ResourceIDs, opts.Mode, opts.Alpha, opts.TopK)
	if s.cache != nil {
		if cached, ok := s.cache.Get(cacheKey); ok {
			return cached, nil
		}
	}

	needText := opts.Mode == domain.SearchHybrid || opts.Mode == domain.SearchText
	needVector := opts.Mode == domain.SearchHybrid || opts.Mode == domain.SearchVector

	var textResults, vectorResults []domain.SearchResult
	var textErr, vectorErr error
	var wg sync.WaitGroup

	if needText {
		wg.Add(1)
		go func() {
			defer wg.Done()
			tctx, cancel := context.WithTimeout(ctx, subtrackTimeout)
			defer cancel()
			textResults, textErr = s.textSubtrack(tctx, opts)
		}()
	}
	if needVector {
		wg.Add(1)
		go func() {
			defer wg.Done()
			vctx, cancel := context.WithTimeout(ctx, subtrackTimeout)
			defer cancel()
			vectorResults, vectorErr = s.vectorSubtrack(vctx, opts)
		}()
	}
	wg.Wait()

	switch opts.Mode {
	case domain.SearchText:
		if textErr != nil {
			return nil, textErr
		}
		return capResults(textResults, opts.TopK), nil
	case domain.SearchVector:
		if vectorErr != nil {
			return nil, vectorErr
		}
		return capResults(vectorResults, opts.TopK), nil
	default:
		if textErr != nil {
			logger.Warn("search text subtrack failed", "err", textErr)
			textResults = nil
		}
		if vectorErr != nil {
			logger.Warn("search vector subtrack failed", "err", vectorErr)
			vectorResults = nil
		}
		fused := fuse(textResults, vectorResults, opts.Alpha, opts.TopK)
		if s.cache != nil {
			s.cache.Add(cacheKey, fused)
		}
		return fused, nil
	}
}

// --- text subtrack ---

func (s *Search) textSubtrack(ctx context.Context, opts domain.SearchOptions) ([]domain.SearchResult, error) {
	resources, err := s.visibleResources(ctx, opts.ResourceIDs, func(r domain.Resource) bool { return r.ContentStatus == domain.ContentReady })
	if err != nil {
		return nil, err
	}
	pattern, isRegex := buildPattern(opts.Query)

	var results []domain.SearchResult
	for _, r := range resources {
		dir := s.Materializer.ResolvedDir(&r)
		hits, err := s.TextSearcher.Search(ctx, dir, pattern, isRegex, textHitCapPerResource)
		if err != nil {
			return nil, fmt.Errorf("%w: resource %s: %v", domain.ErrTimeout, r.ID, err)
		}
		results = append(results, rangesForResource(r, dir, hits)...)
	}
	return results, nil
}

// buildPattern extracts and normalises keywords for the text subtrack.
func buildPattern(query string) (pattern string, isRegex bool) {
	fields := strings.Fields(query)
	seen := map[string]bool{}
	var keywords []string
	for _, f := range fields {
		tok := tokenTrim.ReplaceAllString(f, "")
		if len(tok) < 2 {
			continue
		}
		lower := strings.ToLower(tok)
		if stopWords[lower] {
			continue
		}
		if seen[lower] {
			continue
		}
		seen[lower] = true
		keywords = append(keywords, tok)
	}
	switch len(keywords) {
	case 0:
		return query, false
	case 1:
		return keywords[0], false
	default:
		escaped := make([]string, len(keywords))
		for i, k := range keywords {
			escaped[i] = regexp.QuoteMeta(k)
		}
		return strings.Join(escaped, "|"), true
	}
}

func rangesForResource(r domain.Resource, dir string, hits []driven.TextHit) []domain.SearchResult {
	byFile := map[string][]int{}
	for _, h := range hits {
		byFile[h.Filepath] = append(byFile[h.Filepath], h.Line)
	}

	type lineRange struct {
		filepath           string
		lineStart, lineEnd int
		hitCount           int
	}
	var ranges []lineRange
	for fp, lines := range byFile {
		sort.Ints(lines)
		start, end, count := lines[0], lines[0], 1
		for _, l := range lines[1:] {
			if l-end <= mergeGapLines {
				end = l
				count++
				continue
			}
			ranges = append(ranges, lineRange{fp, start, end, count})
			start, end, count = l, l, 1
		}
		ranges = append(ranges, lineRange{fp, start, end, count})
	}
	sort.SliceStable(ranges, func(i, j int) bool {
		if ranges[i].hitCount != ranges[j].hitCount {
			return ranges[i].hitCount > ranges[j].hitCount
		}
		if ranges[i].filepath != ranges[j].filepath {
			return ranges[i].filepath < ranges[j].filepath
		}
		return ranges[i].lineStart < ranges[j].lineStart
	})

	results := make([]domain.SearchResult, 0, len(ranges))
	for rank, rg := range ranges {
		windowStart, windowEnd, text := readContextWindow(dir, rg.filepath, rg.lineStart, rg.lineEnd)
		score := 1.0/(float64(domain.RRFConstant)+float64(rank+1)) + min(float64(rg.hitCount), 5)*0.0005
		results = append(results, domain.SearchResult{
			ResourceID:   r.ID,
			ResourceName: r.Name,
			Filepath:     rg.filepath,
			LineStart:    windowStart + 1,
			LineEnd:      windowEnd,
			Text:         text,
			Score:        score,
			MatchType:    domain.MatchText,
			MatchSources: []string{"text"},
		})
	}
	return results
}

func readContextWindow(dir, relPath string, lineStart, lineEnd int) (windowStart, windowEnd int, text string) {
	f, err := os.Open(filepath.Join(dir, relPath))
	if err != nil {
		return lineStart - 1, lineEnd, ""
	}
	defer f.Close()

	var lines []string
	scanner := bufio.NewScanner(f)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	for scanner.Scan() {
		lines = append(lines, scanner.Text())
	}
	total := len(lines)

	start := lineStart - 1 - contextWindowPad
	if start < 0 {
		start = 0
	}
	end := lineEnd + contextWindowPad
	if end > total {
		end = total
	}
	if end-start > contextWindowMax {
		end = start + contextWindowMax
	}
	if start >= len(lines) {
		return start, end, ""
	}
	if end > len(lines) {
		end = len(lines)
	}
	return start, end, strings.Join(lines[start:end], "\n")
}

// --- vector subtrack ---

func (s *Search) vectorSubtrack(ctx context.Context, opts domain.SearchOptions) ([]domain.SearchResult, error) {
	if s.Embedder == nil || s.VectorIndex == nil {
		return nil, nil
	}
	resources, err := s.visibleResources(ctx, opts.ResourceIDs, func(r domain.Resource) bool { return r.VectorStatus == domain.VectorReady })
	if err != nil {
		return nil, err
	}
	if len(resources) == 0 {
		return nil, nil
	}
	resourceIDs := make([]string, len(resources))
	byID := map[string]domain.Resource{}
	for i, r := range resources {
		resourceIDs[i] = r.ID
		byID[r.ID] = r
	}

	candidateIDs, err := s.Chunks.NearestByResources(ctx, resourceIDs)
	if err != nil {
		return nil, err
	}
	allowed := map[string]bool{}
	for _, id := range candidateIDs {
		allowed[id] = true
	}

	queryVec, err := s.Embedder.EmbedOne(ctx, opts.Query)
	if err != nil {
		return nil, fmt.Errorf("%w: embed query: %v", domain.ErrUpstream, err)
	}

	hits, err := s.VectorIndex.Search(ctx, queryVec, opts.TopK*4)
	if err != nil {
		return nil, fmt.Errorf("%w: vector search: %v", domain.ErrUpstream, err)
	}

	var filtered []driven.VectorHit
	for _, h := range hits {
		if allowed[h.ChunkID] {
			filtered = append(filtered, h)
		}
	}

	ids := make([]string, len(filtered))
	for i, h := range filtered {
		ids[i] = h.ChunkID
	}
	chunks, err := s.Chunks.GetMany(ctx, ids)
	if err != nil {
		return nil, err
	}
	chunkByID := map[string]domain.Chunk{}
	for _, c := range chunks {
		chunkByID[c.ID] = c
	}

	results := make([]domain.SearchResult, 0, len(filtered))
	for _, h := range filtered {
		c, ok := chunkByID[h.ChunkID]
		if !ok {
			continue
		}
		r := byID[c.ResourceID]
		id := c.ID
		results = append(results, domain.SearchResult{
			ChunkID:      &id,
			ResourceID:   c.ResourceID,
			ResourceName: r.Name,
			Filepath:     c.Filepath,
			LineStart:    c.LineStart,
			LineEnd:      c.LineEnd,
			Text:         c.Text,
			Score:        h.Similarity,
			MatchType:    domain.MatchVector,
			MatchSources: []string{"vector"},
		})
	}
	return results, nil
}

// --- fusion ---

func fuse(text, vector []domain.SearchResult, alpha float64, topK int) []domain.SearchResult {
	type entry struct {
		result     domain.SearchResult
		textRank   int // 1-based, 0 = absent
		vectorRank int
	}
	byKey := map[string]*entry{}
	order := []string{}

	for i, r := range text {
		key := r.Key()
		e, ok := byKey[key]
		if !ok {
			e = &entry{result: r}
			byKey[key] = e
			order = append(order, key)
		}
		if e.textRank == 0 {
			e.textRank = i + 1
		}
	}
	for i, r := range vector {
		key := r.Key()
		e, ok := byKey[key]
		if !ok {
			// A text hit carries no chunk id; merge with the text result that
			// starts at the same resource, file, and line.
			key = fmt.Sprintf("%s:%s:%d", r.ResourceID, r.Filepath, r.LineStart)
			e, ok = byKey[key]
		}
		if !ok {
			e = &entry{result: r}
			byKey[key] = e
			order = append(order, key)
		}
		rank := i + 1
		if e.vectorRank == 0 || rank < e.vectorRank {
			e.vectorRank = rank
		}
	}

	K := float64(domain.RRFConstant)
	type scored struct {
		result domain.SearchResult
		score  float64
		idx    int
	}
	var all []scored
	for idx, key := range order {
		e := byKey[key]
		var textScore, vectorScore float64
		var sources []string
		if e.textRank > 0 {
			textScore = 1 / (K + float64(e.textRank))
			sources = append(sources, "text")
		}
		if e.vectorRank > 0 {
			vectorScore = 1 / (K + float64(e.vectorRank))
			sources = append(sources, "vector")
		}
		final := alpha*vectorScore + (1-alpha)*textScore
		res := e.result
		res.Score = final
		res.MatchSources = sources
		if len(sources) == 2 {
			res.MatchType = domain.MatchHybrid
		} else if sources[0] == "text" {
			res.MatchType = domain.MatchText
		} else {
			res.MatchType = domain.MatchVector
		}
		all = append(all, scored{result: res, score: final, idx: idx})
	}

	sort.SliceStable(all, func(i, j int) bool {
		if all[i].score != all[j].score {
			return all[i].score > all[j].score
		}
		return all[i].idx < all[j].idx
	})

	if len(all) > topK {
		all = all[:topK]
	}
	out := make([]domain.SearchResult, len(all))
	for i, s := range all {
		out[i] = s.result
	}
	return out
}

func capResults(results []domain.SearchResult, topK int) []domain.SearchResult {
	if len(results) > topK {
		return results[:topK]
	}
	return results
}

func (s *Search) visibleResources(ctx context.Context, ids []string, predicate func(domain.Resource) bool) ([]domain.Resource, error) {
	var all []domain.Resource
	if len(ids) == 0 {
		list, err := s.Resources.List(ctx, nil)
		if err != nil {
			return nil, err
		}
		all = list
	} else {
		for _, id := range ids {
			r, err := s.Resources.Get(ctx, id)
			if err != nil {
				continue
			}
			all = append(all, *r)
		}
	}
	var out []domain.Resource
	for _, r := range all {
		if predicate(r) {
			out = append(out, r)
		}
	}
	return out, nil
}
