package services

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/custodia-labs/ctxpack/internal/core/domain"
	"github.com/custodia-labs/ctxpack/internal/core/ports/driven"
	"github.com/custodia-labs/ctxpack/internal/logger"
)

const (
	maxFileSize = 1 << 20 // 1 MiB
	embedBatch  = 100
)

// Indexer drives sync and index jobs end to end. It is invoked by the
// Scheduler's per-resource worker loop, never concurrently for the same
// resource.
type Indexer struct {
	Resources    driven.ResourceStore
	Chunks       driven.ChunkStore
	Materializer driven.Materializer
	Chunker      *Chunker
	Embedder     driven.Embedder
	Embedders    map[string]driven.Embedder // named model -> Embedder, for per-request overrides
	VectorIndex  driven.VectorIndex
}

// NewIndexer wires an Indexer.
func NewIndexer(resources driven.ResourceStore, chunks driven.ChunkStore, mat driven.Materializer, chunker *Chunker, emb driven.Embedder, vec driven.VectorIndex) *Indexer {
	if chunker == nil {
		chunker = NewChunker(DefaultMaxChunkSize)
	}
	return &Indexer{Resources: resources, Chunks: chunks, Materializer: mat, Chunker: chunker, Embedder: emb, VectorIndex: vec}
}

// resolveEmbedder honours per-request provider overrides before falling
// back to the per-process default.
func (ix *Indexer) resolveEmbedder(overrides domain.JobOverrides) driven.Embedder {
	if overrides.EmbedderModel != "" {
		if e, ok := ix.Embedders[overrides.EmbedderModel]; ok {
			return e
		}
	}
	return ix.Embedder
}

// Run dispatches to RunSync or RunIndex by job.Kind, mutating job in place.
// overrides carries the per-request provider selection the Scheduler
// primed via Ensure for this resource; it is read-only to Run and never
// shared across concurrently running resources. The caller (Scheduler)
// persists job and resource after Run returns.
func (ix *Indexer) Run(ctx context.Context, job *domain.IndexJob, resource *domain.Resource, overrides domain.JobOverrides) error {
	switch job.Kind {
	case domain.JobSync:
		return ix.RunSync(ctx, job, resource)
	case domain.JobIndex:
		return ix.RunIndex(ctx, job, resource, overrides)
	default:
		return fmt.Errorf("%w: unknown job kind %q", domain.ErrValidation, job.Kind)
	}
}

// RunSync materializes content and records commit/branch freshness.
func (ix *Indexer) RunSync(ctx context.Context, job *domain.IndexJob, resource *domain.Resource) error {
	dir, err := ix.Materializer.Prepare(ctx, resource)
	if err != nil {
		msg := err.Error()
		resource.ContentStatus = domain.ContentFailed
		resource.ContentError = &msg
		return err
	}

	paths, err := ix.Materializer.ListTracked(ctx, dir)
	if err != nil {
		job.Warnings = append(job.Warnings, domain.Warning{Stage: domain.StageScan, Message: err.Error()})
	}
	paths = intersectScopedPaths(paths, resource.SubPaths)
	job.TotalFiles = len(paths)

	if resource.Kind == domain.KindGit {
		local, _ := ix.Materializer.HeadCommit(ctx, dir)
		resource.LastLocalCommit = local
		branch := ""
		if resource.Branch != nil {
			branch = *resource.Branch
		}
		remote, _ := ix.Materializer.RemoteHead(ctx, derefOr(resource.RemoteURL, ""), branch)
		resource.LastRemoteCommit = remote
		resource.UpdateAvailable = local != nil && remote != nil && *local != *remote
	} else {
		local, _ := ix.Materializer.HeadCommit(ctx, dir)
		resource.LastLocalCommit = local
	}

	now := time.Now()
	resource.LastSyncedAt = &now
	resource.ContentStatus = domain.ContentReady
	resource.ContentError = nil
	return nil
}

// RunIndex reads materialized files, chunks, embeds, and atomically
// replaces the resource's chunk set.
func (ix *Indexer) RunIndex(ctx context.Context, job *domain.IndexJob, resource *domain.Resource, overrides domain.JobOverrides) error {
	dir := ix.Materializer.ResolvedDir(resource)

	paths, err := ix.Materializer.ListTracked(ctx, dir)
	if err != nil {
		msg := err.Error()
		resource.VectorStatus = domain.VectorFailed
		resource.VectorError = &msg
		return err
	}
	paths = intersectScopedPaths(paths, resource.SubPaths)
	job.TotalFiles = len(paths)
	if len(paths) == 0 {
		job.Progress = 95
	} else {
		job.Progress = 10
	}

	inputs := make([]FileInput, 0, len(paths))
	for _, p := range paths {
		job.ProcessedFiles++
		code, warn := readSourceFile(dir, p)
		if warn != nil {
			job.Warnings = append(job.Warnings, *warn)
			continue
		}
		inputs = append(inputs, FileInput{Filepath: p, Code: code})
	}

	results := ix.Chunker.Chunk(inputs)
	var allChunks []domain.Chunk
	for _, res := range results {
		if res.Err != nil {
			job.Warnings = append(job.Warnings, domain.Warning{Filepath: res.Filepath, Stage: domain.StageChunk, Message: res.Err.Error()})
			continue
		}
		for _, c := range res.Chunks {
			c.ResourceID = resource.ID
			c.ID = newChunkID(resource.ID, c.Filepath, c.LineStart, c.LineEnd)
			allChunks = append(allChunks, c)
		}
	}
	if len(paths) != 0 {
		job.Progress = 40
	}

	if err := ix.embedAndReplace(ctx, job, resource, allChunks, overrides); err != nil {
		msg := err.Error()
		resource.VectorStatus = domain.VectorFailed
		resource.VectorError = &msg
		return err
	}

	now := time.Now()
	resource.LastIndexedAt = &now
	resource.ChunkCount = len(allChunks)
	resource.VectorStatus = domain.VectorReady
	resource.VectorError = nil
	job.Progress = 100
	return nil
}

func (ix *Indexer) embedAndReplace(ctx context.Context, job *domain.IndexJob, resource *domain.Resource, chunks []domain.Chunk, overrides domain.JobOverrides) error {
	if len(chunks) == 0 {
		return ix.Chunks.ReplaceAll(ctx, resource.ID, chunks)
	}
	totalBatches := (len(chunks) + embedBatch - 1) / embedBatch
	embedder := ix.resolveEmbedder(overrides)

	for batchIndex := 0; batchIndex*embedBatch < len(chunks); batchIndex++ {
		start := batchIndex * embedBatch
		end := min(start+embedBatch, len(chunks))
		batch := chunks[start:end]

		if embedder != nil {
			texts := make([]string, len(batch))
			for i, c := range batch {
				texts[i] = c.ContextualizedText
			}
			vectors, err := embedder.EmbedMany(ctx, texts)
			if err != nil {
				job.Warnings = append(job.Warnings, domain.Warning{
					Stage:   domain.StageEmbed,
					Message: fmt.Sprintf("batch %d: %v", batchIndex, err),
				})
			} else {
				for i := range batch {
					if i < len(vectors) && vectors[i] != nil {
						chunks[start+i].Embedding = vectors[i]
					}
				}
			}
		}

		if ix.VectorIndex != nil {
			for _, c := range batch {
				if c.Embedding != nil {
					if err := ix.VectorIndex.Add(ctx, c.ID, c.Embedding); err != nil {
						logger.Warn("vector index add failed", "chunk", c.ID, "err", err)
					}
				}
			}
		}

		job.Progress = min(40+int((float64(batchIndex+1)/float64(totalBatches))*55), 95)
	}

	// One atomic delete-then-insert with every chunk's final embedding state,
	// once every batch has had its chance to embed.
	return ix.Chunks.ReplaceAll(ctx, resource.ID, chunks)
}

func intersectScopedPaths(paths, subPaths []string) []string {
	if len(subPaths) == 0 {
		return paths
	}
	var out []string
	for _, p := range paths {
		for _, sp := range subPaths {
			if p == sp || hasPathPrefix(p, sp) {
				out = append(out, p)
				break
			}
		}
	}
	return out
}

func hasPathPrefix(p, prefix string) bool {
	prefix = filepath.ToSlash(prefix)
	if prefix == "" {
		return true
	}
	return p == prefix || (len(p) > len(prefix) && p[:len(prefix)] == prefix && p[len(prefix)] == '/')
}

func readSourceFile(dir, relPath string) (string, *domain.Warning) {
	full := filepath.Join(dir, relPath)
	info, err := os.Stat(full)
	if err != nil {
		return "", &domain.Warning{Filepath: relPath, Stage: domain.StageScan, Message: err.Error()}
	}
	if info.Size() > maxFileSize {
		return "", &domain.Warning{Filepath: relPath, Stage: domain.StageRead, Message: "file exceeds 1 MiB, skipped"}
	}
	data, err := os.ReadFile(full)
	if err != nil {
		return "", &domain.Warning{Filepath: relPath, Stage: domain.StageRead, Message: err.Error()}
	}
	if bytes.IndexByte(data, 0) >= 0 {
		return "", &domain.Warning{Filepath: relPath, Stage: domain.StageRead, Message: "binary file (NUL byte detected), skipped"}
	}
	return string(data), nil
}

func derefOr(s *string, fallback string) string {
	if s == nil {
		return fallback
	}
	return *s
}

func newChunkID(resourceID, filepath string, lineStart, lineEnd int) string {
	return fmt.Sprintf("%s:%s:%d:%d", resourceID, filepath, lineStart, lineEnd)
}
