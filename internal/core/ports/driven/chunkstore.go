package driven

import (
	"context"

	"github.com/custodia-labs/ctxpack/internal/core/domain"
)

// ChunkStore persists Chunk rows. ReplaceAll performs the delete-then-insert
// atomically so readers observe either the old or the new set, never a mix.
type ChunkStore interface {
	ReplaceAll(ctx context.Context, resourceID string, chunks []domain.Chunk) error
	ListByResource(ctx context.Context, resourceID string) ([]domain.Chunk, error)
	Get(ctx context.Context, chunkID string) (*domain.Chunk, error)
	// GetMany fetches multiple chunks by ID, preserving the caller's order
	// where possible (missing IDs are simply omitted).
	GetMany(ctx context.Context, chunkIDs []string) ([]domain.Chunk, error)
	// NearestByResources restricts a vector candidate scan to rows with a
	// non-null embedding belonging to one of resourceIDs (empty = all).
	NearestByResources(ctx context.Context, resourceIDs []string) ([]string, error)
	DeleteByResource(ctx context.Context, resourceID string) error
}
