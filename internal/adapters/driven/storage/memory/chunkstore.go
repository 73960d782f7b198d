package memory

import (
	"context"
	"sync"

	"github.com/custodia-labs/ctxpack/internal/core/domain"
	"github.com/custodia-labs/ctxpack/internal/core/ports/driven"
)

// Ensure ChunkStore implements the interface.
var _ driven.ChunkStore = (*ChunkStore)(nil)

// ChunkStore is an in-memory implementation of driven.ChunkStore.
type ChunkStore struct {
	mu     sync.RWMutex
	chunks map[string]domain.Chunk // chunkID -> chunk
}

// NewChunkStore creates a new in-memory chunk store.
func NewChunkStore() *ChunkStore {
	return &ChunkStore{
		chunks: make(map[string]domain.Chunk),
	}
}

// ReplaceAll atomically swaps every chunk belonging to resourceID for chunks.
func (s *ChunkStore) ReplaceAll(_ context.Context, resourceID string, chunks []domain.Chunk) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for id, c := range s.chunks {
		if c.ResourceID == resourceID {
			delete(s.chunks, id)
		}
	}
	for _, c := range chunks {
		s.chunks[c.ID] = c
	}
	return nil
}

// ListByResource returns every chunk belonging to resourceID.
func (s *ChunkStore) ListByResource(_ context.Context, resourceID string) ([]domain.Chunk, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var result []domain.Chunk
	for _, c := range s.chunks {
		if c.ResourceID == resourceID {
			result = append(result, c)
		}
	}
	return result, nil
}

// Get retrieves a single chunk by ID.
func (s *ChunkStore) Get(_ context.Context, chunkID string) (*domain.Chunk, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	c, ok := s.chunks[chunkID]
	if !ok {
		return nil, domain.ErrNotFound
	}
	return &c, nil
}

// GetMany fetches multiple chunks by ID, preserving the caller's order;
// IDs with no matching chunk are simply omitted.
func (s *ChunkStore) GetMany(_ context.Context, chunkIDs []string) ([]domain.Chunk, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	result := make([]domain.Chunk, 0, len(chunkIDs))
	for _, id := range chunkIDs {
		if c, ok := s.chunks[id]; ok {
			result = append(result, c)
		}
	}
	return result, nil
}

// NearestByResources returns the IDs of every embedded chunk belonging to
// one of resourceIDs (empty resourceIDs means every resource).
func (s *ChunkStore) NearestByResources(_ context.Context, resourceIDs []string) ([]string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	scope := make(map[string]bool, len(resourceIDs))
	for _, id := range resourceIDs {
		scope[id] = true
	}
	var ids []string
	for _, c := range s.chunks {
		if c.Embedding == nil {
			continue
		}
		if len(scope) > 0 && !scope[c.ResourceID] {
			continue
		}
		ids = append(ids, c.ID)
	}
	return ids, nil
}

// DeleteByResource removes every chunk belonging to resourceID.
func (s *ChunkStore) DeleteByResource(_ context.Context, resourceID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for id, c := range s.chunks {
		if c.ResourceID == resourceID {
			delete(s.chunks, id)
		}
	}
	return nil
}
