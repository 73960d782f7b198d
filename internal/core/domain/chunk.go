package domain

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
)

// Chunk is a line-ranged slice of a file belonging to a Resource.
type Chunk struct {
	ID         string
	ResourceID string

	// Filepath is POSIX-normalized and relative to the resource root.
	Filepath string

	// LineStart/LineEnd are inclusive, 1-based.
	LineStart int
	LineEnd   int

	// Text is the raw slice of source text for this chunk.
	Text string

	// ContextualizedText prepends scope/entity hints; this is what gets embedded.
	ContextualizedText string

	// Scope is the enclosing module/namespace chain, e.g. "pkg/service.Indexer".
	Scope string

	// Entities are named-entity hints (function/class/symbol names) found in the chunk.
	Entities []string

	Language string
	Hash     string

	// Embedding is nil when the embed stage failed for this chunk.
	Embedding []float32
}

// ComputeHash derives the content hash:
// sha256(filepath + ':' + lineStart + ':' + lineEnd + ':' + contextualizedText).
func (c *Chunk) ComputeHash() string {
	sum := sha256.Sum256([]byte(fmt.Sprintf("%s:%d:%d:%s", c.Filepath, c.LineStart, c.LineEnd, c.ContextualizedText)))
	return hex.EncodeToString(sum[:])
}

// Validate checks the line-range invariant: 1 <= start <= end.
func (c *Chunk) Validate() error {
	if c.LineStart < 1 || c.LineStart > c.LineEnd {
		return fmt.Errorf("%w: chunk line range invalid (start=%d end=%d)", ErrValidation, c.LineStart, c.LineEnd)
	}
	return nil
}

// EmbeddingDimension is the fixed dimensionality of the default model.
const EmbeddingDimension = 1536
