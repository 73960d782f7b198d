// Package driven provides interfaces for infrastructure adapters (secondary/outbound ports).
package driven

import "context"

// Embedder generates vector embeddings from text under a {model,
// dimensions} contract. Optional: when nil, the vector subtrack of hybrid
// search is disabled and results fall back to the text subtrack alone.
//
// Embedder generates vectors; VectorIndex stores and searches them.
//
// Implementations may include:
//   - OpenAI (text-embedding-3-small, text-embedding-3-large)
//   - Ollama (nomic-embed-text, all-minilm)
//   - Local models via inference servers
type Embedder interface {
	// EmbedOne generates a vector embedding for a single piece of text.
	EmbedOne(ctx context.Context, text string) ([]float32, error)

	// EmbedMany generates embeddings for multiple texts in one round trip.
	// More efficient than calling EmbedOne in a loop for chunk batches.
	EmbedMany(ctx context.Context, texts []string) ([][]float32, error)

	// Dimensions returns the embedding vector size (e.g., 384, 1536, 3072).
	// Must match the VectorIndex and chunk schema configuration.
	Dimensions() int

	// ModelName returns the name of the embedding model being used.
	ModelName() string

	// Ping validates the service is reachable by making a lightweight test request.
	Ping(ctx context.Context) error

	// Close releases resources.
	Close() error
}
