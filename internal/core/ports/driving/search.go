package driving

import (
	"context"

	"github.com/custodia-labs/ctxpack/internal/core/domain"
)

// SearchService runs the hybrid text+vector search fusion over a caller's
// visible resource set.
type SearchService interface {
	Search(ctx context.Context, opts domain.SearchOptions) ([]domain.SearchResult, error)
}
