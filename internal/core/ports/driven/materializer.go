// Package driven provides interfaces for infrastructure adapters (secondary/outbound ports).
package driven

import (
	"context"

	"github.com/custodia-labs/ctxpack/internal/core/domain"
)

// Materializer brings a Resource's content onto the filesystem and answers
// freshness questions about it.
type Materializer interface {
	// Prepare is idempotent: clones, fetches, or validates depending on
	// resource kind and current on-disk state. Returns the absolute
	// directory the resource now lives under.
	Prepare(ctx context.Context, r *domain.Resource) (dir string, err error)

	// HeadCommit returns the local HEAD SHA, or nil on failure (non-fatal).
	HeadCommit(ctx context.Context, dir string) (*string, error)

	// RemoteHead returns the SHA of the requested branch on the remote,
	// or nil when it cannot be determined.
	RemoteHead(ctx context.Context, url, branch string) (*string, error)

	// ListTracked enumerates tracked files, returning POSIX-relative paths.
	// For local resources this instead walks the directory.
	ListTracked(ctx context.Context, dir string) ([]string, error)

	// ResolvedDir returns the directory a Resource lives (or would live) at
	// without touching the filesystem or network: the configured local
	// path for local resources, the resource-id-keyed repo root for git
	// resources. Callers that only need to read an already-synced
	// resource (search, tool surface) use this instead of Prepare.
	ResolvedDir(r *domain.Resource) string
}
