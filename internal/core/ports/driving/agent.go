package driving

import (
	"context"

	"github.com/custodia-labs/ctxpack/internal/core/domain"
)

// AgentDriver runs the three agent entry points (quick answer, exploration,
// deep research) that fuse Hybrid Search with the Tool Surface behind a
// ChatModel loop.
type AgentDriver interface {
	// Run buffers the entire answer before returning; used for quick-answer
	// callers and for the synchronous exploration/deep-research paths.
	Run(ctx context.Context, query string, opts domain.ResearchOptions) (*domain.AgentResult, error)

	// Stream returns a channel of typed events terminated by exactly one of
	// AgentEventDone or AgentEventError. The producer emits AgentEventPing
	// at a fixed 5-second interval to keep idle consumers alive.
	Stream(ctx context.Context, query string, opts domain.ResearchOptions) (<-chan domain.AgentEvent, error)

	// StartResearchJob persists a queued ResearchJob and runs the deep
	// research driver against it in the background, writing the final
	// status and result to the row on completion or failure. opts.Mode is
	// forced to ModeDeepResearch regardless of the caller's setting.
	StartResearchJob(ctx context.Context, ownerID *string, query string, opts domain.ResearchOptions) (*domain.ResearchJob, error)
}
