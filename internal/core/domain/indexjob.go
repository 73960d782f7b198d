package domain

import "time"

// JobKind distinguishes a materialization-only pass from one that also embeds.
type JobKind string

const (
	JobSync  JobKind = "sync"
	JobIndex JobKind = "index"
)

// JobStatus is the lifecycle of an IndexJob: queued -> running -> (completed|failed).
type JobStatus string

const (
	JobQueued    JobStatus = "queued"
	JobRunning   JobStatus = "running"
	JobCompleted JobStatus = "completed"
	JobFailed    JobStatus = "failed"
)

// WarningStage names the pipeline stage a per-file warning was recorded at.
type WarningStage string

const (
	StageScan        WarningStage = "scan"
	StageRead        WarningStage = "read"
	StageChunk       WarningStage = "chunk"
	StageEmbed       WarningStage = "embed"
	StageSync        WarningStage = "sync"
	StageRemoteCheck WarningStage = "remote-check"
)

// Warning is a non-fatal, per-file or per-batch problem recorded on a job.
type Warning struct {
	Filepath string
	Stage    WarningStage
	Message  string
}

// IndexJob is one queued/run of a sync or index pass over a Resource.
type IndexJob struct {
	ID         string
	ResourceID string
	Kind       JobKind
	Status     JobStatus

	// Progress is an advisory 0-100 metric; never consulted by algorithms.
	Progress int

	Error *string

	Warnings []Warning

	TotalFiles     int
	ProcessedFiles int

	StartedAt   *time.Time
	CompletedAt *time.Time
	CreatedAt   time.Time
}

// IsTerminal reports whether the job has reached an immutable end state.
func (j *IndexJob) IsTerminal() bool {
	return j.Status == JobCompleted || j.Status == JobFailed
}

// JobOverrides carries the per-request provider capabilities and model
// selection an Ensure call primes for the next job a resource's worker
// picks up. They are volatile: held only while a worker is active and
// discarded on release.
type JobOverrides struct {
	EmbedderModel string
	ChatModel     string
}
