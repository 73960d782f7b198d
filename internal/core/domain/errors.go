package domain

import "errors"

// Error kinds surfaced by the core. Adapters wrap these with
// fmt.Errorf("...: %w", ErrX) so callers can still errors.Is/errors.As on
// the kind while getting a specific message.
var (
	// ErrNotFound indicates a requested resource, job, or file does not exist.
	ErrNotFound = errors.New("not found")

	// ErrValidation indicates malformed input: missing URL for git, missing
	// path for local, missing projectKey for project scope, or a conflicting
	// unique tuple.
	ErrValidation = errors.New("validation failed")

	// ErrConflict indicates a duplicate resource (unique tuple violation).
	ErrConflict = errors.New("conflict")

	// ErrUpstream indicates an embedder or ChatModel failure.
	ErrUpstream = errors.New("upstream failure")

	// ErrTool indicates a subprocess exited non-zero; the wrapping error
	// carries the captured stderr and command line.
	ErrTool = errors.New("tool failure")

	// ErrTimeout indicates a subtrack or subprocess deadline was exceeded.
	ErrTimeout = errors.New("timeout")

	// ErrTransient indicates a retriable I/O or network error.
	ErrTransient = errors.New("transient failure")

	// ErrAlreadyExists indicates an entity already exists.
	ErrAlreadyExists = errors.New("already exists")

	// ErrNotImplemented indicates functionality is not yet available
	// (e.g. the cgo-free hnsw build stub).
	ErrNotImplemented = errors.New("not implemented")

	// ErrSyncInProgress indicates a job is already running for a resource.
	ErrSyncInProgress = errors.New("sync in progress")
)
