package domain

import (
	"fmt"
	"time"
)

// Kind identifies what a Resource points at.
type Kind string

const (
	KindGit   Kind = "git"
	KindLocal Kind = "local"
)

// Scope controls the namespace a Resource's name is unique within.
type Scope string

const (
	ScopeProject Scope = "project"
	ScopeGlobal  Scope = "global"
)

// ContentStatus tracks materialization progress, independent of vectors.
type ContentStatus string

const (
	ContentMissing ContentStatus = "missing"
	ContentSyncing ContentStatus = "syncing"
	ContentReady   ContentStatus = "ready"
	ContentFailed  ContentStatus = "failed"
)

// VectorStatus tracks embedding progress, independent of content.
type VectorStatus string

const (
	VectorMissing  VectorStatus = "missing"
	VectorIndexing VectorStatus = "indexing"
	VectorReady    VectorStatus = "ready"
	VectorFailed   VectorStatus = "failed"
)

// LegacyStatus is a derived (contentStatus, vectorStatus) projection kept
// for callers that only understand a single lifecycle value.
type LegacyStatus string

const (
	LegacyPending  LegacyStatus = "pending"
	LegacyIndexing LegacyStatus = "indexing"
	LegacyReady    LegacyStatus = "ready"
	LegacyFailed   LegacyStatus = "failed"
)

// Resource is the indexed unit: a git repository or a local directory.
type Resource struct {
	ID         string
	OwnerID    *string
	Name       string
	Scope      Scope
	ProjectKey string
	Kind       Kind

	RemoteURL *string
	LocalPath *string
	Branch    *string
	Commit    *string
	SubPaths  []string
	Notes     *string

	ContentStatus ContentStatus
	VectorStatus  VectorStatus
	ContentError  *string
	VectorError   *string

	ChunkCount int

	LastSyncedAt  *time.Time
	LastIndexedAt *time.Time

	LastLocalCommit  *string
	LastRemoteCommit *string
	UpdateAvailable  bool

	LastUpdateCheckAt *time.Time

	CreatedAt time.Time
	UpdatedAt time.Time
}

// DisplayName mirrors the owner+scope+projectKey+name uniqueness tuple in
// a single human string, useful for logs and CLI output.
func (r *Resource) DisplayName() string {
	if r.Scope == ScopeProject && r.ProjectKey != "" {
		return fmt.Sprintf("%s (%s)", r.Name, r.ProjectKey)
	}
	return r.Name
}

// Validate enforces the data-model invariants: url is required iff
// kind=git, path is required iff kind=local, and a project scope requires
// a non-empty projectKey.
func (r *Resource) Validate() error {
	switch r.Kind {
	case KindGit:
		if r.RemoteURL == nil || *r.RemoteURL == "" {
			return fmt.Errorf("%w: git resource requires a remote url", ErrValidation)
		}
	case KindLocal:
		if r.LocalPath == nil || *r.LocalPath == "" {
			return fmt.Errorf("%w: local resource requires a path", ErrValidation)
		}
	default:
		return fmt.Errorf("%w: unknown resource kind %q", ErrValidation, r.Kind)
	}
	if r.Scope == ScopeProject && r.ProjectKey == "" {
		return fmt.Errorf("%w: project-scoped resource requires a projectKey", ErrValidation)
	}
	if r.Name == "" {
		return fmt.Errorf("%w: resource requires a name", ErrValidation)
	}
	return nil
}

// LegacyStatus derives the combined lifecycle value from content/vector status.
func LegacyStatusOf(content ContentStatus, vector VectorStatus) LegacyStatus {
	switch {
	case content == ContentFailed || vector == VectorFailed:
		return LegacyFailed
	case content == ContentReady && vector == VectorReady:
		return LegacyReady
	case content == ContentSyncing || vector == VectorIndexing:
		return LegacyIndexing
	default:
		return LegacyPending
	}
}
