package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"

	"github.com/custodia-labs/ctxpack/internal/core/domain"
	"github.com/custodia-labs/ctxpack/internal/core/ports/driven"
)

type resourceStore struct {
	store *Store
}

var _ driven.ResourceStore = (*resourceStore)(nil)

// Create inserts a new resource row.
func (s *resourceStore) Create(ctx context.Context, r *domain.Resource) error {
	subPaths, err := json.Marshal(r.SubPaths)
	if err != nil {
		return fmt.Errorf("marshalling sub paths: %w", err)
	}

	_, err = s.store.db.ExecContext(ctx, `
		INSERT INTO resources (
			id, owner_id, name, scope, project_key, kind, remote_url, local_path,
			branch, commit_sha, sub_paths, notes, content_status, vector_status,
			content_error, vector_error, chunk_count, last_synced_at, last_indexed_at,
			last_local_commit, last_remote_commit, update_available, last_update_check_at,
			created_at, updated_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`,
		r.ID, ownerColumn(r.OwnerID), r.Name, string(r.Scope), r.ProjectKey, string(r.Kind),
		nullString(r.RemoteURL), nullString(r.LocalPath), nullString(r.Branch), nullString(r.Commit),
		string(subPaths), nullString(r.Notes), string(r.ContentStatus), string(r.VectorStatus),
		nullString(r.ContentError), nullString(r.VectorError), r.ChunkCount,
		nullTime(r.LastSyncedAt), nullTime(r.LastIndexedAt),
		nullString(r.LastLocalCommit), nullString(r.LastRemoteCommit), r.UpdateAvailable,
		nullTime(r.LastUpdateCheckAt), r.CreatedAt, r.UpdatedAt,
	)
	if err != nil {
		if isUniqueConstraintErr(err) {
			return fmt.Errorf("%w: resource with this name already exists in scope", domain.ErrConflict)
		}
		return fmt.Errorf("creating resource: %w", err)
	}
	return nil
}

const resourceColumns = `
	id, owner_id, name, scope, project_key, kind, remote_url, local_path, branch,
	commit_sha, sub_paths, notes, content_status, vector_status, content_error,
	vector_error, chunk_count, last_synced_at, last_indexed_at, last_local_commit,
	last_remote_commit, update_available, last_update_check_at, created_at, updated_at
`

// Get retrieves a resource by ID.
func (s *resourceStore) Get(ctx context.Context, id string) (*domain.Resource, error) {
	row := s.store.db.QueryRowContext(ctx, "SELECT "+resourceColumns+" FROM resources WHERE id = ?", id)
	return scanResource(row)
}

// GetByName looks up the unique (ownerID, scope, projectKey, name) tuple.
func (s *resourceStore) GetByName(ctx context.Context, ownerID *string, scope domain.Scope, projectKey, name string) (*domain.Resource, error) {
	row := s.store.db.QueryRowContext(ctx, `
		SELECT `+resourceColumns+` FROM resources
		WHERE owner_id = ? AND scope = ? AND project_key = ? AND name = ?
	`, ownerColumn(ownerID), string(scope), projectKey, name)
	return scanResource(row)
}

// List returns every resource visible to ownerID (nil means every resource).
func (s *resourceStore) List(ctx context.Context, ownerID *string) ([]domain.Resource, error) {
	var rows *sql.Rows
	var err error
	if ownerID == nil {
		rows, err = s.store.db.QueryContext(ctx, "SELECT "+resourceColumns+" FROM resources")
	} else {
		rows, err = s.store.db.QueryContext(ctx, "SELECT "+resourceColumns+" FROM resources WHERE owner_id = ?", *ownerID)
	}
	if err != nil {
		return nil, fmt.Errorf("querying resources: %w", err)
	}
	defer rows.Close()

	var result []domain.Resource //nolint:prealloc // size unknown from query
	for rows.Next() {
		r, err := scanResourceRows(rows)
		if err != nil {
			return nil, err
		}
		result = append(result, *r)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating resources: %w", err)
	}
	return result, nil
}

// Update overwrites a resource's stored state.
func (s *resourceStore) Update(ctx context.Context, r *domain.Resource) error {
	subPaths, err := json.Marshal(r.SubPaths)
	if err != nil {
		return fmt.Errorf("marshalling sub paths: %w", err)
	}

	res, err := s.store.db.ExecContext(ctx, `
		UPDATE resources SET
			owner_id = ?, name = ?, scope = ?, project_key = ?, kind = ?, remote_url = ?,
			local_path = ?, branch = ?, commit_sha = ?, sub_paths = ?, notes = ?,
			content_status = ?, vector_status = ?, content_error = ?, vector_error = ?,
			chunk_count = ?, last_synced_at = ?, last_indexed_at = ?, last_local_commit = ?,
			last_remote_commit = ?, update_available = ?, last_update_check_at = ?, updated_at = ?
		WHERE id = ?
	`,
		ownerColumn(r.OwnerID), r.Name, string(r.Scope), r.ProjectKey, string(r.Kind),
		nullString(r.RemoteURL), nullString(r.LocalPath), nullString(r.Branch), nullString(r.Commit),
		string(subPaths), nullString(r.Notes), string(r.ContentStatus), string(r.VectorStatus),
		nullString(r.ContentError), nullString(r.VectorError), r.ChunkCount,
		nullTime(r.LastSyncedAt), nullTime(r.LastIndexedAt),
		nullString(r.LastLocalCommit), nullString(r.LastRemoteCommit), r.UpdateAvailable,
		nullTime(r.LastUpdateCheckAt), r.UpdatedAt, r.ID,
	)
	if err != nil {
		return fmt.Errorf("updating resource: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("checking update result: %w", err)
	}
	if affected == 0 {
		return domain.ErrNotFound
	}
	return nil
}

// Delete removes a resource; cascades to chunks and index jobs via FK.
func (s *resourceStore) Delete(ctx context.Context, id string) error {
	_, err := s.store.db.ExecContext(ctx, "DELETE FROM resources WHERE id = ?", id)
	if err != nil {
		return fmt.Errorf("deleting resource: %w", err)
	}
	return nil
}

func scanResource(row *sql.Row) (*domain.Resource, error) {
	var r domain.Resource
	var ownerID string
	var remoteURL, localPath, branch, commit, notes sql.NullString
	var contentError, vectorError, lastLocalCommit, lastRemoteCommit sql.NullString
	var subPathsJSON string
	var lastSyncedAt, lastIndexedAt, lastUpdateCheckAt sql.NullTime

	if err := row.Scan(
		&r.ID, &ownerID, &r.Name, &r.Scope, &r.ProjectKey, &r.Kind, &remoteURL, &localPath,
		&branch, &commit, &subPathsJSON, &notes, &r.ContentStatus, &r.VectorStatus,
		&contentError, &vectorError, &r.ChunkCount, &lastSyncedAt, &lastIndexedAt,
		&lastLocalCommit, &lastRemoteCommit, &r.UpdateAvailable, &lastUpdateCheckAt,
		&r.CreatedAt, &r.UpdatedAt,
	); err != nil {
		if err == sql.ErrNoRows {
			return nil, domain.ErrNotFound
		}
		return nil, fmt.Errorf("scanning resource: %w", err)
	}
	return finishResourceScan(&r, ownerID, remoteURL, localPath, branch, commit, notes,
		contentError, vectorError, lastLocalCommit, lastRemoteCommit, subPathsJSON,
		lastSyncedAt, lastIndexedAt, lastUpdateCheckAt)
}

func scanResourceRows(rows *sql.Rows) (*domain.Resource, error) {
	var r domain.Resource
	var ownerID string
	var remoteURL, localPath, branch, commit, notes sql.NullString
	var contentError, vectorError, lastLocalCommit, lastRemoteCommit sql.NullString
	var subPathsJSON string
	var lastSyncedAt, lastIndexedAt, lastUpdateCheckAt sql.NullTime

	if err := rows.Scan(
		&r.ID, &ownerID, &r.Name, &r.Scope, &r.ProjectKey, &r.Kind, &remoteURL, &localPath,
		&branch, &commit, &subPathsJSON, &notes, &r.ContentStatus, &r.VectorStatus,
		&contentError, &vectorError, &r.ChunkCount, &lastSyncedAt, &lastIndexedAt,
		&lastLocalCommit, &lastRemoteCommit, &r.UpdateAvailable, &lastUpdateCheckAt,
		&r.CreatedAt, &r.UpdatedAt,
	); err != nil {
		return nil, fmt.Errorf("scanning resource: %w", err)
	}
	return finishResourceScan(&r, ownerID, remoteURL, localPath, branch, commit, notes,
		contentError, vectorError, lastLocalCommit, lastRemoteCommit, subPathsJSON,
		lastSyncedAt, lastIndexedAt, lastUpdateCheckAt)
}

func finishResourceScan(
	r *domain.Resource,
	ownerID string,
	remoteURL, localPath, branch, commit, notes sql.NullString,
	contentError, vectorError, lastLocalCommit, lastRemoteCommit sql.NullString,
	subPathsJSON string,
	lastSyncedAt, lastIndexedAt, lastUpdateCheckAt sql.NullTime,
) (*domain.Resource, error) {
	r.OwnerID = ownerFromColumn(ownerID)
	r.RemoteURL = stringPtr(remoteURL)
	r.LocalPath = stringPtr(localPath)
	r.Branch = stringPtr(branch)
	r.Commit = stringPtr(commit)
	r.Notes = stringPtr(notes)
	r.ContentError = stringPtr(contentError)
	r.VectorError = stringPtr(vectorError)
	r.LastLocalCommit = stringPtr(lastLocalCommit)
	r.LastRemoteCommit = stringPtr(lastRemoteCommit)

	if err := json.Unmarshal([]byte(subPathsJSON), &r.SubPaths); err != nil {
		return nil, fmt.Errorf("unmarshalling sub paths: %w", err)
	}

	if lastSyncedAt.Valid {
		t := lastSyncedAt.Time
		r.LastSyncedAt = &t
	}
	if lastIndexedAt.Valid {
		t := lastIndexedAt.Time
		r.LastIndexedAt = &t
	}
	if lastUpdateCheckAt.Valid {
		t := lastUpdateCheckAt.Time
		r.LastUpdateCheckAt = &t
	}

	return r, nil
}
