package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"

	"github.com/custodia-labs/ctxpack/internal/core/domain"
	"github.com/custodia-labs/ctxpack/internal/core/ports/driven"
)

type jobStore struct {
	store *Store
}

var _ driven.JobStore = (*jobStore)(nil)

const indexJobColumns = `
	id, resource_id, kind, status, progress, error, warnings, total_files,
	processed_files, started_at, completed_at, created_at
`

// Create inserts a new index job row.
func (s *jobStore) Create(ctx context.Context, j *domain.IndexJob) error {
	warnings, err := json.Marshal(j.Warnings)
	if err != nil {
		return fmt.Errorf("marshalling warnings: %w", err)
	}
	_, err = s.store.db.ExecContext(ctx, `
		INSERT INTO index_jobs (`+indexJobColumns+`) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`,
		j.ID, j.ResourceID, string(j.Kind), string(j.Status), j.Progress, nullString(j.Error),
		string(warnings), j.TotalFiles, j.ProcessedFiles, nullTime(j.StartedAt), nullTime(j.CompletedAt),
		j.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("creating index job: %w", err)
	}
	return nil
}

// Update overwrites a job's stored state.
func (s *jobStore) Update(ctx context.Context, j *domain.IndexJob) error {
	warnings, err := json.Marshal(j.Warnings)
	if err != nil {
		return fmt.Errorf("marshalling warnings: %w", err)
	}
	res, err := s.store.db.ExecContext(ctx, `
		UPDATE index_jobs SET
			status = ?, progress = ?, error = ?, warnings = ?, total_files = ?,
			processed_files = ?, started_at = ?, completed_at = ?
		WHERE id = ?
	`,
		string(j.Status), j.Progress, nullString(j.Error), string(warnings), j.TotalFiles,
		j.ProcessedFiles, nullTime(j.StartedAt), nullTime(j.CompletedAt), j.ID,
	)
	if err != nil {
		return fmt.Errorf("updating index job: %w", err)
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

// Get retrieves a job by ID.
func (s *jobStore) Get(ctx context.Context, id string) (*domain.IndexJob, error) {
	row := s.store.db.QueryRowContext(ctx, "SELECT "+indexJobColumns+" FROM index_jobs WHERE id = ?", id)
	return scanIndexJob(row)
}

// OldestQueued returns the oldest queued job for resourceID by
// (createdAt, id), or nil if none are queued.
func (s *jobStore) OldestQueued(ctx context.Context, resourceID string) (*domain.IndexJob, error) {
	row := s.store.db.QueryRowContext(ctx, `
		SELECT `+indexJobColumns+` FROM index_jobs
		WHERE resource_id = ? AND status = ?
		ORDER BY created_at ASC, id ASC
		LIMIT 1
	`, resourceID, string(domain.JobQueued))
	j, err := scanIndexJob(row)
	if err == domain.ErrNotFound {
		return nil, nil
	}
	return j, err
}

// ListByResource returns every job belonging to resourceID, oldest first.
func (s *jobStore) ListByResource(ctx context.Context, resourceID string) ([]domain.IndexJob, error) {
	rows, err := s.store.db.QueryContext(ctx, `
		SELECT `+indexJobColumns+` FROM index_jobs WHERE resource_id = ? ORDER BY created_at ASC
	`, resourceID)
	if err != nil {
		return nil, fmt.Errorf("querying index jobs: %w", err)
	}
	defer rows.Close()

	var result []domain.IndexJob //nolint:prealloc // size unknown from query
	for rows.Next() {
		j, err := scanIndexJobRows(rows)
		if err != nil {
			return nil, err
		}
		result = append(result, *j)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating index jobs: %w", err)
	}
	return result, nil
}

func scanIndexJob(row *sql.Row) (*domain.IndexJob, error) {
	var j domain.IndexJob
	var errStr sql.NullString
	var warningsJSON string
	var startedAt, completedAt sql.NullTime
	if err := row.Scan(
		&j.ID, &j.ResourceID, &j.Kind, &j.Status, &j.Progress, &errStr, &warningsJSON,
		&j.TotalFiles, &j.ProcessedFiles, &startedAt, &completedAt, &j.CreatedAt,
	); err != nil {
		if err == sql.ErrNoRows {
			return nil, domain.ErrNotFound
		}
		return nil, fmt.Errorf("scanning index job: %w", err)
	}
	return finishIndexJobScan(&j, errStr, warningsJSON, startedAt, completedAt)
}

func scanIndexJobRows(rows *sql.Rows) (*domain.IndexJob, error) {
	var j domain.IndexJob
	var errStr sql.NullString
	var warningsJSON string
	var startedAt, completedAt sql.NullTime
	if err := rows.Scan(
		&j.ID, &j.ResourceID, &j.Kind, &j.Status, &j.Progress, &errStr, &warningsJSON,
		&j.TotalFiles, &j.ProcessedFiles, &startedAt, &completedAt, &j.CreatedAt,
	); err != nil {
		return nil, fmt.Errorf("scanning index job: %w", err)
	}
	return finishIndexJobScan(&j, errStr, warningsJSON, startedAt, completedAt)
}

func finishIndexJobScan(j *domain.IndexJob, errStr sql.NullString, warningsJSON string, startedAt, completedAt sql.NullTime) (*domain.IndexJob, error) {
	j.Error = stringPtr(errStr)
	if err := json.Unmarshal([]byte(warningsJSON), &j.Warnings); err != nil {
		return nil, fmt.Errorf("unmarshalling warnings: %w", err)
	}
	if startedAt.Valid {
		t := startedAt.Time
		j.StartedAt = &t
	}
	if completedAt.Valid {
		t := completedAt.Time
		j.CompletedAt = &t
	}
	return j, nil
}
