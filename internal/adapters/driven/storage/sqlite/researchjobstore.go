package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"

	"github.com/custodia-labs/ctxpack/internal/core/domain"
	"github.com/custodia-labs/ctxpack/internal/core/ports/driven"
)

type researchJobStore struct {
	store *Store
}

var _ driven.ResearchJobStore = (*researchJobStore)(nil)

const researchJobColumns = `
	id, owner_id, query, resource_ids, options, status, result, error,
	started_at, completed_at, created_at
`

// Create inserts a new research job row.
func (s *researchJobStore) Create(ctx context.Context, j *domain.ResearchJob) error {
	resourceIDs, err := json.Marshal(j.ResourceIDs)
	if err != nil {
		return fmt.Errorf("marshalling resource ids: %w", err)
	}
	options, err := json.Marshal(j.Options)
	if err != nil {
		return fmt.Errorf("marshalling options: %w", err)
	}
	result, err := marshalResult(j.Result)
	if err != nil {
		return err
	}

	_, err = s.store.db.ExecContext(ctx, `
		INSERT INTO research_jobs (`+researchJobColumns+`) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`,
		j.ID, nullString(j.OwnerID), j.Query, string(resourceIDs), string(options), string(j.Status),
		result, nullString(j.Error), nullTime(j.StartedAt), nullTime(j.CompletedAt), j.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("creating research job: %w", err)
	}
	return nil
}

// Update overwrites a research job's stored state.
func (s *researchJobStore) Update(ctx context.Context, j *domain.ResearchJob) error {
	result, err := marshalResult(j.Result)
	if err != nil {
		return err
	}

	res, err := s.store.db.ExecContext(ctx, `
		UPDATE research_jobs SET
			status = ?, result = ?, error = ?, started_at = ?, completed_at = ?
		WHERE id = ?
	`,
		string(j.Status), result, nullString(j.Error), nullTime(j.StartedAt), nullTime(j.CompletedAt), j.ID,
	)
	if err != nil {
		return fmt.Errorf("updating research job: %w", err)
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

// Get retrieves a research job by ID.
func (s *researchJobStore) Get(ctx context.Context, id string) (*domain.ResearchJob, error) {
	row := s.store.db.QueryRowContext(ctx, "SELECT "+researchJobColumns+" FROM research_jobs WHERE id = ?", id)

	var j domain.ResearchJob
	var ownerID, resultStr, errStr sql.NullString
	var resourceIDsJSON, optionsJSON string
	var startedAt, completedAt sql.NullTime

	if err := row.Scan(
		&j.ID, &ownerID, &j.Query, &resourceIDsJSON, &optionsJSON, &j.Status, &resultStr, &errStr,
		&startedAt, &completedAt, &j.CreatedAt,
	); err != nil {
		if err == sql.ErrNoRows {
			return nil, domain.ErrNotFound
		}
		return nil, fmt.Errorf("scanning research job: %w", err)
	}

	j.OwnerID = stringPtr(ownerID)
	j.Error = stringPtr(errStr)
	if err := json.Unmarshal([]byte(resourceIDsJSON), &j.ResourceIDs); err != nil {
		return nil, fmt.Errorf("unmarshalling resource ids: %w", err)
	}
	if err := json.Unmarshal([]byte(optionsJSON), &j.Options); err != nil {
		return nil, fmt.Errorf("unmarshalling options: %w", err)
	}
	if resultStr.Valid {
		var result domain.AgentResult
		if err := json.Unmarshal([]byte(resultStr.String), &result); err != nil {
			return nil, fmt.Errorf("unmarshalling result: %w", err)
		}
		j.Result = &result
	}
	if startedAt.Valid {
		t := startedAt.Time
		j.StartedAt = &t
	}
	if completedAt.Valid {
		t := completedAt.Time
		j.CompletedAt = &t
	}

	return &j, nil
}

func marshalResult(result *domain.AgentResult) (sql.NullString, error) {
	if result == nil {
		return sql.NullString{}, nil
	}
	b, err := json.Marshal(result)
	if err != nil {
		return sql.NullString{}, fmt.Errorf("marshalling result: %w", err)
	}
	return sql.NullString{String: string(b), Valid: true}, nil
}
