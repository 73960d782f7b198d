package sqlite

import (
	"context"
	"database/sql"
	"encoding/binary"
	"encoding/json"
	"fmt"
	"math"
	"strings"

	"github.com/custodia-labs/ctxpack/internal/core/domain"
	"github.com/custodia-labs/ctxpack/internal/core/ports/driven"
)

type chunkStore struct {
	store *Store
}

var _ driven.ChunkStore = (*chunkStore)(nil)

const chunkColumns = `
	id, resource_id, filepath, line_start, line_end, text, contextualized_text,
	scope, entities, language, hash, embedding
`

// ReplaceAll atomically deletes every chunk belonging to resourceID and
// inserts chunks in its place, inside one transaction.
func (s *chunkStore) ReplaceAll(ctx context.Context, resourceID string, chunks []domain.Chunk) error {
	tx, err := s.store.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck

	if _, err := tx.ExecContext(ctx, "DELETE FROM chunks WHERE resource_id = ?", resourceID); err != nil {
		return fmt.Errorf("clearing chunks: %w", err)
	}

	stmt, err := tx.PrepareContext(ctx, `
		INSERT INTO chunks (`+chunkColumns+`) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`)
	if err != nil {
		return fmt.Errorf("preparing statement: %w", err)
	}
	defer stmt.Close()

	for _, c := range chunks {
		entities, err := json.Marshal(c.Entities)
		if err != nil {
			return fmt.Errorf("marshalling entities: %w", err)
		}
		if _, err := stmt.ExecContext(ctx,
			c.ID, resourceID, c.Filepath, c.LineStart, c.LineEnd, c.Text, c.ContextualizedText,
			c.Scope, string(entities), c.Language, c.Hash, float32SliceToBytes(c.Embedding),
		); err != nil {
			return fmt.Errorf("inserting chunk: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("committing transaction: %w", err)
	}
	return nil
}

// ListByResource returns every chunk belonging to resourceID.
func (s *chunkStore) ListByResource(ctx context.Context, resourceID string) ([]domain.Chunk, error) {
	rows, err := s.store.db.QueryContext(ctx, "SELECT "+chunkColumns+" FROM chunks WHERE resource_id = ?", resourceID)
	if err != nil {
		return nil, fmt.Errorf("querying chunks: %w", err)
	}
	defer rows.Close()

	var result []domain.Chunk //nolint:prealloc // size unknown from query
	for rows.Next() {
		c, err := scanChunkRows(rows)
		if err != nil {
			return nil, err
		}
		result = append(result, *c)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating chunks: %w", err)
	}
	return result, nil
}

// Get retrieves a single chunk by ID.
func (s *chunkStore) Get(ctx context.Context, chunkID string) (*domain.Chunk, error) {
	row := s.store.db.QueryRowContext(ctx, "SELECT "+chunkColumns+" FROM chunks WHERE id = ?", chunkID)
	return scanChunkRow(row)
}

// GetMany fetches multiple chunks by ID, preserving the caller's order;
// IDs with no matching chunk are simply omitted.
func (s *chunkStore) GetMany(ctx context.Context, chunkIDs []string) ([]domain.Chunk, error) {
	if len(chunkIDs) == 0 {
		return nil, nil
	}
	placeholders := strings.Repeat("?,", len(chunkIDs))
	placeholders = placeholders[:len(placeholders)-1]
	args := make([]any, len(chunkIDs))
	for i, id := range chunkIDs {
		args[i] = id
	}

	rows, err := s.store.db.QueryContext(ctx, "SELECT "+chunkColumns+" FROM chunks WHERE id IN ("+placeholders+")", args...)
	if err != nil {
		return nil, fmt.Errorf("querying chunks: %w", err)
	}
	defer rows.Close()

	byID := make(map[string]domain.Chunk, len(chunkIDs))
	for rows.Next() {
		c, err := scanChunkRows(rows)
		if err != nil {
			return nil, err
		}
		byID[c.ID] = *c
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating chunks: %w", err)
	}

	result := make([]domain.Chunk, 0, len(chunkIDs))
	for _, id := range chunkIDs {
		if c, ok := byID[id]; ok {
			result = append(result, c)
		}
	}
	return result, nil
}

// NearestByResources returns the IDs of every embedded chunk belonging to
// one of resourceIDs (empty resourceIDs means every resource).
func (s *chunkStore) NearestByResources(ctx context.Context, resourceIDs []string) ([]string, error) {
	var rows *sql.Rows
	var err error
	if len(resourceIDs) == 0 {
		rows, err = s.store.db.QueryContext(ctx, "SELECT id FROM chunks WHERE embedding IS NOT NULL")
	} else {
		placeholders := strings.Repeat("?,", len(resourceIDs))
		placeholders = placeholders[:len(placeholders)-1]
		args := make([]any, len(resourceIDs))
		for i, id := range resourceIDs {
			args[i] = id
		}
		rows, err = s.store.db.QueryContext(ctx,
			"SELECT id FROM chunks WHERE embedding IS NOT NULL AND resource_id IN ("+placeholders+")", args...)
	}
	if err != nil {
		return nil, fmt.Errorf("querying embedded chunk ids: %w", err)
	}
	defer rows.Close()

	var ids []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("scanning chunk id: %w", err)
		}
		ids = append(ids, id)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating chunk ids: %w", err)
	}
	return ids, nil
}

// DeleteByResource removes every chunk belonging to resourceID.
func (s *chunkStore) DeleteByResource(ctx context.Context, resourceID string) error {
	_, err := s.store.db.ExecContext(ctx, "DELETE FROM chunks WHERE resource_id = ?", resourceID)
	if err != nil {
		return fmt.Errorf("deleting chunks: %w", err)
	}
	return nil
}

func scanChunkRow(row *sql.Row) (*domain.Chunk, error) {
	var c domain.Chunk
	var entitiesJSON string
	var embeddingBlob []byte
	if err := row.Scan(
		&c.ID, &c.ResourceID, &c.Filepath, &c.LineStart, &c.LineEnd, &c.Text, &c.ContextualizedText,
		&c.Scope, &entitiesJSON, &c.Language, &c.Hash, &embeddingBlob,
	); err != nil {
		if err == sql.ErrNoRows {
			return nil, domain.ErrNotFound
		}
		return nil, fmt.Errorf("scanning chunk: %w", err)
	}
	return finishChunkScan(&c, entitiesJSON, embeddingBlob)
}

func scanChunkRows(rows *sql.Rows) (*domain.Chunk, error) {
	var c domain.Chunk
	var entitiesJSON string
	var embeddingBlob []byte
	if err := rows.Scan(
		&c.ID, &c.ResourceID, &c.Filepath, &c.LineStart, &c.LineEnd, &c.Text, &c.ContextualizedText,
		&c.Scope, &entitiesJSON, &c.Language, &c.Hash, &embeddingBlob,
	); err != nil {
		return nil, fmt.Errorf("scanning chunk: %w", err)
	}
	return finishChunkScan(&c, entitiesJSON, embeddingBlob)
}

func finishChunkScan(c *domain.Chunk, entitiesJSON string, embeddingBlob []byte) (*domain.Chunk, error) {
	if err := json.Unmarshal([]byte(entitiesJSON), &c.Entities); err != nil {
		return nil, fmt.Errorf("unmarshalling entities: %w", err)
	}
	c.Embedding = bytesToFloat32Slice(embeddingBlob)
	return c, nil
}

// float32SliceToBytes converts a []float32 to a little-endian byte slice.
func float32SliceToBytes(floats []float32) []byte {
	if len(floats) == 0 {
		return nil
	}
	buf := make([]byte, len(floats)*4)
	for i, f := range floats {
		binary.LittleEndian.PutUint32(buf[i*4:], math.Float32bits(f))
	}
	return buf
}

// bytesToFloat32Slice converts a little-endian byte slice back to []float32.
func bytesToFloat32Slice(data []byte) []float32 {
	if len(data) == 0 {
		return nil
	}
	floats := make([]float32, len(data)/4)
	for i := range floats {
		floats[i] = math.Float32frombits(binary.LittleEndian.Uint32(data[i*4:]))
	}
	return floats
}
