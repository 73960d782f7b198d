package sqlite

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// setupTestStore creates a temporary SQLite store for testing.
func setupTestStore(t *testing.T) (*Store, func()) {
	t.Helper()

	tempDir, err := os.MkdirTemp("", "ctxpack-test-*")
	require.NoError(t, err)

	store, err := NewStore(filepath.Join(tempDir, "metadata.db"))
	require.NoError(t, err)
	require.NotNil(t, store)

	cleanup := func() {
		assert.NoError(t, store.Close())
		assert.NoError(t, os.RemoveAll(tempDir))
	}

	return store, cleanup
}

func TestNewStore_CreatesDatabaseAndDirectory(t *testing.T) {
	tempDir, err := os.MkdirTemp("", "ctxpack-test-*")
	require.NoError(t, err)
	defer os.RemoveAll(tempDir)

	dbPath := filepath.Join(tempDir, "nested", "metadata.db")
	store, err := NewStore(dbPath)
	require.NoError(t, err)
	require.NotNil(t, store)
	defer store.Close()

	assert.Equal(t, dbPath, store.Path())
	assert.FileExists(t, dbPath)
}

func TestNewStore_MigrationsAreIdempotent(t *testing.T) {
	tempDir, err := os.MkdirTemp("", "ctxpack-test-*")
	require.NoError(t, err)
	defer os.RemoveAll(tempDir)

	dbPath := filepath.Join(tempDir, "metadata.db")
	store, err := NewStore(dbPath)
	require.NoError(t, err)
	require.NoError(t, store.Close())

	// Reopening the same database re-runs migrate() against an already
	// up-to-date schema and must not error.
	store2, err := NewStore(dbPath)
	require.NoError(t, err)
	defer store2.Close()
}

func TestStore_AccessorsReturnNonNilStores(t *testing.T) {
	store, cleanup := setupTestStore(t)
	defer cleanup()

	assert.NotNil(t, store.ResourceStore())
	assert.NotNil(t, store.ChunkStore())
	assert.NotNil(t, store.JobStore())
	assert.NotNil(t, store.ResearchJobStore())
}
