package sqlite

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"testing/fstest"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/neuroconv/internal/core/domain"
)

// setupTestStore creates a temporary SQLite store for testing.
func setupTestStore(t *testing.T) (*Store, func()) {
	t.Helper()

	store, err := OpenStore(context.Background(), filepath.Join(t.TempDir(), "document.db"))
	require.NoError(t, err)
	require.NotNil(t, store)

	cleanup := func() {
		assert.NoError(t, store.Close())
	}
	return store, cleanup
}

func TestOpenStore_Migrates(t *testing.T) {
	store, cleanup := setupTestStore(t)
	defer cleanup()

	var version int
	require.NoError(t, store.db.QueryRow("SELECT MAX(version) FROM schema_migrations").Scan(&version))
	assert.Equal(t, 1, version)

	for _, table := range []string{"document", "devices", "processing_modules", "time_series", "time_series_chunks", "time_intervals"} {
		var n int
		require.NoError(t, store.db.QueryRow(
			"SELECT COUNT(*) FROM sqlite_master WHERE type = 'table' AND name = ?", table).Scan(&n))
		assert.Equal(t, 1, n, table)
	}
}

func TestOpenStore_MigrateIsIdempotent(t *testing.T) {
	path := filepath.Join(t.TempDir(), "document.db")
	ctx := context.Background()

	for i := 0; i < 2; i++ {
		store, err := OpenStore(ctx, path)
		require.NoError(t, err)
		require.NoError(t, store.Close())
	}
}

func TestMigrate_FailedMigrationRollsBack(t *testing.T) {
	store, cleanup := setupTestStore(t)
	defer cleanup()
	ctx := context.Background()

	tableCount := func(name string) int {
		var n int
		require.NoError(t, store.db.QueryRowContext(ctx,
			"SELECT COUNT(*) FROM sqlite_master WHERE type = 'table' AND name = ?", name).Scan(&n))
		return n
	}
	maxVersion := func() int {
		var v int
		require.NoError(t, store.db.QueryRowContext(ctx, "SELECT MAX(version) FROM schema_migrations").Scan(&v))
		return v
	}

	broken := fstest.MapFS{"002_extra.up.sql": {Data: []byte(
		"CREATE TABLE extra (x INTEGER); INSERT INTO missing_table VALUES (1);")}}
	require.Error(t, store.migrate(ctx, broken))
	assert.Equal(t, 0, tableCount("extra"))
	assert.Equal(t, 1, maxVersion())

	fixed := fstest.MapFS{"002_extra.up.sql": {Data: []byte("CREATE TABLE extra (x INTEGER);")}}
	require.NoError(t, store.migrate(ctx, fixed))
	assert.Equal(t, 1, tableCount("extra"))
	assert.Equal(t, 2, maxVersion())
}

func TestStore_EmptyDocument(t *testing.T) {
	store, cleanup := setupTestStore(t)
	defer cleanup()

	doc, err := store.Document(context.Background())
	require.NoError(t, err)
	assert.True(t, doc.Session.IsZero())
	assert.Empty(t, doc.Devices)
	assert.Empty(t, doc.Acquisition)
}

func TestReadDocument_Missing(t *testing.T) {
	_, err := ReadDocument(context.Background(), filepath.Join(t.TempDir(), "missing.db"))
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestReadDocument_NotADocument(t *testing.T) {
	path := filepath.Join(t.TempDir(), "notes.txt")
	require.NoError(t, os.WriteFile(path, []byte("plain text, not a database"), 0o600))

	_, err := ReadDocument(context.Background(), path)
	assert.ErrorIs(t, err, domain.ErrTargetExistsConflict)
}

func TestInt16Conversion(t *testing.T) {
	samples := []int16{0, 1, -1, 32767, -32768, 1234}

	assert.Equal(t, samples, bytesToInt16Slice(int16SliceToBytes(samples)))
	assert.Len(t, int16SliceToBytes(samples), 12)
	assert.Empty(t, bytesToInt16Slice(nil))
}

func TestChunkCodec(t *testing.T) {
	samples := make([]int16, 4096)
	for i := range samples {
		samples[i] = int16(i % 7)
	}

	blob, err := encodeChunk(samples)
	require.NoError(t, err)
	assert.Less(t, len(blob), len(samples)*2, "repetitive data compresses")

	decoded, err := decodeChunk(blob)
	require.NoError(t, err)
	assert.Equal(t, samples, decoded)

	_, err = decodeChunk([]byte("not zstd"))
	assert.Error(t, err)
}

func TestMetadataJSON(t *testing.T) {
	s, err := marshalMetadata(nil)
	require.NoError(t, err)
	assert.Equal(t, jsonNull, s)

	m, err := unmarshalMetadata(jsonNull)
	require.NoError(t, err)
	assert.Nil(t, m)

	s, err = marshalMetadata(domain.Metadata{"lab": "Buzsaki", "age": 3.0})
	require.NoError(t, err)
	m, err = unmarshalMetadata(s)
	require.NoError(t, err)
	assert.Equal(t, domain.Metadata{"lab": "Buzsaki", "age": 3.0}, m)
}
