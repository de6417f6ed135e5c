package storage

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setupTestDB(t *testing.T) *SQLiteStorage {
	// Use in-memory database for testing
	storage, err := NewSQLiteStorage(":memory:")
	require.NoError(t, err)
	require.NotNil(t, storage)
	t.Cleanup(func() { _ = storage.Close() })
	return storage
}

func TestNewSQLiteStorage(t *testing.T) {
	storage := setupTestDB(t)

	v, err := SchemaVersion(context.Background(), storage.db)
	require.NoError(t, err)
	assert.Equal(t, CurrentSchemaVersion, v.String())
}

func TestApplyMigrationsIsIdempotent(t *testing.T) {
	storage := setupTestDB(t)
	ctx := context.Background()

	require.NoError(t, ApplyMigrations(ctx, storage.db))

	var n int
	require.NoError(t, storage.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM schema_version").Scan(&n))
	assert.Equal(t, len(AllMigrations), n)
}

func TestRollbackMigration(t *testing.T) {
	storage := setupTestDB(t)
	ctx := context.Background()

	require.NoError(t, RollbackMigration(ctx, storage.db))
	v, err := SchemaVersion(ctx, storage.db)
	require.NoError(t, err)
	assert.Equal(t, "1.0.0", v.String())

	require.NoError(t, RollbackMigration(ctx, storage.db))
	v, err = SchemaVersion(ctx, storage.db)
	require.NoError(t, err)
	assert.Equal(t, "0.0.0", v.String())

	assert.Error(t, RollbackMigration(ctx, storage.db))
}

func TestCheckCompatible(t *testing.T) {
	storage := setupTestDB(t)
	ctx := context.Background()

	require.NoError(t, CheckCompatible(ctx, storage.db))

	_, err := storage.db.ExecContext(ctx, "INSERT INTO schema_version (version) VALUES ('2.0.0')")
	require.NoError(t, err)
	assert.ErrorIs(t, CheckCompatible(ctx, storage.db), ErrUnsupportedSchema)
}

func TestMeta(t *testing.T) {
	storage := setupTestDB(t)
	ctx := context.Background()

	_, err := storage.ReadMeta(ctx)
	assert.ErrorIs(t, err, ErrNotFound)

	created := time.Date(2026, 3, 1, 12, 30, 0, 123, time.UTC)
	meta := &Meta{
		Fingerprint: "abc",
		Source:      "knowledge_base.jsonl",
		Provider:    "local",
		Model:       "hashing-v1",
		Dimension:   384,
		Count:       2,
		CreatedAt:   created,
	}
	require.NoError(t, storage.WriteMeta(ctx, meta))

	got, err := storage.ReadMeta(ctx)
	require.NoError(t, err)
	assert.Equal(t, meta.Fingerprint, got.Fingerprint)
	assert.Equal(t, meta.Source, got.Source)
	assert.Equal(t, meta.Dimension, got.Dimension)
	assert.True(t, created.Equal(got.CreatedAt))

	// the single meta row is replaced, not duplicated
	meta.Fingerprint = "def"
	require.NoError(t, storage.WriteMeta(ctx, meta))
	got, err = storage.ReadMeta(ctx)
	require.NoError(t, err)
	assert.Equal(t, "def", got.Fingerprint)
}

func TestWriteMetaDefaultsCreatedAt(t *testing.T) {
	storage := setupTestDB(t)
	ctx := context.Background()

	meta := &Meta{Fingerprint: "x", Provider: "p", Model: "m"}
	require.NoError(t, storage.WriteMeta(ctx, meta))
	assert.False(t, meta.CreatedAt.IsZero())
}

func TestVectors(t *testing.T) {
	storage := setupTestDB(t)
	ctx := context.Background()

	vectors := [][]float32{{1, 2, 3}, {-0.5, 0, 0.25}}
	require.NoError(t, storage.PutVectors(ctx, vectors))

	got, err := storage.Vectors(ctx)
	require.NoError(t, err)
	assert.Equal(t, vectors, got)

	n, err := storage.CountVectors(ctx)
	require.NoError(t, err)
	assert.Equal(t, 2, n)

	// replacing drops the old rows
	require.NoError(t, storage.PutVectors(ctx, [][]float32{{9}}))
	got, err = storage.Vectors(ctx)
	require.NoError(t, err)
	assert.Equal(t, [][]float32{{9}}, got)
}

func TestTransactionRollback(t *testing.T) {
	storage := setupTestDB(t)
	ctx := context.Background()

	require.NoError(t, storage.PutVectors(ctx, [][]float32{{1}}))

	tx, err := storage.BeginTx(ctx)
	require.NoError(t, err)
	require.NoError(t, tx.PutVectors(ctx, [][]float32{{2}, {3}}))
	n, err := tx.CountVectors(ctx)
	require.NoError(t, err)
	assert.Equal(t, 2, n)
	require.NoError(t, tx.Rollback())

	got, err := storage.Vectors(ctx)
	require.NoError(t, err)
	assert.Equal(t, [][]float32{{1}}, got)

	_, err = tx.BeginTx(ctx)
	assert.Error(t, err)
}
