package storage

import (
	"context"
	"math"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testArtifact() *Artifact {
	return &Artifact{
		Meta: Meta{
			Fingerprint: "f1",
			Source:      "kb.jsonl",
			Provider:    "local",
			Model:       "hashing-v1",
			Dimension:   3,
		},
		Vectors: [][]float32{
			{0.1, 0.2, 0.3},
			{float32(math.Copysign(0, -1)), 1e-45, -7.25},
		},
	}
}

func TestSaveLoad(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "cache", "embeddings.db")

	_, err := Load(ctx, path)
	require.ErrorIs(t, err, ErrNotFound)
	assert.False(t, Exists(path))

	art := testArtifact()
	require.NoError(t, Save(ctx, path, art))
	assert.True(t, Exists(path))
	assert.Equal(t, 2, art.Meta.Count)

	got, err := Load(ctx, path)
	require.NoError(t, err)
	assert.Equal(t, "f1", got.Meta.Fingerprint)
	assert.Equal(t, "kb.jsonl", got.Meta.Source)
	assert.Equal(t, 3, got.Meta.Dimension)
	assert.Equal(t, 2, got.Meta.Count)
	require.Len(t, got.Vectors, 2)
	for i := range art.Vectors {
		for j := range art.Vectors[i] {
			assert.Equal(t, math.Float32bits(art.Vectors[i][j]), math.Float32bits(got.Vectors[i][j]))
		}
	}

	meta, err := ReadMeta(ctx, path)
	require.NoError(t, err)
	assert.Equal(t, got.Meta, *meta)
}

func TestSaveReplacesAndLeavesNoTempFiles(t *testing.T) {
	ctx := context.Background()
	dir := t.TempDir()
	path := filepath.Join(dir, "embeddings.db")

	require.NoError(t, Save(ctx, path, testArtifact()))

	next := testArtifact()
	next.Meta.Fingerprint = "f2"
	next.Vectors = next.Vectors[:1]
	require.NoError(t, Save(ctx, path, next))

	got, err := Load(ctx, path)
	require.NoError(t, err)
	assert.Equal(t, "f2", got.Meta.Fingerprint)
	assert.Len(t, got.Vectors, 1)

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, "embeddings.db", entries[0].Name())
}

func TestSaveRejectsWrongDimension(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "embeddings.db")

	art := testArtifact()
	art.Vectors[1] = []float32{1, 2}
	require.Error(t, Save(context.Background(), path, art))
	assert.False(t, Exists(path))

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	assert.Empty(t, entries)
}

func TestSaveEmptyArtifact(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "embeddings.db")

	require.NoError(t, Save(ctx, path, &Artifact{Meta: Meta{Fingerprint: "empty", Provider: "p", Model: "m", Dimension: 8}}))

	got, err := Load(ctx, path)
	require.NoError(t, err)
	assert.Empty(t, got.Vectors)
	assert.Equal(t, 0, got.Meta.Count)
}

func TestLoadDetectsCountMismatch(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "embeddings.db")
	require.NoError(t, Save(ctx, path, testArtifact()))

	store, err := NewSQLiteStorage(path)
	require.NoError(t, err)
	_, err = store.db.ExecContext(ctx, "DELETE FROM vectors WHERE position = 1")
	require.NoError(t, err)
	require.NoError(t, store.Close())

	_, err = Load(ctx, path)
	assert.ErrorIs(t, err, ErrCorrupt)
}
