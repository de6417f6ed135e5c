package storage

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
)

// Save writes the artifact to path atomically: the database is built in
// a temporary file in the same directory and renamed over path, so a
// reader never observes a partial artifact.
func Save(ctx context.Context, path string, a *Artifact) (err error) {
	if a == nil {
		return fmt.Errorf("nil artifact")
	}
	for i, v := range a.Vectors {
		if len(v) != a.Meta.Dimension {
			return fmt.Errorf("vector %d has dimension %d, expected %d", i, len(v), a.Meta.Dimension)
		}
	}
	meta := a.Meta
	meta.Count = len(a.Vectors)

	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("create artifact directory: %w", err)
	}

	tmp, err := os.CreateTemp(dir, filepath.Base(path)+".tmp-*")
	if err != nil {
		return fmt.Errorf("create temp artifact: %w", err)
	}
	tmpPath := tmp.Name()
	_ = tmp.Close()
	defer func() {
		if err != nil {
			_ = os.Remove(tmpPath)
		}
	}()

	store, err := NewSQLiteStorage(tmpPath)
	if err != nil {
		return err
	}

	if err = writeArtifact(ctx, store, &meta, a.Vectors); err != nil {
		_ = store.Close()
		return err
	}
	if err = store.Close(); err != nil {
		return fmt.Errorf("close temp artifact: %w", err)
	}

	if err = os.Rename(tmpPath, path); err != nil {
		return fmt.Errorf("replace artifact: %w", err)
	}
	a.Meta = meta
	return nil
}

func writeArtifact(ctx context.Context, store Storage, meta *Meta, vectors [][]float32) error {
	tx, err := store.BeginTx(ctx)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	if err := tx.WriteMeta(ctx, meta); err != nil {
		_ = tx.Rollback()
		return err
	}
	if err := tx.PutVectors(ctx, vectors); err != nil {
		_ = tx.Rollback()
		return err
	}
	return tx.Commit()
}

// Load reads a complete artifact. A missing file yields ErrNotFound.
func Load(ctx context.Context, path string) (*Artifact, error) {
	store, err := openExisting(ctx, path)
	if err != nil {
		return nil, err
	}
	defer func() {
		_ = store.Close()
	}()

	meta, err := store.ReadMeta(ctx)
	if err != nil {
		return nil, err
	}

	vectors, err := store.Vectors(ctx)
	if err != nil {
		return nil, err
	}

	if len(vectors) != meta.Count {
		return nil, fmt.Errorf("%w: meta records %d vectors, found %d", ErrCorrupt, meta.Count, len(vectors))
	}
	for i, v := range vectors {
		if len(v) != meta.Dimension {
			return nil, fmt.Errorf("%w: vector %d has dimension %d, meta records %d", ErrCorrupt, i, len(v), meta.Dimension)
		}
	}

	return &Artifact{Meta: *meta, Vectors: vectors}, nil
}

// ReadMeta reads only the metadata of the artifact at path
func ReadMeta(ctx context.Context, path string) (*Meta, error) {
	store, err := openExisting(ctx, path)
	if err != nil {
		return nil, err
	}
	defer func() {
		_ = store.Close()
	}()
	return store.ReadMeta(ctx)
}

// Exists reports whether an artifact file is present at path
func Exists(path string) bool {
	info, err := os.Stat(path)
	return err == nil && !info.IsDir()
}

func openExisting(ctx context.Context, path string) (*SQLiteStorage, error) {
	info, err := os.Stat(path)
	if errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, path)
	}
	if err != nil {
		return nil, err
	}
	if info.IsDir() {
		return nil, fmt.Errorf("%s is a directory", path)
	}
	return OpenSQLiteStorage(ctx, path)
}
