package storage

import (
	"context"
	"errors"
	"time"
)

var (
	// ErrNotFound is returned when the artifact or its metadata doesn't exist
	ErrNotFound = errors.New("not found")
	// ErrCorrupt is returned when stored vectors cannot be decoded
	ErrCorrupt = errors.New("corrupt cache artifact")
	// ErrUnsupportedSchema is returned for artifacts written by a newer schema
	ErrUnsupportedSchema = errors.New("unsupported artifact schema")
)

// Meta describes what a vector artifact was built from
type Meta struct {
	Fingerprint string // corpus fingerprint at build time
	Source      string // corpus source path, informational
	Provider    string
	Model       string
	Dimension   int
	Count       int
	CreatedAt   time.Time
}

// Artifact is the persisted embedding cache: one vector per fragment,
// ordered by corpus position
type Artifact struct {
	Meta    Meta
	Vectors [][]float32
}

// Storage is the persistence contract of the embedding cache artifact
type Storage interface {
	// WriteMeta replaces the metadata row
	WriteMeta(ctx context.Context, meta *Meta) error
	// ReadMeta returns ErrNotFound when no metadata has been written
	ReadMeta(ctx context.Context) (*Meta, error)

	// PutVectors replaces all vectors; vectors[i] is stored at position i
	PutVectors(ctx context.Context, vectors [][]float32) error
	// Vectors returns all vectors in position order
	Vectors(ctx context.Context) ([][]float32, error)
	// CountVectors returns the number of stored vectors
	CountVectors(ctx context.Context) (int, error)

	// Database operations
	Close() error
	BeginTx(ctx context.Context) (Tx, error)
}

// Tx is a Storage bound to a transaction
type Tx interface {
	Storage
	Commit() error
	Rollback() error
}
