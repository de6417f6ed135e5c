package types

import (
	"errors"
	"fmt"
)

// Retrieval error taxonomy
var (
	// ErrCorpusRead marks an unreadable or malformed corpus source
	ErrCorpusRead = errors.New("corpus read failed")

	// ErrEmptyQuery is returned when a query or keyword is blank after trimming
	ErrEmptyQuery = errors.New("query cannot be empty")

	// ErrCacheMismatch marks an embedding cache that does not fit the corpus
	ErrCacheMismatch = errors.New("embedding cache does not match corpus")

	// ErrEmbeddingBackend marks an unavailable or failing embedding model
	ErrEmbeddingBackend = errors.New("embedding backend unavailable")

	// ErrTransport marks a completion client failure
	ErrTransport = errors.New("completion transport failed")
)

// CorpusReadError reports where in the corpus source loading failed.
// Line is 1-based; zero means the source itself could not be read.
type CorpusReadError struct {
	Source string
	Line   int
	Err    error
}

func (e *CorpusReadError) Error() string {
	if e.Line > 0 {
		return fmt.Sprintf("%v: %s line %d: %v", ErrCorpusRead, e.Source, e.Line, e.Err)
	}
	return fmt.Sprintf("%v: %s: %v", ErrCorpusRead, e.Source, e.Err)
}

func (e *CorpusReadError) Unwrap() error {
	return e.Err
}

// Is reports ErrCorpusRead as a match so callers can test the class
func (e *CorpusReadError) Is(target error) bool {
	return target == ErrCorpusRead
}

// CacheMismatchError describes how a cached embedding set disagrees with
// the corpus it is supposed to cover.
type CacheMismatchError struct {
	What     string // "length", "dimension" or "model"
	Cached   string
	Expected string
}

func (e *CacheMismatchError) Error() string {
	return fmt.Sprintf("%v: cached %s %s, expected %s", ErrCacheMismatch, e.What, e.Cached, e.Expected)
}

// Is reports ErrCacheMismatch as a match
func (e *CacheMismatchError) Is(target error) bool {
	return target == ErrCacheMismatch
}
