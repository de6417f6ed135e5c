package types

import (
	"crypto/sha256"
	"errors"
	"strings"
)

// Fragment is one retrievable unit of code text with its metadata
type Fragment struct {
	// Identification
	ID    int    `json:"id"`
	Title string `json:"title"`
	Path  string `json:"path,omitempty"` // Relative source path, may be empty

	// Content is the code text, verbatim
	Content string `json:"content"`

	// Queries are paraphrases that enrich the embedded text. Never displayed.
	Queries []string `json:"queries,omitempty"`
}

// SearchText returns the text that gets embedded for this fragment:
// the content followed by the space-joined queries.
func (f *Fragment) SearchText() string {
	return f.Content + " " + strings.Join(f.Queries, " ")
}

// DisplayPath returns the path or a placeholder when it is unknown
func (f *Fragment) DisplayPath() string {
	if f.Path == "" {
		return UnknownPath
	}
	return f.Path
}

// ContentHash computes the SHA-256 hash of the fragment content
func (f *Fragment) ContentHash() [32]byte {
	return sha256.Sum256([]byte(f.Content))
}

// Validate checks the fragment is usable as a corpus record
func (f *Fragment) Validate() error {
	if f.Content == "" {
		return errors.New("fragment content cannot be empty")
	}
	if f.ID < 0 {
		return errors.New("fragment id must not be negative")
	}
	return nil
}

// UnknownPath is shown in place of an empty fragment path
const UnknownPath = "<unknown>"
