// Package lexical ranks fragments by how often a keyword occurs in their
// content. No embedding model is involved, so it keeps working when the
// semantic index cannot be built.
package lexical

import (
	"sort"
	"strings"

	"github.com/dshills/coderag/internal/corpus"
	"github.com/dshills/coderag/pkg/types"
)

// Match is one fragment containing the keyword
type Match struct {
	Position    int // 0-based corpus position
	Fragment    types.Fragment
	Occurrences int
}

// Index holds the lowercased content of every fragment
type Index struct {
	corpus *corpus.Corpus
	folded []string
}

// New prepares a lexical index over c
func New(c *corpus.Corpus) *Index {
	folded := make([]string, c.Len())
	for i := range folded {
		folded[i] = strings.ToLower(c.At(i).Content)
	}
	return &Index{corpus: c, folded: folded}
}

// Query returns up to k fragments whose content contains keyword,
// compared case-insensitively. Fragments are ordered by non-overlapping
// occurrence count, most first, then by corpus position. Fragments
// without a single occurrence are never returned.
func (ix *Index) Query(keyword string, k int) ([]Match, error) {
	keyword = strings.TrimSpace(keyword)
	if keyword == "" {
		return nil, types.ErrEmptyQuery
	}
	if k <= 0 {
		return []Match{}, nil
	}

	needle := strings.ToLower(keyword)
	matches := make([]Match, 0)
	for i, content := range ix.folded {
		n := strings.Count(content, needle)
		if n == 0 {
			continue
		}
		matches = append(matches, Match{Position: i, Occurrences: n})
	}

	// stable keeps corpus order among equal counts
	sort.SliceStable(matches, func(i, j int) bool {
		return matches[i].Occurrences > matches[j].Occurrences
	})

	if len(matches) > k {
		matches = matches[:k]
	}
	for i := range matches {
		matches[i].Fragment = ix.corpus.At(matches[i].Position)
	}
	return matches, nil
}

// Len returns the number of indexed fragments
func (ix *Index) Len() int {
	return len(ix.folded)
}
