package lexical

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dshills/coderag/internal/corpus"
	"github.com/dshills/coderag/pkg/types"
)

func newCorpus(contents ...string) *corpus.Corpus {
	fragments := make([]types.Fragment, len(contents))
	for i, content := range contents {
		fragments[i] = types.Fragment{ID: i + 1, Title: "fragment", Content: content}
	}
	return corpus.New("test", fragments)
}

func positions(matches []Match) []int {
	out := make([]int, len(matches))
	for i, m := range matches {
		out[i] = m.Position
	}
	return out
}

func TestQueryOrdersByOccurrences(t *testing.T) {
	c := newCorpus(
		"func bar() { return foo }",
		"foo := foo(foo)",
		"nothing to see",
	)

	matches, err := New(c).Query("foo", 5)
	require.NoError(t, err)

	require.Len(t, matches, 2)
	assert.Equal(t, 1, matches[0].Position)
	assert.Equal(t, 3, matches[0].Occurrences)
	assert.Equal(t, 0, matches[1].Position)
	assert.Equal(t, 1, matches[1].Occurrences)
	assert.Equal(t, c.At(1), matches[0].Fragment)
}

func TestQuery(t *testing.T) {
	c := newCorpus(
		"Parse the Input",        // 0: 1
		"parse parse",            // 1: 2
		"no match here",          // 2: 0
		"PARSE then parse again", // 3: 2
		"parser",                 // 4: 1
	)
	ix := New(c)

	tests := []struct {
		name    string
		keyword string
		k       int
		want    []int
	}{
		{name: "case insensitive, ties by position", keyword: "parse", k: 10, want: []int{1, 3, 0, 4}},
		{name: "upper case keyword", keyword: "PARSE", k: 10, want: []int{1, 3, 0, 4}},
		{name: "surrounding space trimmed", keyword: "  parse\t", k: 10, want: []int{1, 3, 0, 4}},
		{name: "truncated to k", keyword: "parse", k: 2, want: []int{1, 3}},
		{name: "phrase", keyword: "the input", k: 10, want: []int{0}},
		{name: "no matches", keyword: "lexer", k: 10, want: []int{}},
		{name: "zero k", keyword: "parse", k: 0, want: []int{}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			matches, err := ix.Query(tt.keyword, tt.k)
			require.NoError(t, err)
			require.NotNil(t, matches)
			assert.Equal(t, tt.want, positions(matches))
		})
	}
}

func TestQueryNeverReturnsZeroOccurrences(t *testing.T) {
	c := newCorpus("alpha", "beta", "gamma", "alphabet", "delta alpha")
	ix := New(c)

	for _, kw := range []string{"alpha", "a", "ta", "zeta", "BET"} {
		matches, err := ix.Query(kw, c.Len())
		require.NoError(t, err)
		for _, m := range matches {
			assert.Positive(t, m.Occurrences, "keyword %q", kw)
			assert.NotEmpty(t, m.Fragment.Content)
		}
	}
}

func TestQueryCountsNonOverlapping(t *testing.T) {
	matches, err := New(newCorpus("aaaa")).Query("aa", 1)
	require.NoError(t, err)
	require.Len(t, matches, 1)
	assert.Equal(t, 2, matches[0].Occurrences)
}

func TestQueryOnlySearchesContent(t *testing.T) {
	c := corpus.New("test", []types.Fragment{
		{ID: 1, Title: "Function foo", Path: "foo.go", Content: "return 1", Queries: []string{"What does foo do?"}},
	})

	matches, err := New(c).Query("foo", 3)
	require.NoError(t, err)
	assert.Empty(t, matches)
}

func TestQueryEmptyKeyword(t *testing.T) {
	ix := New(newCorpus("anything"))

	for _, kw := range []string{"", " ", "\t\n"} {
		_, err := ix.Query(kw, 3)
		assert.ErrorIs(t, err, types.ErrEmptyQuery)
	}
}
