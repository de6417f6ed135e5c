package indexer

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dshills/coderag/internal/corpus"
	"github.com/dshills/coderag/internal/logger"
)

func writeTree(t *testing.T, files map[string]string) string {
	t.Helper()
	root := t.TempDir()
	for name, content := range files {
		path := filepath.Join(root, filepath.FromSlash(name))
		require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
		require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	}
	return root
}

var sampleTree = map[string]string{
	"main.go": `package main

func main() {}
`,
	"pkg/math/add.go": `package math

// Add sums two ints
func Add(a, b int) int { return a + b }

type Vec struct{ X, Y int }

func (v Vec) Len() int { return v.X + v.Y }
`,
	"pkg/math/add_test.go": `package math

func TestAdd() {}
`,
	"pkg/broken/broken.go": `package broken

func oops( {
`,
	"vendor/dep/dep.go": `package dep

func Dep() {}
`,
	".git/hooks/hook.go": `package hooks

func Hook() {}
`,
	"README.md": "# not go",
}

func titles(t *testing.T, root string, cfg Config) []string {
	t.Helper()
	fragments, _, err := New(cfg).Extract(context.Background(), root, cfg)
	require.NoError(t, err)
	out := make([]string, len(fragments))
	for i, f := range fragments {
		out[i] = f.Title
	}
	return out
}

func TestExtract(t *testing.T) {
	root := writeTree(t, sampleTree)

	var buf bytes.Buffer
	cfg := Config{Workers: 2, Logger: logger.New(logger.WithWriter(&buf))}
	fragments, stats, err := New(cfg).Extract(context.Background(), root, cfg)
	require.NoError(t, err)

	require.Len(t, fragments, 4)
	assert.Equal(t, "Function main in main.go", fragments[0].Title)
	assert.Equal(t, "Function Add in pkg/math/add.go", fragments[1].Title)
	assert.Equal(t, "Struct Vec in pkg/math/add.go", fragments[2].Title)
	assert.Equal(t, "Method Vec.Len in pkg/math/add.go", fragments[3].Title)

	for i, f := range fragments {
		assert.Equal(t, i+1, f.ID, "ids are 1-based in output order")
		assert.Len(t, f.Queries, 3)
		assert.NoError(t, f.Validate())
	}
	assert.Equal(t, "// Add sums two ints\nfunc Add(a, b int) int { return a + b }", fragments[1].Content)
	assert.Equal(t, "pkg/math/add.go", fragments[1].Path)

	assert.Equal(t, 3, stats.FilesFound)
	assert.Equal(t, 2, stats.FilesExtracted)
	assert.Equal(t, 1, stats.FilesSkipped)
	assert.Zero(t, stats.FilesFailed)
	assert.Equal(t, 4, stats.FragmentsCreated)
	require.Len(t, stats.ErrorMessages, 1)
	assert.Contains(t, stats.ErrorMessages[0], "pkg/broken/broken.go")
	assert.Contains(t, buf.String(), "syntax errors")
}

func TestExtractOptions(t *testing.T) {
	root := writeTree(t, sampleTree)

	withTests := titles(t, root, Config{IncludeTests: true})
	assert.Contains(t, withTests, "Function TestAdd in pkg/math/add_test.go")

	withVendor := titles(t, root, Config{IncludeVendor: true})
	assert.Contains(t, withVendor, "Function Dep in vendor/dep/dep.go")

	exportedOnly := titles(t, root, Config{SkipUnexported: true})
	assert.NotContains(t, exportedOnly, "Function main in main.go")
	assert.Contains(t, exportedOnly, "Function Add in pkg/math/add.go")

	for _, title := range titles(t, root, Config{IncludeTests: true, IncludeVendor: true}) {
		assert.NotContains(t, title, ".git")
	}
}

func TestExtractIsDeterministic(t *testing.T) {
	root := writeTree(t, sampleTree)

	first, _, err := New(Config{Workers: 1}).Extract(context.Background(), root, Config{})
	require.NoError(t, err)
	for range 5 {
		again, _, err := New(Config{Workers: 8}).Extract(context.Background(), root, Config{})
		require.NoError(t, err)
		assert.Equal(t, first, again)
	}
}

func TestExtractEmptyTree(t *testing.T) {
	fragments, stats, err := New(Config{}).Extract(context.Background(), t.TempDir(), Config{})
	require.NoError(t, err)
	assert.Empty(t, fragments)
	assert.Zero(t, stats.FilesFound)
}

func TestExtractMissingRoot(t *testing.T) {
	_, _, err := New(Config{}).Extract(context.Background(), filepath.Join(t.TempDir(), "nope"), Config{})
	assert.Error(t, err)
}

func TestExtractRootIsFile(t *testing.T) {
	root := writeTree(t, map[string]string{"a.go": "package a\n"})
	_, _, err := New(Config{}).Extract(context.Background(), filepath.Join(root, "a.go"), Config{})
	assert.Error(t, err)
}

func TestExtractCancelled(t *testing.T) {
	root := writeTree(t, sampleTree)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, _, err := New(Config{}).Extract(ctx, root, Config{})
	assert.ErrorIs(t, err, context.Canceled)
}

func TestWriteCorpusRoundTrip(t *testing.T) {
	root := writeTree(t, sampleTree)
	fragments, _, err := New(Config{}).Extract(context.Background(), root, Config{})
	require.NoError(t, err)

	path := filepath.Join(t.TempDir(), "out", "knowledge_base.jsonl")
	require.NoError(t, WriteCorpus(path, fragments))

	c, err := corpus.Load(path)
	require.NoError(t, err)
	assert.Equal(t, fragments, c.Fragments())

	entries, err := os.ReadDir(filepath.Dir(path))
	require.NoError(t, err)
	assert.Len(t, entries, 1, "no temp files left behind")
}
