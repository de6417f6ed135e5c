package cli

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dshills/coderag/internal/config"
	"github.com/dshills/coderag/internal/corpus"
	"github.com/dshills/coderag/internal/embedder"
	"github.com/dshills/coderag/internal/embedder/embeddertest"
	"github.com/dshills/coderag/internal/storage"
	"github.com/dshills/coderag/pkg/types"
)

const addSource = `package math

// Add sums two ints
func Add(a, b int) int { return a + b }

type Vec struct{ X, Y int }

// Len returns the Manhattan length
func (v Vec) Len() int { return v.X + v.Y }
`

type env struct {
	dir    string
	config string
	corpus string
	cache  string
	fake   *embeddertest.Fake
}

func newEnv(t *testing.T) *env {
	t.Helper()
	for _, key := range []string{config.EnvCorpus, config.EnvCache, config.EnvTopK, config.EnvEmbeddingProvider, config.EnvDebug} {
		t.Setenv(key, "")
	}

	dir := t.TempDir()
	src := filepath.Join(dir, "src", "pkg", "math")
	require.NoError(t, os.MkdirAll(src, 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(src, "add.go"), []byte(addSource), 0o644))

	return &env{
		dir:    dir,
		config: filepath.Join(dir, "coderag.yaml"),
		corpus: filepath.Join(dir, "knowledge_base.jsonl"),
		cache:  filepath.Join(dir, "embeddings.db"),
		fake:   embeddertest.New("add", "len", "vec"),
	}
}

func (e *env) run(t *testing.T, args ...string) (string, error) {
	t.Helper()
	a := &app{newEmbedder: func(*config.Config) (embedder.Embedder, error) { return e.fake, nil }}
	cmd := newRootCmd(a, BuildInfo{Version: "test", BuildTime: "now"})

	var out, errOut bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&errOut)
	cmd.SetArgs(append([]string{"--config", e.config, "--corpus", e.corpus, "--cache", e.cache}, args...))
	err := cmd.Execute()
	return out.String(), err
}

func (e *env) extract(t *testing.T) {
	t.Helper()
	_, err := e.run(t, "extract", filepath.Join(e.dir, "src"))
	require.NoError(t, err)
}

func TestExtractCommand(t *testing.T) {
	e := newEnv(t)

	out, err := e.run(t, "extract", filepath.Join(e.dir, "src"))
	require.NoError(t, err)
	assert.Contains(t, out, "3 fragments from 1 files")

	c, err := corpus.Load(e.corpus)
	require.NoError(t, err)
	require.Equal(t, 3, c.Len())
	assert.Equal(t, "Function Add in pkg/math/add.go", c.At(0).Title)
	assert.Equal(t, 1, c.At(0).ID)
}

func TestExtractCommandOutputFlag(t *testing.T) {
	e := newEnv(t)
	target := filepath.Join(e.dir, "out", "kb.jsonl")

	_, err := e.run(t, "extract", filepath.Join(e.dir, "src"), "-o", target, "--exported-only")
	require.NoError(t, err)
	assert.FileExists(t, target)
	assert.NoFileExists(t, e.corpus)
}

func TestSearchCommandLexical(t *testing.T) {
	e := newEnv(t)
	e.extract(t)

	out, err := e.run(t, "search", "--mode", "lexical", "grep: Len")
	require.NoError(t, err)
	assert.Contains(t, out, "Method Vec.Len in pkg/math/add.go")
	assert.Contains(t, out, "occurrences: ")
	assert.NotContains(t, out, "Function Add in")
	assert.Zero(t, e.fake.Calls())
}

func TestSearchCommandSemanticJSON(t *testing.T) {
	e := newEnv(t)
	e.extract(t)

	out, err := e.run(t, "search", "--json", "-k", "2", "how", "does", "add", "work")
	require.NoError(t, err)

	var results []types.SearchResult
	require.NoError(t, json.Unmarshal([]byte(out), &results))
	require.Len(t, results, 2)
	assert.Equal(t, "Function Add in pkg/math/add.go", results[0].Fragment.Title)
	require.NotNil(t, results[0].Score)
	assert.Equal(t, 1, results[0].Rank)
	assert.FileExists(t, e.cache, "semantic search persists the cache")
}

func TestSearchCommandNoResults(t *testing.T) {
	e := newEnv(t)
	e.extract(t)

	out, err := e.run(t, "search", "-m", "lexical", "grep: zebra")
	require.NoError(t, err)
	assert.Contains(t, out, "No results found.")
}

func TestSearchCommandErrors(t *testing.T) {
	e := newEnv(t)

	_, err := e.run(t, "search", "anything")
	assert.ErrorIs(t, err, types.ErrCorpusRead)

	e.extract(t)
	_, err = e.run(t, "search", "-m", "lexical", "grep:   ")
	assert.ErrorIs(t, err, types.ErrEmptyQuery)

	_, err = e.run(t, "search", "-m", "hybrid", "x")
	assert.Error(t, err)
}

func TestPromptCommand(t *testing.T) {
	e := newEnv(t)
	e.extract(t)

	out, err := e.run(t, "prompt", "--mode", "lexical", "grep: Len", "--question", "What does Len return?")
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(out, "Code (pkg/math/add.go):\n// Len returns the Manhattan length\n"))
	assert.Contains(t, out, `answers the query: "What does Len return?"`)
	assert.True(t, strings.HasSuffix(out, "User query:\nWhat does Len return?\n"))
}

func TestPromptCommandDefaultsQuestionToInput(t *testing.T) {
	e := newEnv(t)
	e.extract(t)

	out, err := e.run(t, "prompt", "-m", "lexical", "grep: Add")
	require.NoError(t, err)
	assert.True(t, strings.HasSuffix(out, "User query:\ngrep: Add\n"))

	out, err = e.run(t, "prompt", "where is add")
	require.NoError(t, err)
	assert.True(t, strings.HasSuffix(out, "User query:\nwhere is add\n"))
}

func TestPromptCommandNoMatch(t *testing.T) {
	e := newEnv(t)
	e.extract(t)

	_, err := e.run(t, "prompt", "-m", "lexical", "grep: zebra")
	assert.ErrorIs(t, err, errNoFragment)
}

func TestAskCommandDryRun(t *testing.T) {
	e := newEnv(t)
	e.extract(t)

	promptOut, err := e.run(t, "prompt", "how does add work")
	require.NoError(t, err)

	askOut, err := e.run(t, "ask", "--dry-run", "how does add work")
	require.NoError(t, err)
	assert.Equal(t, promptOut, askOut)
}

func TestAskCommand(t *testing.T) {
	e := newEnv(t)
	e.extract(t)

	var gotAuth, gotPrompt string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotAuth = r.Header.Get("Authorization")
		var body struct {
			Messages []struct {
				Role string `json:"role"`
				Text string `json:"text"`
			} `json:"messages"`
		}
		if assert.NoError(t, json.NewDecoder(r.Body).Decode(&body)) && assert.NotEmpty(t, body.Messages) {
			gotPrompt = body.Messages[len(body.Messages)-1].Text
		}
		_, _ = w.Write([]byte(`{"result":{"alternatives":[{"message":{"role":"assistant","text":"It adds a and b."},"status":"ALTERNATIVE_STATUS_FINAL"}]}}`))
	}))
	defer srv.Close()

	cfg := config.Default()
	cfg.Completion.BaseURL = srv.URL
	cfg.Completion.APIKeyEnv = "CODERAG_TEST_TOKEN"
	require.NoError(t, config.Save(e.config, cfg))
	t.Setenv("CODERAG_TEST_TOKEN", "secret")

	out, err := e.run(t, "ask", "-m", "lexical", "grep: Add", "-q", "What does Add return?")
	require.NoError(t, err)
	assert.Contains(t, out, "It adds a and b.")
	assert.Contains(t, out, "Function Add in pkg/math/add.go")
	assert.Equal(t, "Bearer secret", gotAuth)
	assert.Contains(t, gotPrompt, "func Add(a, b int) int")
	assert.True(t, strings.HasSuffix(gotPrompt, "What does Add return?"))
}

func TestAskCommandTransportFailure(t *testing.T) {
	e := newEnv(t)
	e.extract(t)

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		http.Error(w, "quota exceeded", http.StatusTooManyRequests)
	}))
	defer srv.Close()

	cfg := config.Default()
	cfg.Completion.BaseURL = srv.URL
	cfg.Completion.APIKeyEnv = "CODERAG_TEST_TOKEN"
	require.NoError(t, config.Save(e.config, cfg))
	t.Setenv("CODERAG_TEST_TOKEN", "secret")

	_, err := e.run(t, "ask", "how does add work")
	assert.ErrorIs(t, err, types.ErrTransport)
}

func TestAskCommandWithoutCredential(t *testing.T) {
	e := newEnv(t)
	e.extract(t)

	cfg := config.Default()
	cfg.Completion.APIKeyEnv = "CODERAG_TEST_TOKEN"
	require.NoError(t, config.Save(e.config, cfg))
	t.Setenv("CODERAG_TEST_TOKEN", "")

	_, err := e.run(t, "ask", "how does add work")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "CODERAG_TEST_TOKEN")
	assert.Zero(t, e.fake.Calls(), "no retrieval without a credential")
}

func TestIndexAndStatusCommands(t *testing.T) {
	e := newEnv(t)
	e.extract(t)

	out, err := e.run(t, "status")
	require.NoError(t, err)
	assert.Contains(t, out, "no embedding cache")

	out, err = e.run(t, "index")
	require.NoError(t, err)
	assert.Contains(t, out, "fake/keywords-v1")
	assert.FileExists(t, e.cache)
	built := e.fake.Calls()
	assert.Positive(t, built)

	_, err = e.run(t, "index")
	require.NoError(t, err)
	assert.Equal(t, built, e.fake.Calls(), "second run loads the cache")

	out, err = e.run(t, "status")
	require.NoError(t, err)
	assert.Contains(t, out, "up to date")
	assert.Contains(t, out, "3 x 3")

	_, err = e.run(t, "index", "--force")
	require.NoError(t, err)
	assert.Greater(t, e.fake.Calls(), built)
}

func TestStatusCommandReportsStaleCache(t *testing.T) {
	e := newEnv(t)
	e.extract(t)
	_, err := e.run(t, "index")
	require.NoError(t, err)

	c, err := corpus.Load(e.corpus)
	require.NoError(t, err)
	fragments := c.Fragments()
	fragments[0].Content += "\n// edited"
	f, err := os.Create(e.corpus)
	require.NoError(t, err)
	require.NoError(t, corpus.Write(f, fragments))
	require.NoError(t, f.Close())

	out, err := e.run(t, "status")
	require.NoError(t, err)
	assert.Contains(t, out, "stale")

	meta, err := storage.ReadMeta(t.Context(), e.cache)
	require.NoError(t, err)
	assert.Equal(t, 3, meta.Count)
}

func TestInitCommand(t *testing.T) {
	e := newEnv(t)
	target := filepath.Join(e.dir, "conf", "coderag.yaml")

	out, err := e.run(t, "init", "--path", target)
	require.NoError(t, err)
	assert.Contains(t, out, target)

	cfg, err := config.Load(target)
	require.NoError(t, err)
	assert.Equal(t, e.corpus, cfg.CorpusPath)
	assert.Equal(t, config.DefaultTopK, cfg.TopK)

	_, err = e.run(t, "init", "--path", target)
	assert.ErrorContains(t, err, "already exists")

	_, err = e.run(t, "init", "--path", target, "--force")
	assert.NoError(t, err)
}

func TestVersionCommand(t *testing.T) {
	e := newEnv(t)

	out, err := e.run(t, "version")
	require.NoError(t, err)
	assert.Contains(t, out, "Version: test")
	assert.Contains(t, out, "Build Mode: "+storage.BuildMode)
}

func TestLogFile(t *testing.T) {
	e := newEnv(t)
	logPath := filepath.Join(e.dir, "coderag.log")

	cfg := config.Default()
	cfg.Log.File = logPath
	require.NoError(t, config.Save(e.config, cfg))

	e.extract(t)

	data, err := os.ReadFile(logPath)
	require.NoError(t, err)
	assert.Contains(t, string(data), `"msg":"extraction finished"`)
	assert.Contains(t, string(data), `"source"`)
}
