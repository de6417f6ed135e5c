package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func clearEnv(t *testing.T) {
	t.Helper()
	for _, k := range []string{EnvCorpus, EnvCache, EnvTopK, EnvEmbeddingProvider, EnvEmbeddingModel, EnvCompletionURL, EnvDebug, EnvYandexFolder} {
		t.Setenv(k, "")
	}
}

func TestDefault(t *testing.T) {
	cfg := Default()

	assert.Equal(t, DefaultCorpusPath, cfg.CorpusPath)
	assert.Equal(t, DefaultCachePath, cfg.CachePath)
	assert.Equal(t, 3, cfg.TopK)
	assert.Equal(t, 50, cfg.MaxPromptLines)
	assert.Equal(t, "en", cfg.PromptLocale)
	assert.False(t, cfg.RebuildOnStale)
	assert.Equal(t, "yandex", cfg.Completion.Provider)
	assert.Equal(t, "yandexgpt-lite", cfg.Completion.Model)
	assert.Equal(t, "YANDEX_API_KEY", cfg.Completion.APIKeyEnv)
	assert.InDelta(t, 0.6, *cfg.Completion.Temperature, 1e-6)
	assert.Equal(t, 2000, cfg.Completion.MaxTokens)
	assert.Empty(t, cfg.Embedder.Provider)
}

func TestLoad(t *testing.T) {
	clearEnv(t)
	path := filepath.Join(t.TempDir(), "coderag.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
corpus_path: kb.jsonl
top_k: 5
rebuild_on_stale: true
embedder:
  provider: ollama
  model: all-minilm
completion:
  provider: openai
  temperature: 0.2
log:
  pretty: true
`), 0o600))

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "kb.jsonl", cfg.CorpusPath)
	assert.Equal(t, DefaultCachePath, cfg.CachePath)
	assert.Equal(t, 5, cfg.TopK)
	assert.Equal(t, 50, cfg.MaxPromptLines)
	assert.True(t, cfg.RebuildOnStale)
	assert.Equal(t, "ollama", cfg.Embedder.Provider)
	assert.Equal(t, "all-minilm", cfg.Embedder.Model)
	assert.Equal(t, "openai", cfg.Completion.Provider)
	assert.Equal(t, "gpt-4o-mini", cfg.Completion.Model)
	assert.Equal(t, "OPENAI_API_KEY", cfg.Completion.APIKeyEnv)
	assert.InDelta(t, 0.2, *cfg.Completion.Temperature, 1e-6)
	assert.True(t, cfg.Log.Pretty)
}

func TestLoadZeroTemperature(t *testing.T) {
	clearEnv(t)
	path := filepath.Join(t.TempDir(), "coderag.yaml")
	require.NoError(t, os.WriteFile(path, []byte("completion:\n  temperature: 0\n"), 0o600))

	cfg, err := Load(path)
	require.NoError(t, err)
	require.NotNil(t, cfg.Completion.Temperature)
	assert.Zero(t, *cfg.Completion.Temperature)

	require.NoError(t, Save(path, cfg))
	reloaded, err := Load(path)
	require.NoError(t, err)
	assert.Zero(t, *reloaded.Completion.Temperature)
}

func TestLoadMissingFileReturnsDefaults(t *testing.T) {
	clearEnv(t)
	cfg, err := Load(filepath.Join(t.TempDir(), "absent.yaml"))
	require.NoError(t, err)
	assert.Equal(t, Default(), cfg)
}

func TestLoadInvalidYAML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "bad.yaml")
	require.NoError(t, os.WriteFile(path, []byte("top_k: [1, 2"), 0o600))

	_, err := Load(path)
	assert.Error(t, err)
}

func TestEnvOverrides(t *testing.T) {
	clearEnv(t)
	t.Setenv(EnvCorpus, "/data/kb.jsonl")
	t.Setenv(EnvCache, "/data/kb.db")
	t.Setenv(EnvTopK, "7")
	t.Setenv(EnvEmbeddingProvider, "JINA")
	t.Setenv(EnvEmbeddingModel, "jina-embeddings-v2")
	t.Setenv(EnvCompletionURL, "http://localhost:9999")
	t.Setenv(EnvDebug, "true")

	cfg, err := Load(filepath.Join(t.TempDir(), "absent.yaml"))
	require.NoError(t, err)

	assert.Equal(t, "/data/kb.jsonl", cfg.CorpusPath)
	assert.Equal(t, "/data/kb.db", cfg.CachePath)
	assert.Equal(t, 7, cfg.TopK)
	assert.Equal(t, "jina", cfg.Embedder.Provider)
	assert.Equal(t, "jina-embeddings-v2", cfg.Embedder.Model)
	assert.Equal(t, "http://localhost:9999", cfg.Completion.BaseURL)
	assert.True(t, cfg.Log.Debug)
}

func TestEnvOverrideIgnoresInvalidTopK(t *testing.T) {
	clearEnv(t)
	t.Setenv(EnvTopK, "many")

	cfg, err := Load(filepath.Join(t.TempDir(), "absent.yaml"))
	require.NoError(t, err)
	assert.Equal(t, DefaultTopK, cfg.TopK)
}

func TestSaveRoundTrip(t *testing.T) {
	clearEnv(t)
	path := filepath.Join(t.TempDir(), "nested", "config.yaml")

	cfg := Default()
	cfg.TopK = 9
	cfg.Embedder.Provider = "local"
	require.NoError(t, Save(path, cfg))

	loaded, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, cfg, loaded)
}

func TestAPIKeys(t *testing.T) {
	t.Setenv("TEST_EMBED_KEY", "e-key")
	t.Setenv("TEST_COMPLETION_KEY", "c-key")

	cfg := Default()
	assert.Empty(t, cfg.EmbedderAPIKey())

	cfg.Embedder.APIKeyEnv = "TEST_EMBED_KEY"
	cfg.Completion.APIKeyEnv = "TEST_COMPLETION_KEY"
	assert.Equal(t, "e-key", cfg.EmbedderAPIKey())
	assert.Equal(t, "c-key", cfg.CompletionAPIKey())
}
