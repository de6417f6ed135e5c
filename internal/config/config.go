// Package config loads coderag settings from YAML with environment
// overrides.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"
)

// Environment overrides, applied after the file is read
const (
	EnvCorpus            = "CODERAG_CORPUS"
	EnvCache             = "CODERAG_CACHE"
	EnvTopK              = "CODERAG_TOP_K"
	EnvEmbeddingProvider = "CODERAG_EMBEDDING_PROVIDER"
	EnvEmbeddingModel    = "CODERAG_EMBEDDING_MODEL"
	EnvCompletionURL     = "CODERAG_COMPLETION_URL"
	EnvDebug             = "CODERAG_DEBUG"
	EnvYandexFolder      = "YANDEX_FOLDER_ID"
)

// Defaults
const (
	DefaultCorpusPath     = "knowledge_base.jsonl"
	DefaultCachePath      = "embeddings.db"
	DefaultTopK           = 3
	DefaultMaxPromptLines = 50
	DefaultFileName       = "coderag.yaml"

	DefaultTemperature float32 = 0.6
)

// EmbedderConfig selects and configures the embedding provider
type EmbedderConfig struct {
	Provider  string `yaml:"provider"` // jina, openai, ollama, local
	Model     string `yaml:"model,omitempty"`
	BaseURL   string `yaml:"base_url,omitempty"`
	APIKeyEnv string `yaml:"api_key_env,omitempty"`
	CacheSize int    `yaml:"cache_size"`
	BatchSize int    `yaml:"batch_size"`
	Workers   int    `yaml:"workers"`
}

// CompletionConfig configures the model that answers assembled prompts
type CompletionConfig struct {
	Provider     string   `yaml:"provider"` // yandex, openai
	BaseURL      string   `yaml:"base_url,omitempty"`
	Model        string   `yaml:"model"`
	FolderID     string   `yaml:"folder_id,omitempty"` // yandex only
	Temperature  *float32 `yaml:"temperature"`         // nil means DefaultTemperature
	MaxTokens    int      `yaml:"max_tokens"`
	SystemPrompt string   `yaml:"system_prompt"`
	APIKeyEnv    string   `yaml:"api_key_env"`
	TimeoutSecs  int      `yaml:"timeout_secs"`
}

// LogConfig configures logging
type LogConfig struct {
	Debug  bool `yaml:"debug"`
	JSON   bool `yaml:"json"`
	Pretty bool `yaml:"pretty"`
	// File, when set, receives a JSON copy of every log record
	File string `yaml:"file,omitempty"`
}

// Config is the root configuration
type Config struct {
	CorpusPath     string `yaml:"corpus_path"`
	CachePath      string `yaml:"cache_path"`
	TopK           int    `yaml:"top_k"`
	MaxPromptLines int    `yaml:"max_prompt_lines"`
	PromptLocale   string `yaml:"prompt_locale"`
	RebuildOnStale bool   `yaml:"rebuild_on_stale"`

	Embedder   EmbedderConfig   `yaml:"embedder"`
	Completion CompletionConfig `yaml:"completion"`
	Log        LogConfig        `yaml:"log"`
}

// Load reads a config file. A missing file yields the defaults.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			cfg := Default()
			applyEnv(cfg)
			return cfg, nil
		}
		return nil, fmt.Errorf("read config: %w", err)
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("parse config %s: %w", path, err)
	}
	applyDefaults(&cfg)
	applyEnv(&cfg)
	return &cfg, nil
}

// LoadDefault tries ./coderag.yaml, then ~/.config/coderag/config.yaml.
// When neither exists it returns the defaults and an empty path.
func LoadDefault() (*Config, string, error) {
	if _, err := os.Stat(DefaultFileName); err == nil {
		cfg, err := Load(DefaultFileName)
		return cfg, DefaultFileName, err
	}

	userPath, err := UserConfigPath()
	if err == nil {
		if _, err := os.Stat(userPath); err == nil {
			cfg, err := Load(userPath)
			return cfg, userPath, err
		}
	}

	cfg := Default()
	applyEnv(cfg)
	return cfg, "", nil
}

// Save writes cfg to path, creating directories as needed
func Save(path string, cfg *Config) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0o644)
}

// UserConfigPath returns ~/.config/coderag/config.yaml
func UserConfigPath() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, ".config", "coderag", "config.yaml"), nil
}

// Default returns the built-in configuration
func Default() *Config {
	cfg := &Config{}
	applyDefaults(cfg)
	return cfg
}

func applyDefaults(cfg *Config) {
	if cfg.CorpusPath == "" {
		cfg.CorpusPath = DefaultCorpusPath
	}
	if cfg.CachePath == "" {
		cfg.CachePath = DefaultCachePath
	}
	if cfg.TopK <= 0 {
		cfg.TopK = DefaultTopK
	}
	if cfg.MaxPromptLines == 0 {
		cfg.MaxPromptLines = DefaultMaxPromptLines
	}
	if cfg.PromptLocale == "" {
		cfg.PromptLocale = "en"
	}

	if cfg.Embedder.CacheSize == 0 {
		cfg.Embedder.CacheSize = 10000
	}
	if cfg.Embedder.BatchSize == 0 {
		cfg.Embedder.BatchSize = 50
	}

	c := &cfg.Completion
	if c.Provider == "" {
		c.Provider = "yandex"
	}
	if c.Temperature == nil {
		t := DefaultTemperature
		c.Temperature = &t
	}
	if c.MaxTokens == 0 {
		c.MaxTokens = 2000
	}
	if c.TimeoutSecs == 0 {
		c.TimeoutSecs = 60
	}
	if c.SystemPrompt == "" {
		c.SystemPrompt = "You are an assistant that answers questions using the provided code."
	}
	switch c.Provider {
	case "yandex":
		if c.APIKeyEnv == "" {
			c.APIKeyEnv = "YANDEX_API_KEY"
		}
		if c.Model == "" {
			c.Model = "yandexgpt-lite"
		}
	case "openai":
		if c.APIKeyEnv == "" {
			c.APIKeyEnv = "OPENAI_API_KEY"
		}
		if c.Model == "" {
			c.Model = "gpt-4o-mini"
		}
	}
}

func applyEnv(cfg *Config) {
	if v := os.Getenv(EnvCorpus); v != "" {
		cfg.CorpusPath = v
	}
	if v := os.Getenv(EnvCache); v != "" {
		cfg.CachePath = v
	}
	if v := os.Getenv(EnvTopK); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			cfg.TopK = n
		}
	}
	if v := os.Getenv(EnvEmbeddingProvider); v != "" {
		cfg.Embedder.Provider = strings.ToLower(v)
	}
	if v := os.Getenv(EnvEmbeddingModel); v != "" {
		cfg.Embedder.Model = v
	}
	if v := os.Getenv(EnvCompletionURL); v != "" {
		cfg.Completion.BaseURL = v
	}
	if v := os.Getenv(EnvYandexFolder); v != "" && cfg.Completion.FolderID == "" {
		cfg.Completion.FolderID = v
	}
	if v := os.Getenv(EnvDebug); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			cfg.Log.Debug = b
		}
	}
}

// EmbedderAPIKey resolves the embedding API key from the configured
// environment variable. Empty means the provider's own default variable.
func (c *Config) EmbedderAPIKey() string {
	if c.Embedder.APIKeyEnv == "" {
		return ""
	}
	return os.Getenv(c.Embedder.APIKeyEnv)
}

// CompletionAPIKey resolves the completion credential
func (c *Config) CompletionAPIKey() string {
	return os.Getenv(c.Completion.APIKeyEnv)
}
