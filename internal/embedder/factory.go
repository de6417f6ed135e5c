package embedder

import (
	"fmt"
	"os"
	"strings"
)

// EnvProvider selects the embedding provider explicitly
const EnvProvider = "CODERAG_EMBEDDING_PROVIDER"

// Config holds embedder configuration
type Config struct {
	Provider  string
	Model     string // empty means the provider default
	BaseURL   string // empty means the provider default
	APIKey    string
	CacheSize int
}

// NewFromEnv creates an embedder based on environment variables
// Priority:
// 1. CODERAG_EMBEDDING_PROVIDER (jina, openai, ollama, local)
// 2. Check for API keys: JINA_API_KEY, OPENAI_API_KEY
// 3. Default to local if no API keys found
func NewFromEnv() (Embedder, error) {
	return New(Config{
		Provider:  DetectProvider(),
		CacheSize: DefaultCacheSize,
	})
}

// New creates an embedder with explicit configuration
func New(cfg Config) (Embedder, error) {
	var cache *Cache
	if cfg.CacheSize > 0 {
		cache = NewCache(cfg.CacheSize)
	}

	provider := strings.ToLower(strings.TrimSpace(cfg.Provider))
	switch provider {
	case ProviderJina, ProviderOpenAI:
		return newRemote(provider, cfg, cache)
	case ProviderOllama:
		baseURL := cfg.BaseURL
		if baseURL == "" {
			baseURL = os.Getenv(EnvOllamaHost)
		}
		return NewOllamaProvider(OllamaConfig{BaseURL: baseURL, Model: cfg.Model, Cache: cache})
	case ProviderLocal, "":
		return NewLocalProvider(cache)
	default:
		return nil, fmt.Errorf("%w: unknown provider %s", ErrUnsupportedModel, cfg.Provider)
	}
}

func newRemote(provider string, cfg Config, cache *Cache) (*RemoteProvider, error) {
	rc := RemoteConfig{
		Name:    provider,
		APIKey:  cfg.APIKey,
		Model:   cfg.Model,
		BaseURL: cfg.BaseURL,
		Cache:   cache,
	}

	// Dimension stays 0 for non-default models until the first response
	envKey := EnvJinaAPIKey
	if provider == ProviderJina {
		if rc.Model == "" || rc.Model == DefaultJinaModel {
			rc.Model = DefaultJinaModel
			rc.Dimension = JinaDimension
		}
		if rc.BaseURL == "" {
			rc.BaseURL = DefaultJinaBaseURL
		}
	} else {
		envKey = EnvOpenAIAPIKey
		if rc.Model == "" || rc.Model == DefaultOpenAIModel {
			rc.Model = DefaultOpenAIModel
			rc.Dimension = OpenAIDimension
		}
		if rc.BaseURL == "" {
			rc.BaseURL = DefaultOpenAIBaseURL
		}
	}

	if rc.APIKey == "" {
		rc.APIKey = os.Getenv(envKey)
	}
	if rc.APIKey == "" {
		return nil, fmt.Errorf("%w: %s not set", ErrNoProviderEnabled, envKey)
	}

	return NewRemoteProvider(rc)
}

// DetectProvider returns the provider that would be used based on current environment
func DetectProvider() string {
	provider := os.Getenv(EnvProvider)
	if provider != "" {
		return strings.ToLower(provider)
	}

	if os.Getenv(EnvJinaAPIKey) != "" {
		return ProviderJina
	}
	if os.Getenv(EnvOpenAIAPIKey) != "" {
		return ProviderOpenAI
	}

	return ProviderLocal
}
