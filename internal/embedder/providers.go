package embedder

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"sync/atomic"
	"time"
)

// Provider configuration
const (
	ProviderJina   = "jina"
	ProviderOpenAI = "openai"
	ProviderOllama = "ollama"
	ProviderLocal  = "local"

	// Environment variables holding credentials
	EnvJinaAPIKey   = "JINA_API_KEY"
	EnvOpenAIAPIKey = "OPENAI_API_KEY"

	// Default models
	DefaultJinaModel   = "jina-embeddings-v3"
	DefaultOpenAIModel = "text-embedding-3-small"
	DefaultLocalModel  = "hashing-v1"

	// Default endpoints
	DefaultJinaBaseURL   = "https://api.jina.ai/v1"
	DefaultOpenAIBaseURL = "https://api.openai.com/v1"

	// Dimensions
	JinaDimension   = 1024
	OpenAIDimension = 1536
	LocalDimension  = 384

	// Batch limits
	DefaultBatchSize = 50
	MaxBatchSize     = 100

	// Retry configuration
	MaxRetries        = 3
	InitialBackoffMs  = 100
	MaxBackoffMs      = 5000
	BackoffMultiplier = 2.0

	DefaultCacheSize = 10000
)

// RemoteProvider implements Embedder against an OpenAI-compatible
// /embeddings endpoint. Jina and OpenAI share the wire format.
type RemoteProvider struct {
	name       string
	apiKey     string
	model      string
	baseURL    string
	dimension  atomic.Int64
	httpClient *http.Client
	cache      *Cache
	retry      RetryConfig
}

// RemoteConfig configures a RemoteProvider
type RemoteConfig struct {
	Name      string // provider name reported by Provider()
	APIKey    string
	Model     string
	BaseURL   string
	Dimension int // expected dimension until the first response is seen
	Cache     *Cache
}

// NewRemoteProvider creates an embedder for an OpenAI-compatible API
func NewRemoteProvider(cfg RemoteConfig) (*RemoteProvider, error) {
	if cfg.APIKey == "" {
		return nil, fmt.Errorf("%w: no API key for %s", ErrNoProviderEnabled, cfg.Name)
	}
	if cfg.Model == "" {
		return nil, fmt.Errorf("%w: empty model name", ErrUnsupportedModel)
	}

	p := &RemoteProvider{
		name:    cfg.Name,
		apiKey:  cfg.APIKey,
		model:   cfg.Model,
		baseURL: strings.TrimRight(cfg.BaseURL, "/"),
		httpClient: &http.Client{
			Timeout: 30 * time.Second,
		},
		cache: cfg.Cache,
		retry: DefaultRetryConfig(),
	}
	p.dimension.Store(int64(cfg.Dimension))
	return p, nil
}

func (r *RemoteProvider) GenerateEmbedding(ctx context.Context, req EmbeddingRequest) (*Embedding, error) {
	if err := ValidateRequest(req); err != nil {
		return nil, err
	}

	resp, err := r.GenerateBatch(ctx, BatchEmbeddingRequest{Texts: []string{req.Text}})
	if err != nil {
		return nil, err
	}

	if len(resp.Embeddings) == 0 {
		return nil, fmt.Errorf("%w: no embeddings returned", ErrProviderFailed)
	}

	return resp.Embeddings[0], nil
}

func (r *RemoteProvider) GenerateBatch(ctx context.Context, req BatchEmbeddingRequest) (*BatchEmbeddingResponse, error) {
	if err := ValidateBatchRequest(req); err != nil {
		return nil, err
	}

	if len(req.Texts) > MaxBatchSize {
		return nil, fmt.Errorf("%w: max %d texts allowed", ErrBatchTooLarge, MaxBatchSize)
	}

	embeddings := make([]*Embedding, len(req.Texts))
	var missing []int
	for i, text := range req.Texts {
		if r.cache != nil {
			if emb, ok := r.cache.Get(ComputeHash(text)); ok {
				embeddings[i] = emb
				continue
			}
		}
		missing = append(missing, i)
	}

	if len(missing) > 0 {
		texts := make([]string, len(missing))
		for j, i := range missing {
			texts[j] = req.Texts[i]
		}

		fetched, err := retryWithBackoff(ctx, r.retry, func() ([]*Embedding, error) {
			return r.callAPI(ctx, texts)
		})
		if err != nil {
			return nil, fmt.Errorf("%w: %s: %v", ErrProviderFailed, r.name, err)
		}
		if len(fetched) != len(texts) {
			return nil, fmt.Errorf("%w: %s returned %d embeddings for %d texts", ErrProviderFailed, r.name, len(fetched), len(texts))
		}

		for j, i := range missing {
			emb := fetched[j]
			emb.Hash = ComputeHash(req.Texts[i])
			if r.cache != nil {
				r.cache.Set(emb.Hash, emb)
			}
			embeddings[i] = emb
		}
	}

	return &BatchEmbeddingResponse{
		Embeddings: embeddings,
		Provider:   r.name,
		Model:      r.model,
	}, nil
}

func (r *RemoteProvider) callAPI(ctx context.Context, texts []string) ([]*Embedding, error) {
	reqBody := map[string]interface{}{
		"input": texts,
		"model": r.model,
	}

	body, err := json.Marshal(reqBody)
	if err != nil {
		return nil, permanent(fmt.Errorf("marshal request: %w", err))
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, r.baseURL+"/embeddings", bytes.NewReader(body))
	if err != nil {
		return nil, permanent(fmt.Errorf("create request: %w", err))
	}

	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+r.apiKey)

	resp, err := r.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("api call: %w", err)
	}
	defer func() {
		_ = resp.Body.Close()
	}()

	if resp.StatusCode != http.StatusOK {
		bodyBytes, _ := io.ReadAll(resp.Body)
		return nil, statusError(resp.StatusCode, bodyBytes)
	}

	var apiResp struct {
		Data []struct {
			Embedding []float32 `json:"embedding"`
			Index     int       `json:"index"`
		} `json:"data"`
		Model string `json:"model"`
	}

	if err := json.NewDecoder(resp.Body).Decode(&apiResp); err != nil {
		return nil, fmt.Errorf("decode response: %w", err)
	}

	// data entries carry their input index and may arrive out of order
	embeddings := make([]*Embedding, len(texts))
	for _, data := range apiResp.Data {
		if data.Index < 0 || data.Index >= len(texts) {
			return nil, permanent(fmt.Errorf("response index %d out of range", data.Index))
		}
		embeddings[data.Index] = &Embedding{
			Vector:    data.Embedding,
			Dimension: len(data.Embedding),
			Provider:  r.name,
			Model:     r.model,
		}
	}
	for i, emb := range embeddings {
		if emb == nil {
			return nil, permanent(fmt.Errorf("no embedding for input %d", i))
		}
	}

	if len(embeddings) > 0 {
		r.dimension.Store(int64(embeddings[0].Dimension))
	}

	return embeddings, nil
}

// Dimension returns the configured dimension until a response reports
// the real one
func (r *RemoteProvider) Dimension() int {
	return int(r.dimension.Load())
}

func (r *RemoteProvider) Provider() string {
	return r.name
}

func (r *RemoteProvider) Model() string {
	return r.model
}

func (r *RemoteProvider) Close() error {
	r.httpClient.CloseIdleConnections()
	return nil
}

// statusError classifies a non-200 response. Client errors other than
// rate limiting will not succeed on retry.
func statusError(code int, body []byte) error {
	err := fmt.Errorf("api error %d: %s", code, strings.TrimSpace(string(body)))
	if code >= 400 && code < 500 && code != http.StatusTooManyRequests {
		return permanent(err)
	}
	return err
}

// LocalProvider is an offline embedder based on feature hashing of
// identifier-aware tokens. It needs no model files and is deterministic
// across processes and platforms.
type LocalProvider struct {
	model     string
	dimension int
	cache     *Cache
}

// NewLocalProvider creates a new local embedder
func NewLocalProvider(cache *Cache) (*LocalProvider, error) {
	return &LocalProvider{
		model:     DefaultLocalModel,
		dimension: LocalDimension,
		cache:     cache,
	}, nil
}

func (l *LocalProvider) GenerateEmbedding(ctx context.Context, req EmbeddingRequest) (*Embedding, error) {
	if err := ValidateRequest(req); err != nil {
		return nil, err
	}

	hash := ComputeHash(req.Text)
	if l.cache != nil {
		if emb, ok := l.cache.Get(hash); ok {
			return emb, nil
		}
	}

	emb := &Embedding{
		Vector:    hashingVector(req.Text, l.dimension),
		Dimension: l.dimension,
		Provider:  ProviderLocal,
		Model:     l.model,
		Hash:      hash,
	}

	if l.cache != nil {
		l.cache.Set(hash, emb)
	}

	return emb, nil
}

func (l *LocalProvider) GenerateBatch(ctx context.Context, req BatchEmbeddingRequest) (*BatchEmbeddingResponse, error) {
	if err := ValidateBatchRequest(req); err != nil {
		return nil, err
	}

	embeddings := make([]*Embedding, len(req.Texts))
	for i, text := range req.Texts {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		emb, err := l.GenerateEmbedding(ctx, EmbeddingRequest{Text: text})
		if err != nil {
			return nil, fmt.Errorf("embedding text %d: %w", i, err)
		}
		embeddings[i] = emb
	}

	return &BatchEmbeddingResponse{
		Embeddings: embeddings,
		Provider:   ProviderLocal,
		Model:      l.model,
	}, nil
}

func (l *LocalProvider) Dimension() int {
	return l.dimension
}

func (l *LocalProvider) Provider() string {
	return ProviderLocal
}

func (l *LocalProvider) Model() string {
	return l.model
}

func (l *LocalProvider) Close() error {
	return nil
}
