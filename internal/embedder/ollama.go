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

const (
	// DefaultOllamaModel is the default model used for Ollama embeddings
	DefaultOllamaModel = "nomic-embed-text"

	// DefaultOllamaBaseURL is the default Ollama API URL
	DefaultOllamaBaseURL = "http://localhost:11434"

	// OllamaDimension is the dimension of DefaultOllamaModel. Other models
	// report 0 until the first response.
	OllamaDimension = 768

	// EnvOllamaHost overrides the Ollama API URL
	EnvOllamaHost = "OLLAMA_HOST"
)

// OllamaProvider implements Embedder using a local Ollama server
type OllamaProvider struct {
	baseURL    string
	model      string
	dimension  atomic.Int64
	httpClient *http.Client
	cache      *Cache
	retry      RetryConfig
}

// OllamaConfig holds configuration for the Ollama embedder
type OllamaConfig struct {
	// BaseURL defaults to DefaultOllamaBaseURL
	BaseURL string
	// Model defaults to DefaultOllamaModel
	Model string
	Cache *Cache
}

type ollamaEmbedRequest struct {
	Model string   `json:"model"`
	Input []string `json:"input"`
}

type ollamaEmbedResponse struct {
	Model      string      `json:"model"`
	Embeddings [][]float32 `json:"embeddings"`
}

// NewOllamaProvider creates a new embedder backed by Ollama's /api/embed
func NewOllamaProvider(cfg OllamaConfig) (*OllamaProvider, error) {
	baseURL := cfg.BaseURL
	if baseURL == "" {
		baseURL = DefaultOllamaBaseURL
	}
	if !strings.HasPrefix(baseURL, "http://") && !strings.HasPrefix(baseURL, "https://") {
		baseURL = "http://" + baseURL
	}

	model := cfg.Model
	if model == "" {
		model = DefaultOllamaModel
	}

	p := &OllamaProvider{
		baseURL: strings.TrimRight(baseURL, "/"),
		model:   model,
		httpClient: &http.Client{
			Timeout: 120 * time.Second,
		},
		cache: cfg.Cache,
		retry: DefaultRetryConfig(),
	}
	if model == DefaultOllamaModel {
		p.dimension.Store(OllamaDimension)
	}
	return p, nil
}

func (o *OllamaProvider) GenerateEmbedding(ctx context.Context, req EmbeddingRequest) (*Embedding, error) {
	if err := ValidateRequest(req); err != nil {
		return nil, err
	}

	resp, err := o.GenerateBatch(ctx, BatchEmbeddingRequest{Texts: []string{req.Text}})
	if err != nil {
		return nil, err
	}
	return resp.Embeddings[0], nil
}

func (o *OllamaProvider) GenerateBatch(ctx context.Context, req BatchEmbeddingRequest) (*BatchEmbeddingResponse, error) {
	if err := ValidateBatchRequest(req); err != nil {
		return nil, err
	}

	embeddings := make([]*Embedding, len(req.Texts))
	var missing []int
	for i, text := range req.Texts {
		if o.cache != nil {
			if emb, ok := o.cache.Get(ComputeHash(text)); ok {
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

		vectors, err := retryWithBackoff(ctx, o.retry, func() ([][]float32, error) {
			return o.embed(ctx, texts)
		})
		if err != nil {
			return nil, fmt.Errorf("%w: ollama: %v", ErrProviderFailed, err)
		}

		for j, i := range missing {
			emb := &Embedding{
				Vector:    vectors[j],
				Dimension: len(vectors[j]),
				Provider:  ProviderOllama,
				Model:     o.model,
				Hash:      ComputeHash(req.Texts[i]),
			}
			if o.cache != nil {
				o.cache.Set(emb.Hash, emb)
			}
			embeddings[i] = emb
		}
	}

	return &BatchEmbeddingResponse{
		Embeddings: embeddings,
		Provider:   ProviderOllama,
		Model:      o.model,
	}, nil
}

func (o *OllamaProvider) embed(ctx context.Context, texts []string) ([][]float32, error) {
	jsonBody, err := json.Marshal(ollamaEmbedRequest{Model: o.model, Input: texts})
	if err != nil {
		return nil, permanent(fmt.Errorf("marshaling request: %w", err))
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, o.baseURL+"/api/embed", bytes.NewReader(jsonBody))
	if err != nil {
		return nil, permanent(fmt.Errorf("creating request: %w", err))
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := o.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("sending request: %w", err)
	}
	defer func() {
		_ = resp.Body.Close()
	}()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		return nil, statusError(resp.StatusCode, body)
	}

	var embedResp ollamaEmbedResponse
	if err := json.NewDecoder(resp.Body).Decode(&embedResp); err != nil {
		return nil, fmt.Errorf("decoding response: %w", err)
	}

	if len(embedResp.Embeddings) != len(texts) {
		return nil, permanent(fmt.Errorf("got %d embeddings for %d inputs", len(embedResp.Embeddings), len(texts)))
	}

	o.dimension.Store(int64(len(embedResp.Embeddings[0])))
	return embedResp.Embeddings, nil
}

func (o *OllamaProvider) Dimension() int {
	return int(o.dimension.Load())
}

func (o *OllamaProvider) Provider() string {
	return ProviderOllama
}

func (o *OllamaProvider) Model() string {
	return o.model
}

func (o *OllamaProvider) Close() error {
	o.httpClient.CloseIdleConnections()
	return nil
}
