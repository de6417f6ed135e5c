// Package embeddertest provides a deterministic in-memory Embedder for
// tests of packages built on top of embeddings.
package embeddertest

import (
	"context"
	"strings"
	"sync"

	"github.com/dshills/coderag/internal/embedder"
)

// Fake embeds text as keyword counts: component i is the number of
// case-insensitive occurrences of Keywords[i]. Texts listed in Vectors
// get that vector instead.
type Fake struct {
	Keywords []string
	Vectors  map[string][]float32

	// Err, when set, is returned by every call
	Err error

	ProviderName string
	ModelName    string

	mu        sync.Mutex
	calls     int
	texts     int
	failAfter int
}

// New creates a Fake over the given keywords
func New(keywords ...string) *Fake {
	return &Fake{
		Keywords:     keywords,
		Vectors:      map[string][]float32{},
		ProviderName: "fake",
		ModelName:    "keywords-v1",
		failAfter:    -1,
	}
}

// FailAfter makes every call after the first n fail with err
func (f *Fake) FailAfter(n int, err error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.failAfter = n
	f.Err = err
}

// Calls returns the number of embedding requests served
func (f *Fake) Calls() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls
}

// Texts returns the number of texts embedded
func (f *Fake) Texts() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.texts
}

func (f *Fake) vector(text string) []float32 {
	if v, ok := f.Vectors[text]; ok {
		out := make([]float32, len(v))
		copy(out, v)
		return out
	}
	lower := strings.ToLower(text)
	v := make([]float32, len(f.Keywords))
	for i, kw := range f.Keywords {
		v[i] = float32(strings.Count(lower, strings.ToLower(kw)))
	}
	return v
}

func (f *Fake) check() error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.Err != nil && (f.failAfter < 0 || f.calls >= f.failAfter) {
		return f.Err
	}
	f.calls++
	return nil
}

func (f *Fake) GenerateEmbedding(ctx context.Context, req embedder.EmbeddingRequest) (*embedder.Embedding, error) {
	if err := embedder.ValidateRequest(req); err != nil {
		return nil, err
	}
	if err := f.check(); err != nil {
		return nil, err
	}
	f.mu.Lock()
	f.texts++
	f.mu.Unlock()
	v := f.vector(req.Text)
	return &embedder.Embedding{Vector: v, Dimension: len(v), Provider: f.ProviderName, Model: f.ModelName}, nil
}

func (f *Fake) GenerateBatch(ctx context.Context, req embedder.BatchEmbeddingRequest) (*embedder.BatchEmbeddingResponse, error) {
	if err := embedder.ValidateBatchRequest(req); err != nil {
		return nil, err
	}
	if err := f.check(); err != nil {
		return nil, err
	}
	f.mu.Lock()
	f.texts += len(req.Texts)
	f.mu.Unlock()

	out := make([]*embedder.Embedding, len(req.Texts))
	for i, text := range req.Texts {
		v := f.vector(text)
		out[i] = &embedder.Embedding{Vector: v, Dimension: len(v), Provider: f.ProviderName, Model: f.ModelName}
	}
	return &embedder.BatchEmbeddingResponse{Embeddings: out, Provider: f.ProviderName, Model: f.ModelName}, nil
}

func (f *Fake) Dimension() int   { return len(f.Keywords) }
func (f *Fake) Provider() string { return f.ProviderName }
func (f *Fake) Model() string    { return f.ModelName }
func (f *Fake) Close() error     { return nil }

var _ embedder.Embedder = (*Fake)(nil)
