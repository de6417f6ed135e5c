package index

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"runtime"
	"sort"
	"strconv"
	"strings"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/dshills/coderag/internal/corpus"
	"github.com/dshills/coderag/internal/embedder"
	"github.com/dshills/coderag/internal/logger"
	"github.com/dshills/coderag/internal/storage"
	"github.com/dshills/coderag/pkg/types"
)

// Options controls how BuildOrLoad treats an existing cache artifact
type Options struct {
	// ForceRebuild ignores any existing artifact
	ForceRebuild bool
	// RebuildOnStale rebuilds when the artifact was built from a different
	// corpus. By default such an artifact is used as-is with a warning.
	RebuildOnStale bool
	// BatchSize is the number of texts per embedding request
	BatchSize int
	// Workers is the number of concurrent embedding requests
	Workers int
	Logger  *slog.Logger
}

func (o Options) withDefaults() Options {
	if o.BatchSize <= 0 {
		o.BatchSize = embedder.DefaultBatchSize
	}
	if o.BatchSize > embedder.MaxBatchSize {
		o.BatchSize = embedder.MaxBatchSize
	}
	if o.Workers <= 0 {
		o.Workers = min(4, runtime.NumCPU())
	}
	o.Logger = logger.OrNop(o.Logger)
	return o
}

// Hit is one semantic match
type Hit struct {
	Position int // 0-based corpus position
	Fragment types.Fragment
	Score    float64 // cosine similarity in [-1, 1]
}

// EmbeddingIndex holds one vector per corpus fragment, in corpus order
type EmbeddingIndex struct {
	corpus  *corpus.Corpus
	emb     embedder.Embedder
	vectors [][]float32
	norms   []float64
	meta    storage.Meta
	stale   bool
	cached  bool
}

// BuildOrLoad returns an index for c. An existing artifact at cachePath is
// trusted unless opts.ForceRebuild is set, it disagrees with the corpus
// length or the embedder, or it is stale and opts.RebuildOnStale is set.
// A fresh build is persisted to cachePath. An empty cachePath disables
// persistence.
func BuildOrLoad(ctx context.Context, c *corpus.Corpus, emb embedder.Embedder, cachePath string, opts Options) (*EmbeddingIndex, error) {
	opts = opts.withDefaults()
	log := opts.Logger.With("cache", cachePath)

	if cachePath != "" && !opts.ForceRebuild && storage.Exists(cachePath) {
		idx, err := load(ctx, c, emb, cachePath, opts)
		if err == nil {
			return idx, nil
		}

		var mismatch *types.CacheMismatchError
		switch {
		case errors.As(err, &mismatch):
			log.Warn("embedding cache does not match, rebuilding", "error", err)
		case errors.Is(err, errStale):
			log.Warn("embedding cache is stale, rebuilding")
		default:
			log.Warn("embedding cache unreadable, rebuilding", "error", err)
		}
	}

	start := time.Now()
	vectors, err := Embed(ctx, c.SearchTexts(), emb, opts)
	if err != nil {
		return nil, err
	}

	dim := emb.Dimension()
	if len(vectors) > 0 {
		dim = len(vectors[0])
	}

	idx := newIndex(c, emb, vectors, storage.Meta{
		Fingerprint: c.Fingerprint(),
		Source:      c.Source(),
		Provider:    emb.Provider(),
		Model:       emb.Model(),
		Dimension:   dim,
		Count:       len(vectors),
		CreatedAt:   time.Now().UTC(),
	})

	log.Info("embedding index built",
		"provider", emb.Provider(),
		"model", emb.Model(),
		"fragments", len(vectors),
		"duration", time.Since(start))

	if cachePath != "" {
		art := &storage.Artifact{Meta: idx.meta, Vectors: vectors}
		if err := storage.Save(ctx, cachePath, art); err != nil {
			return nil, fmt.Errorf("persist embedding cache: %w", err)
		}
		log.Debug("embedding cache written")
	}

	return idx, nil
}

var errStale = errors.New("stale embedding cache")

func load(ctx context.Context, c *corpus.Corpus, emb embedder.Embedder, cachePath string, opts Options) (*EmbeddingIndex, error) {
	art, err := storage.Load(ctx, cachePath)
	if err != nil {
		return nil, err
	}

	if err := checkArtifact(art.Meta, len(art.Vectors), c, emb); err != nil {
		return nil, err
	}

	stale := art.Meta.Fingerprint != c.Fingerprint()
	if stale {
		if opts.RebuildOnStale {
			return nil, errStale
		}
		opts.Logger.Warn("embedding cache was built from a different corpus; using it anyway",
			"cache", cachePath,
			"built_at", art.Meta.CreatedAt,
			"built_from", art.Meta.Source)
	}

	idx := newIndex(c, emb, art.Vectors, art.Meta)
	idx.stale = stale
	idx.cached = true

	opts.Logger.Info("embedding index loaded from cache",
		"cache", cachePath,
		"fragments", len(art.Vectors),
		"provider", art.Meta.Provider,
		"model", art.Meta.Model)

	return idx, nil
}

// checkArtifact rejects vectors that cannot be used against c with emb.
// Vectors are never truncated or padded.
func checkArtifact(meta storage.Meta, count int, c *corpus.Corpus, emb embedder.Embedder) error {
	if count != c.Len() {
		return &types.CacheMismatchError{What: "length", Cached: strconv.Itoa(count), Expected: strconv.Itoa(c.Len())}
	}
	if meta.Provider != emb.Provider() || meta.Model != emb.Model() {
		return &types.CacheMismatchError{
			What:     "model",
			Cached:   meta.Provider + "/" + meta.Model,
			Expected: emb.Provider() + "/" + emb.Model(),
		}
	}
	// remote providers report 0 until they have answered once
	if count > 0 && emb.Dimension() > 0 && meta.Dimension != emb.Dimension() {
		return &types.CacheMismatchError{What: "dimension", Cached: strconv.Itoa(meta.Dimension), Expected: strconv.Itoa(emb.Dimension())}
	}
	return nil
}

// Embed computes one vector per text, in order. Batches are sent
// concurrently; any failure aborts the whole build and is wrapped with
// types.ErrEmbeddingBackend.
func Embed(ctx context.Context, texts []string, emb embedder.Embedder, opts Options) ([][]float32, error) {
	opts = opts.withDefaults()
	vectors := make([][]float32, len(texts))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(opts.Workers)

	for start := 0; start < len(texts); start += opts.BatchSize {
		end := min(start+opts.BatchSize, len(texts))
		g.Go(func() error {
			resp, err := emb.GenerateBatch(gctx, embedder.BatchEmbeddingRequest{Texts: texts[start:end]})
			if err != nil {
				return fmt.Errorf("%w: fragments %d-%d: %w", types.ErrEmbeddingBackend, start+1, end, err)
			}
			if len(resp.Embeddings) != end-start {
				return fmt.Errorf("%w: got %d embeddings for %d texts", types.ErrEmbeddingBackend, len(resp.Embeddings), end-start)
			}
			for i, e := range resp.Embeddings {
				vectors[start+i] = e.Vector
			}
			opts.Logger.Debug("embedded batch", "from", start+1, "to", end)
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}

	for i, v := range vectors {
		if len(v) == 0 || len(v) != len(vectors[0]) {
			return nil, fmt.Errorf("%w: vector %d has dimension %d, expected %d",
				types.ErrEmbeddingBackend, i, len(v), len(vectors[0]))
		}
	}

	return vectors, nil
}

func newIndex(c *corpus.Corpus, emb embedder.Embedder, vectors [][]float32, meta storage.Meta) *EmbeddingIndex {
	norms := make([]float64, len(vectors))
	for i, v := range vectors {
		norms[i] = norm(v)
	}
	return &EmbeddingIndex{
		corpus:  c,
		emb:     emb,
		vectors: vectors,
		norms:   norms,
		meta:    meta,
	}
}

// Query returns the k fragments most similar to text, best first. Equal
// scores are ordered by corpus position. k is clamped to the corpus size
// and k <= 0 yields no hits.
func (ix *EmbeddingIndex) Query(ctx context.Context, text string, k int) ([]Hit, error) {
	if strings.TrimSpace(text) == "" {
		return nil, types.ErrEmptyQuery
	}
	if k <= 0 || len(ix.vectors) == 0 {
		return []Hit{}, nil
	}
	k = min(k, len(ix.vectors))

	qv, err := embedder.Embed(ctx, ix.emb, text)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", types.ErrEmbeddingBackend, err)
	}
	if len(qv) != ix.meta.Dimension {
		return nil, &types.CacheMismatchError{
			What:     "dimension",
			Cached:   strconv.Itoa(ix.meta.Dimension),
			Expected: strconv.Itoa(len(qv)),
		}
	}

	qnorm := norm(qv)
	candidates := make([]candidate, len(ix.vectors))
	for i, v := range ix.vectors {
		candidates[i] = candidate{position: i, score: cosine(qv, v, qnorm, ix.norms[i])}
	}
	sortCandidates(candidates)

	hits := make([]Hit, k)
	for i := 0; i < k; i++ {
		c := candidates[i]
		hits[i] = Hit{Position: c.position, Fragment: ix.corpus.At(c.position), Score: c.score}
	}
	return hits, nil
}

// candidate represents a fragment position with its similarity score
type candidate struct {
	position int
	score    float64
}

// sortCandidates orders by score descending, then position ascending
func sortCandidates(candidates []candidate) {
	sort.Slice(candidates, func(i, j int) bool {
		if candidates[i].score != candidates[j].score {
			return candidates[i].score > candidates[j].score
		}
		return candidates[i].position < candidates[j].position
	})
}

// Len returns the number of indexed fragments
func (ix *EmbeddingIndex) Len() int {
	return len(ix.vectors)
}

// Meta describes the vectors: provider, model, dimension and the corpus
// fingerprint they were built from
func (ix *EmbeddingIndex) Meta() storage.Meta {
	return ix.meta
}

// Stale reports whether the vectors were loaded from an artifact built
// for a different corpus
func (ix *EmbeddingIndex) Stale() bool {
	return ix.stale
}

// FromCache reports whether the vectors were loaded rather than built
func (ix *EmbeddingIndex) FromCache() bool {
	return ix.cached
}
