package index

import (
	"context"
	"errors"
	"sync"

	"github.com/dshills/coderag/internal/corpus"
	"github.com/dshills/coderag/internal/embedder"
)

// ErrBuildInProgress is returned by Rebuild while another rebuild runs
var ErrBuildInProgress = errors.New("index build already in progress")

// Lazy defers BuildOrLoad until the index is first needed. Builds are
// serialised: concurrent callers wait for the one in flight and share its
// result. A failed build is not remembered, so the next call retries.
type Lazy struct {
	corpus    *corpus.Corpus
	emb       embedder.Embedder
	cachePath string
	opts      Options

	mu       sync.Mutex
	idx      *EmbeddingIndex
	building buildLock
}

// NewLazy creates a Lazy index; nothing is loaded or embedded yet
func NewLazy(c *corpus.Corpus, emb embedder.Embedder, cachePath string, opts Options) *Lazy {
	return &Lazy{corpus: c, emb: emb, cachePath: cachePath, opts: opts}
}

// Get returns the index, building or loading it on first use
func (l *Lazy) Get(ctx context.Context) (*EmbeddingIndex, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	if l.idx != nil {
		return l.idx, nil
	}

	idx, err := BuildOrLoad(ctx, l.corpus, l.emb, l.cachePath, l.opts)
	if err != nil {
		return nil, err
	}
	l.idx = idx
	return idx, nil
}

// Rebuild discards the current index and builds a new one ignoring any
// artifact. It fails fast with ErrBuildInProgress when another Rebuild is
// running. On failure the previous index is kept.
func (l *Lazy) Rebuild(ctx context.Context) (*EmbeddingIndex, error) {
	if !l.building.TryAcquire() {
		return nil, ErrBuildInProgress
	}
	defer l.building.Release()

	l.mu.Lock()
	defer l.mu.Unlock()

	opts := l.opts
	opts.ForceRebuild = true
	idx, err := BuildOrLoad(ctx, l.corpus, l.emb, l.cachePath, opts)
	if err != nil {
		return nil, err
	}
	l.idx = idx
	return idx, nil
}

// Loaded returns the index if it has been built, without building it
func (l *Lazy) Loaded() (*EmbeddingIndex, bool) {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.idx, l.idx != nil
}

// Corpus returns the corpus the index covers
func (l *Lazy) Corpus() *corpus.Corpus {
	return l.corpus
}

// CachePath returns where the artifact is persisted
func (l *Lazy) CachePath() string {
	return l.cachePath
}
