package searcher

import (
	"context"
	"crypto/sha256"
	"errors"
	"fmt"
	"log/slog"
	"strconv"
	"sync"
	"time"

	lru "github.com/hashicorp/golang-lru/v2"

	"github.com/dshills/coderag/internal/index"
	"github.com/dshills/coderag/internal/lexical"
	"github.com/dshills/coderag/internal/logger"
	"github.com/dshills/coderag/pkg/types"
)

const (
	// DefaultCacheSize is the number of query results kept in memory
	DefaultCacheSize = 1000

	// DefaultCacheTTL bounds how long a cached result is served
	DefaultCacheTTL = time.Hour
)

// Config configures a Searcher
type Config struct {
	// CacheSize of 0 means DefaultCacheSize; negative disables the cache
	CacheSize int
	CacheTTL  time.Duration
	Logger    *slog.Logger
}

// cacheEntry represents a cached result set with expiration time
type cacheEntry struct {
	results   []types.SearchResult
	expiresAt time.Time
}

// Searcher answers parsed queries from the semantic or the lexical index.
// It never falls back from one mode to the other on failure: a semantic
// error is returned as is while lexical queries keep working.
type Searcher struct {
	semantic *index.Lazy
	lexical  *lexical.Index
	log      *slog.Logger

	cache    *lru.Cache[[32]byte, *cacheEntry]
	cacheTTL time.Duration
	cacheMu  sync.RWMutex
}

// New creates a Searcher. The semantic index is built or loaded on the
// first semantic query.
func New(semantic *index.Lazy, lex *lexical.Index, cfg Config) *Searcher {
	s := &Searcher{
		semantic: semantic,
		lexical:  lex,
		log:      logger.OrNop(cfg.Logger),
		cacheTTL: cfg.CacheTTL,
	}
	if s.cacheTTL <= 0 {
		s.cacheTTL = DefaultCacheTTL
	}

	size := cfg.CacheSize
	if size == 0 {
		size = DefaultCacheSize
	}
	if size > 0 {
		cache, err := lru.New[[32]byte, *cacheEntry](size)
		if err != nil {
			// only fails for size <= 0
			panic(fmt.Sprintf("failed to create LRU cache: %v", err))
		}
		s.cache = cache
	}
	return s
}

// Search returns up to k results for q, best first. Results may be fewer
// than k when the corpus is smaller or, in lexical mode, when fewer
// fragments contain the keyword. No match is an empty slice, not an error.
func (s *Searcher) Search(ctx context.Context, q Query, k int) ([]types.SearchResult, error) {
	if q.Text == "" {
		return nil, types.ErrEmptyQuery
	}

	key := cacheKey(q, k)
	if results, ok := s.checkCache(key); ok {
		s.log.Debug("search cache hit", "mode", q.Mode, "query", q.Text)
		return results, nil
	}

	start := time.Now()
	var (
		results []types.SearchResult
		err     error
	)
	switch q.Mode {
	case ModeLexical:
		results, err = s.lexicalSearch(q.Text, k)
	case ModeSemantic:
		results, err = s.semanticSearch(ctx, q.Text, k)
	default:
		return nil, fmt.Errorf("unsupported search mode: %s", q.Mode)
	}
	if err != nil {
		return nil, err
	}

	s.log.Debug("search",
		"mode", q.Mode,
		"query", q.Text,
		"k", k,
		"results", len(results),
		"duration", time.Since(start))

	s.storeInCache(key, results)
	return results, nil
}

func (s *Searcher) lexicalSearch(keyword string, k int) ([]types.SearchResult, error) {
	matches, err := s.lexical.Query(keyword, k)
	if err != nil {
		return nil, err
	}

	results := make([]types.SearchResult, len(matches))
	for i, m := range matches {
		results[i] = types.SearchResult{
			Rank:        i + 1,
			Fragment:    m.Fragment,
			Occurrences: m.Occurrences,
		}
	}
	return results, nil
}

func (s *Searcher) semanticSearch(ctx context.Context, text string, k int) ([]types.SearchResult, error) {
	idx, err := s.semantic.Get(ctx)
	if err != nil {
		return nil, err
	}

	hits, err := idx.Query(ctx, text, k)
	if errors.Is(err, types.ErrCacheMismatch) {
		// vectors from an older model; rebuild once and retry
		s.log.Warn("embedding cache does not fit the current model, rebuilding", "error", err)
		rebuilt, rerr := s.Rebuild(ctx)
		if rerr != nil {
			return nil, fmt.Errorf("%w (rebuild failed: %w)", err, rerr)
		}
		hits, err = rebuilt.Query(ctx, text, k)
	}
	if err != nil {
		return nil, err
	}

	results := make([]types.SearchResult, len(hits))
	for i, h := range hits {
		score := h.Score
		results[i] = types.SearchResult{
			Rank:     i + 1,
			Fragment: h.Fragment,
			Score:    &score,
		}
	}
	return results, nil
}

// Warm loads or builds the embedding index without running a query
func (s *Searcher) Warm(ctx context.Context) (*index.EmbeddingIndex, error) {
	return s.semantic.Get(ctx)
}

// Rebuild recomputes the embedding index ignoring the cache artifact and
// drops all cached results.
func (s *Searcher) Rebuild(ctx context.Context) (*index.EmbeddingIndex, error) {
	idx, err := s.semantic.Rebuild(ctx)
	if err != nil {
		return nil, err
	}
	s.InvalidateCache()
	return idx, nil
}

// Status describes the corpus and the state of the embedding index
type Status struct {
	Fragments     int
	Fingerprint   string
	CachePath     string
	IndexLoaded   bool
	FromCache     bool
	Stale         bool
	Provider      string
	Model         string
	Dimension     int
	BuiltAt       time.Time
	CachedQueries int
}

// Status reports without triggering an index build
func (s *Searcher) Status() Status {
	c := s.semantic.Corpus()
	st := Status{
		Fragments:   c.Len(),
		Fingerprint: c.Fingerprint(),
		CachePath:   s.semantic.CachePath(),
	}

	if idx, ok := s.semantic.Loaded(); ok {
		meta := idx.Meta()
		st.IndexLoaded = true
		st.FromCache = idx.FromCache()
		st.Stale = idx.Stale()
		st.Provider = meta.Provider
		st.Model = meta.Model
		st.Dimension = meta.Dimension
		st.BuiltAt = meta.CreatedAt
	}

	if s.cache != nil {
		st.CachedQueries = s.cache.Len()
	}
	return st
}

// checkCache looks up cached results
func (s *Searcher) checkCache(key [32]byte) ([]types.SearchResult, bool) {
	if s.cache == nil {
		return nil, false
	}

	s.cacheMu.RLock()
	entry, found := s.cache.Get(key)
	if !found {
		s.cacheMu.RUnlock()
		return nil, false
	}

	if time.Now().After(entry.expiresAt) {
		s.cacheMu.RUnlock()

		s.cacheMu.Lock()
		s.cache.Remove(key)
		s.cacheMu.Unlock()
		return nil, false
	}

	results := copyResults(entry.results)
	s.cacheMu.RUnlock()
	return results, true
}

// storeInCache saves results to the cache
func (s *Searcher) storeInCache(key [32]byte, results []types.SearchResult) {
	if s.cache == nil {
		return
	}

	entry := &cacheEntry{
		results:   copyResults(results),
		expiresAt: time.Now().Add(s.cacheTTL),
	}

	s.cacheMu.Lock()
	s.cache.Add(key, entry)
	s.cacheMu.Unlock()
}

// InvalidateCache drops every cached result
func (s *Searcher) InvalidateCache() {
	if s.cache == nil {
		return
	}
	s.cacheMu.Lock()
	s.cache.Purge()
	s.cacheMu.Unlock()
}

// copyResults deep copies results so callers cannot modify cached entries
func copyResults(src []types.SearchResult) []types.SearchResult {
	dst := make([]types.SearchResult, len(src))
	for i, r := range src {
		dst[i] = r
		if r.Score != nil {
			score := *r.Score
			dst[i].Score = &score
		}
		if r.Fragment.Queries != nil {
			dst[i].Fragment.Queries = append([]string(nil), r.Fragment.Queries...)
		}
	}
	return dst
}

func cacheKey(q Query, k int) [32]byte {
	return sha256.Sum256([]byte(string(q.Mode) + "|" + strconv.Itoa(k) + "|" + q.Text))
}
