// Package searcher is the retrieval facade: it answers a parsed Query
// from either the semantic embedding index or the lexical keyword index.
//
// # Query Modes
//
// ParseQuery is the only place raw user input is inspected:
//
//	q, err := searcher.ParseQuery("grep: ParseFile", searcher.ModeLexical)
//	// q == Query{Mode: ModeLexical, Text: "ParseFile"}
//
//	q, err = searcher.ParseQuery("how are files parsed?", searcher.ModeLexical)
//	// no trigger: q == Query{Mode: ModeSemantic, Text: "how are files parsed?"}
//
// Lexical mode needs both the caller's request and the "grep:" prefix.
// Without the prefix the query is answered semantically; that is a
// defined fallback, not an error.
//
// # Basic Usage
//
//	lazy := index.NewLazy(c, emb, "embeddings.db", index.Options{Logger: log})
//	s := searcher.New(lazy, lexical.New(c), searcher.Config{Logger: log})
//
//	results, err := s.Search(ctx, q, 3)
//	for _, r := range results {
//	    fmt.Printf("%d. %s [%s]\n", r.Rank, r.Fragment.Title, r.Fragment.Path)
//	}
//
// Semantic results carry a cosine similarity score; lexical results carry
// an occurrence count and a nil score.
//
// # Failures
//
// A query that matches nothing returns an empty slice and a nil error.
// An embedding backend failure is returned wrapped with
// types.ErrEmbeddingBackend; it never turns into an empty result and it
// does not affect lexical queries, which never touch the embedding index.
// When the cached vectors turn out not to fit the current embedding
// model at query time, the index is rebuilt once and the query retried.
//
// # Caching
//
// Results are cached in an LRU keyed by mode, k and query text for
// DefaultCacheTTL. Rebuild purges the cache.
package searcher
