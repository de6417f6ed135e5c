// Package index is the semantic half of retrieval: one embedding vector
// per corpus fragment, queried by cosine similarity.
//
// BuildOrLoad embeds every fragment's search text, or loads the vectors
// from the cache artifact written by an earlier run. The artifact is
// trusted even when the corpus has changed since it was written; that
// only logs a warning and marks the index Stale. Set
// Options.RebuildOnStale or Options.ForceRebuild to rebuild instead. An
// artifact whose vector count differs from the corpus size, or whose
// embedding model differs from the current one, is always rebuilt.
//
// Query ranks every fragment by cosine similarity to the query embedding
// and returns the best k, ties broken by corpus position.
//
// Lazy wraps BuildOrLoad so the first semantic query pays the build cost
// and lexical-only sessions never do.
package index
