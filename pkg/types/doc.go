// Package types provides shared type definitions for coderag.
//
// # Core Types
//
// Fragment is one retrievable unit of code text. Fragments are produced by
// the extractor, stored one per line in the corpus file, and are immutable
// once a corpus is loaded:
//
//	frag := types.Fragment{
//	    ID:      1,
//	    Title:   "Function ParseFile in parser/parser.go",
//	    Path:    "parser/parser.go",
//	    Content: "func ParseFile(path string) error { ... }",
//	    Queries: []string{"What does function ParseFile do?"},
//	}
//
// SearchText joins content and queries; it is what gets embedded and is
// never shown to the user.
//
// Symbol is a Go declaration found by the parser. Each symbol becomes one
// fragment.
//
// SearchResult is a ranked fragment. Semantic results carry a cosine score
// in [-1, 1]; lexical results carry an occurrence count and a nil score.
//
// # Errors
//
// The retrieval error taxonomy lives here so every layer can classify
// failures the same way:
//
//	errors.Is(err, types.ErrCorpusRead)       // unreadable or malformed corpus
//	errors.Is(err, types.ErrEmptyQuery)       // blank query or keyword
//	errors.Is(err, types.ErrCacheMismatch)    // cache does not fit corpus
//	errors.Is(err, types.ErrEmbeddingBackend) // embedding model unavailable
//	errors.Is(err, types.ErrTransport)        // completion call failed
package types
