// Package embedder turns fragment search texts and user queries into
// sentence-embedding vectors.
//
// Four providers implement the Embedder interface:
//
//   - jina: Jina AI (jina-embeddings-v3, multilingual, 1024 dimensions)
//   - openai: OpenAI (text-embedding-3-small, 1536 dimensions)
//   - ollama: a local Ollama server via /api/embed
//   - local: offline feature hashing of identifier-aware tokens (384 dimensions)
//
// Jina and OpenAI share the OpenAI-compatible /embeddings wire format and
// are served by RemoteProvider, so any compatible endpoint can be used by
// setting a base URL.
//
// # Provider Selection
//
//  1. If CODERAG_EMBEDDING_PROVIDER is set, use that provider
//  2. Else if JINA_API_KEY is set, use Jina AI
//  3. Else if OPENAI_API_KEY is set, use OpenAI
//  4. Else fall back to the local provider
//
// Explicit configuration:
//
//	emb, err := embedder.New(embedder.Config{
//	    Provider:  "ollama",
//	    Model:     "nomic-embed-text",
//	    CacheSize: 10000,
//	})
//	if err != nil {
//	    return err
//	}
//	defer emb.Close()
//
//	vec, err := embedder.Embed(ctx, emb, "how is the model fitted?")
//
// # Caching
//
// Every provider accepts an LRU Cache keyed by the SHA-256 of the text.
// Repeated texts within a process get bit-identical vectors without a
// network call.
//
// # Error Handling
//
// Transient failures (network errors, 5xx, 429) are retried with
// exponential backoff. Other client errors fail immediately. All
// provider failures wrap ErrProviderFailed.
package embedder
