package embedder

import (
	"context"
	"fmt"
	"testing"
)

func BenchmarkComputeHash(b *testing.B) {
	texts := []string{
		"short",
		"def fit(X, y): return X",
		"func (s *Searcher) Search(ctx context.Context, q Query, k int) ([]types.SearchResult, error) { return nil, nil }",
	}

	for _, text := range texts {
		b.Run(fmt.Sprintf("len=%d", len(text)), func(b *testing.B) {
			for i := 0; i < b.N; i++ {
				_ = ComputeHash(text)
			}
		})
	}
}

func BenchmarkCache(b *testing.B) {
	cache := NewCache(DefaultCacheSize)
	emb := &Embedding{Vector: make([]float32, LocalDimension), Dimension: LocalDimension}

	for i := 0; i < 1000; i++ {
		cache.Set(fmt.Sprintf("hash-%d", i), emb)
	}

	b.Run("get-hit", func(b *testing.B) {
		for i := 0; i < b.N; i++ {
			_, _ = cache.Get(fmt.Sprintf("hash-%d", i%1000))
		}
	})

	b.Run("concurrent", func(b *testing.B) {
		b.RunParallel(func(pb *testing.PB) {
			i := 0
			for pb.Next() {
				if i%3 == 0 {
					cache.Set(fmt.Sprintf("hash-%d", i%2000), emb)
				} else {
					_, _ = cache.Get(fmt.Sprintf("hash-%d", i%2000))
				}
				i++
			}
		})
	})
}

func BenchmarkLocalProvider(b *testing.B) {
	provider, err := NewLocalProvider(nil)
	if err != nil {
		b.Fatalf("NewLocalProvider() error = %v", err)
	}
	ctx := context.Background()

	b.Run("single", func(b *testing.B) {
		req := EmbeddingRequest{Text: "func ProcessData(input []byte) (string, error) { return string(input), nil }"}
		for i := 0; i < b.N; i++ {
			if _, err := provider.GenerateEmbedding(ctx, req); err != nil {
				b.Fatal(err)
			}
		}
	})

	b.Run("batch-50", func(b *testing.B) {
		texts := make([]string, 50)
		for i := range texts {
			texts[i] = fmt.Sprintf("code fragment %d with parseFile and HTTPServer", i)
		}
		req := BatchEmbeddingRequest{Texts: texts}
		for i := 0; i < b.N; i++ {
			if _, err := provider.GenerateBatch(ctx, req); err != nil {
				b.Fatal(err)
			}
		}
	})
}
