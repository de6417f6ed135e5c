package embedder

import (
	"hash/fnv"
	"math"
	"regexp"
	"strings"
	"unicode"
)

var tokenPattern = regexp.MustCompile(`[\p{L}\p{N}_]+`)

var stopwords = func() map[string]struct{} {
	words := []string{
		"a", "an", "the", "and", "or", "if", "then", "else", "to", "of", "in", "on",
		"at", "by", "with", "as", "is", "are", "was", "were", "be", "it", "this",
		"that", "from", "does", "do", "how", "what", "where", "which",
	}
	m := make(map[string]struct{}, len(words))
	for _, w := range words {
		m[w] = struct{}{}
	}
	return m
}()

// hashingVector maps text into a fixed-size L2-normalised vector by
// hashing each token into a signed bucket
func hashingVector(text string, dim int) []float32 {
	vec := make([]float64, dim)
	for _, tok := range tokenize(text) {
		h := fnv.New64a()
		_, _ = h.Write([]byte(tok))
		sum := h.Sum64()
		idx := int(sum % uint64(dim))
		if sum>>63 == 1 {
			vec[idx]--
		} else {
			vec[idx]++
		}
	}

	var norm float64
	for _, v := range vec {
		norm += v * v
	}
	norm = math.Sqrt(norm)

	out := make([]float32, dim)
	if norm == 0 {
		return out
	}
	for i, v := range vec {
		out[i] = float32(v / norm)
	}
	return out
}

// tokenize lower-cases words and also emits the parts of camelCase and
// snake_case identifiers, so "parseFile" matches "parse file"
func tokenize(text string) []string {
	var tokens []string
	for _, word := range tokenPattern.FindAllString(text, -1) {
		lower := strings.ToLower(word)
		if _, stop := stopwords[lower]; !stop {
			tokens = append(tokens, lower)
		}
		parts := splitIdentifier(word)
		if len(parts) < 2 {
			continue
		}
		for _, p := range parts {
			p = strings.ToLower(p)
			if _, stop := stopwords[p]; stop || p == "" {
				continue
			}
			tokens = append(tokens, p)
		}
	}
	return tokens
}

func splitIdentifier(word string) []string {
	var parts []string
	for _, seg := range strings.Split(word, "_") {
		if seg == "" {
			continue
		}
		runes := []rune(seg)
		start := 0
		for i := 1; i < len(runes); i++ {
			prev, cur := runes[i-1], runes[i]
			boundary := unicode.IsLower(prev) && unicode.IsUpper(cur)
			// "HTTPServer" splits before the last capital of a run
			if unicode.IsUpper(prev) && unicode.IsUpper(cur) && i+1 < len(runes) && unicode.IsLower(runes[i+1]) {
				boundary = true
			}
			if boundary {
				parts = append(parts, string(runes[start:i]))
				start = i
			}
		}
		parts = append(parts, string(runes[start:]))
	}
	return parts
}
