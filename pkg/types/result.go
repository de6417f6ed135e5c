package types

// SearchResult is one ranked fragment returned by a retrieval call
type SearchResult struct {
	Rank     int      `json:"rank"` // Position in result set (1-based)
	Fragment Fragment `json:"fragment"`

	// Score is the cosine similarity for semantic results and nil for
	// lexical results, which are ranked by occurrence count instead.
	Score *float64 `json:"score,omitempty"`

	// Occurrences is the keyword hit count for lexical results
	Occurrences int `json:"occurrences,omitempty"`
}

// HasScore reports whether the result carries a similarity score
func (sr *SearchResult) HasScore() bool {
	return sr.Score != nil
}
