// Package corpus loads the fragment corpus from a line-delimited JSON file.
//
// Each non-blank line is one fragment record:
//
//	{"id": 1, "title": "Function Fit in linear.go", "path": "linear.go", "content": "...", "queries": ["..."]}
//
// Only content is required. A record without an id gets one more than
// the highest id seen so far. Reused ids are kept and logged. Fragment
// order equals line order and nothing is merged or deduplicated.
//
// A loaded Corpus is read-only and safe to share across goroutines.
// Fingerprint identifies the embedded text of the corpus and keys the
// embedding cache artifact.
package corpus
