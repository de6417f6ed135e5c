// Package chunker cuts corpus fragments out of Go source files.
//
// Fragments follow declaration boundaries: one per function, method or
// type declaration found by the parser, spanning the declaration and its
// doc comment.
//
// # Basic Usage
//
//	result, src, err := parser.New().ParseFile("internal/auth/service.go")
//	fragments := chunker.New().ChunkFile("internal/auth/service.go", src, result)
//
// Each fragment gets:
//   - Title: "<Kind> <name> in <path>", e.g. "Method Service.Login in internal/auth/service.go"
//   - Path: the path given to ChunkFile
//   - Content: the declaration's source lines, verbatim
//   - Queries: three paraphrased questions that are embedded with the
//     content to improve semantic matches but never shown
//
// IDs are assigned later, when the whole corpus is written.
package chunker
