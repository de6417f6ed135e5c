// Package parser extracts declarations from Go source files using AST
// parsing.
//
// The parser uses the standard library (go/parser, go/ast, go/token) and
// collects the top-level declarations that become corpus fragments:
//   - Functions and methods (with receiver types)
//   - Structs, interfaces and other named types
//
// Each symbol carries its line span. The span starts at the doc comment
// when there is one, so the fragment cut from it keeps the documentation.
//
// # Basic Usage
//
//	p := parser.New()
//	result, src, err := p.ParseFile("/path/to/file.go")
//	if err != nil {
//	    log.Fatal(err)
//	}
//
//	for _, symbol := range result.Symbols {
//	    fmt.Printf("Found %s: %s\n", symbol.Kind, symbol.Name)
//	}
//
// # Error Handling
//
// Syntax errors do not fail ParseFile; they are recorded on the result:
//
//	if result.HasErrors() {
//	    // the extractor skips such files entirely
//	}
//
// Only I/O errors are returned.
package parser
