// Package mcp implements the Model Context Protocol (MCP) server for coderag.
//
// The server exposes the retrieval core to AI coding assistants:
//   - search_code: retrieve the fragments that best answer a query
//   - build_prompt: retrieve the best fragment and render it into a prompt
//   - get_status: report corpus and embedding index state
//   - rebuild_index: load the index, or recompute it when stale or forced
//
// # Protocol Overview
//
// MCP is a JSON-RPC 2.0 protocol over stdio transport:
//
//	Client → Server: {"method": "tools/call", "params": {...}}
//	Server → Client: {"result": {...}}
//
// The server is started with:
//
//	coderag serve
//
// Logs go to stderr; stdout carries protocol messages only.
//
// # Tool: search_code
//
//	Request:
//	{
//	  "name": "search_code",
//	  "arguments": {
//	    "query": "grep: Tokenize",
//	    "mode": "lexical",
//	    "limit": 3
//	  }
//	}
//
//	Response:
//	{
//	  "query": "Tokenize",
//	  "mode": "lexical",
//	  "count": 1,
//	  "results": [
//	    {
//	      "rank": 1,
//	      "id": 12,
//	      "title": "Function Tokenize in lexer/lexer.go",
//	      "path": "lexer/lexer.go",
//	      "occurrences": 4,
//	      "content": "func Tokenize(src string) []Token { ... }"
//	    }
//	  ]
//	}
//
// Semantic results carry "score" (cosine similarity) instead of
// "occurrences". A lexical request whose query lacks the grep: prefix is
// answered semantically.
//
// # Tool: build_prompt
//
// Searches with limit 1 and renders the top fragment with the configured
// template. "question" replaces the query in the prompt, which is how a
// keyword lookup is followed by a real question.
//
// # Error Handling
//
// Handler errors are *MCPError values:
//   - ErrorCodeInvalidParams (-32602): bad mode or limit
//   - ErrorCodeEmptyQuery (-32004): blank query or blank grep: keyword
//   - ErrorCodeIndexingInProgress (-32002): a rebuild is already running
//   - ErrorCodeEmbeddingUnavailable (-32005): the embedding backend failed
//   - ErrorCodeCacheMismatch (-32006): cached vectors do not fit the model
//   - ErrorCodeInternalError (-32603): anything else
//
// A query with no matches is not an error; it returns an empty result list.
package mcp
