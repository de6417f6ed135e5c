package mcp

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/mark3labs/mcp-go/mcp"

	"github.com/dshills/coderag/internal/index"
	"github.com/dshills/coderag/internal/searcher"
	"github.com/dshills/coderag/pkg/types"
)

// MCP error codes
const (
	ErrorCodeInvalidParams        = -32602 // Invalid method parameters
	ErrorCodeInternalError        = -32603 // Internal JSON-RPC error
	ErrorCodeIndexingInProgress   = -32002 // Another index build is already running
	ErrorCodeEmptyQuery           = -32004 // Query parameter is empty
	ErrorCodeEmbeddingUnavailable = -32005 // Embedding backend failed
	ErrorCodeCacheMismatch        = -32006 // Embedding cache does not fit the corpus
)

// handleSearchCode handles the search_code tool invocation
func (s *Server) handleSearchCode(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args, err := arguments(request)
	if err != nil {
		return nil, err
	}

	q, err := parseQuery(args)
	if err != nil {
		return nil, err
	}

	limit := getIntDefault(args, "limit", s.limit)
	if limit < 1 || limit > MaxLimit {
		return nil, newMCPError(ErrorCodeInvalidParams, fmt.Sprintf("limit must be between 1 and %d", MaxLimit), map[string]interface{}{
			"param": "limit",
			"value": limit,
		})
	}

	results, err := s.searcher.Search(ctx, q, limit)
	if err != nil {
		return nil, s.toolError("search failed", err)
	}

	items := make([]map[string]interface{}, len(results))
	for i, r := range results {
		items[i] = resultJSON(r)
	}

	return mcp.NewToolResultText(formatJSON(map[string]interface{}{
		"query":   q.Text,
		"mode":    string(q.Mode),
		"count":   len(results),
		"results": items,
	})), nil
}

// handleBuildPrompt handles the build_prompt tool invocation
func (s *Server) handleBuildPrompt(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args, err := arguments(request)
	if err != nil {
		return nil, err
	}

	q, err := parseQuery(args)
	if err != nil {
		return nil, err
	}

	results, err := s.searcher.Search(ctx, q, 1)
	if err != nil {
		return nil, s.toolError("search failed", err)
	}

	question := strings.TrimSpace(getStringDefault(args, "question", ""))
	if question == "" {
		question = strings.TrimSpace(getStringDefault(args, "query", ""))
	}

	if len(results) == 0 {
		return mcp.NewToolResultText(formatJSON(map[string]interface{}{
			"found":   false,
			"query":   q.Text,
			"mode":    string(q.Mode),
			"message": "No fragment matched the query.",
		})), nil
	}

	return mcp.NewToolResultText(formatJSON(map[string]interface{}{
		"found":    true,
		"query":    q.Text,
		"mode":     string(q.Mode),
		"fragment": resultJSON(results[0]),
		"prompt":   s.template.Render(results[0].Fragment, question),
	})), nil
}

// handleGetStatus handles the get_status tool invocation
func (s *Server) handleGetStatus(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	return mcp.NewToolResultText(formatJSON(statusJSON(s.searcher.Status()))), nil
}

// handleRebuildIndex handles the rebuild_index tool invocation
func (s *Server) handleRebuildIndex(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args, err := arguments(request)
	if err != nil {
		return nil, err
	}
	force := getBoolDefault(args, "force", false)

	start := time.Now()
	rebuilt := force
	if force {
		_, err = s.searcher.Rebuild(ctx)
	} else {
		var idx *index.EmbeddingIndex
		idx, err = s.searcher.Warm(ctx)
		if err == nil && idx.Stale() {
			rebuilt = true
			_, err = s.searcher.Rebuild(ctx)
		}
	}
	if err != nil {
		return nil, s.toolError("index build failed", err)
	}

	s.log.Info("rebuild_index", "force", force, "rebuilt", rebuilt, "duration", time.Since(start))

	response := statusJSON(s.searcher.Status())
	response["rebuilt"] = rebuilt
	response["duration_ms"] = time.Since(start).Milliseconds()
	return mcp.NewToolResultText(formatJSON(response)), nil
}

// Helper functions

func arguments(request mcp.CallToolRequest) (map[string]interface{}, error) {
	if request.Params.Arguments == nil {
		return map[string]interface{}{}, nil
	}
	args, ok := request.Params.Arguments.(map[string]interface{})
	if !ok {
		return nil, newMCPError(ErrorCodeInvalidParams, "invalid arguments", nil)
	}
	return args, nil
}

func parseQuery(args map[string]interface{}) (searcher.Query, error) {
	raw, _ := args["query"].(string)

	mode, err := searcher.ParseMode(getStringDefault(args, "mode", string(searcher.ModeSemantic)))
	if err != nil {
		return searcher.Query{}, newMCPError(ErrorCodeInvalidParams, "invalid mode", map[string]interface{}{
			"param":   "mode",
			"value":   args["mode"],
			"allowed": []string{string(searcher.ModeSemantic), string(searcher.ModeLexical)},
		})
	}

	q, err := searcher.ParseQuery(raw, mode)
	if err != nil {
		return searcher.Query{}, newMCPError(ErrorCodeEmptyQuery, "query parameter is required and cannot be empty", map[string]interface{}{
			"param":  "query",
			"reason": "missing or empty",
		})
	}
	return q, nil
}

// toolError maps a retrieval failure to an MCP error code
func (s *Server) toolError(message string, err error) error {
	code := ErrorCodeInternalError
	switch {
	case errors.Is(err, types.ErrEmptyQuery):
		code = ErrorCodeEmptyQuery
	case errors.Is(err, index.ErrBuildInProgress):
		code = ErrorCodeIndexingInProgress
	case errors.Is(err, types.ErrCacheMismatch):
		code = ErrorCodeCacheMismatch
	case errors.Is(err, types.ErrEmbeddingBackend):
		code = ErrorCodeEmbeddingUnavailable
	}
	s.log.Error(message, "error", err, "code", code)
	return newMCPError(code, message, map[string]interface{}{
		"error": err.Error(),
	})
}

func resultJSON(r types.SearchResult) map[string]interface{} {
	item := map[string]interface{}{
		"rank":    r.Rank,
		"id":      r.Fragment.ID,
		"title":   r.Fragment.Title,
		"path":    r.Fragment.Path,
		"content": r.Fragment.Content,
	}
	if r.HasScore() {
		item["score"] = *r.Score
	} else {
		item["occurrences"] = r.Occurrences
	}
	return item
}

func statusJSON(st searcher.Status) map[string]interface{} {
	response := map[string]interface{}{
		"corpus": map[string]interface{}{
			"fragments":   st.Fragments,
			"fingerprint": st.Fingerprint,
		},
		"cache_path":     st.CachePath,
		"index_loaded":   st.IndexLoaded,
		"cached_queries": st.CachedQueries,
	}
	if st.IndexLoaded {
		response["index"] = map[string]interface{}{
			"from_cache": st.FromCache,
			"stale":      st.Stale,
			"provider":   st.Provider,
			"model":      st.Model,
			"dimension":  st.Dimension,
			"built_at":   st.BuiltAt.Format(time.RFC3339),
		}
	}
	return response
}

// newMCPError creates a properly formatted MCP error
func newMCPError(code int, message string, data interface{}) error {
	// MCP errors are returned as regular errors, the framework handles encoding
	return &MCPError{
		Code:    code,
		Message: message,
		Data:    data,
	}
}

// MCPError represents an MCP protocol error
type MCPError struct {
	Code    int
	Message string
	Data    interface{}
}

func (e *MCPError) Error() string {
	return fmt.Sprintf("MCP error %d: %s", e.Code, e.Message)
}

// formatJSON formats a map as indented JSON
func formatJSON(data map[string]interface{}) string {
	bytes, err := json.MarshalIndent(data, "", "  ")
	if err != nil {
		return fmt.Sprintf("%v", data)
	}
	return string(bytes)
}

// getBoolDefault extracts a boolean parameter with a default value
func getBoolDefault(args map[string]interface{}, key string, defaultValue bool) bool {
	if val, ok := args[key].(bool); ok {
		return val
	}
	return defaultValue
}

// getIntDefault extracts an integer parameter with a default value
func getIntDefault(args map[string]interface{}, key string, defaultValue int) int {
	if val, ok := args[key].(float64); ok {
		return int(val)
	}
	if val, ok := args[key].(int); ok {
		return val
	}
	return defaultValue
}

// getStringDefault extracts a string parameter with a default value
func getStringDefault(args map[string]interface{}, key string, defaultValue string) string {
	if val, ok := args[key].(string); ok {
		return val
	}
	return defaultValue
}
