package mcp

import (
	"github.com/mark3labs/mcp-go/mcp"
)

var modeProperty = map[string]interface{}{
	"type": "string",
	"description": "Retrieval mode: semantic (embedding similarity) or lexical. " +
		"In lexical mode a query starting with \"grep:\" counts keyword occurrences; " +
		"any other query falls back to semantic retrieval.",
	"enum":    []string{"semantic", "lexical"},
	"default": "semantic",
}

// searchCodeTool returns the tool definition for search_code
func searchCodeTool(defaultLimit int) mcp.Tool {
	return mcp.Tool{
		Name:        "search_code",
		Description: "Retrieve the code fragments that best answer a question or contain a keyword",
		InputSchema: mcp.ToolInputSchema{
			Type: "object",
			Properties: map[string]interface{}{
				"query": map[string]interface{}{
					"type":        "string",
					"description": "Natural language question, or grep:<keyword> in lexical mode",
				},
				"mode": modeProperty,
				"limit": map[string]interface{}{
					"type":        "integer",
					"description": "Maximum number of fragments to return",
					"default":     defaultLimit,
					"minimum":     1,
					"maximum":     MaxLimit,
				},
			},
			Required: []string{"query"},
		},
	}
}

// buildPromptTool returns the tool definition for build_prompt
func buildPromptTool() mcp.Tool {
	return mcp.Tool{
		Name:        "build_prompt",
		Description: "Retrieve the best fragment for a query and render it into a prompt for a language model",
		InputSchema: mcp.ToolInputSchema{
			Type: "object",
			Properties: map[string]interface{}{
				"query": map[string]interface{}{
					"type":        "string",
					"description": "Natural language question, or grep:<keyword> in lexical mode",
				},
				"question": map[string]interface{}{
					"type":        "string",
					"description": "Question placed in the prompt; defaults to the query",
				},
				"mode": modeProperty,
			},
			Required: []string{"query"},
		},
	}
}

// getStatusTool returns the tool definition for get_status
func getStatusTool() mcp.Tool {
	return mcp.Tool{
		Name:        "get_status",
		Description: "Report corpus size, fingerprint and the state of the embedding index",
		InputSchema: mcp.ToolInputSchema{
			Type:       "object",
			Properties: map[string]interface{}{},
		},
	}
}

// rebuildIndexTool returns the tool definition for rebuild_index
func rebuildIndexTool() mcp.Tool {
	return mcp.Tool{
		Name:        "rebuild_index",
		Description: "Load or rebuild the embedding index for the current corpus",
		InputSchema: mcp.ToolInputSchema{
			Type: "object",
			Properties: map[string]interface{}{
				"force": map[string]interface{}{
					"type":        "boolean",
					"description": "If true, recompute every vector ignoring the cache artifact; otherwise only a stale index is rebuilt",
					"default":     false,
				},
			},
		},
	}
}
