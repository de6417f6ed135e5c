package mcp

import (
	"context"
	"fmt"
	"log/slog"
	"os"

	"github.com/mark3labs/mcp-go/server"

	"github.com/dshills/coderag/internal/logger"
	"github.com/dshills/coderag/internal/prompt"
	"github.com/dshills/coderag/internal/searcher"
)

const (
	// ServerName is the MCP server name
	ServerName = "coderag"
	// ServerVersion is the current server version
	ServerVersion = "1.0.0"
	// DefaultLimit is the number of results returned when the caller gives no limit
	DefaultLimit = 3
	// MaxLimit bounds the limit parameter of search_code
	MaxLimit = 100
)

// Options configures the tool handlers
type Options struct {
	// Limit is the default result count of search_code
	Limit int
	// Template renders build_prompt output
	Template prompt.Template
	Logger   *slog.Logger
}

// Server wraps the MCP server with application dependencies
type Server struct {
	mcp      *server.MCPServer
	searcher *searcher.Searcher
	template prompt.Template
	limit    int
	log      *slog.Logger
}

// NewServer creates a server answering tool calls from s
func NewServer(s *searcher.Searcher, opts Options) (*Server, error) {
	if s == nil {
		return nil, fmt.Errorf("searcher is required")
	}
	if opts.Limit <= 0 {
		opts.Limit = DefaultLimit
	}
	if opts.Template.Code == "" {
		opts.Template = prompt.English
	}

	srv := &Server{
		mcp:      server.NewMCPServer(ServerName, ServerVersion, server.WithToolCapabilities(false)),
		searcher: s,
		template: opts.Template,
		limit:    min(opts.Limit, MaxLimit),
		log:      logger.OrNop(opts.Logger),
	}

	srv.registerTools()
	return srv, nil
}

// Serve runs the MCP protocol on stdio until ctx is cancelled or stdin closes
func (s *Server) Serve(ctx context.Context) error {
	s.log.Info("mcp server listening on stdio", "name", ServerName, "version", ServerVersion)
	stdio := server.NewStdioServer(s.mcp)
	return stdio.Listen(ctx, os.Stdin, os.Stdout)
}

func (s *Server) registerTools() {
	s.mcp.AddTool(searchCodeTool(s.limit), s.handleSearchCode)
	s.mcp.AddTool(buildPromptTool(), s.handleBuildPrompt)
	s.mcp.AddTool(getStatusTool(), s.handleGetStatus)
	s.mcp.AddTool(rebuildIndexTool(), s.handleRebuildIndex)
}
