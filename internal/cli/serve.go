package cli

import (
	"context"
	"errors"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/dshills/coderag/internal/mcp"
)

const serveLongDesc string = `Run the MCP server on stdio.

The server exposes search_code, build_prompt, get_status and
rebuild_index to MCP clients. The embedding index is loaded on the first
semantic query. Logs go to stderr; stdout carries protocol messages.`

func newServeCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the MCP server on stdio",
		Long:  serveLongDesc,
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			s, closeFn, err := a.openSearcher()
			if err != nil {
				return err
			}
			defer closeFn()

			tmpl, err := a.template()
			if err != nil {
				return err
			}

			server, err := mcp.NewServer(s, mcp.Options{
				Limit:    a.cfg.TopK,
				Template: tmpl,
				Logger:   a.log,
			})
			if err != nil {
				return err
			}

			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()

			if err := server.Serve(ctx); err != nil && !errors.Is(err, context.Canceled) {
				return err
			}
			a.log.Info("server stopped")
			return nil
		},
	}
}
