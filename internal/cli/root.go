// Package cli implements the coderag command tree.
package cli

import (
	"github.com/spf13/cobra"
)

const rootLongDesc string = `coderag retrieves the code fragments that best answer a question
and assembles them into prompts for a language model.

A corpus is a JSON Lines file of fragments. Build one from a Go tree with
"coderag extract", then query it:
  coderag search "how are tokens parsed"     Semantic retrieval
  coderag search --mode lexical "grep: Lex"  Keyword occurrence count
  coderag ask "how are tokens parsed"        Retrieve, prompt and answer
  coderag serve                              Expose retrieval over MCP`

const rootShortDesc string = "coderag - code fragment retrieval for LLM prompts"

// NewRootCmd builds the command tree
func NewRootCmd(info BuildInfo) *cobra.Command {
	return newRootCmd(newApp(), info)
}

func newRootCmd(a *app, info BuildInfo) *cobra.Command {
	cmd := &cobra.Command{
		Use:           "coderag",
		Short:         rootShortDesc,
		Long:          rootLongDesc,
		Version:       info.Version,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			return a.load(cmd)
		},
	}

	// Global flags
	cmd.PersistentFlags().StringVarP(&a.configPath, "config", "c", "", "Path to YAML config file (default ./coderag.yaml or ~/.config/coderag/config.yaml)")
	cmd.PersistentFlags().StringVar(&a.corpusPath, "corpus", "", "Corpus file (JSON Lines)")
	cmd.PersistentFlags().StringVar(&a.cachePath, "cache", "", "Embedding cache file")
	cmd.PersistentFlags().BoolVarP(&a.debug, "debug", "d", false, "Enable debug logging")
	cmd.PersistentFlags().BoolVar(&a.logJSON, "log-json", false, "Write logs as JSON")

	cmd.AddCommand(
		newExtractCmd(a),
		newIndexCmd(a),
		newSearchCmd(a),
		newPromptCmd(a),
		newAskCmd(a),
		newStatusCmd(a),
		newServeCmd(a),
		newInitCmd(a),
		newVersionCmd(info),
	)

	return cmd
}
