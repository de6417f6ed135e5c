package cli

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/dshills/coderag/internal/searcher"
)

type searchCommander struct {
	mode   string
	topK   int
	asJSON bool
}

const searchLongDesc string = `Search the corpus.

In semantic mode (the default) fragments are ranked by cosine similarity
between the query and the fragment embeddings. In lexical mode a query
of the form "grep: <keyword>" ranks fragments by how often the keyword
occurs in their content, case-insensitively; any other query falls back
to semantic retrieval.

Example:
  coderag search "how are config files loaded"
  coderag search --mode lexical "grep: yaml.Unmarshal" -k 5
  coderag search "retry policy" --json`

func newSearchCmd(a *app) *cobra.Command {
	cmder := &searchCommander{}

	cmd := &cobra.Command{
		Use:   "search <query>",
		Short: "Retrieve the fragments that best answer a query",
		Long:  searchLongDesc,
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if !cmd.Flags().Changed("top") {
				cmder.topK = a.cfg.TopK
			}
			return cmder.run(cmd, a, strings.Join(args, " "))
		},
	}

	cmd.Flags().StringVarP(&cmder.mode, "mode", "m", "semantic", "Retrieval mode: semantic or lexical")
	cmd.Flags().IntVarP(&cmder.topK, "top", "k", 0, "Number of results to return (default: top_k from config)")
	cmd.Flags().BoolVar(&cmder.asJSON, "json", false, "Print results as JSON")

	return cmd
}

func (c *searchCommander) run(cmd *cobra.Command, a *app, raw string) error {
	q, err := parseQuery(raw, c.mode)
	if err != nil {
		return err
	}

	s, closeFn, err := a.openSearcher()
	if err != nil {
		return err
	}
	defer closeFn()

	results, err := s.Search(cmd.Context(), q, c.topK)
	if err != nil {
		return err
	}

	if c.asJSON {
		enc := json.NewEncoder(cmd.OutOrStdout())
		enc.SetIndent("", "  ")
		return enc.Encode(results)
	}

	printResults(cmd.OutOrStdout(), q.Text, results)
	return nil
}

func parseQuery(raw, mode string) (searcher.Query, error) {
	m, err := searcher.ParseMode(mode)
	if err != nil {
		return searcher.Query{}, err
	}
	q, err := searcher.ParseQuery(raw, m)
	if err != nil {
		return searcher.Query{}, fmt.Errorf("%q: %w", raw, err)
	}
	return q, nil
}
