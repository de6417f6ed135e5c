package cli

import (
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/dshills/coderag/internal/searcher"
	"github.com/dshills/coderag/pkg/types"
)

// errNoFragment is returned when a prompt is requested but nothing matched
var errNoFragment = errors.New("no fragment matched the query")

type promptCommander struct {
	mode     string
	question string
}

const promptLongDesc string = `Render the prompt for a query without calling a model.

The best matching fragment is placed in the prompt with its path, its
code (trimmed to max_prompt_lines) and the question. --question replaces
the query in the prompt, so a keyword lookup can be followed by a real
question.

Example:
  coderag prompt "how is the cache invalidated"
  coderag prompt --mode lexical "grep: Invalidate" --question "When is the cache purged?"`

func newPromptCmd(a *app) *cobra.Command {
	cmder := &promptCommander{}

	cmd := &cobra.Command{
		Use:   "prompt <query>",
		Short: "Print the prompt built from the best matching fragment",
		Long:  promptLongDesc,
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			text, _, err := buildPrompt(cmd, a, strings.Join(args, " "), cmder.mode, cmder.question)
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), text)
			return nil
		},
	}

	cmd.Flags().StringVarP(&cmder.mode, "mode", "m", "semantic", "Retrieval mode: semantic or lexical")
	cmd.Flags().StringVarP(&cmder.question, "question", "q", "", "Question to place in the prompt (default: the query)")

	return cmd
}

// buildPrompt retrieves the best fragment for raw and renders it
func buildPrompt(cmd *cobra.Command, a *app, raw, mode, question string) (string, types.SearchResult, error) {
	q, err := parseQuery(raw, mode)
	if err != nil {
		return "", types.SearchResult{}, err
	}

	tmpl, err := a.template()
	if err != nil {
		return "", types.SearchResult{}, err
	}

	s, closeFn, err := a.openSearcher()
	if err != nil {
		return "", types.SearchResult{}, err
	}
	defer closeFn()

	results, err := s.Search(cmd.Context(), q, 1)
	if err != nil {
		return "", types.SearchResult{}, err
	}
	if len(results) == 0 {
		return "", types.SearchResult{}, fmt.Errorf("%w: %s", errNoFragment, q)
	}

	return tmpl.Render(results[0].Fragment, promptQuestion(q, raw, question)), results[0], nil
}

// promptQuestion picks the question placed in the prompt. An explicit
// question wins; a keyword lookup otherwise falls back to the raw input.
func promptQuestion(q searcher.Query, raw, question string) string {
	if question = strings.TrimSpace(question); question != "" {
		return question
	}
	if q.Mode == searcher.ModeLexical {
		return strings.TrimSpace(raw)
	}
	return q.Text
}
