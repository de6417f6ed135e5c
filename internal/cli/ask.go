package cli

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/cobra"
)

type askCommander struct {
	mode     string
	question string
	dryRun   bool
}

const askLongDesc string = `Answer a question with a language model grounded on the corpus.

The best matching fragment is rendered into a prompt and sent to the
configured completion provider (YandexGPT by default, or any OpenAI
compatible endpoint). The credential is read from the environment
variable named by completion.api_key_env.

In lexical mode the query locates the fragment and --question is what
the model is asked.

Example:
  coderag ask "how does the retry backoff work"
  coderag ask --mode lexical "grep: retryWithBackoff" --question "Which errors are retried?"
  coderag ask "how is the cache keyed" --dry-run`

func newAskCmd(a *app) *cobra.Command {
	cmder := &askCommander{}

	cmd := &cobra.Command{
		Use:   "ask <query>",
		Short: "Retrieve a fragment and ask a language model about it",
		Long:  askLongDesc,
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return cmder.run(cmd, a, strings.Join(args, " "))
		},
	}

	cmd.Flags().StringVarP(&cmder.mode, "mode", "m", "semantic", "Retrieval mode: semantic or lexical")
	cmd.Flags().StringVarP(&cmder.question, "question", "q", "", "Question for the model (default: the query)")
	cmd.Flags().BoolVar(&cmder.dryRun, "dry-run", false, "Print the prompt instead of calling the model")

	return cmd
}

func (c *askCommander) run(cmd *cobra.Command, a *app, raw string) error {
	// resolve the credential before doing any retrieval work
	var token string
	if !c.dryRun {
		var err error
		if token, err = a.completionToken(); err != nil {
			return err
		}
	}

	text, result, err := buildPrompt(cmd, a, raw, c.mode, c.question)
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	if c.dryRun {
		fmt.Fprintln(out, text)
		return nil
	}

	client, err := a.completionClient()
	if err != nil {
		return err
	}

	start := time.Now()
	answer, err := client.Complete(cmd.Context(), text, token)
	if err != nil {
		return err
	}
	a.log.Debug("completion",
		"provider", a.cfg.Completion.Provider,
		"model", a.cfg.Completion.Model,
		"duration", time.Since(start))

	fmt.Fprintf(out, "%s %s\n\n",
		dimStyle.Render("Based on"),
		pathStyle.Render(fmt.Sprintf("%s (%s)", result.Fragment.Title, result.Fragment.DisplayPath())))
	fmt.Fprintln(out, answer)
	return nil
}
