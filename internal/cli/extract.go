package cli

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/dshills/coderag/internal/indexer"
)

type extractCommander struct {
	output string
	cfg    indexer.Config
}

const extractLongDesc string = `Extract a corpus from a Go source tree.

Every top-level function, method and type declaration becomes one fragment
titled "<Kind> <name> in <path>", with its source (doc comment included)
as content and three paraphrase queries. Files that do not parse are
skipped and reported. Ids are numbered from 1 in path order.

Example:
  coderag extract ./myproject
  coderag extract ./myproject -o kb.jsonl --include-tests`

func newExtractCmd(a *app) *cobra.Command {
	cmder := &extractCommander{}

	cmd := &cobra.Command{
		Use:   "extract <dir>",
		Short: "Build a corpus file from a Go source tree",
		Long:  extractLongDesc,
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if !cmd.Flags().Changed("output") {
				cmder.output = a.cfg.CorpusPath
			}
			cmder.cfg.Logger = a.log
			return cmder.run(cmd, args[0])
		},
	}

	cmd.Flags().StringVarP(&cmder.output, "output", "o", "", "Corpus file to write (default: the configured corpus path)")
	cmd.Flags().BoolVar(&cmder.cfg.IncludeTests, "include-tests", false, "Extract *_test.go files")
	cmd.Flags().BoolVar(&cmder.cfg.IncludeVendor, "include-vendor", false, "Extract vendor/ directories")
	cmd.Flags().BoolVar(&cmder.cfg.SkipUnexported, "exported-only", false, "Skip unexported declarations")
	cmd.Flags().IntVar(&cmder.cfg.Workers, "workers", 0, "Files parsed concurrently (default: number of CPUs)")

	return cmd
}

func (c *extractCommander) run(cmd *cobra.Command, root string) error {
	fragments, stats, err := indexer.New(c.cfg).Extract(cmd.Context(), root, c.cfg)
	if err != nil {
		return err
	}

	if err := indexer.WriteCorpus(c.output, fragments); err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "%s %s\n",
		headerStyle.Render("Corpus written:"),
		pathStyle.Render(c.output))
	fmt.Fprintf(out, "  %d fragments from %d files (%d skipped, %d failed) in %v\n",
		stats.FragmentsCreated, stats.FilesExtracted, stats.FilesSkipped, stats.FilesFailed,
		stats.Duration.Round(time.Millisecond))
	for _, msg := range stats.ErrorMessages {
		fmt.Fprintf(out, "  %s\n", dimStyle.Render(msg))
	}
	return nil
}
