package cli

import (
	"github.com/spf13/cobra"
)

type indexCommander struct {
	force bool
}

const indexLongDesc string = `Build or load the embedding cache for the corpus.

Without --force an existing cache is reused, even one built from an older
corpus (a warning is logged; set rebuild_on_stale to rebuild instead). A
cache built with a different model or for a different number of
fragments is always rebuilt. --force recomputes every vector.

Example:
  coderag index
  coderag index --force`

func newIndexCmd(a *app) *cobra.Command {
	cmder := &indexCommander{}

	cmd := &cobra.Command{
		Use:   "index",
		Short: "Build or refresh the embedding cache",
		Long:  indexLongDesc,
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			s, closeFn, err := a.openSearcher()
			if err != nil {
				return err
			}
			defer closeFn()

			if cmder.force {
				_, err = s.Rebuild(cmd.Context())
			} else {
				_, err = s.Warm(cmd.Context())
			}
			if err != nil {
				return err
			}

			printStatus(cmd.OutOrStdout(), s.Status())
			return nil
		},
	}

	cmd.Flags().BoolVarP(&cmder.force, "force", "f", false, "Ignore the existing cache and recompute every vector")

	return cmd
}
