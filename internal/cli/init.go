package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/dshills/coderag/internal/config"
)

type initCommander struct {
	path  string
	user  bool
	force bool
}

const initLongDesc string = `Write a config file populated with the effective settings.

By default the file is ./coderag.yaml; --user writes
~/.config/coderag/config.yaml instead. Existing files are kept unless
--force is given.`

func newInitCmd(a *app) *cobra.Command {
	cmder := &initCommander{}

	cmd := &cobra.Command{
		Use:   "init",
		Short: "Write a coderag config file",
		Long:  initLongDesc,
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			path := cmder.path
			if cmder.user {
				p, err := config.UserConfigPath()
				if err != nil {
					return err
				}
				path = p
			}

			if fileExists(path) && !cmder.force {
				return fmt.Errorf("%s already exists (use --force to overwrite)", path)
			}
			if err := config.Save(path, a.cfg); err != nil {
				return fmt.Errorf("writing config: %w", err)
			}

			fmt.Fprintf(cmd.OutOrStdout(), "%s %s\n", headerStyle.Render("Config written:"), pathStyle.Render(path))
			return nil
		},
	}

	cmd.Flags().StringVarP(&cmder.path, "path", "p", config.DefaultFileName, "Config file to write")
	cmd.Flags().BoolVar(&cmder.user, "user", false, "Write the per-user config file")
	cmd.Flags().BoolVarP(&cmder.force, "force", "f", false, "Overwrite an existing file")

	return cmd
}
