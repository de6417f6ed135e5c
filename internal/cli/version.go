package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/dshills/coderag/internal/storage"
)

// BuildInfo is stamped into the binary at link time
type BuildInfo struct {
	Version   string
	BuildTime string
}

func newVersionCmd(info BuildInfo) *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Display version and build configuration",
		Args:  cobra.NoArgs,
		// no config needed
		PersistentPreRunE: func(*cobra.Command, []string) error { return nil },
		RunE: func(cmd *cobra.Command, _ []string) error {
			fmt.Fprintf(cmd.OutOrStdout(), "coderag\nVersion: %s\nBuild Time: %s\nBuild Mode: %s\nSQLite Driver: %s\n",
				info.Version, info.BuildTime, storage.BuildMode, storage.DriverName)
			return nil
		},
	}
}
