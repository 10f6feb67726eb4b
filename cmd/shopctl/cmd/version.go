package cmd

import (
	"github.com/spf13/cobra"

	"github.com/shopease/shopease/internal/shopctl"
)

func versionCmd(app *shopctl.App) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "version",
		Short: "Print client version information",
		Args:  cobra.ExactArgs(0),
		// Printing the version needs no configuration.
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return nil
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			return app.Version()
		},
	}
	return cmd
}
