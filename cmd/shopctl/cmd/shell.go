package cmd

import (
	"github.com/spf13/cobra"

	"github.com/shopease/shopease/internal/common/app"
	"github.com/shopease/shopease/internal/shopctl"
)

func shellCmd(a *shopctl.App) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "shell",
		Short: "Start the interactive shop",
		Long:  "Log in or register, browse and search products, manage a cart, check out and run bulk product operations from menus.",
		Args:  cobra.ExactArgs(0),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, cancel := app.ContextWithShutdown(cmd.Context())
			defer cancel()
			return a.Shell(ctx)
		},
	}
	return cmd
}
