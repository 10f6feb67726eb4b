package cmd

import (
	"github.com/spf13/cobra"

	"github.com/shopease/shopease/internal/shopctl"
)

func usersCmd(app *shopctl.App) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "users",
		Short: "Register users and check credentials",
	}
	cmd.AddCommand(
		usersRegisterCmd(app),
		usersLoginCmd(app),
	)
	return cmd
}

func usersRegisterCmd(app *shopctl.App) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "register",
		Short: "Create a user",
		Args:  cobra.ExactArgs(0),
		RunE: func(cmd *cobra.Command, args []string) error {
			username, _ := cmd.Flags().GetString("username")
			email, _ := cmd.Flags().GetString("email")
			password, _ := cmd.Flags().GetString("password")
			return app.Register(cmd.Context(), username, email, password)
		},
	}
	cmd.Flags().String("username", "", "3-50 letters, digits or underscores")
	cmd.Flags().String("email", "", "Email address")
	cmd.Flags().String("password", "", "At least 6 characters")
	for _, flag := range []string{"username", "email", "password"} {
		_ = cmd.MarkFlagRequired(flag)
	}
	return cmd
}

func usersLoginCmd(app *shopctl.App) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "login",
		Short: "Check credentials and list the user's orders",
		Args:  cobra.ExactArgs(0),
		RunE: func(cmd *cobra.Command, args []string) error {
			username, _ := cmd.Flags().GetString("username")
			password, _ := cmd.Flags().GetString("password")
			return app.Login(cmd.Context(), username, password)
		},
	}
	cmd.Flags().String("username", "", "Username")
	cmd.Flags().String("password", "", "Password")
	for _, flag := range []string{"username", "password"} {
		_ = cmd.MarkFlagRequired(flag)
	}
	return cmd
}
