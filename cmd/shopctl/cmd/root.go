package cmd

import (
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"

	"github.com/shopease/shopease/internal/common"
	"github.com/shopease/shopease/internal/shopctl"
)

const (
	configDirFlag    = "config"
	configFileFlag   = "config-file"
	databaseTypeFlag = "database-type"
	databasePathFlag = "database-path"
	metricsPortFlag  = "metrics-port"
)

// RootCmd is the root Cobra command that gets called from the main func.
// All other sub-commands should be registered here.
func RootCmd() *cobra.Command {
	return rootCmd(shopctl.New())
}

func rootCmd(app *shopctl.App) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "shopctl",
		Short: "shopctl runs the ShopEase shop and its bulk product tools.",
		Long: `shopctl runs the ShopEase shop and its bulk product tools.

Configuration is read from config.yaml in the directory given by --config, e.g.

databaseType: postgres
postgres:
  connection:
    host: localhost
    dbname: eshop
ingest:
  batchSize: 5000

Any value can be overridden with an environment variable such as SHOPEASE_INGEST_BATCHSIZE.`,
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return initParams(cmd.Flags(), app)
		},
	}

	cmd.PersistentFlags().String(configDirFlag, "./config", "Directory holding config.yaml")
	cmd.PersistentFlags().StringSlice(configFileFlag, []string{}, "Additional config files, merged in order over config.yaml")
	cmd.PersistentFlags().String(databaseTypeFlag, "", "Database to use: postgres or sqlite")
	cmd.PersistentFlags().String(databasePathFlag, "", "Path of the sqlite database file")
	cmd.PersistentFlags().Uint16(metricsPortFlag, 0, "Serve prometheus metrics on this port while the command runs; 0 disables")

	cmd.AddCommand(
		productsCmd(app),
		usersCmd(app),
		shellCmd(app),
		versionCmd(app),
	)
	return cmd
}

// initParams loads the configuration, applies the flags that were set and fixes invalid values.
func initParams(flags *pflag.FlagSet, app *shopctl.App) error {
	configDir, err := flags.GetString(configDirFlag)
	if err != nil {
		return err
	}
	configFiles, err := flags.GetStringSlice(configFileFlag)
	if err != nil {
		return err
	}
	config := &app.Params.Config
	common.LoadConfig(config, configDir, configFiles)

	if flags.Changed(databaseTypeFlag) {
		if config.DatabaseType, err = flags.GetString(databaseTypeFlag); err != nil {
			return err
		}
	}
	if flags.Changed(databasePathFlag) {
		if config.DatabasePath, err = flags.GetString(databasePathFlag); err != nil {
			return err
		}
	}
	if flags.Changed(metricsPortFlag) {
		if config.MetricsPort, err = flags.GetUint16(metricsPortFlag); err != nil {
			return err
		}
	}
	return shopctl.RectifyConfig(config)
}
