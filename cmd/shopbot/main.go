// Command shopbot runs the Telegram storefront bot.
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/m3rciful/shopbot/core/buildinfo"
	corecmd "github.com/m3rciful/shopbot/core/cmd"
	coredatabase "github.com/m3rciful/shopbot/core/database"
	"github.com/m3rciful/shopbot/core/logger"
	"github.com/m3rciful/shopbot/migrations"
	"github.com/m3rciful/shopbot/shop/bot"
)

const (
	configEnvVar      = "CONFIG_PATH"
	defaultConfigPath = "config.yaml"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	var configPath string

	run := func(*cobra.Command, []string) error {
		return corecmd.Run(corecmd.Options{
			ConfigEnvVar:      configEnvVar,
			DefaultConfigPath: defaultConfigPath,
			ConfigPath:        configPath,
			LoadConfig: func(path string) (corecmd.ConfigCarrier, error) {
				return bot.LoadConfig(path)
			},
			Bootstrap: bot.Bootstrap,
		})
	}

	root := &cobra.Command{
		Use:           "shopbot",
		Short:         "Telegram storefront bot",
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE:          run,
	}
	root.PersistentFlags().StringVarP(&configPath, "config", "c", "",
		"path to the YAML config (default $"+configEnvVar+" or "+defaultConfigPath+")")

	root.AddCommand(
		&cobra.Command{
			Use:   "run",
			Short: "Start the bot (default)",
			Args:  cobra.NoArgs,
			RunE:  run,
		},
		&cobra.Command{
			Use:   "migrate",
			Short: "Apply pending database migrations and exit",
			Args:  cobra.NoArgs,
			RunE: func(*cobra.Command, []string) error {
				return migrate(configPath)
			},
		},
		&cobra.Command{
			Use:   "version",
			Short: "Print build information",
			Args:  cobra.NoArgs,
			Run: func(cmd *cobra.Command, _ []string) {
				cmd.Println(buildinfo.String())
			},
		},
	)
	return root
}

func migrate(flagPath string) error {
	path, _ := corecmd.ResolveConfigPath(corecmd.Options{
		ConfigEnvVar:      configEnvVar,
		DefaultConfigPath: defaultConfigPath,
		ConfigPath:        flagPath,
	})
	cfg, err := bot.LoadMigrateConfig(path)
	if err != nil {
		return fmt.Errorf("migrate: %w", err)
	}
	if err := logger.InitLogger(&cfg.Config); err != nil {
		return fmt.Errorf("migrate: %w", err)
	}
	defer func() { _ = logger.Shutdown() }()
	return coredatabase.RunMigrations(cfg.Database, migrations.FS)
}
