// Package cmd defines and implements the CLI commands for the scout
// executable.
package cmd

import (
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"

	"github.com/substackscout/substackscout/internal/logging"
	"github.com/substackscout/substackscout/pkg/config"
)

var (
	cfgFile string
	logger  *zap.Logger
)

// newRootCmd creates and configures the root command.
func newRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "scout",
		Short: "Discovers and filters creator profiles from leaderboard pages.",
		Long: `scout crawls leaderboard pages with a headless browser, extracts each
listed creator profile (subscriber count, outbound social links), filters by
configurable thresholds, and appends accepted records to a durable CSV that
survives crashes and restarts without losing or duplicating work.`,

		// Rebuild the logger once the config is loaded so the
		// development flag takes effect for subcommands.
		PersistentPreRunE: func(_ *cobra.Command, _ []string) error {
			if viper.GetBool("logging.development") {
				dev, err := logging.New(true)
				if err != nil {
					return err
				}
				logger = dev
			}
			return nil
		},
	}

	cobra.OnInitialize(func() { config.InitConfig(cfgFile, logger) })

	cmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default is ./config.yaml)")

	cmd.AddCommand(newCrawlCmd())
	cmd.AddCommand(newServeCmd())
	cmd.AddCommand(newExtractCmd())

	return cmd
}

// Execute is the main entry point.
func Execute() {
	base, err := logging.New(false)
	if err != nil {
		panic(err)
	}
	logger = base
	defer func() { _ = logger.Sync() }()

	if err := newRootCmd().Execute(); err != nil {
		logger.Fatal("Command execution failed", zap.Error(err))
	}
}
