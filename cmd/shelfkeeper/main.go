package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/cimillas/shelfkeeper/internal/config"
	"github.com/cimillas/shelfkeeper/internal/observability"
)

type rootOptions struct {
	configPath string

	cfg    config.Config
	logger *zap.Logger
}

func main() {
	if err := newRootCommand().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func newRootCommand() *cobra.Command {
	opts := &rootOptions{}

	root := &cobra.Command{
		Use:           "shelfkeeper",
		Short:         "Library loan ledger service",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			envPath, envErr := config.LoadDotEnv()

			cfg, err := config.Load(opts.configPath)
			if err != nil {
				return err
			}
			logger, err := observability.NewLogger(cfg.Log.Level, cfg.Log.Format)
			if err != nil {
				return err
			}
			switch {
			case envErr != nil:
				logger.Warn("failed to load .env", zap.Error(envErr))
			case envPath != "":
				logger.Info("loaded env file", zap.String("path", envPath))
			}

			opts.cfg = cfg
			opts.logger = logger
			return nil
		},
		PersistentPostRun: func(*cobra.Command, []string) {
			if opts.logger != nil {
				_ = opts.logger.Sync()
			}
		},
	}
	root.PersistentFlags().StringVar(&opts.configPath, "config", "",
		"path to the TOML config file (default ./"+config.DefaultConfigFile+" when present)")

	root.AddCommand(newServeCommand(opts), newMigrateCommand(opts))
	return root
}
