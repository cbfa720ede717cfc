package main

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/cimillas/shelfkeeper/migrations"
)

func newMigrateCommand(opts *rootOptions) *cobra.Command {
	var statusOnly bool

	cmd := &cobra.Command{
		Use:   "migrate",
		Short: "Apply pending database migrations",
		RunE: func(cmd *cobra.Command, _ []string) error {
			pool, err := openPool(cmd.Context(), opts.cfg.Database)
			if err != nil {
				return err
			}
			defer pool.Close()

			ctx, cancel := context.WithTimeout(cmd.Context(), opts.cfg.Database.StartupTimeout)
			defer cancel()

			if statusOnly {
				pending, err := migrations.Pending(ctx, pool)
				if err != nil {
					return fmt.Errorf("migration status: %w", err)
				}
				out := cmd.OutOrStdout()
				if len(pending) == 0 {
					fmt.Fprintln(out, "schema is up to date")
					return nil
				}
				for _, name := range pending {
					fmt.Fprintf(out, "pending %s\n", name)
				}
				return nil
			}

			applied, err := migrations.Apply(ctx, pool)
			if err != nil {
				return fmt.Errorf("apply migrations: %w", err)
			}
			opts.logger.Info("migrations applied", zap.Int("count", len(applied)), zap.Strings("names", applied))
			return nil
		},
	}
	cmd.Flags().BoolVar(&statusOnly, "status", false, "list pending migrations without applying them")
	return cmd
}
