package main

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"leasebill/internal/infrastructure/storage/postgres"
	"leasebill/pkg/logger"
)

func migrateCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "migrate",
		Short: "Apply pending schema migrations",
		RunE: func(cmd *cobra.Command, args []string) error {
			dryRun, _ := cmd.Flags().GetBool("dry-run")
			down, _ := cmd.Flags().GetBool("down")

			ctx, err := cliContext(cmd)
			if err != nil {
				return err
			}
			pool, err := openPool(cmd)
			if err != nil {
				return err
			}
			defer pool.Close()

			switch {
			case dryRun:
				return postgres.MigrationStatus(ctx, pool)
			case down:
				return postgres.MigrateDown(ctx, pool)
			}

			applied, err := postgres.Migrate(ctx, pool)
			if err != nil {
				return err
			}
			if applied == 0 {
				fmt.Fprintln(cmd.OutOrStdout(), "No pending migrations.")
				return nil
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Applied %d migration(s).\n", applied)
			return nil
		},
	}
	cmd.Flags().Bool("dry-run", false, "show applied and pending migrations without changing the schema")
	cmd.Flags().Bool("down", false, "roll back the most recent migration")
	cmd.MarkFlagsMutuallyExclusive("dry-run", "down")
	return cmd
}

// cliContext carries a console logger so migration output reaches the terminal.
func cliContext(cmd *cobra.Command) (context.Context, error) {
	log, err := logger.New(logger.Config{Level: "info", Development: true})
	if err != nil {
		return nil, fmt.Errorf("init logger: %w", err)
	}
	return logger.WithLogger(cmd.Context(), log), nil
}

func openPool(cmd *cobra.Command) (*postgres.Pool, error) {
	dsn, _ := cmd.Flags().GetString("database-url")
	if dsn == "" {
		dsn = envOr("DATABASE_URL", "")
	}
	if dsn == "" {
		return nil, fmt.Errorf("DATABASE_URL is required")
	}
	return postgres.NewPool(cmd.Context(), postgres.DefaultPoolConfig(dsn))
}
