package main

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"leasebill/internal/infrastructure/storage/postgres"
	"leasebill/internal/infrastructure/storage/postgres/lease_repo"
)

func seedCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "seed",
		Short: "Create units and tenants for local environments",
		RunE: func(cmd *cobra.Command, args []string) error {
			units, _ := cmd.Flags().GetStringSlice("unit")
			tenants, _ := cmd.Flags().GetStringSlice("tenant")
			if len(units) == 0 && len(tenants) == 0 {
				return fmt.Errorf("nothing to seed: pass --unit and/or --tenant")
			}

			pool, err := openPool(cmd)
			if err != nil {
				return err
			}
			defer pool.Close()

			txManager := postgres.NewTxManager(pool)
			repo := lease_repo.NewUnitRepo(txManager)
			out := cmd.OutOrStdout()

			return txManager.RunInTransaction(cmd.Context(), func(ctx context.Context) error {
				for _, label := range units {
					unitID, err := repo.CreateUnit(ctx, label)
					if err != nil {
						return fmt.Errorf("unit %q: %w", label, err)
					}
					fmt.Fprintf(out, "unidade   %s  %s\n", unitID, label)
				}
				for _, name := range tenants {
					tenantID, err := repo.CreateTenant(ctx, name)
					if err != nil {
						return fmt.Errorf("tenant %q: %w", name, err)
					}
					fmt.Fprintf(out, "inquilino %s  %s\n", tenantID, name)
				}
				return nil
			})
		},
	}
	cmd.Flags().StringSlice("unit", nil, "unit label to create (repeatable)")
	cmd.Flags().StringSlice("tenant", nil, "tenant name to create (repeatable)")
	return cmd
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
