// Package main is the operator CLI: schema migrations, schedule previews,
// access tokens and reference data seeding.
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"leasebill/internal/app"
)

func main() {
	app.LoadEnv()

	rootCmd := &cobra.Command{
		Use:           "billingctl",
		Short:         "Lease billing operator tool",
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	rootCmd.PersistentFlags().String("database-url", "", "PostgreSQL DSN (default $DATABASE_URL)")

	rootCmd.AddCommand(
		migrateCmd(),
		scheduleCmd(),
		tokenCmd(),
		seedCmd(),
	)

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
