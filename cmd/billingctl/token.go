package main

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"leasebill/internal/domain/auth"
)

func tokenCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "token",
		Short: "Issue an access token for an operator",
		RunE: func(cmd *cobra.Command, args []string) error {
			secret := envOr("JWT_SECRET", "")
			if secret == "" {
				return fmt.Errorf("JWT_SECRET is required")
			}
			subject, _ := cmd.Flags().GetString("sub")
			email, _ := cmd.Flags().GetString("email")
			name, _ := cmd.Flags().GetString("name")
			ttl, _ := cmd.Flags().GetDuration("ttl")

			cfg := auth.DefaultJWTConfig(secret)
			if ttl > 0 {
				cfg.AccessTokenTTL = ttl
			}
			token, expiresAt, err := auth.NewJWTService(cfg).GenerateAccessToken(subject, email, name)
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), token)
			fmt.Fprintf(cmd.ErrOrStderr(), "expires at %s\n", expiresAt.Format(time.RFC3339))
			return nil
		},
	}
	cmd.Flags().String("sub", "operator", "token subject, recorded as the actor")
	cmd.Flags().String("email", "", "operator email")
	cmd.Flags().String("name", "", "operator display name")
	cmd.Flags().Duration("ttl", 0, "token lifetime (default from config)")
	return cmd
}
