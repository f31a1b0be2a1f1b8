package cli

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/bibbank/claimrisk/pkg/auth"
)

func newTokenCommand(opts *rootOptions) *cobra.Command {
	var (
		subject string
		roles   []string
		ttl     time.Duration
	)

	cmd := &cobra.Command{
		Use:   "token",
		Short: "Mint a bearer token for the scoring API",
		Long: `Sign a JWT with the configured auth.jwt_secret or auth.private_key_file.
Intended for development and service-to-service bootstrap.`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := opts.loadConfig()
			if err != nil {
				return err
			}
			jwtCfg, err := cfg.Auth.JWTConfig()
			if err != nil {
				return err
			}
			if ttl > 0 {
				jwtCfg.Expiration = ttl
			}

			svc, err := auth.NewJWTService(jwtCfg)
			if err != nil {
				return err
			}
			token, err := svc.GenerateToken(subject, roles)
			if err != nil {
				return err
			}
			_, err = fmt.Fprintln(cmd.OutOrStdout(), token)
			return err
		},
	}

	cmd.Flags().StringVar(&subject, "subject", "", "token subject (required)")
	cmd.Flags().StringSliceVar(&roles, "role", []string{auth.RoleAPIClient}, "granted role, repeatable")
	cmd.Flags().DurationVar(&ttl, "ttl", 0, "token lifetime (default auth.token_ttl)")
	_ = cmd.MarkFlagRequired("subject")
	return cmd
}
