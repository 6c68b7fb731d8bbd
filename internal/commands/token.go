package commands

import (
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/spf13/cobra"

	"pennywise/internal/auth"
	"pennywise/internal/cli"
)

func newTokenCommand() *cobra.Command {
	var userID string
	var ttl time.Duration

	cmd := &cobra.Command{
		Use:   "token",
		Short: "Mint a bearer token for local testing",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := cli.LoadConfig(nil)
			if err != nil {
				return err
			}
			return runToken(cmd.OutOrStdout(), auth.NewVerifier(cfg.JWTSecret, cfg.JWTIssuer), cfg.JWTSecret != "", userID, ttl)
		},
	}

	cmd.Flags().StringVar(&userID, "user", "", "user id to put in the subject (required)")
	_ = cmd.MarkFlagRequired("user")
	cmd.Flags().DurationVar(&ttl, "ttl", 24*time.Hour, "token lifetime")

	return cmd
}

func runToken(out io.Writer, v *auth.Verifier, hasSecret bool, userID string, ttl time.Duration) error {
	if !hasSecret {
		return errors.New("JWT_SECRET is required to sign tokens")
	}
	if ttl <= 0 {
		return fmt.Errorf("invalid ttl %v: must be positive", ttl)
	}
	token, err := v.Issue(userID, ttl)
	if err != nil {
		return err
	}
	fmt.Fprintln(out, token)
	return nil
}
