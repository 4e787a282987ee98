package main

import (
	"bufio"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/nerrad567/topiclab/internal/auth"
)

type tokenOptions struct {
	subject string
	role    string
	ttl     time.Duration
}

func newTokenCmd(root *rootOptions) *cobra.Command {
	opts := &tokenOptions{}
	cmd := &cobra.Command{
		Use:   "token",
		Short: "Issue an API access token signed with security.jwt.secret",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, _, err := loadConfig(root.configPath)
			if err != nil {
				return err
			}
			if !cfg.AuthEnabled() {
				return errors.New("security.jwt.secret is not set; API authentication is disabled")
			}

			role := auth.Role(opts.role)
			if !auth.IsValidRole(role) {
				return fmt.Errorf("%w: %q", auth.ErrInvalidRole, opts.role)
			}

			ttl := opts.ttl
			if ttl == 0 {
				ttl = cfg.GetAccessTokenTTL()
			}

			token, expires, err := auth.GenerateAccessToken(
				auth.User{Username: opts.subject, Role: role}, cfg.Security.JWT.Secret, ttl)
			if err != nil {
				return err
			}

			fmt.Fprintln(cmd.OutOrStdout(), token)
			fmt.Fprintf(cmd.ErrOrStderr(), "expires %s\n", expires.UTC().Format(time.RFC3339))
			return nil
		},
	}
	cmd.Flags().StringVar(&opts.subject, "subject", "cli", "token subject (username)")
	cmd.Flags().StringVar(&opts.role, "role", string(auth.RoleAdmin), "viewer, operator or admin")
	cmd.Flags().DurationVar(&opts.ttl, "ttl", 0, "token lifetime (default security.jwt.access_token_ttl)")
	return cmd
}

func newHashPasswordCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "hash-password",
		Short: "Read a password from stdin and print its Argon2id hash",
		Long: `hash-password reads one line from stdin and prints the PHC string to put
in security.users[].password_hash.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			scanner := bufio.NewScanner(cmd.InOrStdin())
			if !scanner.Scan() {
				if err := scanner.Err(); err != nil {
					return err
				}
				return errors.New("no password on stdin")
			}
			password := strings.TrimRight(scanner.Text(), "\r")
			if password == "" {
				return errors.New("password must not be empty")
			}

			hash, err := auth.HashPassword(password)
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), hash)
			return nil
		},
	}
}
