// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 LabHub Contributors

package main

import (
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/samber/oops"
	"github.com/spf13/cobra"

	"github.com/labhub/labhub/internal/auth"
	"github.com/labhub/labhub/internal/config"
)

// NewTokenCmd creates the token command group.
func NewTokenCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "token",
		Short: "Work with login tokens",
	}
	cmd.AddCommand(newTokenIssueCmd())
	return cmd
}

func newTokenIssueCmd() *cobra.Command {
	var (
		ttl  time.Duration
		next string
	)
	cmd := &cobra.Command{
		Use:   "issue <username>",
		Short: "Mint a login token and print the token-login URL",
		Long: `Mint a signed login token the same way the backend does and print it
together with the single sign-on URL that exchanges it for a hub session.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Read(loadOptions(cmd))
			if err != nil {
				return err
			}
			if err := cfg.ValidateSecret(); err != nil {
				return err
			}
			if ttl <= 0 {
				ttl = cfg.Auth.TokenTTL
			}
			if next == "" {
				next = cfg.HTTP.SpawnURL
			}

			verifier, err := auth.NewJWTVerifier([]byte(cfg.Auth.JWTSecret))
			if err != nil {
				return err
			}
			token, err := verifier.Issue(args[0], ttl)
			if err != nil {
				return oops.With("username", args[0]).Wrap(err)
			}

			out := cmd.OutOrStdout()
			fmt.Fprintln(out, token)
			fmt.Fprintln(out, tokenLoginURL(cfg.HTTP.PublicURL, token, next))
			return nil
		},
	}
	cmd.Flags().DurationVar(&ttl, "ttl", 0, "token lifetime (default: auth.token_ttl)")
	cmd.Flags().StringVar(&next, "next", "", "post-login path (default: http.spawn_url)")
	return cmd
}

// tokenLoginURL builds <public_url>/hub/token-login?token=...&next=...
func tokenLoginURL(publicURL, token, next string) string {
	q := url.Values{}
	q.Set("token", token)
	q.Set("next", next)
	return strings.TrimRight(publicURL, "/") + "/hub/token-login?" + q.Encode()
}
