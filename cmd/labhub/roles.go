// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 LabHub Contributors

package main

import (
	"fmt"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/labhub/labhub/internal/config"
)

// NewRolesCmd creates the roles subcommand.
func NewRolesCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "roles",
		Short: "Print the configured role declarations",
		Long: `Print the roles declared in configuration after checking their scopes
against the known scope vocabulary. Roles are declarations only; the hub
does not enforce them.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := config.Read(loadOptions(cmd))
			if err != nil {
				return err
			}
			if err := config.ValidateRoles(cfg.Roles); err != nil {
				return err
			}

			w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
			fmt.Fprintln(w, "NAME\tSCOPES\tSERVICES\tUSERS")
			for _, role := range cfg.Roles {
				fmt.Fprintf(w, "%s\t%s\t%s\t%s\n",
					role.Name,
					strings.Join(role.Scopes, ","),
					orDash(role.Services),
					orDash(role.Users),
				)
			}
			return w.Flush()
		},
	}
}

func orDash(values []string) string {
	if len(values) == 0 {
		return "-"
	}
	return strings.Join(values, ",")
}
