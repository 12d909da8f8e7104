// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 LabHub Contributors

package main

import (
	"github.com/spf13/cobra"

	"github.com/labhub/labhub/internal/config"
	"github.com/labhub/labhub/internal/xdg"
)

// Global flags available to all subcommands.
var (
	configFile string
	envFile    string
)

// NewRootCmd creates the root command for the LabHub CLI.
func NewRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "labhub",
		Short: "LabHub - notebook hub authentication front door",
		Long: `LabHub validates backend login tokens and passwords, provisions hub
users on first login, and issues hub sessions for the notebook platform.`,
		SilenceUsage: true,
	}

	cmd.PersistentFlags().StringVar(&configFile, "config", "", "config file path (default: $XDG_CONFIG_HOME/labhub/config.yaml when present)")
	cmd.PersistentFlags().StringVar(&envFile, "env-file", "", "dotenv file (default: .env when present)")
	config.RegisterFlags(cmd.PersistentFlags())

	cmd.AddCommand(NewServeCmd())
	cmd.AddCommand(NewMigrateCmd())
	cmd.AddCommand(NewTokenCmd())
	cmd.AddCommand(NewRolesCmd())

	return cmd
}

// loadOptions returns the configuration sources selected on the command line.
// Without --config, the per-user file in the XDG config directory is used
// when it exists.
func loadOptions(cmd *cobra.Command) config.LoadOptions {
	file := configFile
	if file == "" {
		if found, ok := xdg.FindConfigFile(); ok {
			file = found
		}
	}
	return config.LoadOptions{
		File:    file,
		EnvFile: envFile,
		Flags:   cmd.Flags(),
	}
}
