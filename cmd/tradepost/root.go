// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Tradepost Contributors

package main

import (
	"github.com/spf13/cobra"
)

// Global flags available to all subcommands.
var configFile string

// NewRootCmd creates the root command for the tradepost CLI.
func NewRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "tradepost",
		Short: "Tradepost - marketplace session authentication service",
		Long: `Tradepost runs the session-authentication service for the marketplace:
credential checks, role capability resolution, and replay-protected
session token state.`,
	}

	// Global flag for config file path
	cmd.PersistentFlags().StringVar(&configFile, "config", "", "config file path")

	// Add subcommands
	cmd.AddCommand(NewServeCmd())
	cmd.AddCommand(NewMigrateCmd())
	cmd.AddCommand(NewAccountCmd())

	return cmd
}
