// Copyright (C) 2019-2026, Cathedral Fabric Contributors. All rights reserved.
// See the file LICENSE for licensing terms.

package main

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/cathedral-fabric/cathedral/config"
	"github.com/cathedral-fabric/cathedral/internal/xlog"
)

var rootCmd = &cobra.Command{
	Use:   "cathedral",
	Short: "Inspect a cathedral build and its configuration",
	Long: `cathedral is the command-line shell around the execution core. It
offers two subcommands: "version" prints the build version and
"config" prints the effective configuration. It does not run DAGs,
replay event logs, or issue certificates.`,
}

func main() {
	rootCmd.AddCommand(versionCmd(), configCmd())
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func versionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print the build version",
		RunE: func(cmd *cobra.Command, args []string) error {
			fmt.Fprintln(cmd.OutOrStdout(), "cathedral dev")
			return nil
		},
	}
}

func configCmd() *cobra.Command {
	var production bool
	var storeDir, metricsAddr string

	cmd := &cobra.Command{
		Use:   "config",
		Short: "Print the effective configuration as JSON",
		RunE: func(cmd *cobra.Command, args []string) error {
			logger := xlog.FromZap(zap.NewNop())
			cfg := config.DefaultConfig()
			if production {
				cfg = config.ProductionConfig(storeDir, metricsAddr)
			}
			if err := cfg.Valid(); err != nil {
				logger.Error("invalid configuration")
				return err
			}
			out, err := json.MarshalIndent(cfg, "", "  ")
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), string(out))
			return nil
		},
	}
	cmd.Flags().BoolVar(&production, "production", false, "use ProductionConfig instead of DefaultConfig")
	cmd.Flags().StringVar(&storeDir, "store-dir", "", "content store directory (production mode)")
	cmd.Flags().StringVar(&metricsAddr, "metrics-addr", "", "metrics listen address (production mode)")
	return cmd
}
