/*
Copyright © 2025 NAME HERE <EMAIL ADDRESS>
*/
package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
	"github.com/ssargent/dbckit/pkg/config"
)

// upCmd represents the up command
var upCmd = &cobra.Command{
	Use:   "up",
	Short: "Bootstrap configuration and start the table server",
	Long: `Create a configuration file with a fresh API key if none exists, then
start the table server. This is the quickest way to get tables served.

Examples:
  dbc up
  dbc up --source archive --data-dir ./archive
  dbc up --config ./dbc.yaml --dir ./client --print-key`,
	RunE: func(cmd *cobra.Command, args []string) error {
		e, err := getEnv(cmd)
		if err != nil {
			return err
		}
		source, _ := cmd.Flags().GetString("source")
		dir, _ := cmd.Flags().GetString("dir")
		printKey, _ := cmd.Flags().GetBool("print-key")

		if config.ConfigExists(e.configPath) {
			cmd.Printf("Loaded configuration from %s\n", e.configPath)
		} else {
			cmd.Printf("First run detected, writing %s\n", e.configPath)
			cfg, err := config.BootstrapConfig(e.configPath, e.cfg.DataDir, e.cfg.SchemaDir)
			if err != nil {
				return fmt.Errorf("failed to bootstrap config: %w", err)
			}
			// keep logging and codec overrides from flags
			e.cfg.Server = cfg.Server
			if printKey {
				cmd.Printf("Server API key: %s\n", cfg.Server.APIKey)
			}
		}

		return runServer(cmd, e, e.cfg.Server, source, dir)
	},
}

func init() {
	rootCmd.AddCommand(upCmd)

	upCmd.Flags().String("source", "dir", "Where tables come from (dir, archive)")
	upCmd.Flags().String("dir", ".", "Directory of .dbc files for --source dir")
	upCmd.Flags().Bool("print-key", false, "Print the generated API key")
}
