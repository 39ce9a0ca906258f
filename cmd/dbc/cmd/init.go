/*
Copyright © 2025 NAME HERE <EMAIL ADDRESS>
*/
package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
	"github.com/ssargent/dbckit/pkg/config"
)

// initCmd represents the init command
var initCmd = &cobra.Command{
	Use:   "init",
	Short: "Write a default configuration file",
	Long: `Write a configuration file with default directories and a freshly
generated API key for the table server.

Examples:
  dbc init
  dbc init --config ./dbc.yaml --data-dir ./archive --schema-dir ./schemas/wrath`,
	RunE: func(cmd *cobra.Command, args []string) error {
		e, err := getEnv(cmd)
		if err != nil {
			return err
		}
		force, _ := cmd.Flags().GetBool("force")

		if config.ConfigExists(e.configPath) && !force {
			cmd.Printf("Config already exists at %s. Use --force to overwrite.\n", e.configPath)
			return nil
		}

		cfg, err := config.BootstrapConfig(e.configPath, e.cfg.DataDir, e.cfg.SchemaDir)
		if err != nil {
			return fmt.Errorf("failed to initialize config: %w", err)
		}

		cmd.Printf("Config written to %s\n", e.configPath)
		cmd.Printf("Schema directory: %s\n", cfg.SchemaDir)
		cmd.Printf("Data directory: %s\n", cfg.DataDir)
		cmd.Printf("Server API key: %s\n", cfg.Server.APIKey[:8]+"...")
		return nil
	},
}

func init() {
	rootCmd.AddCommand(initCmd)

	initCmd.Flags().Bool("force", false, "Overwrite an existing config file")
}
