/*
Copyright © 2025 NAME HERE <EMAIL ADDRESS>
*/
package cmd

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"
	"github.com/ssargent/dbckit/pkg/gen"
)

// embedCmd represents the embed command
var embedCmd = &cobra.Command{
	Use:   "embed <file>",
	Short: "Generate Go source that compiles a table into a binary",
	Long: `Decode a DBC file and generate a Go file declaring its rows as a
[]table.Row literal. Any value the generator cannot express fails the
command, so a table that generates is guaranteed to compile.

Examples:
  dbc embed SpellIcon.dbc -o internal/dbcdata/spellicon.go
  dbc embed Lock.dbc --package tables --name Locks`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		e, err := getEnv(cmd)
		if err != nil {
			return err
		}
		tableName, _ := cmd.Flags().GetString("table")
		output, _ := cmd.Flags().GetString("output")
		pkg, _ := cmd.Flags().GetString("package")
		name, _ := cmd.Flags().GetString("name")

		t, _, err := e.openTable(args[0], tableName)
		if err != nil {
			return err
		}
		src, err := gen.Generate(t, gen.Options{
			Package: pkg,
			Name:    name,
			Source:  filepath.Base(args[0]),
		})
		if err != nil {
			return err
		}

		if output == "" || output == "-" {
			_, err := cmd.OutOrStdout().Write(src)
			return err
		}
		if err := os.MkdirAll(filepath.Dir(output), 0755); err != nil {
			return fmt.Errorf("failed to create output directory: %w", err)
		}
		if err := os.WriteFile(output, src, 0644); err != nil {
			return fmt.Errorf("failed to write %s: %w", output, err)
		}
		cmd.Printf("Generated %s (%d rows)\n", output, t.Len())
		return nil
	},
}

func init() {
	rootCmd.AddCommand(embedCmd)

	embedCmd.Flags().StringP("table", "t", "", "Schema name, when it differs from the file name")
	embedCmd.Flags().StringP("output", "o", "", "Output file, stdout when empty")
	embedCmd.Flags().String("package", "dbcdata", "Package name of the generated file")
	embedCmd.Flags().String("name", "", "Identifier prefix, defaults to the table name")
}
