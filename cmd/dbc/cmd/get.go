/*
Copyright © 2025 NAME HERE <EMAIL ADDRESS>
*/
package cmd

import (
	"fmt"
	"strconv"

	"github.com/spf13/cobra"
	"github.com/ssargent/dbckit/pkg/table"
)

// getCmd represents the get command
var getCmd = &cobra.Command{
	Use:   "get <file> <id>",
	Short: "Print one row by primary key",
	Long: `Look up a row by its primary key and print it.

Examples:
  dbc get Spell.dbc 8690
  dbc get Lock.dbc 1 --format yaml`,
	Args: cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		e, err := getEnv(cmd)
		if err != nil {
			return err
		}
		tableName, _ := cmd.Flags().GetString("table")
		format, _ := cmd.Flags().GetString("format")

		id, err := strconv.ParseInt(args[1], 10, 64)
		if err != nil {
			return fmt.Errorf("invalid id %q: %w", args[1], err)
		}

		t, _, err := e.openTable(args[0], tableName)
		if err != nil {
			return err
		}
		if t.Schema.PrimaryKey() < 0 {
			return fmt.Errorf("table %s has no primary key", t.Schema.Name)
		}
		row, ok := t.Get(id)
		if !ok {
			return fmt.Errorf("table %s has no row with id %d", t.Schema.Name, id)
		}
		return writeRows(cmd.OutOrStdout(), t, []table.Row{row}, format)
	},
}

func init() {
	rootCmd.AddCommand(getCmd)

	getCmd.Flags().StringP("table", "t", "", "Schema name, when it differs from the file name")
	getCmd.Flags().StringP("format", "f", "json", "Output format (json, yaml, table)")
}
