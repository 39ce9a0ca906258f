/*
Copyright © 2025 NAME HERE <EMAIL ADDRESS>
*/
package cmd

import (
	"encoding/json"
	"fmt"
	"io"

	"github.com/olekukonko/tablewriter"
	"github.com/spf13/cobra"
	"github.com/ssargent/dbckit/pkg/table"
	"gopkg.in/yaml.v3"
)

// dumpCmd represents the dump command
var dumpCmd = &cobra.Command{
	Use:   "dump <file>",
	Short: "Print the rows of a DBC file",
	Long: `Decode a DBC file and print its rows as JSON, YAML or a text table.

Keys print as plain integers, enums by name and localized strings as a map
of the populated locales.

Examples:
  dbc dump SpellIcon.dbc
  dbc dump Lock.dbc --format yaml --offset 10 --limit 5`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		e, err := getEnv(cmd)
		if err != nil {
			return err
		}
		tableName, _ := cmd.Flags().GetString("table")
		format, _ := cmd.Flags().GetString("format")
		offset, _ := cmd.Flags().GetInt("offset")
		limit, _ := cmd.Flags().GetInt("limit")

		t, _, err := e.openTable(args[0], tableName)
		if err != nil {
			return err
		}
		rows := page(t.Rows, offset, limit)
		return writeRows(cmd.OutOrStdout(), t, rows, format)
	},
}

// page returns rows[offset:offset+limit], clamped. A limit of 0 means all.
func page(rows []table.Row, offset, limit int) []table.Row {
	if offset < 0 || offset >= len(rows) {
		return nil
	}
	rows = rows[offset:]
	if limit > 0 && limit < len(rows) {
		rows = rows[:limit]
	}
	return rows
}

func writeRows(w io.Writer, t *table.Table, rows []table.Row, format string) error {
	switch format {
	case "json":
		out := make([]map[string]any, len(rows))
		for i, row := range rows {
			out[i] = t.RowMap(row)
		}
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(out)
	case "yaml":
		out := make([]map[string]any, len(rows))
		for i, row := range rows {
			out[i] = t.RowMap(row)
		}
		enc := yaml.NewEncoder(w)
		enc.SetIndent(2)
		if err := enc.Encode(out); err != nil {
			return err
		}
		return enc.Close()
	case "table":
		tw := tablewriter.NewWriter(w)
		tw.SetAutoWrapText(false)
		header := make([]string, len(t.Schema.Fields))
		for i, f := range t.Schema.Fields {
			header[i] = f.Name
		}
		tw.SetHeader(header)
		for _, row := range rows {
			m := t.RowMap(row)
			cells := make([]string, len(header))
			for i, name := range header {
				cells[i] = fmt.Sprint(m[name])
			}
			tw.Append(cells)
		}
		tw.Render()
		return nil
	default:
		return fmt.Errorf("unknown format %q (want json, yaml or table)", format)
	}
}

func init() {
	rootCmd.AddCommand(dumpCmd)

	dumpCmd.Flags().StringP("table", "t", "", "Schema name, when it differs from the file name")
	dumpCmd.Flags().StringP("format", "f", "json", "Output format (json, yaml, table)")
	dumpCmd.Flags().Int("offset", 0, "Index of the first row to print")
	dumpCmd.Flags().Int("limit", 0, "Maximum number of rows to print, 0 for all")
}
