/*
Copyright © 2025 NAME HERE <EMAIL ADDRESS>
*/
package cmd

import (
	"fmt"

	"github.com/dustin/go-humanize"
	"github.com/olekukonko/tablewriter"
	"github.com/spf13/cobra"
)

// infoCmd represents the info command
var infoCmd = &cobra.Command{
	Use:   "info <file>",
	Short: "Show the header and layout of a DBC file",
	Long: `Decode a DBC file and print its header next to the layout its schema
expects, followed by one line per field.

Examples:
  dbc info Spell.dbc
  dbc info ./client/SpellIconFixed.dbc --table SpellIcon`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		e, err := getEnv(cmd)
		if err != nil {
			return err
		}
		tableName, _ := cmd.Flags().GetString("table")
		fields, _ := cmd.Flags().GetBool("fields")

		t, data, err := e.openTable(args[0], tableName)
		if err != nil {
			return err
		}
		s, h := t.Schema, t.Header

		summary := tablewriter.NewWriter(cmd.OutOrStdout())
		summary.SetHeader([]string{"Property", "Value"})
		summary.Append([]string{"Table", s.Name})
		summary.Append([]string{"File", args[0]})
		summary.Append([]string{"Size", humanize.IBytes(uint64(len(data)))})
		summary.Append([]string{"Records", humanize.Comma(int64(h.RecordCount))})
		summary.Append([]string{"Fields", fmt.Sprintf("%d", h.FieldCount)})
		summary.Append([]string{"Record size", fmt.Sprintf("%d", h.RecordSize)})
		summary.Append([]string{"String block", humanize.IBytes(uint64(h.StringBlockSize))})
		summary.Append([]string{"String policy", s.StringPolicy.String()})
		summary.Append([]string{"Localized policy", s.LocalizedPolicy.String()})
		summary.Render()

		if !fields {
			return nil
		}

		layout := tablewriter.NewWriter(cmd.OutOrStdout())
		layout.SetHeader([]string{"Offset", "Field", "Kind", "Len", "Columns", "Size"})
		var offset uint32
		for _, f := range s.Fields {
			layout.Append([]string{
				fmt.Sprintf("%d", offset),
				f.Name,
				f.Kind.String(),
				fieldLen(f),
				fmt.Sprintf("%d", f.Columns()),
				fmt.Sprintf("%d", f.Size()),
			})
			offset += f.Size()
		}
		layout.Render()
		return nil
	},
}

func init() {
	rootCmd.AddCommand(infoCmd)

	infoCmd.Flags().StringP("table", "t", "", "Schema name, when it differs from the file name")
	infoCmd.Flags().Bool("fields", true, "Print the field layout")
}
