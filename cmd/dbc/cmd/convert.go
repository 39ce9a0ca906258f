/*
Copyright © 2025 NAME HERE <EMAIL ADDRESS>
*/
package cmd

import (
	"fmt"
	"os"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"
	"github.com/ssargent/dbckit/pkg/codec"
	"github.com/ssargent/dbckit/pkg/table"
)

// convertCmd represents the convert command
var convertCmd = &cobra.Command{
	Use:   "convert <in> <out>",
	Short: "Rewrite a DBC file with different string policies",
	Long: `Decode a DBC file and write it back out, optionally switching the
string block policy. The cache policy stores each distinct string once and
usually produces a smaller file; legacy appends every string.

Examples:
  dbc convert Spell.dbc Spell.small.dbc --string-policy cache --localized-policy cache
  dbc convert Lock.dbc out/Lock.dbc`,
	Args: cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		e, err := getEnv(cmd)
		if err != nil {
			return err
		}
		tableName, _ := cmd.Flags().GetString("table")

		t, data, err := e.openTable(args[0], tableName)
		if err != nil {
			return err
		}

		opts := e.tableOptions()
		for flag, with := range map[string]func(codec.StringPolicy) table.Option{
			"string-policy":    table.WithStringPolicy,
			"localized-policy": table.WithLocalizedPolicy,
		} {
			v, _ := cmd.Flags().GetString(flag)
			if v == "" {
				continue
			}
			p, err := codec.ParseStringPolicy(v)
			if err != nil {
				return fmt.Errorf("--%s: %w", flag, err)
			}
			opts = append(opts, with(p))
		}

		out, err := t.Encode(opts...)
		if err != nil {
			return fmt.Errorf("failed to encode %s: %w", args[0], err)
		}
		if err := os.WriteFile(args[1], out, 0644); err != nil {
			return fmt.Errorf("failed to write %s: %w", args[1], err)
		}

		cmd.Printf("Wrote %s: %d records, %s (was %s)\n",
			args[1], t.Len(), humanize.IBytes(uint64(len(out))), humanize.IBytes(uint64(len(data))))
		return nil
	},
}

func init() {
	rootCmd.AddCommand(convertCmd)

	convertCmd.Flags().StringP("table", "t", "", "Schema name, when it differs from the file name")
	convertCmd.Flags().String("string-policy", "", "Policy for string_ref fields (legacy, cache)")
	convertCmd.Flags().String("localized-policy", "", "Policy for localized string fields (legacy, cache)")
}
