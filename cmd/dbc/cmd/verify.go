/*
Copyright © 2025 NAME HERE <EMAIL ADDRESS>
*/
package cmd

import (
	"bytes"
	"fmt"

	"github.com/spf13/cobra"
)

// verifyCmd represents the verify command
var verifyCmd = &cobra.Command{
	Use:   "verify <file>...",
	Short: "Check that files decode and re-encode byte for byte",
	Long: `Decode each file, encode it again with its schema's string policies and
compare the result with the original bytes.

A mismatch usually means the schema's string_policy or localized_policy does
not match the tool that wrote the file.

Examples:
  dbc verify Spell.dbc
  dbc verify client/*.dbc`,
	Args: cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		e, err := getEnv(cmd)
		if err != nil {
			return err
		}
		tableName, _ := cmd.Flags().GetString("table")

		failed := 0
		for _, path := range args {
			if err := verifyFile(e, path, tableName); err != nil {
				cmd.Printf("FAIL %s: %v\n", path, err)
				failed++
				continue
			}
			cmd.Printf("OK   %s\n", path)
		}
		if failed > 0 {
			return fmt.Errorf("%d of %d files failed verification", failed, len(args))
		}
		return nil
	},
}

func verifyFile(e *env, path, tableName string) error {
	t, data, err := e.openTable(path, tableName)
	if err != nil {
		return err
	}
	out, err := t.Encode(e.tableOptions()...)
	if err != nil {
		return fmt.Errorf("failed to encode: %w", err)
	}
	if bytes.Equal(data, out) {
		return nil
	}
	n := min(len(data), len(out))
	for i := 0; i < n; i++ {
		if data[i] != out[i] {
			return fmt.Errorf("re-encoded bytes differ at offset %d", i)
		}
	}
	return fmt.Errorf("re-encoded size %d, original %d", len(out), len(data))
}

func init() {
	rootCmd.AddCommand(verifyCmd)

	verifyCmd.Flags().StringP("table", "t", "", "Schema name, when it differs from the file names")
}
