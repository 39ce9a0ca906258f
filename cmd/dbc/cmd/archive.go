/*
Copyright © 2025 NAME HERE <EMAIL ADDRESS>
*/
package cmd

import (
	"errors"
	"fmt"
	"os"

	"github.com/dustin/go-humanize"
	"github.com/olekukonko/tablewriter"
	"github.com/segmentio/ksuid"
	"github.com/spf13/cobra"
	"github.com/ssargent/dbckit/pkg/storage"
)

// archiveCmd groups the revision archive commands
var archiveCmd = &cobra.Command{
	Use:   "archive",
	Short: "Keep every version of your tables",
	Long: `The archive stores each DBC file you put as a new revision, keyed by a
time-ordered id, in the data directory. The table server can serve the
latest revision of every table with --source archive.`,
}

var archivePutCmd = &cobra.Command{
	Use:   "put <file>...",
	Short: "Archive files as new revisions",
	Long: `Decode each file against its schema and store it as the newest revision
of that table. Files that do not decode are rejected.

Examples:
  dbc archive put Spell.dbc SpellIcon.dbc`,
	Args: cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		e, archive, err := openArchive(cmd)
		if err != nil {
			return err
		}
		defer archive.Close()
		tableName, _ := cmd.Flags().GetString("table")

		for _, path := range args {
			t, data, err := e.openTable(path, tableName)
			if err != nil {
				return err
			}
			rev, err := archive.Put(t.Schema.Name, data)
			if err != nil {
				return fmt.Errorf("failed to archive %s: %w", path, err)
			}
			cmd.Printf("%s %s %s\n", rev.Table, rev.ID, humanize.IBytes(uint64(rev.Size)))
		}
		return nil
	},
}

var archiveListCmd = &cobra.Command{
	Use:   "list [table]",
	Short: "List archived revisions",
	Long: `List revisions oldest first, for one table or for all of them.

Examples:
  dbc archive list
  dbc archive list Spell`,
	Args: cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		_, archive, err := openArchive(cmd)
		if err != nil {
			return err
		}
		defer archive.Close()

		var name string
		if len(args) == 1 {
			name = args[0]
		}
		revs, err := archive.List(name)
		if err != nil {
			return err
		}

		tw := tablewriter.NewWriter(cmd.OutOrStdout())
		tw.SetHeader([]string{"Table", "Revision", "Archived", "Records", "Size"})
		for _, rev := range revs {
			tw.Append([]string{
				rev.Table,
				rev.ID.String(),
				humanize.Time(rev.Time()),
				humanize.Comma(int64(rev.Header.RecordCount)),
				humanize.IBytes(uint64(rev.Size)),
			})
		}
		tw.Render()
		return nil
	},
}

var archiveGetCmd = &cobra.Command{
	Use:   "get <table> [revision]",
	Short: "Write an archived revision to a file",
	Long: `Write a revision of a table, the latest when no revision is given, to
--output or stdout.

Examples:
  dbc archive get Spell -o Spell.dbc
  dbc archive get Spell 2RGq2oa3ZNlq7fWOlSmLkUBDiCO -o Spell.old.dbc`,
	Args: cobra.RangeArgs(1, 2),
	RunE: func(cmd *cobra.Command, args []string) error {
		_, archive, err := openArchive(cmd)
		if err != nil {
			return err
		}
		defer archive.Close()
		output, _ := cmd.Flags().GetString("output")

		var data []byte
		if len(args) == 2 {
			id, err := ksuid.Parse(args[1])
			if err != nil {
				return fmt.Errorf("invalid revision %q: %w", args[1], err)
			}
			data, err = archive.Get(args[0], id)
			if err != nil {
				return err
			}
		} else {
			_, data, err = archive.Latest(args[0])
			if errors.Is(err, storage.ErrNotFound) {
				return fmt.Errorf("table %s has no revisions", args[0])
			}
			if err != nil {
				return err
			}
		}

		if output == "" || output == "-" {
			_, err := cmd.OutOrStdout().Write(data)
			return err
		}
		if err := os.WriteFile(output, data, 0644); err != nil {
			return fmt.Errorf("failed to write %s: %w", output, err)
		}
		cmd.Printf("Wrote %s (%s)\n", output, humanize.IBytes(uint64(len(data))))
		return nil
	},
}

var archiveDeleteCmd = &cobra.Command{
	Use:   "delete <table> <revision>",
	Short: "Remove one revision",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		_, archive, err := openArchive(cmd)
		if err != nil {
			return err
		}
		defer archive.Close()

		id, err := ksuid.Parse(args[1])
		if err != nil {
			return fmt.Errorf("invalid revision %q: %w", args[1], err)
		}
		if err := archive.Delete(args[0], id); err != nil {
			return err
		}
		cmd.Printf("Deleted %s %s\n", args[0], id)
		return nil
	},
}

func openArchive(cmd *cobra.Command) (*env, *storage.Archive, error) {
	e, err := getEnv(cmd)
	if err != nil {
		return nil, nil, err
	}
	if container == nil {
		return nil, nil, fmt.Errorf("dependency container not initialized")
	}
	if err := os.MkdirAll(e.cfg.DataDir, 0750); err != nil {
		return nil, nil, fmt.Errorf("failed to create data dir: %w", err)
	}
	archive, err := container.GetArchiveFactory().OpenArchive(e.cfg.DataDir)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to open archive: %w", err)
	}
	return e, archive, nil
}

func init() {
	rootCmd.AddCommand(archiveCmd)
	archiveCmd.AddCommand(archivePutCmd, archiveListCmd, archiveGetCmd, archiveDeleteCmd)

	archivePutCmd.Flags().StringP("table", "t", "", "Schema name, when it differs from the file names")
	archiveGetCmd.Flags().StringP("output", "o", "", "Output file, stdout when empty")
}
