/*
Copyright © 2025 NAME HERE <EMAIL ADDRESS>
*/
package cmd

import (
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"github.com/ssargent/dbckit/pkg/api"
	"github.com/ssargent/dbckit/pkg/config"
)

// serveCmd represents the serve command
var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve tables as read-only JSON over HTTP",
	Long: `Start the table server. Tables come either from a directory of .dbc
files or from the latest revisions in the archive, and are decoded on first
request and again whenever the file or revision changes.

Requests to /api/v1 need the X-API-Key header when server.api_key is set.

Examples:
  dbc serve --source dir --dir ./client
  dbc serve --source archive --port 9090`,
	RunE: func(cmd *cobra.Command, args []string) error {
		e, err := getEnv(cmd)
		if err != nil {
			return err
		}
		source, _ := cmd.Flags().GetString("source")
		dir, _ := cmd.Flags().GetString("dir")

		server := e.cfg.Server
		if cmd.Flags().Changed("bind") {
			server.Bind, _ = cmd.Flags().GetString("bind")
		}
		if cmd.Flags().Changed("port") {
			server.Port, _ = cmd.Flags().GetInt("port")
		}
		if cmd.Flags().Changed("api-key") {
			server.APIKey, _ = cmd.Flags().GetString("api-key")
		}
		return runServer(cmd, e, server, source, dir)
	},
}

// runServer builds the catalog for source and blocks in the server
// starter until interrupted.
func runServer(cmd *cobra.Command, e *env, server config.Server, source, dir string) error {
	if container == nil {
		return fmt.Errorf("dependency container not initialized")
	}
	schemas, err := e.schemas()
	if err != nil {
		return err
	}

	var catalog api.Catalog
	switch source {
	case "dir":
		catalog = api.NewDirCatalog(dir, schemas, e.tableOptions()...)
	case "archive":
		archive, err := container.GetArchiveFactory().OpenArchive(e.cfg.DataDir)
		if err != nil {
			return fmt.Errorf("failed to open archive: %w", err)
		}
		defer archive.Close()
		catalog = api.NewArchiveCatalog(archive, schemas, e.tableOptions()...)
	default:
		return fmt.Errorf("unknown source %q (want dir or archive)", source)
	}

	if server.APIKey == "" {
		e.logger.Warn("server.api_key is empty, authentication disabled")
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	cmd.Printf("Serving %d tables from %s on %s\n", len(catalog.Names()), source, server.Addr())
	starter := container.GetServerFactory().CreateServerStarter()
	return starter.StartServer(ctx, catalog, api.ServerConfig{
		Addr:        server.Addr(),
		APIKey:      server.APIKey,
		CORSOrigins: server.CORSOrigins,
		Logger:      e.logger,
	})
}

func init() {
	rootCmd.AddCommand(serveCmd)

	serveCmd.Flags().String("source", "dir", "Where tables come from (dir, archive)")
	serveCmd.Flags().String("dir", ".", "Directory of .dbc files for --source dir")
	serveCmd.Flags().String("bind", "127.0.0.1", "Address to listen on")
	serveCmd.Flags().IntP("port", "p", 8080, "Port to listen on")
	serveCmd.Flags().String("api-key", "", "API key required on /api/v1, overrides the config")
}
