/*
Copyright © 2025 NAME HERE <EMAIL ADDRESS>
*/
package cmd

import (
	"context"
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"github.com/ssargent/dbckit/pkg/config"
	"github.com/ssargent/dbckit/pkg/di"
	"github.com/ssargent/dbckit/pkg/logging"
	"github.com/ssargent/dbckit/pkg/schema"
	"github.com/ssargent/dbckit/pkg/table"
)

var container *di.Container

// SetContainer sets the dependency injection container
func SetContainer(c *di.Container) {
	container = c
}

type envKey struct{}

// env is what every subcommand needs after flags and config are resolved.
type env struct {
	configPath string
	cfg        *config.Config
	logger     *logging.Logger

	registry *schema.Registry
}

// schemas loads the schema directory on first use so commands that never
// touch a table work without one.
func (e *env) schemas() (*schema.Registry, error) {
	if e.registry != nil {
		return e.registry, nil
	}
	r, err := schema.LoadDir(e.cfg.SchemaDir)
	if err != nil {
		return nil, err
	}
	e.registry = r
	return r, nil
}

// schemaFor resolves the schema for a file, by --table when given or by the
// file's base name otherwise.
func (e *env) schemaFor(path, tableName string) (*schema.Schema, error) {
	r, err := e.schemas()
	if err != nil {
		return nil, err
	}
	lookup := path
	if tableName != "" {
		lookup = tableName
	}
	s, ok := r.Lookup(lookup)
	if !ok {
		return nil, fmt.Errorf("no schema for %s in %s", lookup, e.cfg.SchemaDir)
	}
	return s, nil
}

// tableOptions applies the configured policy overrides.
func (e *env) tableOptions() []table.Option {
	opts := []table.Option{table.WithLogger(e.logger)}
	str, loc, _ := e.cfg.Codec.Policies()
	if str != nil {
		opts = append(opts, table.WithStringPolicy(*str))
	}
	if loc != nil {
		opts = append(opts, table.WithLocalizedPolicy(*loc))
	}
	return opts
}

func getEnv(cmd *cobra.Command) (*env, error) {
	e, ok := cmd.Context().Value(envKey{}).(*env)
	if !ok {
		return nil, errors.New("command environment not initialized")
	}
	return e, nil
}

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "dbc",
	Short: "dbc - DBC client database toolkit",
	Long: `dbc reads, writes and serves DBC client database tables.

Tables are described by YAML schemas; every command that opens a .dbc file
looks its schema up in the schema directory by file name or by --table.`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		e, err := loadEnv(cmd)
		if err != nil {
			return err
		}
		ctx := cmd.Context()
		if ctx == nil {
			ctx = context.Background()
		}
		// Store in command context
		cmd.SetContext(context.WithValue(ctx, envKey{}, e))
		return nil
	},
}

func loadEnv(cmd *cobra.Command) (*env, error) {
	flags := cmd.Flags()
	configPath, _ := flags.GetString("config")

	cfg := config.DefaultConfig()
	if config.ConfigExists(configPath) {
		loaded, err := config.LoadConfig(configPath)
		if err != nil {
			return nil, err
		}
		cfg = loaded
	} else if flags.Changed("config") && cmd.Name() != "init" && cmd.Name() != "up" {
		return nil, fmt.Errorf("config file does not exist: %s", configPath)
	}

	if flags.Changed("schema-dir") {
		cfg.SchemaDir, _ = flags.GetString("schema-dir")
	}
	if flags.Changed("data-dir") {
		cfg.DataDir, _ = flags.GetString("data-dir")
	}
	if flags.Changed("log-level") {
		cfg.Logging.Level, _ = flags.GetString("log-level")
	}
	if flags.Changed("log-format") {
		cfg.Logging.Format, _ = flags.GetString("log-format")
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	logger, err := logging.New(cmd.ErrOrStderr(), cfg.Logging.Level, cfg.Logging.Format)
	if err != nil {
		return nil, err
	}
	return &env{configPath: configPath, cfg: cfg, logger: logger}, nil
}

// Execute adds all child commands to the root command and sets flags appropriately.
// This is called by main.main(). It only needs to happen once to the rootCmd.
func Execute() {
	err := rootCmd.Execute()
	if err != nil {
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringP("config", "c", config.GetDefaultConfigPath(), "Path to the configuration file")
	rootCmd.PersistentFlags().StringP("schema-dir", "s", "./schemas", "Directory of table schemas")
	rootCmd.PersistentFlags().StringP("data-dir", "d", "./data", "Data directory for the archive")
	rootCmd.PersistentFlags().String("log-level", "info", "Log level (debug, info, warn, error)")
	rootCmd.PersistentFlags().String("log-format", "text", "Log format (text, json)")
}
