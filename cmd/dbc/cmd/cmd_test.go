package cmd

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/ssargent/dbckit/pkg/config"
	"github.com/ssargent/dbckit/pkg/di"
	"github.com/ssargent/dbckit/pkg/key"
	"github.com/ssargent/dbckit/pkg/logging"
	"github.com/ssargent/dbckit/pkg/schema"
	"github.com/ssargent/dbckit/pkg/table"
	"github.com/stretchr/testify/require"
)

const iconSchemaYAML = `name: SpellIcon
file: SpellIcon.dbc
fields:
  - {name: id, type: primary_key, base: int32}
  - {name: texture, type: string_ref}
`

// workspace is a temp directory with a schema, a config and one table file.
type workspace struct {
	dir        string
	configPath string
	schemaDir  string
	dataDir    string
	iconPath   string
	iconBytes  []byte
}

func newWorkspace(t *testing.T) *workspace {
	t.Helper()
	dir := t.TempDir()
	w := &workspace{
		dir:        dir,
		configPath: filepath.Join(dir, "dbc.yaml"),
		schemaDir:  filepath.Join(dir, "schemas"),
		dataDir:    filepath.Join(dir, "data"),
		iconPath:   filepath.Join(dir, "SpellIcon.dbc"),
	}
	require.NoError(t, os.MkdirAll(w.schemaDir, 0755))
	require.NoError(t, os.WriteFile(filepath.Join(w.schemaDir, "SpellIcon.yaml"), []byte(iconSchemaYAML), 0644))

	cfg := config.DefaultConfig()
	cfg.SchemaDir = w.schemaDir
	cfg.DataDir = w.dataDir
	cfg.Server.APIKey = "test-key"
	cfg.Logging.Level = "error"
	require.NoError(t, config.SaveConfig(cfg, w.configPath))

	s, err := schema.Parse([]byte(iconSchemaYAML))
	require.NoError(t, err)
	tbl := table.New(s)
	tbl.Append(
		table.Row{key.New(int32(1)), `Interface\Icons\Spell_Fire_Fireball`},
		table.Row{key.New(int32(2)), `Interface\Icons\Spell_Frost_FrostBolt`},
		table.Row{key.New(int32(3)), `Interface\Icons\Spell_Fire_Fireball`},
	)
	w.iconBytes, err = tbl.Encode()
	require.NoError(t, err)
	require.NoError(t, os.WriteFile(w.iconPath, w.iconBytes, 0644))
	return w
}

// run executes the root command with the workspace config and returns
// stdout and the command error.
func (w *workspace) run(t *testing.T, args ...string) (string, error) {
	t.Helper()
	resetFlags(rootCmd)
	if container == nil {
		SetContainer(di.NewContainer(logging.NoopLogger()))
	}

	var out, errOut bytes.Buffer
	rootCmd.SetOut(&out)
	rootCmd.SetErr(&errOut)
	rootCmd.SetArgs(append([]string{"--config", w.configPath}, args...))
	err := rootCmd.ExecuteContext(context.Background())
	return out.String(), err
}

// resetFlags restores every flag to its default so runs do not leak into
// each other through the package-level commands.
func resetFlags(c *cobra.Command) {
	reset := func(f *pflag.Flag) {
		_ = f.Value.Set(f.DefValue)
		f.Changed = false
	}
	c.Flags().VisitAll(reset)
	c.PersistentFlags().VisitAll(reset)
	for _, sub := range c.Commands() {
		resetFlags(sub)
	}
}
