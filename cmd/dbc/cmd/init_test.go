package cmd

import (
	"path/filepath"
	"testing"

	"github.com/ssargent/dbckit/pkg/config"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestInitCommand(t *testing.T) {
	w := newWorkspace(t)
	w.configPath = filepath.Join(w.dir, "fresh", "config.yaml")

	t.Run("Writes config", func(t *testing.T) {
		out, err := w.run(t, "init", "--data-dir", w.dataDir, "--schema-dir", w.schemaDir)
		require.NoError(t, err)
		assert.Contains(t, out, "Config written to")
		assert.FileExists(t, w.configPath)

		cfg, err := config.LoadConfig(w.configPath)
		require.NoError(t, err)
		assert.Equal(t, w.dataDir, cfg.DataDir)
		assert.Equal(t, w.schemaDir, cfg.SchemaDir)
		assert.Len(t, cfg.Server.APIKey, 64)
	})

	t.Run("Refuses to overwrite", func(t *testing.T) {
		before, err := config.LoadConfig(w.configPath)
		require.NoError(t, err)

		out, err := w.run(t, "init")
		require.NoError(t, err)
		assert.Contains(t, out, "already exists")

		after, err := config.LoadConfig(w.configPath)
		require.NoError(t, err)
		assert.Equal(t, before.Server.APIKey, after.Server.APIKey)
	})

	t.Run("Force regenerates key", func(t *testing.T) {
		before, err := config.LoadConfig(w.configPath)
		require.NoError(t, err)

		_, err = w.run(t, "init", "--force")
		require.NoError(t, err)

		after, err := config.LoadConfig(w.configPath)
		require.NoError(t, err)
		assert.NotEqual(t, before.Server.APIKey, after.Server.APIKey)
	})
}

func TestRootCommand_MissingConfig(t *testing.T) {
	w := newWorkspace(t)
	w.configPath = filepath.Join(w.dir, "missing.yaml")

	_, err := w.run(t, "info", w.iconPath)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "config file does not exist")
}

func TestRootCommand_InvalidOverride(t *testing.T) {
	w := newWorkspace(t)

	_, err := w.run(t, "--log-level", "loud", "info", w.iconPath)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "logging.level")
}
