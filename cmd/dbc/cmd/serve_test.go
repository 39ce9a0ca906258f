package cmd

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/ssargent/dbckit/pkg/api"
	"github.com/ssargent/dbckit/pkg/di"
	"github.com/ssargent/dbckit/pkg/logging"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// recordingStarter captures what serve would start instead of listening.
type recordingStarter struct {
	catalog api.Catalog
	config  api.ServerConfig
}

func (s *recordingStarter) CreateServerStarter() api.ServerStarter {
	return s
}

func (s *recordingStarter) StartServer(ctx context.Context, catalog api.Catalog, config api.ServerConfig) error {
	s.catalog = catalog
	s.config = config
	return nil
}

func withStarter(t *testing.T) *recordingStarter {
	t.Helper()
	c := di.NewContainer(logging.NoopLogger())
	starter := &recordingStarter{}
	c.SetServerFactory(starter)

	prev := container
	SetContainer(c)
	t.Cleanup(func() { SetContainer(prev) })
	return starter
}

func TestServeCommand_Dir(t *testing.T) {
	w := newWorkspace(t)
	starter := withStarter(t)

	out, err := w.run(t, "serve", "--dir", w.dir, "--port", "9191")
	require.NoError(t, err)
	assert.Contains(t, out, "Serving 1 tables from dir")

	assert.Equal(t, "127.0.0.1:9191", starter.config.Addr)
	assert.Equal(t, "test-key", starter.config.APIKey)
	assert.NotNil(t, starter.config.Logger)
	require.IsType(t, &api.DirCatalog{}, starter.catalog)

	lt, err := starter.catalog.Load("SpellIcon")
	require.NoError(t, err)
	assert.Equal(t, 3, lt.Table.Len())
}

func TestServeCommand_Archive(t *testing.T) {
	w := newWorkspace(t)
	_, err := w.run(t, "archive", "put", w.iconPath)
	require.NoError(t, err)

	starter := withStarter(t)
	_, err = w.run(t, "serve", "--source", "archive", "--api-key", "")
	require.NoError(t, err)

	assert.Equal(t, "", starter.config.APIKey)
	assert.IsType(t, &api.ArchiveCatalog{}, starter.catalog)
}

func TestServeCommand_UnknownSource(t *testing.T) {
	w := newWorkspace(t)
	withStarter(t)

	_, err := w.run(t, "serve", "--source", "s3")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unknown source")
}

func TestUpCommand_BootstrapsConfig(t *testing.T) {
	w := newWorkspace(t)
	w.configPath = filepath.Join(w.dir, "new", "dbc.yaml")
	starter := withStarter(t)

	out, err := w.run(t, "up", "--schema-dir", w.schemaDir, "--dir", w.dir, "--print-key")
	require.NoError(t, err)
	assert.Contains(t, out, "First run detected")
	assert.Contains(t, out, "Server API key: ")

	cfg := mustLoadConfig(t, w.configPath)
	assert.Equal(t, cfg.Server.APIKey, starter.config.APIKey)
	assert.Len(t, starter.config.APIKey, 64)

	starter.config = api.ServerConfig{}
	out, err = w.run(t, "up", "--schema-dir", w.schemaDir, "--dir", w.dir)
	require.NoError(t, err)
	assert.Contains(t, out, "Loaded configuration")
	assert.Equal(t, cfg.Server.APIKey, starter.config.APIKey)
}
