package config_test

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"charsheet/internal/config"
)

func TestLoad_MissingFileUsesDefaults(t *testing.T) {
	t.Setenv(config.EnvDataDir, "")
	t.Setenv(config.EnvLogLevel, "")

	cfg, err := config.Load(filepath.Join(t.TempDir(), "nope.yaml"))
	require.NoError(t, err)
	assert.Equal(t, config.BackendSQLite, cfg.Storage.Backend)
	assert.Equal(t, "rpg-sheet-storage", cfg.Storage.SlotKey)
	assert.Equal(t, "@every 15m", cfg.Backup.Schedule)
	assert.Equal(t, 20, cfg.Backup.Keep)
	assert.Equal(t, "info", cfg.Logging.Level)
	assert.Equal(t, 12, cfg.Grid.Cols)
	assert.False(t, cfg.MCP.AutoApprove)
	assert.True(t, cfg.BackupsEnabled())
}

func TestLoad_File(t *testing.T) {
	t.Setenv(config.EnvDataDir, "")
	t.Setenv(config.EnvLogLevel, "")
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
data_dir: /srv/sheets
storage:
  backend: file
backup:
  schedule: "off"
  keep: 3
logging:
  level: debug
  development: true
grid:
  cols: 24
mcp:
  auto_approve: true
`), 0o644))

	cfg, err := config.Load(path)
	require.NoError(t, err)
	assert.Equal(t, "/srv/sheets", cfg.DataDir)
	assert.Equal(t, config.BackendFile, cfg.Storage.Backend)
	assert.Equal(t, "rpg-sheet-storage", cfg.Storage.SlotKey, "unset fields keep defaults")
	assert.False(t, cfg.BackupsEnabled())
	assert.Equal(t, 3, cfg.Backup.Keep)
	assert.True(t, cfg.Logging.Development)
	assert.Equal(t, 24, cfg.Grid.Cols)
	assert.True(t, cfg.MCP.AutoApprove)
	assert.Equal(t, filepath.Join("/srv/sheets", "charsheet.db"), cfg.DBPath())
	assert.Equal(t, filepath.Join("/srv/sheets", "slots"), cfg.SlotDir())
}

func TestLoad_EnvOverrides(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte("data_dir: /from/file\nlogging:\n  level: info\n"), 0o644))
	t.Setenv(config.EnvDataDir, "/from/env")
	t.Setenv(config.EnvLogLevel, "warn")

	cfg, err := config.Load(path)
	require.NoError(t, err)
	assert.Equal(t, "/from/env", cfg.DataDir)
	assert.Equal(t, "warn", cfg.Logging.Level)
}

func TestLoad_Errors(t *testing.T) {
	dir := t.TempDir()

	bad := filepath.Join(dir, "bad.yaml")
	require.NoError(t, os.WriteFile(bad, []byte("storage: [not, a, map"), 0o644))
	_, err := config.Load(bad)
	assert.Error(t, err)

	unknown := filepath.Join(dir, "unknown.yaml")
	require.NoError(t, os.WriteFile(unknown, []byte("storage:\n  backend: s3\n"), 0o644))
	_, err = config.Load(unknown)
	assert.ErrorContains(t, err, "s3")
}
