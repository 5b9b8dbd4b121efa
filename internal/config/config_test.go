package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/loykin/rdebug/internal/cluster"
)

func TestLoadDefaults(t *testing.T) {
	state := t.TempDir()
	t.Setenv("RDEBUG_STATE_DIR", state)

	cfg, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, "sqlite", cfg.Registry.Type)
	assert.Equal(t, filepath.Join(state, "registry.db"), cfg.Registry.Path)
	assert.Equal(t, filepath.Join(state, "logs"), cfg.Log.Dir)
	assert.Equal(t, cluster.DefaultDebugPort, cfg.DebugPort)
	assert.Equal(t, cluster.DefaultLocalPort, cfg.LocalPort)
}

func TestLoadFile(t *testing.T) {
	dir := t.TempDir()
	t.Setenv("RDEBUG_STATE_DIR", dir)
	path := filepath.Join(dir, "config.toml")
	content := `
debug_port = 6000
local_port = 6001

[registry]
type = "postgres"
dsn = "postgres://u:p@db/rdebug"

[log]
dir = "/tmp/rdebug-logs"
level = "debug"
`
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, 6000, cfg.DebugPort)
	assert.Equal(t, 6001, cfg.LocalPort)
	assert.Equal(t, "postgres", cfg.Registry.Type)
	assert.Equal(t, "postgres://u:p@db/rdebug", cfg.Registry.DSN)
	assert.Equal(t, "/tmp/rdebug-logs", cfg.Log.Dir)
	assert.Equal(t, "debug", cfg.Log.Level)
}

func TestLoadMissingExplicitFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "nope.toml"))
	assert.Error(t, err)
}

func TestLoadMissingDefaultFileIsFine(t *testing.T) {
	t.Setenv("RDEBUG_STATE_DIR", t.TempDir())
	_, err := Load("")
	assert.NoError(t, err)
}

func TestEnvOverride(t *testing.T) {
	t.Setenv("RDEBUG_STATE_DIR", t.TempDir())
	t.Setenv("RDEBUG_DEBUG_PORT", "7100")
	cfg, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, 7100, cfg.DebugPort)
}

func TestStateDir(t *testing.T) {
	t.Setenv("RDEBUG_STATE_DIR", "/scratch/state")
	assert.Equal(t, "/scratch/state", StateDir())
}
