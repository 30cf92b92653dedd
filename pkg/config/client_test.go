package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestInitClientConfig_Success(t *testing.T) {
	path := filepath.Join(t.TempDir(), "scriptoriactl.yaml")

	require.NoError(t, InitClientConfig(path, false))

	cfg, err := LoadClientConfig(path)
	require.NoError(t, err)
	assert.Equal(t, "localhost:9000", cfg.Server)
	assert.Equal(t, "scriptoria", cfg.User)
}

func TestInitClientConfig_AlreadyExists(t *testing.T) {
	path := filepath.Join(t.TempDir(), "scriptoriactl.yaml")

	require.NoError(t, InitClientConfig(path, false))
	err := InitClientConfig(path, false)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "already exists")
}

func TestInitClientConfig_Force(t *testing.T) {
	path := filepath.Join(t.TempDir(), "scriptoriactl.yaml")

	require.NoError(t, InitClientConfig(path, false))
	require.NoError(t, InitClientConfig(path, true))

	info, err := os.Stat(path)
	require.NoError(t, err)
	assert.Greater(t, info.Size(), int64(0))
}

func TestLoadClientConfig_Missing(t *testing.T) {
	cfg, err := LoadClientConfig(filepath.Join(t.TempDir(), "missing.yaml"))
	require.NoError(t, err)
	assert.Empty(t, cfg.Server)
	assert.Empty(t, cfg.User)
}

func TestDefaultClientConfigPath_RespectsXDG(t *testing.T) {
	t.Setenv("XDG_CONFIG_HOME", "/tmp/xdg-home")

	path, err := DefaultClientConfigPath()
	require.NoError(t, err)
	assert.Equal(t, filepath.Join("/tmp/xdg-home", "scriptoria", "scriptoriactl.yaml"), path)
}
