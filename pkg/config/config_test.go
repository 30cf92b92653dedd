package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeTempConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestLoadNameServer_FromFile(t *testing.T) {
	path := writeTempConfig(t, `
client_port: 9000
control_port: 9001
acl_cache_path: /var/lib/scriptoria/acl.cache
logging:
  level: debug
  format: json
  output: stdout
`)
	cfg, err := LoadNameServer(path)
	require.NoError(t, err)
	assert.Equal(t, 9000, cfg.ClientPort)
	assert.Equal(t, 9001, cfg.ControlPort)
	assert.Equal(t, "DEBUG", cfg.Logging.Level)
	assert.Equal(t, "json", cfg.Logging.Format)
}

func TestLoadNameServer_DefaultsApplied(t *testing.T) {
	path := writeTempConfig(t, `
client_port: 9000
control_port: 9001
acl_cache_path: acl.cache
`)
	cfg, err := LoadNameServer(path)
	require.NoError(t, err)
	assert.Equal(t, "INFO", cfg.Logging.Level)
	assert.Equal(t, "text", cfg.Logging.Format)
	assert.Equal(t, 2048, cfg.Limits.MaxSentenceChars)
	assert.Equal(t, 50, cfg.Limits.MaxStorageNodes)
}

func TestLoadNameServer_MissingRequiredFieldFails(t *testing.T) {
	path := writeTempConfig(t, `
client_port: 9000
`)
	_, err := LoadNameServer(path)
	require.Error(t, err)
}

func TestLoadStorageServer_FromFile(t *testing.T) {
	path := writeTempConfig(t, `
address: 10.0.0.5
client_port: 9100
nameserver_address: 10.0.0.1
nameserver_port: 9001
storage_dir: /var/lib/scriptoria/data
`)
	cfg, err := LoadStorageServer(path)
	require.NoError(t, err)
	assert.Equal(t, "10.0.0.5", cfg.Address)
	assert.Equal(t, "/var/lib/scriptoria/data", cfg.StorageDir)
}

func TestLoadNameServer_MissingFileUsesDefaults(t *testing.T) {
	_, err := LoadNameServer(filepath.Join(t.TempDir(), "absent.yaml"))
	// required fields with no default (client_port, control_port) still fail validation with no file present.
	require.Error(t, err)
}
