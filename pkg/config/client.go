package config

import (
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

// ClientConfig holds scriptoriactl's persisted connection defaults, so a
// script can omit --server/--user once a config file exists.
type ClientConfig struct {
	Server string `yaml:"server" mapstructure:"server"`
	User   string `yaml:"user" mapstructure:"user"`
}

// DefaultClientConfigPath returns $XDG_CONFIG_HOME/scriptoria/scriptoriactl.yaml,
// falling back to $HOME/.config when XDG_CONFIG_HOME is unset.
func DefaultClientConfigPath() (string, error) {
	base := os.Getenv("XDG_CONFIG_HOME")
	if base == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("config: resolve home directory: %w", err)
		}
		base = filepath.Join(home, ".config")
	}
	return filepath.Join(base, "scriptoria", "scriptoriactl.yaml"), nil
}

// LoadClientConfig reads a ClientConfig from path. A missing file is not an
// error: it returns a zero-value config so callers fall back to flags.
func LoadClientConfig(path string) (*ClientConfig, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return &ClientConfig{}, nil
		}
		return nil, fmt.Errorf("config: read client config: %w", err)
	}
	var cfg ClientConfig
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("config: parse client config: %w", err)
	}
	return &cfg, nil
}

// InitClientConfig writes a sample ClientConfig to path, refusing to
// overwrite an existing file unless force is set.
func InitClientConfig(path string, force bool) error {
	if !force {
		if _, err := os.Stat(path); err == nil {
			return fmt.Errorf("config: %s already exists, use --force to overwrite", path)
		}
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("config: create config directory: %w", err)
	}

	sample := ClientConfig{Server: "localhost:9000", User: "scriptoria"}
	data, err := yaml.Marshal(sample)
	if err != nil {
		return fmt.Errorf("config: marshal sample client config: %w", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("config: write client config: %w", err)
	}
	return nil
}
