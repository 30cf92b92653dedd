package config

import (
	"fmt"
	"os"
	"reflect"
	"strings"

	"github.com/mitchellh/mapstructure"
	"github.com/spf13/viper"

	"github.com/scriptoria/scriptoria/internal/bytesize"
)

// LoadNameServer loads a NameServerConfig from configPath (YAML),
// overlaid with SCRIPTORIA_NAMESERVER_* environment variables, then
// fills defaults and validates. An empty configPath is not an error —
// the process simply runs on defaults plus environment overrides.
func LoadNameServer(configPath string) (*NameServerConfig, error) {
	v := newViper("SCRIPTORIA_NAMESERVER", configPath)
	if err := readConfigFile(v); err != nil {
		return nil, err
	}

	var cfg NameServerConfig
	if err := v.Unmarshal(&cfg, viper.DecodeHook(decodeHooks())); err != nil {
		return nil, fmt.Errorf("config: unmarshal nameserver config: %w", err)
	}
	ApplyNameServerDefaults(&cfg)
	if err := Validate(&cfg); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// LoadStorageServer loads a StorageServerConfig the same way.
func LoadStorageServer(configPath string) (*StorageServerConfig, error) {
	v := newViper("SCRIPTORIA_STORAGESERVER", configPath)
	if err := readConfigFile(v); err != nil {
		return nil, err
	}

	var cfg StorageServerConfig
	if err := v.Unmarshal(&cfg, viper.DecodeHook(decodeHooks())); err != nil {
		return nil, fmt.Errorf("config: unmarshal storageserver config: %w", err)
	}
	ApplyStorageServerDefaults(&cfg)
	if err := Validate(&cfg); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func newViper(envPrefix, configPath string) *viper.Viper {
	v := viper.New()
	v.SetEnvPrefix(envPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if configPath != "" {
		v.SetConfigFile(configPath)
	} else {
		v.SetConfigName("config")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
	}
	return v
}

func readConfigFile(v *viper.Viper) error {
	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); ok {
			return nil
		}
		if os.IsNotExist(err) {
			return nil
		}
		return fmt.Errorf("config: read config file: %w", err)
	}
	return nil
}

// decodeHooks wires bytesize.ByteSize and time.Duration string parsing
// into viper's mapstructure unmarshal step.
func decodeHooks() mapstructure.DecodeHookFunc {
	return mapstructure.ComposeDecodeHookFunc(
		byteSizeDecodeHook(),
		mapstructure.StringToTimeDurationHookFunc(),
	)
}

func byteSizeDecodeHook() mapstructure.DecodeHookFunc {
	return func(from reflect.Type, to reflect.Type, data interface{}) (interface{}, error) {
		if to != reflect.TypeOf(bytesize.ByteSize(0)) {
			return data, nil
		}
		switch v := data.(type) {
		case string:
			return bytesize.ParseByteSize(v)
		case int:
			return bytesize.ByteSize(v), nil
		case int64:
			return bytesize.ByteSize(v), nil
		default:
			return data, nil
		}
	}
}
