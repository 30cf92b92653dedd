// Package config loads and validates the layered configuration for the
// name node and storage node processes, using a
// viper+mapstructure+validator stack: environment variables override
// the config file, which overrides defaults.
package config

import (
	"time"

	"github.com/scriptoria/scriptoria/internal/bytesize"
)

// LoggingConfig controls the process's log output, consumed by
// internal/logger.New.
type LoggingConfig struct {
	Level  string `mapstructure:"level" validate:"required,oneof=DEBUG INFO WARN ERROR debug info warn error" yaml:"level"`
	Format string `mapstructure:"format" validate:"required,oneof=text json" yaml:"format"`
	Output string `mapstructure:"output" validate:"required" yaml:"output"`
}

// TelemetryConfig controls OpenTelemetry tracing, consumed by
// internal/telemetry.New.
type TelemetryConfig struct {
	Enabled        bool    `mapstructure:"enabled" yaml:"enabled"`
	Endpoint       string  `mapstructure:"endpoint" yaml:"endpoint"`
	Insecure       bool    `mapstructure:"insecure" yaml:"insecure"`
	SampleRate     float64 `mapstructure:"sample_rate" validate:"omitempty,gte=0,lte=1" yaml:"sample_rate"`
	ServiceVersion string  `mapstructure:"service_version" yaml:"service_version"`
}

// MetricsConfig configures the Prometheus/chi HTTP surface exposing
// /metrics and /health.
type MetricsConfig struct {
	Enabled bool `mapstructure:"enabled" yaml:"enabled"`
	Port    int  `mapstructure:"port" validate:"omitempty,min=1,max=65535" yaml:"port"`
}

// LimitsConfig mirrors the document size-cap table; zero values fall
// back to document.DefaultLimits-equivalent defaults in applyLimitsDefaults.
type LimitsConfig struct {
	MaxSentenceChars int               `mapstructure:"max_sentence_chars" yaml:"max_sentence_chars"`
	MaxWordChars     int               `mapstructure:"max_word_chars" yaml:"max_word_chars"`
	MaxDocumentSize  bytesize.ByteSize `mapstructure:"max_document_size" yaml:"max_document_size"`
	MaxFilesPerNode  int               `mapstructure:"max_files_per_node" yaml:"max_files_per_node"`
	MaxStorageNodes  int               `mapstructure:"max_storage_nodes" yaml:"max_storage_nodes"`
	MaxUsers         int               `mapstructure:"max_users" yaml:"max_users"`
}

// NameServerConfig is the name node's full static configuration.
type NameServerConfig struct {
	ClientPort      int              `mapstructure:"client_port" validate:"required,min=1,max=65535" yaml:"client_port"`
	ControlPort     int              `mapstructure:"control_port" validate:"required,min=1,max=65535" yaml:"control_port"`
	ACLCachePath    string           `mapstructure:"acl_cache_path" validate:"required" yaml:"acl_cache_path"`
	HeartbeatWindow time.Duration    `mapstructure:"heartbeat_window" yaml:"heartbeat_window"`
	LivenessTimeout time.Duration    `mapstructure:"liveness_timeout" yaml:"liveness_timeout"`
	StreamWordDelay time.Duration    `mapstructure:"stream_word_delay" yaml:"stream_word_delay"`
	ExecEnabled     bool             `mapstructure:"exec_enabled" yaml:"exec_enabled"`
	Limits          LimitsConfig     `mapstructure:"limits" yaml:"limits"`
	Logging         LoggingConfig    `mapstructure:"logging" yaml:"logging"`
	Telemetry       TelemetryConfig  `mapstructure:"telemetry" yaml:"telemetry"`
	Metrics         MetricsConfig    `mapstructure:"metrics" yaml:"metrics"`
}

// StorageServerConfig is a storage node's full static configuration.
type StorageServerConfig struct {
	Address           string          `mapstructure:"address" validate:"required" yaml:"address"`
	ClientPort        int             `mapstructure:"client_port" validate:"required,min=1,max=65535" yaml:"client_port"`
	NameServerAddress string          `mapstructure:"nameserver_address" yaml:"nameserver_address"`
	NameServerPort    int             `mapstructure:"nameserver_port" validate:"omitempty,min=1,max=65535" yaml:"nameserver_port"`
	StorageDir        string          `mapstructure:"storage_dir" validate:"required" yaml:"storage_dir"`
	StreamWordDelay   time.Duration   `mapstructure:"stream_word_delay" yaml:"stream_word_delay"`
	Limits            LimitsConfig    `mapstructure:"limits" yaml:"limits"`
	Logging           LoggingConfig   `mapstructure:"logging" yaml:"logging"`
	Telemetry         TelemetryConfig `mapstructure:"telemetry" yaml:"telemetry"`
	Metrics           MetricsConfig   `mapstructure:"metrics" yaml:"metrics"`
}

// HasNameServer reports whether this storage node is configured to
// register with a name node. The name node address may be omitted
// entirely for a standalone storage node.
func (c *StorageServerConfig) HasNameServer() bool {
	return c.NameServerAddress != ""
}
