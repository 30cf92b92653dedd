package config

import (
	"strings"
	"time"

	"github.com/scriptoria/scriptoria/internal/bytesize"
)

// ApplyNameServerDefaults fills any unset NameServerConfig fields with
// their defaults, only ever replacing zero values.
func ApplyNameServerDefaults(cfg *NameServerConfig) {
	applyLoggingDefaults(&cfg.Logging)
	applyTelemetryDefaults(&cfg.Telemetry)
	applyMetricsDefaults(&cfg.Metrics)
	applyLimitsDefaults(&cfg.Limits)

	if cfg.ACLCachePath == "" {
		cfg.ACLCachePath = "acl.cache"
	}
	if cfg.HeartbeatWindow == 0 {
		cfg.HeartbeatWindow = 5 * time.Second
	}
	if cfg.LivenessTimeout == 0 {
		cfg.LivenessTimeout = 15 * time.Second
	}
	if cfg.StreamWordDelay == 0 {
		cfg.StreamWordDelay = 100 * time.Millisecond
	}
}

// ApplyStorageServerDefaults fills any unset StorageServerConfig fields
// with their defaults.
func ApplyStorageServerDefaults(cfg *StorageServerConfig) {
	applyLoggingDefaults(&cfg.Logging)
	applyTelemetryDefaults(&cfg.Telemetry)
	applyMetricsDefaults(&cfg.Metrics)
	applyLimitsDefaults(&cfg.Limits)

	if cfg.StorageDir == "" {
		cfg.StorageDir = "data"
	}
	if cfg.Address == "" {
		cfg.Address = "127.0.0.1"
	}
	if cfg.StreamWordDelay == 0 {
		cfg.StreamWordDelay = 100 * time.Millisecond
	}
}

func applyLoggingDefaults(cfg *LoggingConfig) {
	if cfg.Level == "" {
		cfg.Level = "INFO"
	}
	cfg.Level = strings.ToUpper(cfg.Level)
	if cfg.Format == "" {
		cfg.Format = "text"
	}
	if cfg.Output == "" {
		cfg.Output = "stdout"
	}
}

func applyTelemetryDefaults(cfg *TelemetryConfig) {
	if cfg.Endpoint == "" {
		cfg.Endpoint = "localhost:4317"
	}
	if cfg.SampleRate == 0 {
		cfg.SampleRate = 1.0
	}
	if cfg.ServiceVersion == "" {
		cfg.ServiceVersion = "dev"
	}
}

func applyMetricsDefaults(cfg *MetricsConfig) {
	if cfg.Port == 0 {
		cfg.Port = 9090
	}
}

func applyLimitsDefaults(cfg *LimitsConfig) {
	if cfg.MaxSentenceChars == 0 {
		cfg.MaxSentenceChars = 2048
	}
	if cfg.MaxWordChars == 0 {
		cfg.MaxWordChars = 256
	}
	if cfg.MaxDocumentSize == 0 {
		cfg.MaxDocumentSize = 16 * bytesize.KiB
	}
	if cfg.MaxFilesPerNode == 0 {
		cfg.MaxFilesPerNode = 1000
	}
	if cfg.MaxStorageNodes == 0 {
		cfg.MaxStorageNodes = 50
	}
	if cfg.MaxUsers == 0 {
		cfg.MaxUsers = 500
	}
}
