package config

import "time"

// Default tunables, named after their spec counterparts.
const (
	DefaultSendSepol       = 0
	DefaultGCInterval      = 5 * time.Minute
	DefaultRefreshTimeout  = 30 * time.Second
	DefaultFlavorExpiry    = 150 * time.Second
	DefaultSecExpiry       = 10 * time.Minute
	DefaultLogLevel        = "info"
	DefaultLogFormat       = "json"
	DefaultLogBufferSize   = 4096
	DefaultMetricsAddress  = "127.0.0.1:9090"
	DefaultTransportListen = "127.0.0.1:7700"
	DefaultDialTimeout     = 10 * time.Second
	DefaultAuditPath       = "rpcsec-audit.db"
	DefaultMaxOpenConns    = 4
	DefaultMaxIdleConns    = 2
)

// ApplyDefaults fills in zero-valued fields of cfg with the defaults above.
// It never overwrites a value the caller (or the YAML file) already set.
func ApplyDefaults(cfg *Config) {
	if cfg.Security.GCInterval == 0 {
		cfg.Security.GCInterval = DefaultGCInterval
	}
	if cfg.Security.RefreshTimeout == 0 {
		cfg.Security.RefreshTimeout = DefaultRefreshTimeout
	}
	if cfg.Security.FlavorExpiry == 0 {
		cfg.Security.FlavorExpiry = DefaultFlavorExpiry
	}
	if cfg.Security.SecExpiry == 0 {
		cfg.Security.SecExpiry = DefaultSecExpiry
	}
	if cfg.Security.Imports == nil {
		cfg.Security.Imports = make(map[string]string)
	}
	if cfg.Security.TLS.MinVersion == "" {
		cfg.Security.TLS.MinVersion = "1.3"
	}

	if cfg.Telemetry.Logging.Level == "" {
		cfg.Telemetry.Logging.Level = DefaultLogLevel
	}
	if cfg.Telemetry.Logging.Format == "" {
		cfg.Telemetry.Logging.Format = DefaultLogFormat
	}
	if cfg.Telemetry.Logging.BufferSize == 0 {
		cfg.Telemetry.Logging.BufferSize = DefaultLogBufferSize
	}
	if cfg.Telemetry.Metrics.Address == "" {
		cfg.Telemetry.Metrics.Address = DefaultMetricsAddress
	}
	if cfg.Telemetry.Metrics.Namespace == "" {
		cfg.Telemetry.Metrics.Namespace = "rpcsec"
	}
	if cfg.Telemetry.Tracing.SampleRate == 0 {
		cfg.Telemetry.Tracing.SampleRate = 0.1
	}
	if cfg.Telemetry.Tracing.ServiceName == "" {
		cfg.Telemetry.Tracing.ServiceName = "rpcsecd"
	}
	if cfg.Telemetry.Tracing.Exporter == "" {
		cfg.Telemetry.Tracing.Exporter = "otlp"
	}
	if cfg.Telemetry.Tracing.Sampler == "" {
		cfg.Telemetry.Tracing.Sampler = "ratio"
	}

	if cfg.Audit.Path == "" {
		cfg.Audit.Path = DefaultAuditPath
	}
	if cfg.Audit.MaxOpenConns == 0 {
		cfg.Audit.MaxOpenConns = DefaultMaxOpenConns
	}
	if cfg.Audit.MaxIdleConns == 0 {
		cfg.Audit.MaxIdleConns = DefaultMaxIdleConns
	}

	if cfg.Transport.ListenAddress == "" {
		cfg.Transport.ListenAddress = DefaultTransportListen
	}
	if cfg.Transport.DialTimeout == 0 {
		cfg.Transport.DialTimeout = DefaultDialTimeout
	}
}
