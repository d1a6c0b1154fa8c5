// Package config holds the process-wide configuration for the rpcsec
// security layer: per-import flavor selection, SELinux status-check
// tunables, historical-flavor expiry windows, audit storage, and the
// ambient telemetry/transport settings the demo daemon needs to run.
package config

import "time"

// Config is the root configuration structure for rpcsecd.
type Config struct {
	// Security contains the security-layer tunables described in spec
	// section 6 ("Tunables") and the per-import flavor bindings.
	Security SecurityConfig `yaml:"security"`

	// Audit contains settings for the flavor-gate audit log.
	Audit AuditConfig `yaml:"audit"`

	// Telemetry contains logging, metrics, and tracing configuration.
	Telemetry TelemetryConfig `yaml:"telemetry"`

	// Transport contains settings for the reference gRPC transport.
	Transport TransportConfig `yaml:"transport"`
}

// SecurityConfig configures the security policy/context manager.
type SecurityConfig struct {
	// Imports maps an import name to the flavor it should be bound to.
	// Changing an entry and reloading the config file is the
	// "Configuration change" trigger from spec section 2's data-flow.
	Imports map[string]string `yaml:"imports"`

	// SendSepol controls the SELinux status-exchange cadence:
	// 0 disables it, -1 forces a check on every request, and a
	// positive N is the minimum number of seconds between checks.
	SendSepol int `yaml:"send_sepol"`

	// GCInterval is how often a Sec's idle contexts are considered for
	// garbage collection. GC scheduling itself is out of scope; this
	// value is only carried through to Sec for policies that expose a
	// gc_ctx hook.
	GCInterval time.Duration `yaml:"gc_interval"`

	// RefreshTimeout is the default timeout passed to CliCtx.Refresh
	// when a caller does not specify one explicitly.
	RefreshTimeout time.Duration `yaml:"refresh_timeout"`

	// FlavorExpiry is how long a rotated-out historical flavor remains
	// acceptable at an export (EXP_FLVR_UPDATE_EXPIRE in spec section 4.E).
	FlavorExpiry time.Duration `yaml:"flavor_expiry"`

	// SecExpiry is imp_sec_expire: how long a bound import's Sec is
	// trusted before the next RPC must offer Adapt a chance to re-bind
	// it to the currently configured flavor (spec section 3 "bound
	// import", section 4.C step 1).
	SecExpiry time.Duration `yaml:"sec_expiry"`

	// RuleFile names the file holding the import-to-flavor bindings (a
	// flavor name per import). RuleWatcher can watch it and report
	// writes to a callback; nothing in this module starts a RuleWatcher
	// on it or calls Sec.Adapt from it.
	RuleFile string `yaml:"rule_file"`

	// TLS configures the demo transport's certificate material.
	TLS TLSConfig `yaml:"tls"`
}

// TLSConfig mirrors pkg/security/tls.Config's YAML shape, without its
// mtls section, so it can be embedded directly in the root config file.
type TLSConfig struct {
	Enabled        bool     `yaml:"enabled"`
	CertFile       string   `yaml:"cert_file"`
	KeyFile        string   `yaml:"key_file"`
	MinVersion     string   `yaml:"min_version"`
	CipherSuites   []string `yaml:"cipher_suites"`
	ReloadInterval string   `yaml:"cert_reload_interval"`
}

// AuditConfig configures the flavor-gate's SQLite-backed audit log.
type AuditConfig struct {
	Enabled      bool   `yaml:"enabled"`
	Path         string `yaml:"path"`
	MaxOpenConns int    `yaml:"max_open_conns"`
	MaxIdleConns int    `yaml:"max_idle_conns"`
}

// TelemetryConfig configures logging, metrics, and tracing.
type TelemetryConfig struct {
	Logging LoggingConfig `yaml:"logging"`
	Metrics MetricsConfig `yaml:"metrics"`
	Tracing TracingConfig `yaml:"tracing"`
}

// LoggingConfig configures the structured logger.
type LoggingConfig struct {
	Level      string `yaml:"level"`
	Format     string `yaml:"format"`
	RedactPII  bool   `yaml:"redact_pii"`
	BufferSize int    `yaml:"buffer_size"`
}

// MetricsConfig configures the Prometheus collector.
type MetricsConfig struct {
	Enabled   bool   `yaml:"enabled"`
	Namespace string `yaml:"namespace"`
	Address   string `yaml:"address"`
}

// TracingConfig configures the OpenTelemetry tracer.
type TracingConfig struct {
	Enabled    bool    `yaml:"enabled"`
	Endpoint   string  `yaml:"endpoint"`
	SampleRate float64 `yaml:"sample_rate"`

	// ServiceName is the resource attribute identifying this process
	// in exported spans. Defaults to "rpcsecd" when empty.
	ServiceName string `yaml:"service_name"`

	// Exporter selects the span exporter backend: currently only
	// "otlp" is implemented; "jaeger"/"zipkin" are accepted and fail
	// at tracer construction with a clear "not yet implemented" error.
	Exporter string `yaml:"exporter"`

	// Sampler selects the sampling strategy: "always", "never", or
	// "ratio" (paired with SampleRate).
	Sampler string `yaml:"sampler"`

	// OTLP configures the OTLP/gRPC exporter used when Exporter == "otlp".
	OTLP OTLPConfig `yaml:"otlp"`
}

// OTLPConfig configures the OTLP/gRPC span exporter.
type OTLPConfig struct {
	Insecure bool          `yaml:"insecure"`
	Timeout  time.Duration `yaml:"timeout"`
}

// TransportConfig configures the reference gRPC transport used by the
// demo client/server pair in cmd/rpcsecd.
type TransportConfig struct {
	ListenAddress string        `yaml:"listen_address"`
	DialTimeout   time.Duration `yaml:"dial_timeout"`
}

// RedactPattern is a user-supplied PII redaction rule, matched by the
// structured logger's Redactor.
type RedactPattern struct {
	Name        string `yaml:"name"`
	Pattern     string `yaml:"pattern"`
	Replacement string `yaml:"replacement"`
}
