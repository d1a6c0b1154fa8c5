package config

import "fmt"

// Validate checks a fully-defaulted Config for internal consistency.
func Validate(cfg *Config) error {
	if cfg.Security.SendSepol < -1 {
		return fmt.Errorf("config: security.send_sepol must be >= -1, got %d", cfg.Security.SendSepol)
	}
	if cfg.Security.GCInterval < 0 {
		return fmt.Errorf("config: security.gc_interval must not be negative")
	}
	if cfg.Security.FlavorExpiry <= 0 {
		return fmt.Errorf("config: security.flavor_expiry must be positive")
	}
	if cfg.Security.SecExpiry < 0 {
		return fmt.Errorf("config: security.sec_expiry must not be negative")
	}
	for name, flavor := range cfg.Security.Imports {
		if name == "" {
			return fmt.Errorf("config: security.imports has an empty import name")
		}
		if flavor == "" {
			return fmt.Errorf("config: security.imports[%q] has an empty flavor", name)
		}
	}

	if cfg.Security.TLS.Enabled {
		if cfg.Security.TLS.CertFile == "" || cfg.Security.TLS.KeyFile == "" {
			return fmt.Errorf("config: security.tls requires cert_file and key_file when enabled")
		}
		switch cfg.Security.TLS.MinVersion {
		case "1.2", "1.3":
		default:
			return fmt.Errorf("config: security.tls.min_version must be \"1.2\" or \"1.3\", got %q", cfg.Security.TLS.MinVersion)
		}
	}

	switch cfg.Telemetry.Logging.Level {
	case "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("config: telemetry.logging.level must be one of debug/info/warn/error, got %q", cfg.Telemetry.Logging.Level)
	}
	switch cfg.Telemetry.Logging.Format {
	case "json", "text", "console":
	default:
		return fmt.Errorf("config: telemetry.logging.format must be one of json/text/console, got %q", cfg.Telemetry.Logging.Format)
	}
	if cfg.Telemetry.Tracing.SampleRate < 0 || cfg.Telemetry.Tracing.SampleRate > 1 {
		return fmt.Errorf("config: telemetry.tracing.sample_rate must be within [0,1], got %f", cfg.Telemetry.Tracing.SampleRate)
	}

	if cfg.Audit.Enabled && cfg.Audit.Path == "" {
		return fmt.Errorf("config: audit.path is required when audit.enabled is true")
	}

	return nil
}
