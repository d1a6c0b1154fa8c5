package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"
)

// LoadConfig reads and parses a YAML configuration file, applies
// defaults, and validates the result.
func LoadConfig(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("config: failed to read %q: %w", path, err)
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("config: failed to parse %q: %w", path, err)
	}

	ApplyDefaults(&cfg)

	if err := Validate(&cfg); err != nil {
		return nil, err
	}

	return &cfg, nil
}

// LoadConfigWithEnvOverrides loads the config file and applies
// RPCSEC_-prefixed environment variable overrides on top, following the
// naming convention RPCSEC_SECTION_FIELD (e.g. RPCSEC_SECURITY_SEND_SEPOL).
// Environment variables are applied after file defaults but are
// themselves re-validated.
func LoadConfigWithEnvOverrides(path string) (*Config, error) {
	cfg, err := LoadConfig(path)
	if err != nil {
		return nil, err
	}

	applyEnvOverrides(cfg)

	if err := Validate(cfg); err != nil {
		return nil, fmt.Errorf("config: environment overrides produced an invalid configuration: %w", err)
	}

	return cfg, nil
}

func applyEnvOverrides(cfg *Config) {
	if v, ok := os.LookupEnv("RPCSEC_SECURITY_SEND_SEPOL"); ok {
		if n, err := strconv.Atoi(v); err == nil {
			cfg.Security.SendSepol = n
		}
	}
	if v, ok := os.LookupEnv("RPCSEC_SECURITY_RULE_FILE"); ok {
		cfg.Security.RuleFile = v
	}
	if v, ok := os.LookupEnv("RPCSEC_TELEMETRY_LOGGING_LEVEL"); ok {
		cfg.Telemetry.Logging.Level = v
	}
	if v, ok := os.LookupEnv("RPCSEC_TRANSPORT_LISTEN_ADDRESS"); ok {
		cfg.Transport.ListenAddress = v
	}
	if v, ok := os.LookupEnv("RPCSEC_SECURITY_IMPORTS"); ok {
		// Format: "name=flavor,name2=flavor2"
		for _, pair := range strings.Split(v, ",") {
			pair = strings.TrimSpace(pair)
			if pair == "" {
				continue
			}
			kv := strings.SplitN(pair, "=", 2)
			if len(kv) != 2 {
				continue
			}
			if cfg.Security.Imports == nil {
				cfg.Security.Imports = make(map[string]string)
			}
			cfg.Security.Imports[kv[0]] = kv[1]
		}
	}
}
