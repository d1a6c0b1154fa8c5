package config

import "sync"

var (
	globalConfig *Config
	configMutex  sync.RWMutex
	initOnce     sync.Once
)

// Initialize loads configuration from path and stores it as the
// process-wide singleton. Subsequent calls are no-ops (sync.Once).
func Initialize(path string) error {
	var initErr error

	initOnce.Do(func() {
		cfg, err := LoadConfigWithEnvOverrides(path)
		if err != nil {
			initErr = err
			return
		}

		configMutex.Lock()
		globalConfig = cfg
		configMutex.Unlock()
	})

	return initErr
}

// GetConfig returns the global configuration, or nil if Initialize has
// not succeeded yet.
func GetConfig() *Config {
	configMutex.RLock()
	defer configMutex.RUnlock()
	return globalConfig
}

// MustGet returns the global configuration or panics. It is meant for
// use at the top of main() / cobra RunE functions after Initialize has
// already been called and checked.
func MustGet() *Config {
	cfg := GetConfig()
	if cfg == nil {
		panic("config: MustGet called before a successful Initialize")
	}
	return cfg
}

// setForTest installs cfg as the singleton directly, bypassing file
// loading. It exists for tests in other packages that need a global
// config without writing a YAML fixture to disk.
func setForTest(cfg *Config) {
	configMutex.Lock()
	defer configMutex.Unlock()
	globalConfig = cfg
}

// SetForTest is the exported form of setForTest.
func SetForTest(cfg *Config) { setForTest(cfg) }
