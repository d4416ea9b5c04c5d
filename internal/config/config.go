// Package config loads the viewer's YAML configuration file and applies
// defaults for anything left unset.
package config

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"

	"frag-viewer/internal/camera"
)

// Registry store kinds.
const (
	StoreMemory = "memory"
	StoreSQLite = "sqlite"
)

// ServerConfig holds HTTP server settings.
type ServerConfig struct {
	Addr string `yaml:"addr"`
}

// FragmentsConfig locates the pre-converted fragment files.
type FragmentsConfig struct {
	Dir   string `yaml:"dir"`
	Watch bool   `yaml:"watch"`
}

// RegistryConfig selects the visibility persistence backend.
type RegistryConfig struct {
	Store string `yaml:"store"` // memory | sqlite
	Path  string `yaml:"path"`  // sqlite database path
}

// ReadinessConfig tunes the geometry readiness monitor.
type ReadinessConfig struct {
	IntervalMS int `yaml:"interval_ms"`
	TimeoutMS  int `yaml:"timeout_ms"`
}

// Config is the top-level viewer configuration.
type Config struct {
	Server    ServerConfig          `yaml:"server"`
	Fragments FragmentsConfig       `yaml:"fragments"`
	Registry  RegistryConfig        `yaml:"registry"`
	Readiness ReadinessConfig       `yaml:"readiness"`
	Camera    camera.SettingsUpdate `yaml:"camera"`
}

// Default returns the configuration used when no file is present.
func Default() Config {
	return Config{
		Server:    ServerConfig{Addr: ":8111"},
		Fragments: FragmentsConfig{Dir: "data/fragments", Watch: true},
		Registry:  RegistryConfig{Store: StoreMemory, Path: "visibility.db"},
		Readiness: ReadinessConfig{IntervalMS: 50, TimeoutMS: 5000},
	}
}

// Load reads the YAML file at path over the defaults. A missing file is
// not an error; a malformed one is.
func Load(path string) (Config, error) {
	cfg := Default()
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return cfg, nil
		}
		return cfg, fmt.Errorf("reading config %s: %w", path, err)
	}
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return cfg, fmt.Errorf("parsing config %s: %w", path, err)
	}
	if err := cfg.validate(); err != nil {
		return cfg, fmt.Errorf("config %s: %w", path, err)
	}
	return cfg, nil
}

func (c Config) validate() error {
	switch c.Registry.Store {
	case StoreMemory, StoreSQLite:
	default:
		return fmt.Errorf("unknown registry store %q (want %s or %s)",
			c.Registry.Store, StoreMemory, StoreSQLite)
	}
	if c.Readiness.IntervalMS <= 0 || c.Readiness.TimeoutMS <= 0 {
		return fmt.Errorf("readiness interval and timeout must be positive")
	}
	return nil
}

// ReadinessInterval returns the poll interval as a duration.
func (c Config) ReadinessInterval() time.Duration {
	return time.Duration(c.Readiness.IntervalMS) * time.Millisecond
}

// ReadinessTimeout returns the total wait bound as a duration.
func (c Config) ReadinessTimeout() time.Duration {
	return time.Duration(c.Readiness.TimeoutMS) * time.Millisecond
}

// CameraSettings returns the default camera settings with the config's
// overrides applied.
func (c Config) CameraSettings() camera.Settings {
	s := camera.DefaultSettings()
	s.Apply(c.Camera)
	return s
}
