package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"

	"portmon/internal/models"
)

// Monitor configures the background reachability monitor.
type Monitor struct {
	Host             string `yaml:"host"`
	Port             int    `yaml:"port"`
	IntervalSeconds  int    `yaml:"interval_seconds"`
	TimeoutMs        int    `yaml:"timeout_ms"`
	FailureThreshold int    `yaml:"failure_threshold"`
}

// Watcher configures the optional file-arrival watcher.
type Watcher struct {
	Enabled     bool   `yaml:"enabled"`
	Directory   string `yaml:"directory"`
	Extension   string `yaml:"extension"`
	Destination string `yaml:"destination"`
	PollMs      int    `yaml:"poll_ms"`
}

// Retention configures cleanup of the watcher's destination directory.
type Retention struct {
	MaxFiles  int `yaml:"max_files"`
	KeepFiles int `yaml:"keep_files"`
}

// Config represents configuration data for the port monitor.
type Config struct {
	DataDirectory string            `yaml:"data_directory"`
	Monitor       Monitor           `yaml:"monitor"`
	Ports         []models.PortSpec `yaml:"ports"`
	TestTimeoutMs int               `yaml:"test_timeout_ms"`
	Watcher       Watcher           `yaml:"watcher"`
	Retention     Retention         `yaml:"retention"`
}

// DefaultConfig returns sensible defaults in case no configuration file is provided.
func DefaultConfig() Config {
	return Config{
		DataDirectory: filepath.Join(".dist", "data"),
		Monitor: Monitor{
			Host:             "127.0.0.1",
			Port:             80,
			IntervalSeconds:  5,
			TimeoutMs:        500,
			FailureThreshold: 3,
		},
		Ports: []models.PortSpec{
			{Port: 7129, Label: "CLS"},
			{Port: 7130, Label: "OCR"},
		},
		TestTimeoutMs: 2000,
		Watcher: Watcher{
			PollMs: 500,
		},
		Retention: Retention{
			MaxFiles:  50,
			KeepFiles: 20,
		},
	}
}

// Load reads configuration from a yaml file. Missing files fall back to defaults.
func Load(path string) (Config, error) {
	if path == "" {
		return DefaultConfig(), nil
	}

	content, err := os.ReadFile(path)
	if errors.Is(err, os.ErrNotExist) {
		return DefaultConfig(), nil
	}
	if err != nil {
		return Config{}, fmt.Errorf("read config: %w", err)
	}

	cfg := DefaultConfig()
	if err := yaml.Unmarshal(content, &cfg); err != nil {
		return Config{}, fmt.Errorf("parse config: %w", err)
	}
	if cfg.DataDirectory == "" {
		cfg.DataDirectory = DefaultConfig().DataDirectory
	}
	if cfg.Monitor.Host == "" {
		cfg.Monitor.Host = "127.0.0.1"
	}
	if cfg.Monitor.Port <= 0 || cfg.Monitor.Port > 65535 {
		return Config{}, fmt.Errorf("monitor port %d out of range", cfg.Monitor.Port)
	}
	if cfg.Monitor.IntervalSeconds <= 0 {
		cfg.Monitor.IntervalSeconds = 5
	}
	if cfg.Monitor.TimeoutMs <= 0 {
		cfg.Monitor.TimeoutMs = 500
	}
	if cfg.Monitor.FailureThreshold <= 0 {
		cfg.Monitor.FailureThreshold = 3
	}
	if cfg.TestTimeoutMs <= 0 {
		cfg.TestTimeoutMs = 2000
	}
	for i, spec := range cfg.Ports {
		if spec.Label == "" {
			return Config{}, fmt.Errorf("ports[%d] is missing a label", i)
		}
		if spec.Port < 0 || spec.Port > 65535 {
			return Config{}, fmt.Errorf("port %d for %q out of range", spec.Port, spec.Label)
		}
	}
	if cfg.Watcher.Enabled {
		if cfg.Watcher.Directory == "" {
			return Config{}, errors.New("watcher.directory is required when the watcher is enabled")
		}
		if cfg.Watcher.Destination == "" {
			return Config{}, errors.New("watcher.destination is required when the watcher is enabled")
		}
	}
	if cfg.Watcher.PollMs <= 0 {
		cfg.Watcher.PollMs = 500
	}
	if cfg.Retention.KeepFiles > cfg.Retention.MaxFiles {
		cfg.Retention.KeepFiles = cfg.Retention.MaxFiles
	}
	return cfg, nil
}

// EnabledPorts returns the configured ports that are not disabled,
// in configuration order.
func (c Config) EnabledPorts() []models.PortSpec {
	out := make([]models.PortSpec, 0, len(c.Ports))
	for _, spec := range c.Ports {
		if spec.Enabled() {
			out = append(out, spec)
		}
	}
	return out
}
