// Package config loads the agent's YAML configuration file, grounded on the
// teacher's yaml.v3-based config loading.
package config

import (
	"encoding/json"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// Config is the agent's top-level configuration.
type Config struct {
	// BrokerAddress is the broker endpoint the Connector connects to.
	// The Connector itself is out of scope; this field is carried so a
	// future transport implementation has somewhere to read it from.
	BrokerAddress string `yaml:"broker_address"`

	// ModuleDir is scanned at startup for external module executables.
	ModuleDir string `yaml:"module_dir"`

	// ModuleConfig maps module name to its raw configuration document,
	// validated against that module's declared configuration schema.
	ModuleConfig map[string]json.RawMessage `yaml:"module_config"`

	// ResultsRoot names a parent directory for per-transaction results
	// directories. No component in this repository reads it: a non-blocking
	// call uses the results_dir carried by its own request.
	ResultsRoot string `yaml:"results_root"`

	// WorkerPoolSize sizes the processor's fixed worker pool.
	WorkerPoolSize int `yaml:"worker_pool_size"`

	// SendTimeoutSeconds is the configured per-send Connector timeout. No
	// component in this repository reads it; the processor and Loopback
	// apply no timeout taken from this field.
	SendTimeoutSeconds int `yaml:"send_timeout_seconds"`

	// PollMode, when true, tells the module-directory watch to poll
	// instead of relying on fsnotify (for filesystems where inotify isn't
	// available).
	PollMode bool `yaml:"poll_mode"`
}

// Default returns the configuration used when no file is given.
func Default() *Config {
	return &Config{
		ModuleDir:      "/etc/nodeagent/modules",
		ResultsRoot:    "/var/run/nodeagent/results",
		WorkerPoolSize: 8,
	}
}

// Load reads and parses the YAML file at path, applying Default() for any
// zero-valued field the file doesn't set.
func Load(path string) (*Config, error) {
	cfg := Default()
	if path == "" {
		return cfg, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config %s: %w", path, err)
	}

	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parse config %s: %w", path, err)
	}

	if cfg.WorkerPoolSize <= 0 {
		cfg.WorkerPoolSize = 8
	}

	return cfg, nil
}
