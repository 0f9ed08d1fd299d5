// Package config provides configuration loading and management for SceneSplit.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"gopkg.in/yaml.v3"
)

// Backend names for the state store.
const (
	BackendMemory = "memory"
	BackendNATS   = "nats"
)

// Config represents the complete SceneSplit configuration
type Config struct {
	Model    ModelConfig    `yaml:"model"`
	Store    StoreConfig    `yaml:"store"`
	Analyzer AnalyzerConfig `yaml:"analyzer"`
	Watch    WatchConfig    `yaml:"watch"`
}

// ModelConfig configures the model registry
type ModelConfig struct {
	// RegistryPath points to a JSON model registry file. Empty uses the
	// built-in capability and endpoint defaults.
	RegistryPath string `yaml:"registry_path"`
	// Timeout is the maximum time to wait for model responses
	Timeout time.Duration `yaml:"timeout"`
}

// StoreConfig configures where workflow state is checkpointed
type StoreConfig struct {
	// Backend selects the store implementation: "memory" or "nats"
	Backend string `yaml:"backend"`
	// URL is the NATS server URL (nats backend only)
	URL string `yaml:"url"`
	// Bucket is the JetStream KV bucket name (nats backend only)
	Bucket string `yaml:"bucket"`
}

// AnalyzerConfig configures scene analysis
type AnalyzerConfig struct {
	// Workers bounds concurrent scene analyses
	Workers int `yaml:"workers"`
	// Timeout applies per workflow invocation
	Timeout time.Duration `yaml:"timeout"`
}

// WatchConfig configures the drop-folder watcher
type WatchConfig struct {
	// Dir is the folder to watch for script files
	Dir string `yaml:"dir"`
	// Debounce is how long a file must be quiet before analysis starts
	Debounce time.Duration `yaml:"debounce"`
	// Extensions limits which files trigger analysis (empty = all supported)
	Extensions []string `yaml:"extensions"`
}

// DefaultConfig returns a Config with sensible defaults
func DefaultConfig() *Config {
	return &Config{
		Model: ModelConfig{
			RegistryPath: "",
			Timeout:      5 * time.Minute,
		},
		Store: StoreConfig{
			Backend: BackendMemory,
			URL:     "nats://localhost:4222",
			Bucket:  "SCRIPT_BREAKDOWNS",
		},
		Analyzer: AnalyzerConfig{
			Workers: 4,
			Timeout: 10 * time.Minute,
		},
		Watch: WatchConfig{
			Dir:      "scripts",
			Debounce: 500 * time.Millisecond,
		},
	}
}

// Validate checks that the configuration is valid
func (c *Config) Validate() error {
	switch c.Store.Backend {
	case BackendMemory:
	case BackendNATS:
		if c.Store.URL == "" {
			return fmt.Errorf("store.url is required for the nats backend")
		}
		if c.Store.Bucket == "" {
			return fmt.Errorf("store.bucket is required for the nats backend")
		}
	default:
		return fmt.Errorf("store.backend must be %q or %q, got %q", BackendMemory, BackendNATS, c.Store.Backend)
	}

	if c.Analyzer.Workers < 1 {
		return fmt.Errorf("analyzer.workers must be at least 1")
	}
	if c.Analyzer.Timeout <= 0 {
		return fmt.Errorf("analyzer.timeout must be positive")
	}
	return nil
}

// LoadFromFile loads configuration from a YAML file
func LoadFromFile(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	config := DefaultConfig()
	if err := yaml.Unmarshal(data, config); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}

	return config, nil
}

// SaveToFile saves configuration to a YAML file
func (c *Config) SaveToFile(path string) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	return nil
}

// Merge merges another config into this one (other takes precedence for non-zero values)
func (c *Config) Merge(other *Config) {
	if other == nil {
		return
	}

	if other.Model.RegistryPath != "" {
		c.Model.RegistryPath = other.Model.RegistryPath
	}
	if other.Model.Timeout != 0 {
		c.Model.Timeout = other.Model.Timeout
	}

	if other.Store.Backend != "" {
		c.Store.Backend = other.Store.Backend
	}
	if other.Store.URL != "" {
		c.Store.URL = other.Store.URL
	}
	if other.Store.Bucket != "" {
		c.Store.Bucket = other.Store.Bucket
	}

	if other.Analyzer.Workers != 0 {
		c.Analyzer.Workers = other.Analyzer.Workers
	}
	if other.Analyzer.Timeout != 0 {
		c.Analyzer.Timeout = other.Analyzer.Timeout
	}

	if other.Watch.Dir != "" {
		c.Watch.Dir = other.Watch.Dir
	}
	if other.Watch.Debounce != 0 {
		c.Watch.Debounce = other.Watch.Debounce
	}
	if len(other.Watch.Extensions) > 0 {
		c.Watch.Extensions = other.Watch.Extensions
	}
}
