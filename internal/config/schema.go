// Package config handles YAML configuration loading, environment variable
// expansion, and structural validation for snapmail.
package config

import "gopkg.in/yaml.v3"

// Config is the top-level configuration structure.
type Config struct {
	// Version is the config format version. Currently only "1" is supported.
	Version string `yaml:"version"`

	// DataDir is the root directory for persistent state (principal list,
	// run journal, screenshots). Defaults to the platform state directory
	// when empty.
	DataDir string `yaml:"data_dir"`

	// Log configures the process-wide logger.
	Log LogConfig `yaml:"log"`

	// Modules maps module IDs to their raw YAML configuration.
	// Keys must match registered module IDs (e.g. "capture.browser").
	// Only listed modules are loaded.
	Modules map[string]yaml.Node `yaml:"modules"`
}

// LogConfig configures the slog handler built at startup.
type LogConfig struct {
	// Level is one of "debug", "info", "warn", "error". Defaults to "info".
	Level string `yaml:"level"`

	// Format is "text" or "json". Defaults to "text".
	Format string `yaml:"format"`
}
