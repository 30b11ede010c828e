// Package config provides configuration types and defaults for clilm.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"time"
)

// validProviders are the accepted values for the provider setting.
var validProviders = map[string]bool{
	"claude":  true,
	"codex":   true,
	"command": true,
}

// validExporters are the accepted values for telemetry.exporter.
var validExporters = map[string]bool{
	"":       true,
	"none":   true,
	"stdout": true,
	"otlp":   true,
}

// Config holds all configuration options for clilm.
type Config struct {
	// Provider selects the CLI backend: "claude", "codex", or "command".
	Provider string `mapstructure:"provider"`

	// Model overrides the provider's default model.
	Model string `mapstructure:"model"`

	// Command is the argv for the "command" provider.
	Command []string `mapstructure:"command"`

	// WorkDir is the working directory for spawned CLIs. Empty means
	// the current directory.
	WorkDir string `mapstructure:"work_dir"`

	// Timeout bounds each CLI invocation. Zero disables the limit.
	Timeout time.Duration `mapstructure:"timeout"`

	// Generations is the default number of completions per request.
	Generations int `mapstructure:"generations"`

	// SkipPermissions disables the CLI's permission prompts.
	SkipPermissions bool `mapstructure:"skip_permissions"`

	// SplitSystemPrompt routes system messages to the provider's
	// system-prompt flag instead of flattening them into the prompt.
	SplitSystemPrompt bool `mapstructure:"split_system_prompt"`

	// Env is overlaid on the parent environment for every call.
	Env map[string]string `mapstructure:"env"`

	Cache     CacheConfig     `mapstructure:"cache"`
	History   HistoryConfig   `mapstructure:"history"`
	Log       LogConfig       `mapstructure:"log"`
	Telemetry TelemetryConfig `mapstructure:"telemetry"`
}

// CacheConfig controls response caching.
type CacheConfig struct {
	Enabled bool          `mapstructure:"enabled"`
	TTL     time.Duration `mapstructure:"ttl"`
}

// HistoryConfig controls the persistent invocation history.
type HistoryConfig struct {
	Enabled bool `mapstructure:"enabled"`

	// Path to the history database. Empty means the default location
	// under the user's home directory.
	Path string `mapstructure:"path"`
}

// LogConfig controls file logging.
type LogConfig struct {
	// Path to the log file. Empty disables file logging.
	Path  string `mapstructure:"path"`
	Debug bool   `mapstructure:"debug"`
}

// TelemetryConfig controls trace export.
type TelemetryConfig struct {
	// Exporter selects the span exporter: "none", "stdout", or "otlp".
	Exporter string `mapstructure:"exporter"`

	// Endpoint is the OTLP collector address, e.g. "localhost:4317".
	Endpoint string `mapstructure:"endpoint"`
}

// CacheTTL returns the effective cache TTL, zero when caching is off.
func (c Config) CacheTTL() time.Duration {
	if !c.Cache.Enabled {
		return 0
	}
	return c.Cache.TTL
}

// HistoryPath returns the configured history path or the default one.
func (c Config) HistoryPath() (string, error) {
	if c.History.Path != "" {
		return c.History.Path, nil
	}
	return DefaultHistoryPath()
}

// Validate checks the configuration for errors.
func (c Config) Validate() error {
	if !validProviders[c.Provider] {
		return fmt.Errorf("invalid provider %q (want claude, codex, or command)", c.Provider)
	}
	if c.Provider == "command" && len(c.Command) == 0 {
		return fmt.Errorf("provider %q requires a command", c.Provider)
	}
	if c.Generations < 1 {
		return fmt.Errorf("generations must be at least 1, got %d", c.Generations)
	}
	if c.Timeout < 0 {
		return fmt.Errorf("timeout must not be negative, got %s", c.Timeout)
	}
	if !validExporters[c.Telemetry.Exporter] {
		return fmt.Errorf("invalid telemetry exporter %q (want none, stdout, or otlp)", c.Telemetry.Exporter)
	}
	if c.Telemetry.Exporter == "otlp" && c.Telemetry.Endpoint == "" {
		return fmt.Errorf("telemetry exporter %q requires an endpoint", c.Telemetry.Exporter)
	}
	return nil
}

// Defaults returns a Config with sensible default values.
func Defaults() Config {
	return Config{
		Provider:    "claude",
		Generations: 1,
		Timeout:     5 * time.Minute,
		Cache: CacheConfig{
			Enabled: true,
			TTL:     15 * time.Minute,
		},
		History: HistoryConfig{
			Enabled: true,
		},
		Telemetry: TelemetryConfig{
			Exporter: "none",
		},
	}
}

// ConfigDir returns the clilm configuration directory.
func ConfigDir() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("resolving home directory: %w", err)
	}
	return filepath.Join(home, ".clilm"), nil
}

// DefaultConfigPath returns the default config file location.
func DefaultConfigPath() (string, error) {
	dir, err := ConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "config.yaml"), nil
}

// DefaultHistoryPath returns the default history database location.
func DefaultHistoryPath() (string, error) {
	dir, err := ConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "history.db"), nil
}

// DefaultConfigTemplate returns the default config as a YAML string with comments.
func DefaultConfigTemplate() string {
	return `# clilm Configuration

# CLI backend to drive: claude, codex, or command
provider: claude

# Model override (empty uses the provider default)
# model: sonnet

# Argv for the command provider (ignored otherwise)
# command: ["python", "my_agent.py"]

# Working directory for spawned CLIs (default: current directory)
# work_dir: /path/to/project

# Per-invocation timeout (0 disables)
timeout: 5m

# Default number of completions per request
generations: 1

# Skip the CLI's permission prompts
skip_permissions: false

# Pass system messages via the provider's system-prompt flag
split_system_prompt: false

# Extra environment variables for spawned CLIs
# env:
#   MY_VAR: value

# Response cache (keyed on provider, model, and prompt)
cache:
  enabled: true
  ttl: 15m

# Persistent invocation history (SQLite)
history:
  enabled: true
  # path: ~/.clilm/history.db

# File logging
log:
  # path: ~/.clilm/clilm.log
  debug: false

# Trace export: none, stdout, or otlp
telemetry:
  exporter: none
  # endpoint: localhost:4317
`
}

// WriteDefaultConfig creates a config file at the given path with default settings and comments.
// Creates the parent directory if it doesn't exist.
func WriteDefaultConfig(configPath string) error {
	dir := filepath.Dir(configPath)
	if err := os.MkdirAll(dir, 0750); err != nil {
		return fmt.Errorf("creating config directory: %w", err)
	}

	if err := os.WriteFile(configPath, []byte(DefaultConfigTemplate()), 0600); err != nil {
		return fmt.Errorf("writing config file: %w", err)
	}

	return nil
}
