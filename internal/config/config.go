// Package config loads and manages docchat configuration.
// Configuration source priority (highest to lowest):
// 1. Environment variables (DOCCHAT_SERVER_URL, DOCCHAT_SCOPE_POLICY, etc.)
// 2. Config file path specified via --config flag
// 3. ~/.config/docchat/config.yaml
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"

	"gopkg.in/yaml.v3"
)

// Config is the complete configuration structure for docchat.
type Config struct {
	// ServerURL is the base URL of the document-chat backend.
	ServerURL string `yaml:"server_url"`

	// TimeoutSeconds is the per-request timeout for backend calls.
	// The backend contract specifies none, so the client imposes its own.
	TimeoutSeconds int `yaml:"timeout_seconds"`

	// ScopePolicy selects how the attachment scope for a question is built:
	// "implicit" (all attachments of the session) or "manual" (per-file
	// checkbox selection, reset to all-selected on every reload).
	ScopePolicy string `yaml:"scope_policy"`

	// StateDir holds the durable client state (active session id) and the
	// log file. Empty = ~/.local/state/docchat.
	StateDir string `yaml:"state_dir"`

	// LogLevel: "debug", "info", "warn", "error".
	LogLevel string `yaml:"log_level"`
}

// DefaultConfig returns the default configuration.
func DefaultConfig() *Config {
	return &Config{
		ServerURL:      "http://localhost:5000",
		TimeoutSeconds: 60,
		ScopePolicy:    "implicit",
		LogLevel:       "info",
	}
}

// Load reads the config file and merges environment variable overrides.
func Load(configPath string) (*Config, error) {
	cfg := DefaultConfig()

	// Determine config file path
	if configPath == "" {
		home, err := os.UserHomeDir()
		if err == nil {
			configPath = filepath.Join(home, ".config", "docchat", "config.yaml")
		}
	}

	// Read config file (use defaults if not found)
	if data, err := os.ReadFile(configPath); err == nil {
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("invalid config file %s: %w", configPath, err)
		}
	}

	// Apply environment variable overrides
	applyEnvOverrides(cfg)

	if cfg.ScopePolicy != "implicit" && cfg.ScopePolicy != "manual" {
		return nil, fmt.Errorf("invalid scope_policy %q (want \"implicit\" or \"manual\")", cfg.ScopePolicy)
	}
	if cfg.TimeoutSeconds <= 0 {
		cfg.TimeoutSeconds = DefaultConfig().TimeoutSeconds
	}

	return cfg, nil
}

// ResolveStateDir returns the state directory, creating it if needed.
func (c *Config) ResolveStateDir() (string, error) {
	dir := c.StateDir
	if dir == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("cannot determine home directory: %w", err)
		}
		dir = filepath.Join(home, ".local", "state", "docchat")
	}
	if err := os.MkdirAll(dir, 0755); err != nil {
		return "", fmt.Errorf("cannot create state directory: %w", err)
	}
	return dir, nil
}

// applyEnvOverrides applies environment variable overrides to the config.
func applyEnvOverrides(cfg *Config) {
	if v := os.Getenv("DOCCHAT_SERVER_URL"); v != "" {
		cfg.ServerURL = v
	}
	if v := os.Getenv("DOCCHAT_SCOPE_POLICY"); v != "" {
		cfg.ScopePolicy = v
	}
	if v := os.Getenv("DOCCHAT_STATE_DIR"); v != "" {
		cfg.StateDir = v
	}
	if v := os.Getenv("DOCCHAT_LOG_LEVEL"); v != "" {
		cfg.LogLevel = v
	}
	if v := os.Getenv("DOCCHAT_TIMEOUT_SECONDS"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			cfg.TimeoutSeconds = n
		}
	}
}
