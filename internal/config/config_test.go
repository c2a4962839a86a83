package config

import (
	"os"
	"path/filepath"
	"testing"
)

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()
	if cfg.ServerURL != "http://localhost:5000" {
		t.Errorf("expected default server_url http://localhost:5000, got %q", cfg.ServerURL)
	}
	if cfg.TimeoutSeconds != 60 {
		t.Errorf("expected default timeout_seconds 60, got %d", cfg.TimeoutSeconds)
	}
	if cfg.ScopePolicy != "implicit" {
		t.Errorf("expected default scope_policy 'implicit', got %q", cfg.ScopePolicy)
	}
	if cfg.LogLevel != "info" {
		t.Errorf("expected default log_level 'info', got %q", cfg.LogLevel)
	}
}

func TestLoad_FileNotFound(t *testing.T) {
	cfg, err := Load("/nonexistent/config.yaml")
	if err != nil {
		t.Fatalf("expected no error for missing file, got %v", err)
	}
	// Should return default config.
	if cfg.ServerURL != "http://localhost:5000" {
		t.Errorf("expected default server_url, got %q", cfg.ServerURL)
	}
}

func TestLoad_ValidYAML(t *testing.T) {
	tmp := t.TempDir()
	path := filepath.Join(tmp, "config.yaml")
	yaml := `
server_url: "http://chat.example.com:8080"
timeout_seconds: 30
scope_policy: manual
state_dir: /tmp/docchat-state
log_level: debug
`
	os.WriteFile(path, []byte(yaml), 0644)

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg.ServerURL != "http://chat.example.com:8080" {
		t.Errorf("expected server_url from yaml, got %q", cfg.ServerURL)
	}
	if cfg.TimeoutSeconds != 30 {
		t.Errorf("expected timeout_seconds 30, got %d", cfg.TimeoutSeconds)
	}
	if cfg.ScopePolicy != "manual" {
		t.Errorf("expected scope_policy 'manual', got %q", cfg.ScopePolicy)
	}
	if cfg.StateDir != "/tmp/docchat-state" {
		t.Errorf("expected state_dir from yaml, got %q", cfg.StateDir)
	}
	if cfg.LogLevel != "debug" {
		t.Errorf("expected log_level 'debug', got %q", cfg.LogLevel)
	}
}

func TestLoad_InvalidYAML(t *testing.T) {
	tmp := t.TempDir()
	path := filepath.Join(tmp, "config.yaml")
	os.WriteFile(path, []byte("{{invalid yaml"), 0644)

	_, err := Load(path)
	if err == nil {
		t.Error("expected error for invalid YAML")
	}
}

func TestLoad_InvalidScopePolicy(t *testing.T) {
	tmp := t.TempDir()
	path := filepath.Join(tmp, "config.yaml")
	os.WriteFile(path, []byte("scope_policy: global\n"), 0644)

	_, err := Load(path)
	if err == nil {
		t.Error("expected error for unknown scope_policy")
	}
}

func TestLoad_EnvOverrides(t *testing.T) {
	tmp := t.TempDir()
	path := filepath.Join(tmp, "config.yaml")
	os.WriteFile(path, []byte("server_url: http://from-file:5000\n"), 0644)

	t.Setenv("DOCCHAT_SERVER_URL", "http://from-env:9000")
	t.Setenv("DOCCHAT_SCOPE_POLICY", "manual")
	t.Setenv("DOCCHAT_TIMEOUT_SECONDS", "15")
	t.Setenv("DOCCHAT_LOG_LEVEL", "warn")

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg.ServerURL != "http://from-env:9000" {
		t.Errorf("DOCCHAT_SERVER_URL should override, got %q", cfg.ServerURL)
	}
	if cfg.ScopePolicy != "manual" {
		t.Errorf("DOCCHAT_SCOPE_POLICY should override, got %q", cfg.ScopePolicy)
	}
	if cfg.TimeoutSeconds != 15 {
		t.Errorf("DOCCHAT_TIMEOUT_SECONDS should override, got %d", cfg.TimeoutSeconds)
	}
	if cfg.LogLevel != "warn" {
		t.Errorf("DOCCHAT_LOG_LEVEL should override, got %q", cfg.LogLevel)
	}
}

func TestLoad_BadTimeoutEnvIgnored(t *testing.T) {
	t.Setenv("DOCCHAT_TIMEOUT_SECONDS", "not-a-number")

	cfg, err := Load(filepath.Join(t.TempDir(), "config.yaml"))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg.TimeoutSeconds != 60 {
		t.Errorf("bad timeout env should be ignored, got %d", cfg.TimeoutSeconds)
	}
}

func TestResolveStateDir_Explicit(t *testing.T) {
	tmp := t.TempDir()
	cfg := &Config{StateDir: filepath.Join(tmp, "state")}

	dir, err := cfg.ResolveStateDir()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if dir != cfg.StateDir {
		t.Errorf("expected %q, got %q", cfg.StateDir, dir)
	}
	if _, err := os.Stat(dir); err != nil {
		t.Errorf("state dir should exist: %v", err)
	}
}
