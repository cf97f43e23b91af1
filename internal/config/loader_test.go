package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	converrors "github.com/chazuruo/tmplconv/internal/errors"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	configPath := filepath.Join(t.TempDir(), "config.toml")
	if err := os.WriteFile(configPath, []byte(content), 0o644); err != nil {
		t.Fatalf("failed to write config file: %v", err)
	}
	return configPath
}

// TestDetectConfigPath_EnvOverride tests that $TMPLCONV_CONFIG wins.
func TestDetectConfigPath_EnvOverride(t *testing.T) {
	configPath := writeConfig(t, "")
	t.Setenv("TMPLCONV_CONFIG", configPath)

	if got := DetectConfigPath(); got != configPath {
		t.Errorf("DetectConfigPath() = %q, want %q", got, configPath)
	}
}

// TestDetectConfigPath_NoConfig tests that empty string is returned when no config exists.
func TestDetectConfigPath_NoConfig(t *testing.T) {
	t.Setenv("HOME", t.TempDir())
	t.Setenv("TMPLCONV_CONFIG", "")

	if got := DetectConfigPath(); got != "" {
		t.Errorf("DetectConfigPath() = %q, want empty", got)
	}
}

// TestLoad_ValidConfig tests loading a valid config file.
func TestLoad_ValidConfig(t *testing.T) {
	configPath := writeConfig(t, `
[convert]
mode = "pattern"
workers = 8

[ai]
enabled = true
provider = "ollama"
model = "llama3"
api_key_env = ""

[input]
key_separator = ":"
`)

	cfg, err := Load(configPath)
	if err != nil {
		t.Fatalf("Load() returned error: %v", err)
	}

	if cfg.Convert.Mode != "pattern" {
		t.Errorf("expected convert.mode to be 'pattern', got %q", cfg.Convert.Mode)
	}
	if cfg.Convert.Workers != 8 {
		t.Errorf("expected convert.workers to be 8, got %d", cfg.Convert.Workers)
	}
	if cfg.AI.Provider != "ollama" || cfg.AI.Model != "llama3" {
		t.Errorf("unexpected ai section: %+v", cfg.AI)
	}
	if cfg.Input.KeySeparator != ":" {
		t.Errorf("expected input.key_separator to be ':', got %q", cfg.Input.KeySeparator)
	}
	// Unset fields keep defaults
	if cfg.AI.MaxTokens != 1000 {
		t.Errorf("expected ai.max_tokens default 1000, got %d", cfg.AI.MaxTokens)
	}
}

// TestLoad_FileNotFound tests that a missing file is reported as not found.
func TestLoad_FileNotFound(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "missing.toml"))
	if !converrors.IsNotFound(err) {
		t.Errorf("expected not found error, got %v", err)
	}
	if _, ok := converrors.AsConfigError(err); !ok {
		t.Errorf("expected *ConfigError, got %T", err)
	}
}

// TestLoad_InvalidTOML tests that invalid TOML returns error.
func TestLoad_InvalidTOML(t *testing.T) {
	configPath := writeConfig(t, `
[convert
mode = "pattern"
`)

	_, err := Load(configPath)
	if err == nil {
		t.Fatal("expected error for invalid TOML config, got nil")
	}
	if !strings.Contains(err.Error(), "parse") {
		t.Errorf("error should mention parsing failure, got: %v", err)
	}
	if !converrors.IsInvalid(err) {
		t.Errorf("error should wrap ErrInvalid, got: %v", err)
	}
}

// TestLoad_ValidationFailed tests that validation failures are returned.
func TestLoad_ValidationFailed(t *testing.T) {
	configPath := writeConfig(t, `
[convert]
mode = "magic"
`)

	_, err := Load(configPath)
	if err == nil {
		t.Fatal("expected error for invalid config, got nil")
	}
	ce, ok := converrors.AsConfigError(err)
	if !ok {
		t.Fatalf("expected *ConfigError, got %T", err)
	}
	if ce.Path != configPath {
		t.Errorf("ConfigError.Path = %q, want %q", ce.Path, configPath)
	}
	if !strings.Contains(err.Error(), "convert.mode") {
		t.Errorf("error should name the field, got: %v", err)
	}
}

// TestApplyEnvOverrides tests TMPLCONV_<SECTION>_<FIELD> overrides.
func TestApplyEnvOverrides(t *testing.T) {
	t.Setenv("TMPLCONV_CONVERT_MODE", "generative")
	t.Setenv("TMPLCONV_CONVERT_WORKERS", "16")
	t.Setenv("TMPLCONV_CONVERT_CACHE", "off")
	t.Setenv("TMPLCONV_AI_ENABLED", "yes")
	t.Setenv("TMPLCONV_AI_MODEL", "gpt-test")
	t.Setenv("TMPLCONV_AI_TEMPERATURE", "0.3")
	t.Setenv("TMPLCONV_AI_TIMEOUT_SECONDS", "not-a-number")
	t.Setenv("TMPLCONV_INPUT_SHEET", "Strings")
	t.Setenv("TMPLCONV_LOG_LEVEL", "debug")

	cfg := DefaultConfig()
	applyEnvOverrides(cfg)

	if cfg.Convert.Mode != "generative" {
		t.Errorf("convert.mode = %q", cfg.Convert.Mode)
	}
	if cfg.Convert.Workers != 16 {
		t.Errorf("convert.workers = %d", cfg.Convert.Workers)
	}
	if cfg.Convert.Cache {
		t.Error("convert.cache should be false")
	}
	if !cfg.AI.Enabled {
		t.Error("ai.enabled should be true")
	}
	if cfg.AI.Model != "gpt-test" {
		t.Errorf("ai.model = %q", cfg.AI.Model)
	}
	if cfg.AI.Temperature != 0.3 {
		t.Errorf("ai.temperature = %g", cfg.AI.Temperature)
	}
	if cfg.AI.TimeoutSeconds != 30 {
		t.Errorf("unparseable override should keep default, got %d", cfg.AI.TimeoutSeconds)
	}
	if cfg.Input.Sheet != "Strings" {
		t.Errorf("input.sheet = %q", cfg.Input.Sheet)
	}
	if cfg.Log.Level != "debug" {
		t.Errorf("log.level = %q", cfg.Log.Level)
	}
}

// TestLoadWithDefaults_NoFile tests defaults plus env overrides.
func TestLoadWithDefaults_NoFile(t *testing.T) {
	t.Setenv("HOME", t.TempDir())
	t.Setenv("TMPLCONV_CONFIG", "")
	t.Setenv("TMPLCONV_CONVERT_MODE", "pattern")

	cfg, err := LoadWithDefaults()
	if err != nil {
		t.Fatalf("LoadWithDefaults() returned error: %v", err)
	}
	if cfg.Convert.Mode != "pattern" {
		t.Errorf("convert.mode = %q, want pattern", cfg.Convert.Mode)
	}
}

// TestWrite_RoundTrip tests that a written config loads back.
func TestWrite_RoundTrip(t *testing.T) {
	configPath := filepath.Join(t.TempDir(), "nested", "config.toml")

	cfg := DefaultConfig()
	cfg.Convert.Mode = "pattern"
	cfg.Input.KeyColumn = "key"
	cfg.Input.TextColumn = "text"

	if err := Write(configPath, cfg); err != nil {
		t.Fatalf("Write() returned error: %v", err)
	}

	loaded, err := Load(configPath)
	if err != nil {
		t.Fatalf("Load() returned error: %v", err)
	}
	if *loaded != *cfg {
		t.Errorf("loaded config differs:\n got %+v\nwant %+v", loaded, cfg)
	}
}
