// Package config provides configuration management for tmplconv.
//
// The configuration is stored in TOML format and supports validation
// and default values for all fields.
package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	converrors "github.com/chazuruo/tmplconv/internal/errors"
)

// Config is the top-level configuration struct for tmplconv.
type Config struct {
	Convert ConvertConfig `toml:"convert"`
	AI      AIConfig      `toml:"ai"`
	Input   InputConfig   `toml:"input"`
	Log     LogConfig     `toml:"log"`
}

// ConvertConfig contains batch conversion settings.
type ConvertConfig struct {
	// Mode selects the route entries take.
	// Valid values: "pattern", "generative", "smart".
	Mode string `toml:"mode"`

	// Workers bounds the number of entries converted concurrently.
	Workers int `toml:"workers"`

	// Cache enables the exact-text memo for the lifetime of one run.
	Cache bool `toml:"cache"`

	// CacheSize bounds the memo (0 = unbounded).
	CacheSize int `toml:"cache_size"`
}

// AIConfig contains generative provider settings.
type AIConfig struct {
	// Enabled enables the generative fallback (must be explicitly enabled).
	Enabled bool `toml:"enabled"`

	// Provider is the provider name.
	// Valid values: "openai", "openai_compat", "ollama".
	Provider string `toml:"provider"`

	// BaseURL is the base URL for API requests, including /v1.
	BaseURL string `toml:"base_url"`

	// Model is the model identifier.
	Model string `toml:"model"`

	// APIKeyEnv is the environment variable name containing the API key.
	// The key itself is never stored in the config file.
	APIKeyEnv string `toml:"api_key_env"`

	// Temperature is the sampling temperature.
	Temperature float64 `toml:"temperature"`

	// MaxTokens is the maximum tokens to generate per entry.
	MaxTokens int `toml:"max_tokens"`

	// TimeoutSeconds bounds each generative request.
	TimeoutSeconds int `toml:"timeout_seconds"`

	// ConfirmSend prompts for confirmation before sending entries to the provider.
	ConfirmSend bool `toml:"confirm_send"`
}

// InputConfig contains entry file settings.
type InputConfig struct {
	// KeySeparator joins language and field into an entry key ("en|subject").
	KeySeparator string `toml:"key_separator"`

	// KeyColumn names the column holding full entry keys in CSV/XLSX files.
	// Empty means the first column is the field and the header row holds languages.
	KeyColumn string `toml:"key_column"`

	// TextColumn names the source text column when KeyColumn is set.
	TextColumn string `toml:"text_column"`

	// Sheet is the XLSX sheet to read (empty = first sheet).
	Sheet string `toml:"sheet"`
}

// LogConfig contains logging settings.
type LogConfig struct {
	// Level is the minimum level: "debug", "info", "warn", "error".
	Level string `toml:"level"`

	// Format is the encoding: "json" or "console".
	Format string `toml:"format"`
}

// DefaultConfig returns a Config with all default values set.
func DefaultConfig() *Config {
	return &Config{
		Convert: ConvertConfig{
			Mode:      "smart",
			Workers:   4,
			Cache:     true,
			CacheSize: 0,
		},
		AI: AIConfig{
			Enabled:        false,
			Provider:       "openai",
			BaseURL:        "https://api.openai.com/v1",
			Model:          "gpt-4o-mini",
			APIKeyEnv:      "OPENAI_API_KEY",
			Temperature:    0.1,
			MaxTokens:      1000,
			TimeoutSeconds: 30,
			ConfirmSend:    true,
		},
		Input: InputConfig{
			KeySeparator: "|",
		},
		Log: LogConfig{
			Level:  "warn",
			Format: "console",
		},
	}
}

// Validate checks the configuration for valid values.
// Returns a nil error if the config is valid, or an error wrapping
// errors.ErrInvalid describing the problem.
func (c *Config) Validate() error {
	if err := c.validate(); err != nil {
		return fmt.Errorf("%w: %s", converrors.ErrInvalid, err)
	}
	return nil
}

func (c *Config) validate() error {
	// Validate Convert section
	validModes := map[string]bool{
		"pattern":    true,
		"generative": true,
		"smart":      true,
	}
	if !validModes[c.Convert.Mode] {
		return fmt.Errorf("convert.mode must be one of: pattern, generative, smart; got %q", c.Convert.Mode)
	}
	if c.Convert.Workers < 1 {
		return fmt.Errorf("convert.workers must be >= 1; got %d", c.Convert.Workers)
	}
	if c.Convert.CacheSize < 0 {
		return fmt.Errorf("convert.cache_size must be >= 0; got %d", c.Convert.CacheSize)
	}

	// Validate AI section (only if enabled)
	if c.AI.Enabled {
		validProviders := map[string]bool{
			"openai":        true,
			"openai_compat": true,
			"ollama":        true,
		}
		if !validProviders[c.AI.Provider] {
			return fmt.Errorf("ai.provider must be one of: openai, openai_compat, ollama; got %q", c.AI.Provider)
		}
		if c.AI.Model == "" {
			return fmt.Errorf("ai.model cannot be empty when ai.enabled is true")
		}
		if c.AI.APIKeyEnv == "" && c.AI.Provider != "ollama" {
			return fmt.Errorf("ai.api_key_env cannot be empty when ai.enabled is true")
		}
	}
	if c.AI.Temperature < 0 || c.AI.Temperature > 2 {
		return fmt.Errorf("ai.temperature must be between 0 and 2; got %g", c.AI.Temperature)
	}
	if c.AI.MaxTokens < 1 {
		return fmt.Errorf("ai.max_tokens must be >= 1; got %d", c.AI.MaxTokens)
	}
	if c.AI.TimeoutSeconds < 1 {
		return fmt.Errorf("ai.timeout_seconds must be >= 1; got %d", c.AI.TimeoutSeconds)
	}

	// Validate Input section
	if c.Input.KeySeparator == "" {
		return fmt.Errorf("input.key_separator cannot be empty")
	}
	if c.Input.KeyColumn != "" && c.Input.TextColumn == "" {
		return fmt.Errorf("input.text_column cannot be empty when input.key_column is set")
	}

	// Validate Log section
	validLevels := map[string]bool{
		"debug": true,
		"info":  true,
		"warn":  true,
		"error": true,
	}
	if !validLevels[strings.ToLower(c.Log.Level)] {
		return fmt.Errorf("log.level must be one of: debug, info, warn, error; got %q", c.Log.Level)
	}
	validFormats := map[string]bool{
		"json":    true,
		"console": true,
	}
	if !validFormats[c.Log.Format] {
		return fmt.Errorf("log.format must be one of: json, console; got %q", c.Log.Format)
	}

	return nil
}

// APIKey returns the credential from the environment variable named by
// ai.api_key_env, or "" when unset.
func (c *Config) APIKey() string {
	if c.AI.APIKeyEnv == "" {
		return ""
	}
	return strings.TrimSpace(os.Getenv(c.AI.APIKeyEnv))
}

// Timeout returns ai.timeout_seconds as a duration.
func (c *Config) Timeout() time.Duration {
	return time.Duration(c.AI.TimeoutSeconds) * time.Second
}
