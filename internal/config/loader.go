// Package config provides configuration management for tmplconv.
//
// This file contains config loading functionality including:
// - XDG config path detection
// - TOML file parsing
// - Environment variable overrides
// - Validation
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/BurntSushi/toml"

	converrors "github.com/chazuruo/tmplconv/internal/errors"
)

// EnvPrefix prefixes every environment override.
const EnvPrefix = "TMPLCONV"

// DefaultConfigPath returns ~/.config/tmplconv/config.toml, or "" when the
// home directory is unknown.
func DefaultConfigPath() string {
	homeDir, err := os.UserHomeDir()
	if err != nil {
		return ""
	}
	return filepath.Join(homeDir, ".config", "tmplconv", "config.toml")
}

// DetectConfigPath searches for a config file using XDG standard paths.
// Returns the first config file found, or empty string if none exists.
//
// Search order:
// 1. $TMPLCONV_CONFIG
// 2. ~/.config/tmplconv/config.toml
func DetectConfigPath() string {
	if p, ok := os.LookupEnv(EnvPrefix + "_CONFIG"); ok && p != "" {
		if _, err := os.Stat(p); err == nil {
			return p
		}
	}

	configPath := DefaultConfigPath()
	if configPath == "" {
		return ""
	}
	if _, err := os.Stat(configPath); err == nil {
		return configPath
	}

	return ""
}

// Load loads a config from the specified path.
// If the file doesn't exist, returns an error wrapping errors.ErrNotFound.
// After loading, applies environment variable overrides and validates.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return nil, &converrors.ConfigError{Path: path, Err: converrors.ErrNotFound}
	}
	if err != nil {
		return nil, &converrors.ConfigError{Path: path, Err: fmt.Errorf("%w: %v", converrors.ErrIO, err)}
	}

	// Start with defaults
	cfg := DefaultConfig()

	if err := toml.Unmarshal(data, cfg); err != nil {
		return nil, &converrors.ConfigError{Path: path, Err: fmt.Errorf("%w: parse: %v", converrors.ErrInvalid, err)}
	}

	applyEnvOverrides(cfg)

	if err := cfg.Validate(); err != nil {
		return nil, &converrors.ConfigError{Path: path, Err: err}
	}

	return cfg, nil
}

// LoadWithDefaults attempts to load a config from XDG standard paths.
// If no config file is found, returns a validated config built from
// defaults and environment overrides.
func LoadWithDefaults() (*Config, error) {
	configPath := DetectConfigPath()
	if configPath == "" {
		cfg := DefaultConfig()
		applyEnvOverrides(cfg)
		if err := cfg.Validate(); err != nil {
			return nil, &converrors.ConfigError{Err: err}
		}
		return cfg, nil
	}

	return Load(configPath)
}

// applyEnvOverrides applies environment variable overrides to the config.
// Environment variables follow the pattern: TMPLCONV_<SECTION>_<FIELD>
//
// Examples:
// - TMPLCONV_CONVERT_MODE overrides [convert].mode
// - TMPLCONV_AI_MODEL overrides [ai].model
// - TMPLCONV_LOG_LEVEL overrides [log].level
//
// Boolean fields: use "true"/"false" strings
func applyEnvOverrides(c *Config) {
	applyString := func(key string, target *string) {
		if val, ok := os.LookupEnv(EnvPrefix + "_" + key); ok && val != "" {
			*target = val
		}
	}

	applyBool := func(key string, target *bool) {
		if val, ok := os.LookupEnv(EnvPrefix + "_" + key); ok && val != "" {
			switch strings.ToLower(val) {
			case "true", "1", "yes", "on":
				*target = true
			case "false", "0", "no", "off":
				*target = false
			}
		}
	}

	applyInt := func(key string, target *int) {
		if val, ok := os.LookupEnv(EnvPrefix + "_" + key); ok && val != "" {
			if i, err := strconv.Atoi(strings.TrimSpace(val)); err == nil {
				*target = i
			}
		}
	}

	applyFloat := func(key string, target *float64) {
		if val, ok := os.LookupEnv(EnvPrefix + "_" + key); ok && val != "" {
			if f, err := strconv.ParseFloat(strings.TrimSpace(val), 64); err == nil {
				*target = f
			}
		}
	}

	// Convert section
	applyString("CONVERT_MODE", &c.Convert.Mode)
	applyInt("CONVERT_WORKERS", &c.Convert.Workers)
	applyBool("CONVERT_CACHE", &c.Convert.Cache)
	applyInt("CONVERT_CACHE_SIZE", &c.Convert.CacheSize)

	// AI section
	applyBool("AI_ENABLED", &c.AI.Enabled)
	applyString("AI_PROVIDER", &c.AI.Provider)
	applyString("AI_BASE_URL", &c.AI.BaseURL)
	applyString("AI_MODEL", &c.AI.Model)
	applyString("AI_API_KEY_ENV", &c.AI.APIKeyEnv)
	applyFloat("AI_TEMPERATURE", &c.AI.Temperature)
	applyInt("AI_MAX_TOKENS", &c.AI.MaxTokens)
	applyInt("AI_TIMEOUT_SECONDS", &c.AI.TimeoutSeconds)
	applyBool("AI_CONFIRM_SEND", &c.AI.ConfirmSend)

	// Input section
	applyString("INPUT_KEY_SEPARATOR", &c.Input.KeySeparator)
	applyString("INPUT_KEY_COLUMN", &c.Input.KeyColumn)
	applyString("INPUT_TEXT_COLUMN", &c.Input.TextColumn)
	applyString("INPUT_SHEET", &c.Input.Sheet)

	// Log section
	applyString("LOG_LEVEL", &c.Log.Level)
	applyString("LOG_FORMAT", &c.Log.Format)
}
