package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/BurntSushi/toml"

	converrors "github.com/chazuruo/tmplconv/internal/errors"
)

// Write writes the config to a file in TOML format.
func Write(path string, cfg *Config) error {
	configDir := filepath.Dir(path)
	if err := os.MkdirAll(configDir, 0o755); err != nil {
		return &converrors.ConfigError{Path: path, Err: fmt.Errorf("%w: create config directory: %v", converrors.ErrIO, err)}
	}

	var buf strings.Builder
	if err := toml.NewEncoder(&buf).Encode(cfg); err != nil {
		return &converrors.ConfigError{Path: path, Err: fmt.Errorf("encode config: %w", err)}
	}

	if err := os.WriteFile(path, []byte(buf.String()), 0o644); err != nil {
		return &converrors.ConfigError{Path: path, Err: fmt.Errorf("%w: write config file: %v", converrors.ErrIO, err)}
	}

	return nil
}
