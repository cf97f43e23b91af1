// Package cli provides global state and utilities for CLI commands.
package cli

import (
	"fmt"
	"os"
	"sync"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/chazuruo/tmplconv/internal/config"
	converrors "github.com/chazuruo/tmplconv/internal/errors"
	"github.com/chazuruo/tmplconv/internal/logging"
)

// skipConfigAnnotation marks commands that run without a loaded config.
const skipConfigAnnotation = "tmplconv/skip-config"

// GlobalOptions holds the persistent flags shared by every command.
type GlobalOptions struct {
	ConfigPath string
	Verbose    bool
	LogLevel   string
	LogFormat  string
}

var (
	globals GlobalOptions

	// stateMu protects the config and logger built before a command runs.
	stateMu sync.RWMutex
	current *config.Config
	logger  = logging.Nop()
)

// AddGlobalFlags adds global flags to a command and installs the hooks that
// load the config and build the logger.
func AddGlobalFlags(cmd *cobra.Command) {
	cmd.PersistentFlags().StringVar(&globals.ConfigPath, "config", "",
		"config file path (default ~/.config/tmplconv/config.toml)")
	cmd.PersistentFlags().BoolVarP(&globals.Verbose, "verbose", "v", false,
		"enable debug logging")
	cmd.PersistentFlags().StringVar(&globals.LogLevel, "log-level", "",
		"log level: debug, info, warn, error (overrides config)")
	cmd.PersistentFlags().StringVar(&globals.LogFormat, "log-format", "",
		"log format: console or json (overrides config)")

	cmd.PersistentPreRunE = func(cmd *cobra.Command, args []string) error {
		return setup(cmd)
	}
	cmd.PersistentPostRun = func(cmd *cobra.Command, args []string) {
		_ = Logger().Sync()
	}
}

// setup loads the config and builds the logger for cmd.
func setup(cmd *cobra.Command) error {
	cfg, err := loadConfig(globals.ConfigPath)
	if err != nil {
		if cmd.Annotations[skipConfigAnnotation] == "" {
			return err
		}
		cfg = config.DefaultConfig()
	}

	logCfg := logging.Config{
		Level:   cfg.Log.Level,
		Format:  cfg.Log.Format,
		Verbose: globals.Verbose,
	}
	if globals.LogLevel != "" {
		logCfg.Level = globals.LogLevel
	}
	if globals.LogFormat != "" {
		logCfg.Format = globals.LogFormat
	}
	l, err := logging.New(logCfg)
	if err != nil {
		return err
	}

	stateMu.Lock()
	defer stateMu.Unlock()
	current = cfg
	logger = l.With(zap.String("command", cmd.Name()))
	return nil
}

// loadConfig loads the config at path, or the detected config file, falling
// back to defaults when none exists.
func loadConfig(path string) (*config.Config, error) {
	if path == "" {
		cfg, err := config.LoadWithDefaults()
		if err != nil {
			return nil, fmt.Errorf("failed to load config: %w", err)
		}
		return cfg, nil
	}

	cfg, err := config.Load(path)
	if err != nil {
		if ce, ok := converrors.AsConfigError(err); ok && converrors.IsNotFound(ce) {
			return nil, fmt.Errorf("failed to load config: %w (create it with: tmplconv init --config %s)", err, ce.Path)
		}
		return nil, fmt.Errorf("failed to load config: %w", err)
	}
	return cfg, nil
}

// Config returns the config loaded for the running command.
func Config() *config.Config {
	stateMu.RLock()
	defer stateMu.RUnlock()
	if current == nil {
		return config.DefaultConfig()
	}
	return current
}

// Logger returns the logger built for the running command.
func Logger() *zap.Logger {
	stateMu.RLock()
	defer stateMu.RUnlock()
	return logger
}

// stdinIsTerminal reports whether stdin is an interactive terminal.
func stdinIsTerminal() bool {
	stat, err := os.Stdin.Stat()
	if err != nil {
		return false
	}
	return stat.Mode()&os.ModeCharDevice != 0
}
