package cli

import (
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/charmbracelet/huh"
	"github.com/spf13/cobra"

	"github.com/chazuruo/tmplconv/internal/config"
	converrors "github.com/chazuruo/tmplconv/internal/errors"
)

// InitOptions contains the options for the init command.
type InitOptions struct {
	ConfigPath string
	Force      bool

	// Flag values for --no-input mode
	NoInput   bool
	Mode      string
	AI        bool
	Provider  string
	Model     string
	APIKeyEnv string
	BaseURL   string
}

// NewInitCommand creates the init command.
func NewInitCommand() *cobra.Command {
	opts := &InitOptions{}

	cmd := &cobra.Command{
		Use:   "init",
		Short: "Write a tmplconv configuration file",
		Long: `Write a tmplconv configuration file with default values.

On a terminal, init asks for the conversion mode and the generative provider.
Use --no-input with flags for scripted setup. The API key itself is never
written; only the name of the environment variable holding it.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if opts.ConfigPath == "" {
				opts.ConfigPath = globals.ConfigPath
			}
			if opts.NoInput || !stdinIsTerminal() {
				return runInitNonInteractive(cmd.OutOrStdout(), opts)
			}
			return runInitInteractive(cmd.OutOrStdout(), opts)
		},
	}
	cmd.Annotations = map[string]string{skipConfigAnnotation: "true"}

	cmd.Flags().BoolVar(&opts.Force, "force", false, "overwrite an existing config file")
	cmd.Flags().BoolVar(&opts.NoInput, "no-input", false, "do not prompt; use flags and defaults")
	cmd.Flags().StringVar(&opts.Mode, "mode", "", "conversion mode: pattern, generative or smart")
	cmd.Flags().BoolVar(&opts.AI, "ai", false, "enable the generative service")
	cmd.Flags().StringVar(&opts.Provider, "provider", "", "AI provider (openai, openai_compat, ollama)")
	cmd.Flags().StringVar(&opts.Model, "model", "", "model name")
	cmd.Flags().StringVar(&opts.APIKeyEnv, "api-key-env", "", "environment variable holding the API key")
	cmd.Flags().StringVar(&opts.BaseURL, "base-url", "", "API base URL, including /v1")

	return cmd
}

// runInitInteractive asks for the main settings with a form.
func runInitInteractive(w io.Writer, opts *InitOptions) error {
	cfg := config.DefaultConfig()

	if err := huh.NewForm(
		huh.NewGroup(
			huh.NewSelect[string]().
				Title("Conversion mode").
				Options(
					huh.NewOption("Smart - generative service only for complex texts", "smart"),
					huh.NewOption("Pattern - deterministic rewriter only", "pattern"),
					huh.NewOption("Generative - generative service for every text", "generative"),
				).
				Value(&cfg.Convert.Mode),
			huh.NewConfirm().
				Title("Enable the generative service?").
				Value(&cfg.AI.Enabled),
		),
	).Run(); err != nil {
		return formError(err)
	}

	if cfg.AI.Enabled {
		if err := huh.NewForm(
			huh.NewGroup(
				huh.NewSelect[string]().
					Title("Provider").
					Options(
						huh.NewOption("OpenAI", "openai"),
						huh.NewOption("OpenAI-compatible endpoint", "openai_compat"),
						huh.NewOption("Ollama (local)", "ollama"),
					).
					Value(&cfg.AI.Provider),
				huh.NewInput().
					Title("Model").
					Value(&cfg.AI.Model),
				huh.NewInput().
					Title("Base URL").
					Description("Including /v1").
					Value(&cfg.AI.BaseURL),
				huh.NewInput().
					Title("API key environment variable").
					Description("The key itself is never written to the config file").
					Value(&cfg.AI.APIKeyEnv),
			),
		).Run(); err != nil {
			return formError(err)
		}
	}

	return writeInitConfig(w, opts, cfg)
}

// runInitNonInteractive builds the config from flags.
func runInitNonInteractive(w io.Writer, opts *InitOptions) error {
	cfg := config.DefaultConfig()

	if opts.Mode != "" {
		cfg.Convert.Mode = opts.Mode
	}
	if opts.AI {
		cfg.AI.Enabled = true
	}
	if opts.Provider != "" {
		cfg.AI.Provider = opts.Provider
	}
	if opts.Model != "" {
		cfg.AI.Model = opts.Model
	}
	if opts.APIKeyEnv != "" {
		cfg.AI.APIKeyEnv = opts.APIKeyEnv
	}
	if opts.BaseURL != "" {
		cfg.AI.BaseURL = opts.BaseURL
	}

	return writeInitConfig(w, opts, cfg)
}

func formError(err error) error {
	if errors.Is(err, huh.ErrUserAborted) {
		return converrors.ErrCanceled
	}
	return fmt.Errorf("form error: %w", err)
}

func writeInitConfig(w io.Writer, opts *InitOptions, cfg *config.Config) error {
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("config validation failed: %w", err)
	}

	path := opts.ConfigPath
	if path == "" {
		path = config.DefaultConfigPath()
	}
	if path == "" {
		return fmt.Errorf("%w: cannot determine config path; use --config", converrors.ErrNotFound)
	}

	if _, err := os.Stat(path); err == nil && !opts.Force {
		return fmt.Errorf("config already exists at %s (use --force to overwrite)", path)
	}

	if err := config.Write(path, cfg); err != nil {
		return fmt.Errorf("failed to write config: %w", err)
	}

	fmt.Fprintf(w, "Configuration written to: %s\n", path)
	if cfg.AI.Enabled && cfg.AI.Provider != "ollama" {
		fmt.Fprintf(w, "Set %s before running convert.\n", cfg.AI.APIKeyEnv)
	}
	return nil
}
