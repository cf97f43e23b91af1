package cli

import (
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/charmbracelet/huh"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/chazuruo/tmplconv/internal/ai"
	_ "github.com/chazuruo/tmplconv/internal/ai/openai" // registers providers
	"github.com/chazuruo/tmplconv/internal/batch"
	"github.com/chazuruo/tmplconv/internal/catalog"
	"github.com/chazuruo/tmplconv/internal/config"
	"github.com/chazuruo/tmplconv/internal/convert"
	converrors "github.com/chazuruo/tmplconv/internal/errors"
	"github.com/chazuruo/tmplconv/internal/export"
	"github.com/chazuruo/tmplconv/internal/source"
)

// ConvertOptions contains the options for the convert command.
type ConvertOptions struct {
	Mode      string
	AI        bool
	Provider  string
	Model     string
	APIKeyEnv string
	BaseURL   string
	Workers   int
	NoCache   bool
	Yes       bool

	KeySeparator string
	KeyColumn    string
	TextColumn   string
	Sheet        string

	Format   string
	Out      string
	Template string
	Table    bool
}

// NewConvertCommand creates the convert command.
func NewConvertCommand() *cobra.Command {
	opts := &ConvertOptions{}

	cmd := &cobra.Command{
		Use:   "convert <file>",
		Short: "Convert placeholder text entries to template expressions",
		Long: `Convert every entry of a JSON, YAML, CSV or XLSX file.

Each entry is repaired, then routed by mode:
- pattern: deterministic rewriter only
- generative: generative service first, rewriter as fallback
- smart: generative service only for texts the classifier marks complex

The result map is written as JSON by default. The output format follows
--format, or the extension of --out.

Generative conversion must be enabled with [ai] enabled = true or --ai, and
needs the API key in the environment variable named by api_key_env.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runConvert(cmd, opts, args[0])
		},
	}

	cmd.Flags().StringVarP(&opts.Mode, "mode", "m", "", "conversion mode: pattern, generative or smart")
	cmd.Flags().BoolVar(&opts.AI, "ai", false, "enable the generative service for this run")
	cmd.Flags().StringVar(&opts.Provider, "provider", "", "AI provider (openai, openai_compat, ollama)")
	cmd.Flags().StringVar(&opts.Model, "model", "", "model name")
	cmd.Flags().StringVar(&opts.APIKeyEnv, "api-key-env", "", "environment variable holding the API key")
	cmd.Flags().StringVar(&opts.BaseURL, "base-url", "", "API base URL, including /v1")
	cmd.Flags().IntVarP(&opts.Workers, "workers", "w", 0, "entries converted concurrently")
	cmd.Flags().BoolVar(&opts.NoCache, "no-cache", false, "disable the exact-text cache")
	cmd.Flags().BoolVarP(&opts.Yes, "yes", "y", false, "send to the generative service without asking")

	cmd.Flags().StringVar(&opts.KeySeparator, "key-separator", "", "separator between language and field in entry keys")
	cmd.Flags().StringVar(&opts.KeyColumn, "key-column", "", "CSV/XLSX column holding full entry keys")
	cmd.Flags().StringVar(&opts.TextColumn, "text-column", "", "CSV/XLSX column holding source text (with --key-column)")
	cmd.Flags().StringVar(&opts.Sheet, "sheet", "", "XLSX sheet to read")

	cmd.Flags().StringVarP(&opts.Format, "format", "f", "", "output format: json, yaml, csv, xlsx or md")
	cmd.Flags().StringVarP(&opts.Out, "out", "o", "", "output file (default stdout)")
	cmd.Flags().StringVar(&opts.Template, "template", "", "custom template for md output")
	cmd.Flags().BoolVar(&opts.Table, "table", false, "print a per-entry report table to stderr")

	return cmd
}

func runConvert(cmd *cobra.Command, opts *ConvertOptions, path string) error {
	ctx := cmd.Context()
	log := Logger()

	cfg, err := applyConvertFlags(Config(), opts)
	if err != nil {
		return err
	}

	mode, err := batch.ParseMode(cfg.Convert.Mode)
	if err != nil {
		return err
	}

	format := export.FormatForPath(opts.Out, export.FormatJSON)
	if opts.Format != "" {
		if format, err = export.ParseFormat(opts.Format); err != nil {
			return err
		}
	}
	exporter, err := export.NewExporter(export.Options{
		Format:         format,
		Out:            opts.Out,
		CustomTemplate: opts.Template,
	})
	if err != nil {
		return err
	}

	entries, err := source.LoadFile(path, source.Options{
		KeySeparator: cfg.Input.KeySeparator,
		KeyColumn:    cfg.Input.KeyColumn,
		TextColumn:   cfg.Input.TextColumn,
		Sheet:        cfg.Input.Sheet,
	})
	if err != nil {
		return converrors.Wrap(err, "load entries")
	}

	cat := catalog.Default()
	gen, err := buildGenerator(cfg, mode, cat, log)
	if err != nil {
		return err
	}

	if gen != nil && cfg.AI.ConfirmSend && !opts.Yes && stdinIsTerminal() {
		n := pendingSends(entries, mode, cat)
		if n > 0 {
			ok, err := confirmSend(n, gen.Name())
			if err != nil {
				return err
			}
			if !ok {
				fmt.Fprintln(cmd.ErrOrStderr(), "Not sending; converting with the rewriter only.")
				gen, mode = nil, batch.PatternOnly
			}
		}
	}

	conv := batch.New(batch.Options{
		Mode:      mode,
		Catalog:   cat,
		Generator: gen,
		Workers:   cfg.Convert.Workers,
		Cache:     cfg.Convert.Cache,
		CacheSize: cfg.Convert.CacheSize,
		Logger:    log,
	})

	rep, err := conv.ConvertWithReport(ctx, entries)
	if err != nil {
		if converrors.IsMissingCredential(err) {
			return fmt.Errorf("%w (enable [ai] and set %s, or use --mode pattern)", err, cfg.AI.APIKeyEnv)
		}
		return err
	}
	if n := rep.Interrupted(); n > 0 {
		return fmt.Errorf("%w: %d of %d entries interrupted", converrors.ErrCanceled, n, len(rep.Outcomes))
	}

	if err := exporter.Export(cmd.OutOrStdout(), rep); err != nil {
		return converrors.Wrap(err, "write results")
	}

	if opts.Table {
		export.WriteTable(cmd.ErrOrStderr(), rep)
	}
	printSummary(cmd.ErrOrStderr(), rep)
	return nil
}

// applyConvertFlags returns a copy of base with the command flags applied.
func applyConvertFlags(base *config.Config, opts *ConvertOptions) (*config.Config, error) {
	cfg := *base

	if opts.Mode != "" {
		cfg.Convert.Mode = opts.Mode
	}
	if opts.Workers > 0 {
		cfg.Convert.Workers = opts.Workers
	}
	if opts.NoCache {
		cfg.Convert.Cache = false
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
	if opts.KeySeparator != "" {
		cfg.Input.KeySeparator = opts.KeySeparator
	}
	if opts.KeyColumn != "" {
		cfg.Input.KeyColumn = opts.KeyColumn
	}
	if opts.TextColumn != "" {
		cfg.Input.TextColumn = opts.TextColumn
	}
	if opts.Sheet != "" {
		cfg.Input.Sheet = opts.Sheet
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid options: %w", err)
	}
	return &cfg, nil
}

// buildGenerator returns the generative converter, or nil when the run does
// not use one or no credential is available.
func buildGenerator(cfg *config.Config, mode batch.Mode, cat *catalog.Catalog, log *zap.Logger) (batch.Generator, error) {
	if mode == batch.PatternOnly || !cfg.AI.Enabled {
		return nil, nil
	}

	aiCfg := &ai.Config{
		Provider:    cfg.AI.Provider,
		APIKey:      cfg.APIKey(),
		BaseURL:     cfg.AI.BaseURL,
		Model:       cfg.AI.Model,
		Temperature: cfg.AI.Temperature,
		MaxTokens:   cfg.AI.MaxTokens,
		Timeout:     cfg.Timeout(),
		MaxAttempts: ai.DefaultMaxAttempts,
	}

	p, err := ai.NewProvider(aiCfg)
	if err != nil {
		if converrors.IsMissingCredential(err) {
			log.Warn("no generative credential",
				zap.String("provider", cfg.AI.Provider),
				zap.String("api_key_env", cfg.AI.APIKeyEnv))
			return nil, nil
		}
		return nil, fmt.Errorf("failed to create AI provider: %w", err)
	}

	log.Debug("generative service ready",
		zap.String("provider", p.Name()),
		zap.String("model", cfg.AI.Model))
	return ai.NewConverter(p, cat, aiCfg), nil
}

// pendingSends counts the entries the generator would receive.
func pendingSends(entries map[string]string, mode batch.Mode, cat *catalog.Catalog) int {
	rw := convert.NewRewriter(cat)
	cl := convert.NewClassifier(cat)

	n := 0
	for _, text := range entries {
		repaired := rw.Repair(text)
		if strings.TrimSpace(repaired) == "" {
			continue
		}
		if mode == batch.Generative || cl.IsComplex(repaired) {
			n++
		}
	}
	return n
}

func confirmSend(n int, provider string) (bool, error) {
	ok := false
	err := huh.NewConfirm().
		Title(fmt.Sprintf("Send up to %d entries to %s?", n, provider)).
		Description("Entry text leaves this machine. Declining converts everything with the rewriter.").
		Affirmative("Send").
		Negative("Rewriter only").
		Value(&ok).
		Run()
	if err != nil {
		return false, formError(err)
	}
	return ok, nil
}

func printSummary(w io.Writer, rep *batch.Report) {
	counts := rep.Counts()
	fmt.Fprintf(w, "%d entries: %d converted, %d unchanged, %d fallback, %d failed (%s)\n",
		len(rep.Outcomes),
		counts[batch.StatusConverted],
		counts[batch.StatusUnchanged],
		counts[batch.StatusFallback],
		counts[batch.StatusFailed],
		rep.Elapsed.Round(time.Millisecond))
	if review := rep.Review(); len(review) > 0 {
		unmapped := 0
		for _, o := range review {
			if converrors.IsUnmappedPlaceholder(o.Err) {
				unmapped++
			}
		}
		fmt.Fprintf(w, "%d entries need review (%d with unmapped placeholders); rerun with --table for details\n",
			len(review), unmapped)
	}
}
