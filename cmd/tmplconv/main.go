package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/chazuruo/tmplconv/internal/cli"
)

// Version is set at build time using ldflags
var Version = "dev"

// Commit is set at build time using ldflags
var Commit = "unknown"

// Date is set at build time using ldflags
var Date = "unknown"

func main() {
	rootCmd := &cobra.Command{
		Use:   "tmplconv",
		Short: "Convert placeholder text to template expressions",
		Long: `tmplconv converts human-written message text with bracketed placeholders
such as "Hi [Sender name], welcome!" into Handlebars-style expressions.

Simple texts are rewritten deterministically. Texts with conditionals, pronoun
alternation or helper calls can be sent to an OpenAI-compatible service, with
the deterministic rewrite as fallback.`,
		Version:      fmt.Sprintf("%s (commit: %s, built: %s)", Version, Commit, Date),
		SilenceUsage: true,
		Run: func(cmd *cobra.Command, args []string) {
			_ = cmd.Help()
		},
	}

	// Add global flags
	cli.AddGlobalFlags(rootCmd)

	rootCmd.CompletionOptions.DisableDefaultCmd = true

	// Add subcommands
	rootCmd.AddCommand(cli.NewConvertCommand())
	rootCmd.AddCommand(cli.NewExplainCommand())
	rootCmd.AddCommand(cli.NewValidateCommand())
	rootCmd.AddCommand(cli.NewCatalogCommand())
	rootCmd.AddCommand(cli.NewInitCommand())
	rootCmd.AddCommand(cli.NewVersionCommand(Version, Commit, Date))

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := rootCmd.ExecuteContext(ctx); err != nil {
		stop()
		os.Exit(1)
	}
}
