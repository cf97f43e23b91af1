package cli

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/spf13/cobra"

	"github.com/chazuruo/tmplconv/internal/catalog"
	"github.com/chazuruo/tmplconv/internal/convert"
	"github.com/chazuruo/tmplconv/internal/placeholders"
)

// ExplainOptions contains the options for the explain command.
type ExplainOptions struct {
	JSON bool
}

// Explanation describes how one text would be converted without a generator.
type Explanation struct {
	Input    string           `json:"input"`
	Repaired string           `json:"repaired"`
	Found    []string         `json:"placeholders"`
	Route    string           `json:"route"`
	Reasons  []convert.Reason `json:"reasons"`
	Rewrite  string           `json:"rewrite"`
	Unmapped []string         `json:"unmapped"`
	Valid    bool             `json:"valid"`
}

var (
	explainLabelStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("12")).Width(10)
	explainValueStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("229"))
	explainWarnStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("214"))
	explainMutedStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("241"))
)

// NewExplainCommand creates the explain command.
func NewExplainCommand() *cobra.Command {
	opts := &ExplainOptions{}

	cmd := &cobra.Command{
		Use:   "explain [text]",
		Short: "Show how a text would be converted",
		Long: `Show the repaired text, the complexity reasons, and the deterministic
rewrite for one text. Nothing is sent to the generative service.

The text is read from the arguments, or from stdin when piped:
  tmplconv explain "Hi [Sender name], welcome!"
  echo "[Time] ago" | tmplconv explain`,
		RunE: func(cmd *cobra.Command, args []string) error {
			text, err := explainInput(args, os.Stdin)
			if err != nil {
				return err
			}
			return runExplain(cmd.OutOrStdout(), opts, text)
		},
	}
	cmd.Annotations = map[string]string{skipConfigAnnotation: "true"}

	cmd.Flags().BoolVar(&opts.JSON, "json", false, "output result as JSON")

	return cmd
}

// explainInput takes the text from args, or from stdin when it is piped.
func explainInput(args []string, stdin *os.File) (string, error) {
	if len(args) > 0 {
		return strings.Join(args, " "), nil
	}
	if stdin != nil {
		if stat, err := stdin.Stat(); err == nil && stat.Mode()&os.ModeCharDevice == 0 {
			data, err := io.ReadAll(stdin)
			if err != nil {
				return "", fmt.Errorf("failed to read stdin: %w", err)
			}
			if s := strings.TrimRight(string(data), "\r\n"); s != "" {
				return s, nil
			}
		}
	}
	return "", fmt.Errorf("text required\n\nUsage: tmplconv explain \"<text>\"")
}

// Explain builds the explanation for text against cat.
func Explain(cat *catalog.Catalog, text string) Explanation {
	rw := convert.NewRewriter(cat)
	repaired := rw.Repair(text)
	reasons := convert.NewClassifier(cat).Classify(repaired)
	res := rw.RewriteDetail(text)

	route := "pattern"
	if len(reasons) > 0 {
		route = "generative"
	}
	if strings.TrimSpace(repaired) == "" {
		route = "passthrough"
	}

	return Explanation{
		Input:    text,
		Repaired: repaired,
		Found:    placeholders.Extract(repaired),
		Route:    route,
		Reasons:  reasons,
		Rewrite:  res.Expression,
		Unmapped: res.Unmapped,
		Valid:    convert.IsValid(res.Expression),
	}
}

func runExplain(w io.Writer, opts *ExplainOptions, text string) error {
	ex := Explain(catalog.Default(), text)

	if opts.JSON {
		return writeJSON(w, ex)
	}

	line := func(label, value string) {
		fmt.Fprintln(w, explainLabelStyle.Render(label)+" "+value)
	}

	line("Input", explainValueStyle.Render(ex.Input))
	if ex.Repaired != ex.Input {
		line("Repaired", explainValueStyle.Render(ex.Repaired))
	}

	if len(ex.Found) > 0 {
		line("Found", explainValueStyle.Render(strings.Join(ex.Found, " ")))
	}

	route := ex.Route
	if ex.Route == "generative" {
		route += explainMutedStyle.Render(" (smart mode; rewriter when no generator)")
	}
	line("Route", route)
	for _, r := range ex.Reasons {
		line("", explainWarnStyle.Render("- "+string(r)))
	}

	line("Rewrite", explainValueStyle.Render(ex.Rewrite))
	if len(ex.Unmapped) > 0 {
		line("Unmapped", explainWarnStyle.Render(strings.Join(ex.Unmapped, " ")))
	}
	if ex.Valid {
		line("Valid", "yes")
	} else {
		line("Valid", explainMutedStyle.Render("no (returned as text)"))
	}
	return nil
}
