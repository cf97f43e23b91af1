// Package export writes conversion results and batch reports.
package export

import (
	"bytes"
	"encoding/csv"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"text/template"

	"github.com/rodaine/table"
	"github.com/xuri/excelize/v2"
	"gopkg.in/yaml.v3"

	"github.com/chazuruo/tmplconv/internal/batch"
	converrors "github.com/chazuruo/tmplconv/internal/errors"
)

// Format represents the export format.
type Format string

const (
	// FormatJSON exports the result map as a JSON object.
	FormatJSON Format = "json"
	// FormatYAML exports the result map as a YAML mapping.
	FormatYAML Format = "yaml"
	// FormatCSV exports key,source,output rows.
	FormatCSV Format = "csv"
	// FormatXLSX exports key,source,output rows to a workbook.
	FormatXLSX Format = "xlsx"
	// FormatMarkdown exports a review document for degraded entries.
	FormatMarkdown Format = "md"
)

// ParseFormat parses a format name.
func ParseFormat(s string) (Format, error) {
	f := Format(strings.ToLower(strings.TrimPrefix(strings.TrimSpace(s), ".")))
	switch f {
	case FormatJSON, FormatYAML, FormatCSV, FormatXLSX, FormatMarkdown:
		return f, nil
	case "yml":
		return FormatYAML, nil
	case "markdown":
		return FormatMarkdown, nil
	default:
		return "", fmt.Errorf("%w: export format %q", converrors.ErrUnsupportedFormat, s)
	}
}

// FormatForPath picks the format from path's extension, or fallback when the
// extension is not an export format.
func FormatForPath(path string, fallback Format) Format {
	if f, err := ParseFormat(filepath.Ext(path)); err == nil {
		return f
	}
	return fallback
}

// Options contains export options.
type Options struct {
	Format Format
	// Out is the output file. Empty or "-" writes to the Exporter's writer.
	Out string
	// CustomTemplate replaces the built-in Markdown review template.
	CustomTemplate string
}

// Exporter writes batch reports in one format.
type Exporter struct {
	format   Format
	outPath  string
	template *template.Template
}

// NewExporter creates a new exporter.
func NewExporter(opts Options) (*Exporter, error) {
	if _, err := ParseFormat(string(opts.Format)); err != nil {
		return nil, err
	}
	if opts.Format == FormatXLSX && (opts.Out == "" || opts.Out == "-") {
		return nil, fmt.Errorf("%w: xlsx export needs an output file", converrors.ErrInvalid)
	}

	e := &Exporter{format: opts.Format, outPath: opts.Out}
	if opts.Format == FormatMarkdown {
		tmpl, err := loadTemplate(opts.CustomTemplate)
		if err != nil {
			return nil, err
		}
		e.template = tmpl
	}
	return e, nil
}

// loadTemplate loads the review template.
func loadTemplate(customPath string) (*template.Template, error) {
	content := builtinMarkdownTemplate
	if customPath != "" {
		data, err := os.ReadFile(customPath)
		if err != nil {
			return nil, fmt.Errorf("%w: reading template file: %v", converrors.ErrIO, err)
		}
		content = string(data)
	}

	tmpl, err := template.New("review").Parse(content)
	if err != nil {
		return nil, fmt.Errorf("%w: parsing template: %v", converrors.ErrInvalid, err)
	}
	return tmpl, nil
}

// Export writes rep to the output file, or to w when no file is set.
func (e *Exporter) Export(w io.Writer, rep *batch.Report) error {
	if e.format == FormatXLSX {
		return writeXLSX(e.outPath, rep)
	}

	var buf bytes.Buffer
	if err := e.encode(&buf, rep); err != nil {
		return err
	}

	if e.outPath != "" && e.outPath != "-" {
		if err := os.WriteFile(e.outPath, buf.Bytes(), 0o644); err != nil {
			return fmt.Errorf("%w: writing output file: %v", converrors.ErrIO, err)
		}
		return nil
	}

	_, err := w.Write(buf.Bytes())
	return err
}

func (e *Exporter) encode(w io.Writer, rep *batch.Report) error {
	switch e.format {
	case FormatJSON:
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		enc.SetEscapeHTML(false)
		return enc.Encode(rep.Results)
	case FormatYAML:
		enc := yaml.NewEncoder(w)
		enc.SetIndent(2)
		if err := enc.Encode(rep.Results); err != nil {
			return err
		}
		return enc.Close()
	case FormatCSV:
		cw := csv.NewWriter(w)
		if err := cw.WriteAll(rows(rep)); err != nil {
			return fmt.Errorf("%w: writing csv: %v", converrors.ErrIO, err)
		}
		return nil
	case FormatMarkdown:
		if err := e.template.Execute(w, templateData(rep)); err != nil {
			return fmt.Errorf("executing template: %w", err)
		}
		return nil
	default:
		return fmt.Errorf("%w: export format %q", converrors.ErrUnsupportedFormat, e.format)
	}
}

// rows returns a header plus one key,source,output row per entry, sorted by key.
func rows(rep *batch.Report) [][]string {
	out := [][]string{{"key", "source", "output"}}
	for _, o := range sortedOutcomes(rep) {
		out = append(out, []string{o.Key, o.Source, o.Output})
	}
	return out
}

func writeXLSX(path string, rep *batch.Report) error {
	f := excelize.NewFile()
	defer f.Close()

	sheet := f.GetSheetName(0)
	for r, row := range rows(rep) {
		for c, v := range row {
			addr, err := excelize.CoordinatesToCellName(c+1, r+1)
			if err != nil {
				return err
			}
			if err := f.SetCellValue(sheet, addr, v); err != nil {
				return fmt.Errorf("%w: set cell %s: %v", converrors.ErrIO, addr, err)
			}
		}
	}

	if err := f.SaveAs(path); err != nil {
		return fmt.Errorf("%w: writing workbook: %v", converrors.ErrIO, err)
	}
	return nil
}

// WriteTable prints one row per entry with its route and status.
func WriteTable(w io.Writer, rep *batch.Report) {
	tbl := table.New("Key", "Route", "Status", "Notes").WithWriter(w)
	for _, o := range sortedOutcomes(rep) {
		tbl.AddRow(o.Key, o.Route, o.Status, notes(o))
	}
	tbl.Print()
}

// notes summarizes why an entry needs attention.
func notes(o batch.Outcome) string {
	var parts []string
	if len(o.Reasons) > 0 {
		rs := make([]string, len(o.Reasons))
		for i, r := range o.Reasons {
			rs[i] = string(r)
		}
		parts = append(parts, strings.Join(rs, ","))
	}
	if len(o.Unmapped) > 0 {
		parts = append(parts, "unmapped "+strings.Join(o.Unmapped, " "))
	}
	if o.Status == batch.StatusFailed && o.Err != nil {
		parts = append(parts, o.Err.Error())
	}
	return strings.Join(parts, "; ")
}

func sortedOutcomes(rep *batch.Report) []batch.Outcome {
	out := append([]batch.Outcome(nil), rep.Outcomes...)
	sort.Slice(out, func(i, j int) bool { return out[i].Key < out[j].Key })
	return out
}

// templateData creates template data from a report.
func templateData(rep *batch.Report) map[string]any {
	review := make([]map[string]any, 0)
	for _, o := range rep.Review() {
		review = append(review, map[string]any{
			"Key":      o.Key,
			"Source":   o.Source,
			"Output":   o.Output,
			"Status":   string(o.Status),
			"Notes":    notes(o),
			"Unmapped": o.Unmapped,
		})
	}

	counts := rep.Counts()
	return map[string]any{
		"ID":        rep.ID,
		"Mode":      string(rep.Mode),
		"Total":     len(rep.Outcomes),
		"Converted": counts[batch.StatusConverted],
		"Unchanged": counts[batch.StatusUnchanged],
		"Fallback":  counts[batch.StatusFallback],
		"Failed":    counts[batch.StatusFailed],
		"Review":    review,
	}
}

// builtinMarkdownTemplate is the default review template.
const builtinMarkdownTemplate = "# Conversion review\n\n" +
	"Batch `{{.ID}}` ({{.Mode}}): {{.Total}} entries, {{.Converted}} converted, {{.Unchanged}} unchanged, {{.Fallback}} fallback, {{.Failed}} failed.\n" +
	"{{if .Review}}\n## Entries to review\n{{range .Review}}\n### {{.Key}} ({{.Status}})\n\n" +
	"- Source: `{{.Source}}`\n- Output: `{{.Output}}`\n{{if .Notes}}- Notes: {{.Notes}}\n{{end}}{{end}}" +
	"{{else}}\nNothing to review.\n{{end}}"
