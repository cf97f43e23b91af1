// Package source loads conversion entries from files.
//
// Entries are a flat map of entry key to source text. Keys are opaque to the
// converter; for tabular files they are built as "<language><sep><field>".
package source

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/xuri/excelize/v2"
	"gopkg.in/yaml.v3"

	converrors "github.com/chazuruo/tmplconv/internal/errors"
)

// Format is an entry file format.
type Format string

const (
	FormatJSON Format = "json"
	FormatYAML Format = "yaml"
	FormatCSV  Format = "csv"
	FormatXLSX Format = "xlsx"
)

// Options controls how tabular files map to entry keys.
type Options struct {
	// KeySeparator joins language and field. Defaults to "|".
	KeySeparator string
	// KeyColumn, when set, names the header of a column holding full keys.
	KeyColumn string
	// TextColumn names the source text column used with KeyColumn.
	TextColumn string
	// Sheet selects the XLSX sheet. Empty means the first sheet.
	Sheet string
}

// DetectFormat maps a file extension to a Format.
func DetectFormat(path string) (Format, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".json":
		return FormatJSON, nil
	case ".yaml", ".yml":
		return FormatYAML, nil
	case ".csv":
		return FormatCSV, nil
	case ".xlsx":
		return FormatXLSX, nil
	default:
		return "", fmt.Errorf("%w: %q", converrors.ErrUnsupportedFormat, filepath.Ext(path))
	}
}

// LoadFile reads entries from path, choosing the parser by extension.
func LoadFile(path string, opts Options) (map[string]string, error) {
	format, err := DetectFormat(path)
	if err != nil {
		return nil, err
	}

	if format == FormatXLSX {
		f, err := excelize.OpenFile(path)
		if err != nil {
			return nil, fmt.Errorf("%w: open %s: %v", converrors.ErrIO, path, err)
		}
		defer f.Close()
		return readXLSX(f, opts)
	}

	file, err := os.Open(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("%w: %s", converrors.ErrNotFound, path)
		}
		return nil, fmt.Errorf("%w: open %s: %v", converrors.ErrIO, path, err)
	}
	defer file.Close()

	return Load(file, format, opts)
}

// Load reads entries in format from r. XLSX is read through excelize.
func Load(r io.Reader, format Format, opts Options) (map[string]string, error) {
	switch format {
	case FormatJSON:
		var doc map[string]any
		if err := json.NewDecoder(r).Decode(&doc); err != nil {
			return nil, fmt.Errorf("%w: decode json: %v", converrors.ErrInvalid, err)
		}
		return flatten(doc, opts.separator())
	case FormatYAML:
		var doc map[string]any
		if err := yaml.NewDecoder(r).Decode(&doc); err != nil {
			if err == io.EOF {
				return map[string]string{}, nil
			}
			return nil, fmt.Errorf("%w: decode yaml: %v", converrors.ErrInvalid, err)
		}
		return flatten(doc, opts.separator())
	case FormatCSV:
		cr := csv.NewReader(r)
		cr.FieldsPerRecord = -1
		rows, err := cr.ReadAll()
		if err != nil {
			return nil, fmt.Errorf("%w: decode csv: %v", converrors.ErrInvalid, err)
		}
		return fromRows(rows, opts)
	case FormatXLSX:
		f, err := excelize.OpenReader(r)
		if err != nil {
			return nil, fmt.Errorf("%w: decode xlsx: %v", converrors.ErrInvalid, err)
		}
		defer f.Close()
		return readXLSX(f, opts)
	default:
		return nil, fmt.Errorf("%w: %q", converrors.ErrUnsupportedFormat, format)
	}
}

func readXLSX(f *excelize.File, opts Options) (map[string]string, error) {
	sheet := opts.Sheet
	if sheet == "" {
		sheets := f.GetSheetList()
		if len(sheets) == 0 {
			return map[string]string{}, nil
		}
		sheet = sheets[0]
	}
	rows, err := f.GetRows(sheet)
	if err != nil {
		return nil, fmt.Errorf("%w: sheet %q: %v", converrors.ErrInvalid, sheet, err)
	}
	return fromRows(rows, opts)
}

func (o Options) separator() string {
	if o.KeySeparator == "" {
		return "|"
	}
	return o.KeySeparator
}

// flatten accepts {key: text} and {language: {field: text}} documents.
func flatten(doc map[string]any, sep string) (map[string]string, error) {
	out := make(map[string]string, len(doc))
	for k, v := range doc {
		switch val := v.(type) {
		case string:
			out[k] = val
		case nil:
			out[k] = ""
		case map[string]any:
			for field, text := range val {
				s, ok := text.(string)
				if !ok && text != nil {
					return nil, fmt.Errorf("%w: entry %q: value is %T, want string", converrors.ErrInvalid, k+sep+field, text)
				}
				out[k+sep+field] = s
			}
		default:
			return nil, fmt.Errorf("%w: entry %q: value is %T, want string", converrors.ErrInvalid, k, v)
		}
	}
	return out, nil
}

// fromRows maps a header row plus data rows to entries. Without KeyColumn the
// first column is the field and each other header cell names a language.
func fromRows(rows [][]string, opts Options) (map[string]string, error) {
	out := map[string]string{}
	if len(rows) == 0 {
		return out, nil
	}
	header := rows[0]

	if opts.KeyColumn != "" {
		keyIdx, textIdx := indexOf(header, opts.KeyColumn), indexOf(header, opts.TextColumn)
		if keyIdx < 0 {
			return nil, fmt.Errorf("%w: key column %q not in header", converrors.ErrInvalid, opts.KeyColumn)
		}
		if textIdx < 0 {
			return nil, fmt.Errorf("%w: text column %q not in header", converrors.ErrInvalid, opts.TextColumn)
		}
		for _, row := range rows[1:] {
			key := strings.TrimSpace(cell(row, keyIdx))
			if key == "" {
				continue
			}
			out[key] = cell(row, textIdx)
		}
		return out, nil
	}

	sep := opts.separator()
	for _, row := range rows[1:] {
		field := strings.TrimSpace(cell(row, 0))
		if field == "" {
			continue
		}
		for col := 1; col < len(header); col++ {
			lang := strings.TrimSpace(header[col])
			if lang == "" {
				continue
			}
			out[lang+sep+field] = cell(row, col)
		}
	}
	return out, nil
}

func indexOf(header []string, name string) int {
	for i, h := range header {
		if strings.EqualFold(strings.TrimSpace(h), name) {
			return i
		}
	}
	return -1
}

// cell returns row[i], or "" for short rows.
func cell(row []string, i int) string {
	if i < len(row) {
		return row[i]
	}
	return ""
}
