package source

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	converrors "github.com/chazuruo/tmplconv/internal/errors"
	"github.com/chazuruo/tmplconv/internal/testutil"
)

func TestDetectFormat(t *testing.T) {
	tests := []struct {
		path    string
		want    Format
		wantErr bool
	}{
		{"a.json", FormatJSON, false},
		{"a.YAML", FormatYAML, false},
		{"dir/a.yml", FormatYAML, false},
		{"a.csv", FormatCSV, false},
		{"a.xlsx", FormatXLSX, false},
		{"a.xls", "", true},
		{"a", "", true},
	}

	for _, tt := range tests {
		t.Run(tt.path, func(t *testing.T) {
			got, err := DetectFormat(tt.path)
			if tt.wantErr {
				assert.True(t, converrors.IsUnsupportedFormat(err))
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestLoad_Documents(t *testing.T) {
	tests := []struct {
		name   string
		format Format
		input  string
		want   map[string]string
	}{
		{
			name:   "flat json",
			format: FormatJSON,
			input:  `{"en|subject": "Hi [Sender name], welcome!", "en|body": ""}`,
			want:   map[string]string{"en|subject": "Hi [Sender name], welcome!", "en|body": ""},
		},
		{
			name:   "nested json",
			format: FormatJSON,
			input:  `{"en": {"subject": "Hi"}, "de": {"subject": "Hallo"}}`,
			want:   map[string]string{"en|subject": "Hi", "de|subject": "Hallo"},
		},
		{
			name:   "flat yaml",
			format: FormatYAML,
			input:  "en|subject: \"Hi [Sender name]\"\nen|body: You are [Sender age]\n",
			want:   map[string]string{"en|subject": "Hi [Sender name]", "en|body": "You are [Sender age]"},
		},
		{
			name:   "nested yaml with null",
			format: FormatYAML,
			input:  "fr:\n  subject: Salut\n  body:\n",
			want:   map[string]string{"fr|subject": "Salut", "fr|body": ""},
		},
		{
			name:   "empty yaml",
			format: FormatYAML,
			input:  "",
			want:   map[string]string{},
		},
		{
			name:   "csv languages in header",
			format: FormatCSV,
			input:  "field,en,de\nsubject,Hi [Sender name],Hallo [Sender name]\nbody,Bye\n",
			want: map[string]string{
				"en|subject": "Hi [Sender name]",
				"de|subject": "Hallo [Sender name]",
				"en|body":    "Bye",
				"de|body":    "",
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Load(strings.NewReader(tt.input), tt.format, Options{})
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestLoad_Invalid(t *testing.T) {
	tests := []struct {
		name   string
		format Format
		input  string
	}{
		{"broken json", FormatJSON, `{"a":`},
		{"number value", FormatJSON, `{"a": 3}`},
		{"nested number", FormatYAML, "en:\n  age: 3\n"},
		{"list document", FormatYAML, "- a\n- b\n"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Load(strings.NewReader(tt.input), tt.format, Options{})
			assert.True(t, converrors.IsInvalid(err), "got %v", err)
		})
	}
}

func TestLoad_CSVKeyColumns(t *testing.T) {
	input := "id,notes,text\nen|subject,x,Hi [Sender name]\n,skip,ignored\nen|body,y\n"

	got, err := Load(strings.NewReader(input), FormatCSV, Options{KeyColumn: "ID", TextColumn: "text"})
	require.NoError(t, err)
	assert.Equal(t, map[string]string{"en|subject": "Hi [Sender name]", "en|body": ""}, got)

	_, err = Load(strings.NewReader(input), FormatCSV, Options{KeyColumn: "key", TextColumn: "text"})
	assert.True(t, converrors.IsInvalid(err))
}

func TestLoad_Separator(t *testing.T) {
	got, err := Load(strings.NewReader("field,en\nsubject,Hi\n"), FormatCSV, Options{KeySeparator: ":"})
	require.NoError(t, err)
	assert.Equal(t, map[string]string{"en:subject": "Hi"}, got)
}

func TestLoadFile(t *testing.T) {
	t.Run("json file", func(t *testing.T) {
		path := testutil.WriteFile(t, "entries.json", `{"k": "[Time]"}`)
		got, err := LoadFile(path, Options{})
		require.NoError(t, err)
		assert.Equal(t, map[string]string{"k": "[Time]"}, got)
	})

	t.Run("xlsx file", func(t *testing.T) {
		path := testutil.WriteXLSX(t, "entries.xlsx", [][]string{
			{"field", "en", "es"},
			{"subject", "Hi [Sender name]", "Hola [Sender name]"},
		})
		got, err := LoadFile(path, Options{})
		require.NoError(t, err)
		assert.Equal(t, map[string]string{
			"en|subject": "Hi [Sender name]",
			"es|subject": "Hola [Sender name]",
		}, got)
	})

	t.Run("missing file", func(t *testing.T) {
		_, err := LoadFile(testutil.TempDir(t)+"/nope.json", Options{})
		assert.True(t, converrors.IsNotFound(err))
	})

	t.Run("unknown extension", func(t *testing.T) {
		_, err := LoadFile("entries.txt", Options{})
		assert.True(t, converrors.IsUnsupportedFormat(err))
	})
}
