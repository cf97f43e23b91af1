package catalog

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLookup(t *testing.T) {
	c := Default()

	tests := []struct {
		name     string
		spelling string
		want     string
		wantOK   bool
	}{
		{"bracket", "[Sender name]", PathSenderHandle, true},
		{"angle lowercase", "<sender name>", PathSenderHandle, true},
		{"bare", "Sender age", PathSenderAge, true},
		{"upper case", "[RECIPIENT NAME]", PathRecipientHandle, true},
		{"extra whitespace", "[ Time   ago ]", PathTimeAgo, true},
		{"alias", "[Receiver name]", PathRecipientHandle, true},
		{"gender", "<gender>", PathGender, true},
		{"unknown", "[Unknown thing]", "", false},
		{"empty", "[]", "", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := c.Lookup(tt.spelling)
			assert.Equal(t, tt.wantOK, ok)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestNamesLongestFirst(t *testing.T) {
	names := Default().Names()
	require.NotEmpty(t, names)

	for i := 1; i < len(names); i++ {
		assert.GreaterOrEqual(t, len(names[i-1]), len(names[i]), "names not ordered longest first at %d", i)
	}
}

func TestPaths(t *testing.T) {
	paths := Default().Paths()

	assert.Equal(t, []string{
		PathRecipientAge,
		PathRecipientHandle,
		PathSenderAge,
		PathSenderHandle,
		PathTime,
		PathTimeAgo,
		PathGender,
	}, paths)
}

func TestNewSkipsInvalidAndDeduplicates(t *testing.T) {
	c := New([]Entry{
		{Name: "Foo", Path: "A.Foo"},
		{Name: "foo", Path: "A.Bar"},
		{Name: "", Path: "A.Empty"},
		{Name: "Baz", Path: ""},
	}, nil)

	assert.Equal(t, 1, c.Len())
	assert.Equal(t, "A.Bar", c.Entries()[0].Path)
	path, ok := c.Lookup("[FOO]")
	assert.True(t, ok)
	assert.Equal(t, "A.Bar", path)
	assert.Empty(t, c.Helpers())
}

func TestCatalogIsNotMutableThroughAccessors(t *testing.T) {
	c := Default()

	helpers := c.Helpers()
	helpers[0] = "Broken"
	entries := c.Entries()
	entries[0].Path = "Broken"

	assert.Equal(t, HelperConcat, c.Helpers()[0])
	assert.NotEqual(t, "Broken", c.Entries()[0].Path)
}

func TestStripDelimiters(t *testing.T) {
	assert.Equal(t, "Sender name", StripDelimiters("[Sender name]"))
	assert.Equal(t, "sender name", StripDelimiters("<sender name>"))
	assert.Equal(t, "[unbalanced", StripDelimiters("[unbalanced"))
	assert.Equal(t, "x", StripDelimiters("x"))
}
