// Package catalog holds the fixed placeholder table: the recognized
// placeholder names, the canonical LoadedData paths they resolve to, and the
// helper functions available in target expressions.
//
// A Catalog is immutable once built. Callers construct one with Default (or
// New) and inject it into the rewriter, the repairer and the prompt builder.
package catalog

import (
	"sort"
	"strings"

	"golang.org/x/text/cases"
)

// Canonical data paths.
const (
	PathSenderHandle    = "LoadedData.SenderProfile.Handle"
	PathSenderAge       = "LoadedData.SenderProfile.Age"
	PathRecipientHandle = "LoadedData.RecipientProfile.Handle"
	PathRecipientAge    = "LoadedData.RecipientProfile.Age"
	PathTimeAgo         = "LoadedData.TimeAgo"
	PathTime            = "LoadedData.Time"
	PathGender          = "localVars.gender"
)

// Helper function names callable inside a target expression.
const (
	HelperConcat   = "String.Concat"
	HelperEqual    = "String.Equal"
	HelperAppend   = "String.Append"
	HelperToString = "Object.ToString"
)

// Entry maps one bare placeholder name to its canonical path.
type Entry struct {
	// Name is the placeholder text between the delimiters, e.g. "Sender name".
	Name string
	// Path is the dotted data path, e.g. "LoadedData.SenderProfile.Handle".
	Path string
}

// Catalog is an immutable placeholder table.
type Catalog struct {
	entries []Entry
	byKey   map[string]string
	helpers []string
}

// New builds a catalog from entries and helper names. Later entries with the
// same normalized name replace earlier ones.
func New(entries []Entry, helpers []string) *Catalog {
	c := &Catalog{
		byKey:   make(map[string]string, len(entries)),
		helpers: append([]string(nil), helpers...),
	}

	index := make(map[string]int, len(entries))
	for _, e := range entries {
		key := normalize(e.Name)
		if key == "" || e.Path == "" {
			continue
		}
		if i, dup := index[key]; dup {
			c.entries[i].Path = e.Path
		} else {
			index[key] = len(c.entries)
			c.entries = append(c.entries, e)
		}
		c.byKey[key] = e.Path
	}

	// Longest names first so the repairer prefers "Time ago" over "Time".
	sort.SliceStable(c.entries, func(i, j int) bool {
		return len(c.entries[i].Name) > len(c.entries[j].Name)
	})

	return c
}

// Default returns the built-in catalogue.
func Default() *Catalog {
	return New(defaultEntries(), []string{HelperConcat, HelperEqual, HelperAppend, HelperToString})
}

func defaultEntries() []Entry {
	return []Entry{
		{Name: "Sender name", Path: PathSenderHandle},
		{Name: "Sender handle", Path: PathSenderHandle},
		{Name: "Sender age", Path: PathSenderAge},
		{Name: "Recipient name", Path: PathRecipientHandle},
		{Name: "Recipient handle", Path: PathRecipientHandle},
		{Name: "Receiver name", Path: PathRecipientHandle},
		{Name: "Recipient age", Path: PathRecipientAge},
		{Name: "Time ago", Path: PathTimeAgo},
		{Name: "Time", Path: PathTime},
		{Name: "Gender", Path: PathGender},
		{Name: "Sender gender", Path: PathGender},
	}
}

// Lookup resolves a placeholder spelling to its canonical path. The spelling
// may be bracketed ("[Sender name]"), angled ("<sender name>") or bare.
// Matching ignores case and collapses inner whitespace.
func (c *Catalog) Lookup(spelling string) (string, bool) {
	path, ok := c.byKey[normalize(StripDelimiters(spelling))]
	return path, ok
}

// Names returns the bare placeholder names, longest first.
func (c *Catalog) Names() []string {
	names := make([]string, len(c.entries))
	for i, e := range c.entries {
		names[i] = e.Name
	}
	return names
}

// Entries returns a copy of the catalogue entries, longest name first.
func (c *Catalog) Entries() []Entry {
	return append([]Entry(nil), c.entries...)
}

// Paths returns the distinct canonical paths in sorted order.
func (c *Catalog) Paths() []string {
	seen := make(map[string]bool, len(c.entries))
	var paths []string
	for _, e := range c.entries {
		if !seen[e.Path] {
			seen[e.Path] = true
			paths = append(paths, e.Path)
		}
	}
	sort.Strings(paths)
	return paths
}

// Helpers returns the helper function names.
func (c *Catalog) Helpers() []string {
	return append([]string(nil), c.helpers...)
}

// Len returns the number of distinct placeholder names.
func (c *Catalog) Len() int {
	return len(c.entries)
}

// StripDelimiters removes one surrounding pair of [] or <> from s.
func StripDelimiters(s string) string {
	s = strings.TrimSpace(s)
	if len(s) >= 2 {
		first, last := s[0], s[len(s)-1]
		if (first == '[' && last == ']') || (first == '<' && last == '>') {
			return s[1 : len(s)-1]
		}
	}
	return s
}

// normalize folds case and collapses whitespace runs to a single space.
func normalize(name string) string {
	return cases.Fold().String(strings.Join(strings.Fields(name), " "))
}
