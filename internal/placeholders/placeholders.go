// Package placeholders provides placeholder tokenizing and repair of common
// authoring mistakes in bracketed placeholders.
//
// The placeholder language is deliberately flat: a placeholder is a single
// [..] or <..> span with no nesting. Tokenizing is a regex scan, not a
// grammar, and nested or unbalanced brackets are left for the caller to
// classify.
package placeholders

import (
	"regexp"
	"strings"
)

var (
	// placeholderRegex matches [name] or <name> spans.
	placeholderRegex = regexp.MustCompile(`\[[^\]]*\]|<[^>]*>`)
)

// Match is one placeholder occurrence in a text.
type Match struct {
	// Raw is the placeholder including its delimiters, e.g. "[Sender name]".
	Raw string
	// Start is the byte offset of the opening delimiter.
	Start int
	// End is the byte offset just past the closing delimiter.
	End int
}

// Tokenize returns all placeholder spans in s, left to right, non-overlapping.
func Tokenize(s string) []Match {
	locs := placeholderRegex.FindAllStringIndex(s, -1)
	if len(locs) == 0 {
		return nil
	}

	matches := make([]Match, len(locs))
	for i, loc := range locs {
		matches[i] = Match{Raw: s[loc[0]:loc[1]], Start: loc[0], End: loc[1]}
	}
	return matches
}

// Count returns the number of placeholder spans in s.
func Count(s string) int {
	return len(placeholderRegex.FindAllStringIndex(s, -1))
}

// Extract extracts all unique placeholder spellings from a string, in order of
// first appearance.
func Extract(s string) []string {
	seen := make(map[string]bool)
	var result []string

	for _, m := range placeholderRegex.FindAllString(s, -1) {
		if !seen[m] {
			seen[m] = true
			result = append(result, m)
		}
	}

	return result
}

// Repairer fixes near-miss placeholder spellings before tokenizing.
// A Repairer is safe for concurrent use.
type Repairer struct {
	names    []string
	unclosed []*regexp.Regexp
}

// NewRepairer builds a repairer for the given bare placeholder names. Names
// should be ordered longest first so that a longer name wins over its prefix.
func NewRepairer(names []string) *Repairer {
	r := &Repairer{}
	for _, name := range names {
		if strings.TrimSpace(name) == "" {
			continue
		}
		// "[" + name, then whitespace and a lowercase letter where "]" belongs.
		pattern := `\[((?i:` + regexp.QuoteMeta(name) + `))\s+\p{Ll}`
		r.names = append(r.names, name)
		r.unclosed = append(r.unclosed, regexp.MustCompile(pattern))
	}
	return r
}

// Repair collapses doubled brackets and closes known placeholders whose
// closing bracket was omitted before prose resumes ("[Sender name welcome"
// becomes "[Sender name] welcome"). Repair is idempotent.
func (r *Repairer) Repair(text string) string {
	out := CollapseDoubled(text)
	for i, re := range r.unclosed {
		out = r.closeBrackets(out, re, r.names[i])
	}
	return out
}

// CollapseDoubled replaces "[[" with "[" and "]]" with "]" until none remain.
func CollapseDoubled(s string) string {
	for strings.Contains(s, "[[") || strings.Contains(s, "]]") {
		s = strings.ReplaceAll(s, "[[", "[")
		s = strings.ReplaceAll(s, "]]", "]")
	}
	return s
}

// closeBrackets inserts "]" after the name captured by re wherever the
// opening bracket is still unclosed and no longer known name starts there.
func (r *Repairer) closeBrackets(s string, re *regexp.Regexp, name string) string {
	locs := re.FindAllStringSubmatchIndex(s, -1)
	if len(locs) == 0 {
		return s
	}

	var b strings.Builder
	last := 0
	for _, loc := range locs {
		open, nameEnd := loc[0], loc[3]
		if !unclosed(s, open) || r.shadowed(s[open+1:], name) {
			continue
		}
		b.WriteString(s[last:nameEnd])
		b.WriteByte(']')
		last = nameEnd
	}
	if last == 0 {
		return s
	}
	b.WriteString(s[last:])
	return b.String()
}

// shadowed reports whether rest begins with a known name longer than name,
// ending at a word boundary.
func (r *Repairer) shadowed(rest, name string) bool {
	for _, longer := range r.names {
		if len(longer) <= len(name) || len(rest) < len(longer) {
			continue
		}
		if !strings.EqualFold(rest[:len(longer)], longer) {
			continue
		}
		if len(rest) == len(longer) || !isWordByte(rest[len(longer)]) {
			return true
		}
	}
	return false
}

func isWordByte(b byte) bool {
	return b == '_' || b >= '0' && b <= '9' || b >= 'a' && b <= 'z' || b >= 'A' && b <= 'Z' || b >= 0x80
}

// unclosed reports whether the "[" at offset open has no "]" before the next
// "[" or the end of the text.
func unclosed(s string, open int) bool {
	rest := s[open+1:]
	closeAt := strings.IndexByte(rest, ']')
	if closeAt < 0 {
		return true
	}
	nextOpen := strings.IndexByte(rest, '[')
	return nextOpen >= 0 && nextOpen < closeAt
}
