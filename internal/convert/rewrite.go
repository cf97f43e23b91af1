package convert

import (
	"strings"

	"github.com/chazuruo/tmplconv/internal/catalog"
	"github.com/chazuruo/tmplconv/internal/placeholders"
)

// Result is the outcome of a deterministic rewrite.
type Result struct {
	// Expression is the rewritten text. It equals the repaired input when
	// nothing was convertible.
	Expression string
	// Unmapped lists placeholder spellings with no catalogue entry, in source order.
	Unmapped []string
	// Converted is true when Expression is a newly built target expression.
	Converted bool
}

// Rewriter converts placeholder text into a target expression using the
// catalogue alone. It is safe for concurrent use.
type Rewriter struct {
	catalog  *catalog.Catalog
	repairer *placeholders.Repairer
}

// NewRewriter builds a rewriter bound to cat.
func NewRewriter(cat *catalog.Catalog) *Rewriter {
	return &Rewriter{
		catalog:  cat,
		repairer: placeholders.NewRepairer(cat.Names()),
	}
}

// Repair applies the placeholder repairs for this rewriter's catalogue.
func (r *Rewriter) Repair(text string) string {
	return r.repairer.Repair(text)
}

// Rewrite returns the target expression for text.
func (r *Rewriter) Rewrite(text string) string {
	return r.RewriteDetail(text).Expression
}

// RewriteDetail rewrites text and reports unmapped placeholders.
//
// Text that already holds a {{ ... }} pair, holds no placeholders, or
// reduces to a single literal is returned as-is (after repair). A text that is
// exactly one mapped placeholder becomes a bare variable {{Path}}. Anything
// else becomes {{String.Concat ...}} over quoted literals and paths, in
// source order. Unmapped placeholders inside a concatenation are kept as
// quoted literals of their raw spelling.
func (r *Rewriter) RewriteDetail(text string) Result {
	repaired := r.repairer.Repair(text)
	unchanged := Result{Expression: repaired}

	if HasTargetSyntax(repaired) || hasUnpairedBrace(repaired) {
		return unchanged
	}

	matches := placeholders.Tokenize(repaired)
	if len(matches) == 0 {
		return unchanged
	}

	if len(matches) == 1 && matches[0].Raw == strings.TrimSpace(repaired) {
		path, ok := r.catalog.Lookup(matches[0].Raw)
		if !ok {
			unchanged.Unmapped = []string{matches[0].Raw}
			return unchanged
		}
		return Result{Expression: variable(path), Converted: true}
	}

	var (
		parts    []part
		unmapped []string
		last     int
	)
	for _, m := range matches {
		if m.Start > last {
			parts = append(parts, literal(repaired[last:m.Start]))
		}
		if path, ok := r.catalog.Lookup(m.Raw); ok {
			parts = append(parts, part{text: path})
		} else {
			unmapped = append(unmapped, m.Raw)
			parts = append(parts, literal(m.Raw))
		}
		last = m.End
	}
	if last < len(repaired) {
		parts = append(parts, literal(repaired[last:]))
	}

	if len(parts) == 1 {
		if parts[0].quoted {
			unchanged.Unmapped = unmapped
			return unchanged
		}
		return Result{Expression: variable(parts[0].text), Unmapped: unmapped, Converted: true}
	}

	texts := make([]string, len(parts))
	for i, p := range parts {
		texts[i] = p.text
	}
	expr := "{{" + catalog.HelperConcat + " " + strings.Join(texts, " ") + "}}"
	if Validate(expr) != nil {
		unchanged.Unmapped = unmapped
		return unchanged
	}
	return Result{Expression: expr, Unmapped: unmapped, Converted: true}
}

// part is one argument of a String.Concat call.
type part struct {
	text   string
	quoted bool
}

func literal(s string) part {
	return part{text: Quote(s), quoted: true}
}

func variable(path string) string {
	return "{{" + path + "}}"
}

// Quote renders s as a double-quoted string literal, escaping backslashes
// and inner quotes.
func Quote(s string) string {
	return `"` + quoteEscaper.Replace(s) + `"`
}

var quoteEscaper = strings.NewReplacer(`\`, `\\`, `"`, `\"`)
