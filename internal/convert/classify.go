// Package convert turns placeholder text into target template expressions.
//
// It holds the three deterministic pieces of the conversion engine: the
// complexity classifier that decides whether a text needs generative
// conversion, the pattern rewriter, and the output validator that gates
// generated expressions.
package convert

import (
	"regexp"
	"strings"
	"unicode/utf8"

	"github.com/chazuruo/tmplconv/internal/catalog"
	"github.com/chazuruo/tmplconv/internal/placeholders"
)

// Reason names one complexity clause that matched a text.
type Reason string

const (
	// ReasonTargetSyntax: the text already contains a {{ ... }} pair.
	ReasonTargetSyntax Reason = "target-syntax"
	// ReasonUnpairedBrace: a {{ or }} appears without its partner.
	ReasonUnpairedBrace Reason = "unpaired-brace"
	// ReasonHelperCall: the text names a helper function such as String.Concat.
	ReasonHelperCall Reason = "helper-call"
	// ReasonGenderAlternator: the text contains a pronoun pair such as him/her.
	ReasonGenderAlternator Reason = "gender-alternator"
	// ReasonManyPlaceholders: more than two placeholders in a text longer than 50 characters.
	ReasonManyPlaceholders Reason = "many-placeholders"
	// ReasonConditional: the text contains if, else or unless.
	ReasonConditional Reason = "conditional"
	// ReasonLoop: the text contains each, for or loop.
	ReasonLoop Reason = "loop"
	// ReasonMultiSentence: the text has more than two sentences.
	ReasonMultiSentence Reason = "multi-sentence"
	// ReasonNestedBracket: a bracket opens again before the first one closes.
	ReasonNestedBracket Reason = "nested-bracket"
)

const (
	manyPlaceholderCount  = 2
	manyPlaceholderLength = 50
	maxSentences          = 2
)

var (
	targetSyntaxRegex = regexp.MustCompile(`(?s)\{\{.*?\}\}`)
	genderRegex       = regexp.MustCompile(`(?i)\b(he|she|him|her|his|hers|himself|herself)\s*/\s*(he|she|him|her|his|hers|himself|herself)\b`)
	conditionalRegex  = regexp.MustCompile(`(?i)\b(if|else|unless)\b`)
	loopRegex         = regexp.MustCompile(`(?i)\b(each|for|loop)\b`)
	sentenceRegex     = regexp.MustCompile(`[.!?]`)
	nestedRegex       = regexp.MustCompile(`\[[^\]]*\[`)
)

// Classifier decides whether a text can be rewritten deterministically.
// It is a heuristic and errs toward reporting complexity.
type Classifier struct {
	helpers []string
}

// NewClassifier builds a classifier that recognizes the catalogue's helpers.
func NewClassifier(cat *catalog.Catalog) *Classifier {
	return &Classifier{helpers: cat.Helpers()}
}

// IsComplex reports whether any complexity clause matches text.
// Callers pass repaired text.
func (c *Classifier) IsComplex(text string) bool {
	return len(c.Classify(text)) > 0
}

// Classify returns every complexity clause that matches text, in a fixed
// order. An empty result means the deterministic rewriter suffices.
func (c *Classifier) Classify(text string) []Reason {
	var reasons []Reason

	if HasTargetSyntax(text) {
		reasons = append(reasons, ReasonTargetSyntax)
	}
	if hasUnpairedBrace(text) {
		reasons = append(reasons, ReasonUnpairedBrace)
	}
	for _, h := range c.helpers {
		if strings.Contains(text, h) {
			reasons = append(reasons, ReasonHelperCall)
			break
		}
	}
	if genderRegex.MatchString(text) {
		reasons = append(reasons, ReasonGenderAlternator)
	}
	if placeholders.Count(text) > manyPlaceholderCount && utf8.RuneCountInString(text) > manyPlaceholderLength {
		reasons = append(reasons, ReasonManyPlaceholders)
	}
	if conditionalRegex.MatchString(text) {
		reasons = append(reasons, ReasonConditional)
	}
	if loopRegex.MatchString(text) {
		reasons = append(reasons, ReasonLoop)
	}
	if countSentences(text) > maxSentences {
		reasons = append(reasons, ReasonMultiSentence)
	}
	if strings.Contains(text, "[[") || nestedRegex.MatchString(text) {
		reasons = append(reasons, ReasonNestedBracket)
	}

	return reasons
}

// HasTargetSyntax reports whether text contains a "{{" followed later by "}}".
func HasTargetSyntax(text string) bool {
	return targetSyntaxRegex.MatchString(text)
}

// hasUnpairedBrace reports whether the {{ and }} runs in text do not pair up.
func hasUnpairedBrace(text string) bool {
	open, closing := strings.Count(text, "{{"), strings.Count(text, "}}")
	if open != closing {
		return true
	}
	return open > 0 && !HasTargetSyntax(text)
}

// countSentences counts the non-blank segments between sentence terminators.
func countSentences(text string) int {
	n := 0
	for _, seg := range sentenceRegex.Split(text, -1) {
		if strings.TrimSpace(seg) != "" {
			n++
		}
	}
	return n
}
