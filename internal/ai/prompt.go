package ai

import (
	"fmt"
	"strings"

	"github.com/chazuruo/tmplconv/internal/catalog"
)

// promptExample pairs a source text with its expected expression.
type promptExample struct {
	in, out string
}

var promptExamples = []promptExample{
	{"[Sender name]", "{{LoadedData.SenderProfile.Handle}}"},
	{"Hi [Sender name], welcome!", `{{String.Concat "Hi " LoadedData.SenderProfile.Handle ", welcome!"}}`},
	{"<recipient name> sent you a gift [time ago]", `{{String.Concat LoadedData.RecipientProfile.Handle " sent you a gift " LoadedData.TimeAgo}}`},
	{"[Sender name] liked his/her photo", `{{String.Concat LoadedData.SenderProfile.Handle " liked " (String.Equal localVars.gender "male" "his" "her") " photo"}}`},
	{"If sender is male: He is [Sender age]. Else: She is [Sender age].", `{{#if (String.Equal localVars.gender "male")}}{{String.Concat "He is " (Object.ToString LoadedData.SenderProfile.Age)}}{{else}}{{String.Concat "She is " (Object.ToString LoadedData.SenderProfile.Age)}}{{/if}}`},
}

// SystemPrompt builds the fixed instruction for cat: the available paths and
// placeholder spellings, the helper functions, the rules and worked examples.
func SystemPrompt(cat *catalog.Catalog) string {
	var b strings.Builder

	b.WriteString("You convert localization strings with placeholders into template expressions.\n")
	b.WriteString("Reply with the expression only. No prose, no markdown.\n\n")

	b.WriteString("Placeholders and the data paths they map to:\n")
	for _, e := range cat.Entries() {
		fmt.Fprintf(&b, "- [%s] or <%s> -> %s\n", e.Name, strings.ToLower(e.Name), e.Path)
	}

	b.WriteString("\nHelper functions:\n")
	for _, h := range cat.Helpers() {
		fmt.Fprintf(&b, "- %s\n", h)
	}

	b.WriteString(`
Rules:
1. Wrap the whole result in {{ and }}.
2. A text that is exactly one placeholder becomes {{Path}}.
3. Mixed text becomes {{String.Concat part part ...}}: quote literal text with double quotes, escape backslashes as \\ and inner quotes as \", keep paths bare, keep source order.
4. Keep unknown placeholders as quoted literals.
5. Numbers inside String.Concat go through (Object.ToString Path).
6. Gender alternatives such as his/her or he/she use `)
	fmt.Fprintf(&b, "(String.Equal %s \"male\" \"<male form>\" \"<female form>\").\n", catalog.PathGender)
	fmt.Fprintf(&b, "7. Conditionals on gender use {{#if (String.Equal %s \"male\")}}...{{else}}...{{/if}}.\n", catalog.PathGender)
	b.WriteString("8. Never write five or more braces in a row.\n")

	b.WriteString("\nExamples:\n")
	for _, ex := range promptExamples {
		fmt.Fprintf(&b, "Input: %s\nOutput: %s\n\n", ex.in, ex.out)
	}

	return strings.TrimRight(b.String(), "\n")
}

// UserPrompt embeds the literal source text.
func UserPrompt(text string) string {
	return "Convert this text:\n" + text
}

// StripCodeFence removes a surrounding markdown code fence, with or without a
// language tag. Text without a fence is returned trimmed.
func StripCodeFence(s string) string {
	s = strings.TrimSpace(s)
	if !strings.HasPrefix(s, "```") {
		return s
	}

	body := s[3:]
	if nl := strings.Index(body, "\n"); nl >= 0 {
		body = body[nl+1:]
	}
	if end := strings.LastIndex(body, "```"); end >= 0 {
		body = body[:end]
	}
	return strings.TrimSpace(body)
}
