package convert

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/chazuruo/tmplconv/internal/catalog"
	converrors "github.com/chazuruo/tmplconv/internal/errors"
)

var concatCallRegex = regexp.MustCompile(regexp.QuoteMeta(catalog.HelperConcat) + `\s`)

// IsValid reports whether candidate passes Validate.
func IsValid(candidate string) bool {
	return Validate(candidate) == nil
}

// Validate checks the shape of a generated expression. It is a cheap string
// check that catches broken generations, not a parser: a nil result does not
// mean the expression renders.
func Validate(candidate string) error {
	if strings.TrimSpace(candidate) == "" {
		return fmt.Errorf("%w: empty expression", converrors.ErrInvalid)
	}
	if !strings.HasPrefix(candidate, "{{") || !strings.HasSuffix(candidate, "}}") {
		return fmt.Errorf("%w: expression must start with {{ and end with }}", converrors.ErrInvalid)
	}
	if open, closing := strings.Count(candidate, "{{"), strings.Count(candidate, "}}"); open != closing {
		return fmt.Errorf("%w: unbalanced delimiters (%d {{ vs %d }})", converrors.ErrInvalid, open, closing)
	}
	if strings.Contains(candidate, "{{{{{") || strings.Contains(candidate, "}}}}}") {
		return fmt.Errorf("%w: runs of five or more braces", converrors.ErrInvalid)
	}
	if strings.Contains(candidate, catalog.HelperConcat) && !concatCallRegex.MatchString(candidate) {
		return fmt.Errorf("%w: %s without arguments", converrors.ErrInvalid, catalog.HelperConcat)
	}
	return nil
}
