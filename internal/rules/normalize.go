package rules

import (
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/unicode/norm"
)

// NormalizeKey folds a categorical input for comparison: NFC, trimmed,
// case-folded, inner whitespace collapsed to single spaces.
func NormalizeKey(s string) string {
	s = norm.NFC.String(strings.TrimSpace(s))
	if s == "" {
		return ""
	}
	// a Caser carries state and must not be shared across goroutines
	s = cases.Fold().String(s)
	return strings.Join(strings.Fields(s), " ")
}
