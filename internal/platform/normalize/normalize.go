// Package normalize folds free-text names for comparison: lowercase plus
// diacritic stripping, so "Acuña" and "acuna" compare equal.
package normalize

import (
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

var foldTransformer = transform.Chain(
	norm.NFD,
	runes.Remove(runes.In(unicode.Mn)),
	norm.NFC,
)

// Fold lowercases the input and removes combining marks. Transform failures
// fall back to plain lowercasing so a malformed byte sequence never breaks a
// comparison.
func Fold(s string) string {
	lowered := strings.ToLower(strings.TrimSpace(s))
	folded, _, err := transform.String(foldTransformer, lowered)
	if err != nil {
		return lowered
	}
	return folded
}

// Contains reports whether haystack contains needle after folding both sides.
// An empty needle never matches.
func Contains(haystack, needle string) bool {
	needle = Fold(needle)
	if needle == "" {
		return false
	}
	return strings.Contains(Fold(haystack), needle)
}

// Equal reports folded equality.
func Equal(a, b string) bool {
	return Fold(a) == Fold(b)
}
