package matcher

import (
	"strings"
	"unicode"

	"golang.org/x/text/cases"
	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

var folder = cases.Fold()

// NormalizeName folds a participant name for comparison: diacritics are
// stripped, case is folded, punctuation is dropped and whitespace collapsed.
func NormalizeName(name string) string {
	t := transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)
	stripped, _, err := transform.String(t, name)
	if err != nil {
		stripped = name
	}
	folded := folder.String(stripped)

	cleaned := strings.Map(func(r rune) rune {
		if unicode.IsPunct(r) || unicode.IsSymbol(r) {
			return ' '
		}
		return r
	}, folded)

	return strings.Join(strings.Fields(cleaned), " ")
}

// Key builds the matching key for an ordered participant list
func Key(participants []string) string {
	parts := make([]string, 0, len(participants))
	for _, p := range participants {
		if n := NormalizeName(p); n != "" {
			parts = append(parts, n)
		}
	}
	return strings.Join(parts, "|")
}
