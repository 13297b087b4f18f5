package extract

import (
	"strings"

	"golang.org/x/text/unicode/norm"
)

// Normalize folds compatibility characters (non-breaking spaces, full-width
// digits, ligatures) with NFKC and collapses every whitespace run, line breaks
// included, into a single space.
func Normalize(raw string) string {
	if raw == "" {
		return ""
	}
	s := norm.NFKC.String(raw)
	s = strings.NewReplacer(
		"‘", "'", "’", "'",
		"“", `"`, "”", `"`,
		"–", "-", "—", "-",
	).Replace(s)
	return strings.Join(strings.Fields(s), " ")
}
