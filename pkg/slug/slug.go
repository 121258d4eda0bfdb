// Package slug turns display names into URL and id friendly tokens.
package slug

import (
	"regexp"
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

var nonAlnum = regexp.MustCompile(`[^a-z0-9]+`)

var symbols = strings.NewReplacer("&", " and ", "+", " plus ", "ß", "ss", "æ", "ae", "ø", "o", "ı", "i")

// Generate creates a lower-case, hyphen separated slug from name. Accents are
// stripped, so "Crème Brûlée" and "Creme Brulee" share a slug.
//
// Examples:
//   - "Farrow & Ball" → "farrow-and-ball"
//   - "Semi-Gloss" → "semi-gloss"
//   - "  Hale   Navy! " → "hale-navy"
func Generate(name string) string {
	s := symbols.Replace(strings.ToLower(strings.TrimSpace(name)))

	t := transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)
	if folded, _, err := transform.String(t, s); err == nil {
		s = folded
	}

	return strings.Trim(nonAlnum.ReplaceAllString(s, "-"), "-")
}
