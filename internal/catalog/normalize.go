package catalog

import (
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

var foldTransformer = transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)

// foldTerm lowercases a search term and strips diacritics so "Café" and
// "cafe" resolve to the same cache entry.
func foldTerm(term string) string {
	folded, _, err := transform.String(foldTransformer, term)
	if err != nil {
		folded = term
	}
	return strings.ToLower(strings.TrimSpace(folded))
}
