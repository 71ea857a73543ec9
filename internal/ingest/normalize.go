package ingest

import (
	"strings"
	"unicode"

	"golang.org/x/text/unicode/norm"
)

// legalSuffixes are trailing company designators stripped during name
// normalization so "Acme Plumbing LLC" and "Acme Plumbing, Inc." group
// under one franchise.
var legalSuffixes = map[string]bool{
	"llc":          true,
	"llp":          true,
	"lp":           true,
	"inc":          true,
	"incorporated": true,
	"corp":         true,
	"corporation":  true,
	"co":           true,
	"company":      true,
	"ltd":          true,
	"limited":      true,
	"pllc":         true,
	"pc":           true,
	"pa":           true,
}

// NormalizeName produces the franchise grouping key for a business name:
// lowercase, diacritics stripped, punctuation removed, legal suffixes
// dropped, whitespace collapsed.
func NormalizeName(name string) string {
	lower := strings.ToLower(name)

	// Decompose and drop combining marks (é → e).
	decomposed := norm.NFD.String(lower)
	var b strings.Builder
	b.Grow(len(decomposed))
	for _, r := range decomposed {
		switch {
		case unicode.Is(unicode.Mn, r):
			// combining mark
		case unicode.IsLetter(r) || unicode.IsDigit(r):
			b.WriteRune(r)
		case r == '&':
			b.WriteString(" and ")
		default:
			b.WriteRune(' ')
		}
	}

	words := strings.Fields(b.String())

	// Strip trailing legal designators, possibly stacked ("co llc").
	for len(words) > 1 && legalSuffixes[words[len(words)-1]] {
		words = words[:len(words)-1]
	}

	return strings.Join(words, " ")
}
