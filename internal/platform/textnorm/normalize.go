// Package textnorm holds the name and team normalization used by every
// matching path. Player names arrive with accents, punctuation, and
// inconsistent casing across sources ("José Ramírez", "jose ramirez",
// "J.P. Crawford"), so all comparisons go through a folded key.
package textnorm

import (
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

var accentFolder = transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)

// FoldAccents strips combining marks: "Ramírez" -> "Ramirez".
func FoldAccents(s string) string {
	out, _, err := transform.String(accentFolder, s)
	if err != nil {
		return s
	}
	return out
}

// Key is the canonical comparison key for player and team names:
// accent-folded, lowercased, letters and digits only.
func Key(s string) string {
	folded := strings.ToLower(FoldAccents(strings.TrimSpace(s)))

	var b strings.Builder
	b.Grow(len(folded))
	for _, r := range folded {
		if unicode.IsLetter(r) || unicode.IsDigit(r) {
			b.WriteRune(r)
		}
	}
	return b.String()
}

// Equal reports whether two names normalize to the same key.
func Equal(a, b string) bool {
	return Key(a) != "" && Key(a) == Key(b)
}

var suffixTokens = map[string]struct{}{
	"jr": {}, "sr": {}, "ii": {}, "iii": {}, "iv": {}, "v": {},
}

// SplitName returns the first and last name of a display name, dropping
// generational suffixes. "Luis Garcia Jr." -> ("Luis", "Garcia").
func SplitName(name string) (first, last string) {
	fields := strings.Fields(strings.TrimSpace(name))
	for len(fields) > 1 {
		tail := strings.ToLower(strings.Trim(fields[len(fields)-1], "."))
		if _, ok := suffixTokens[tail]; !ok {
			break
		}
		fields = fields[:len(fields)-1]
	}
	if len(fields) == 0 {
		return "", ""
	}
	if len(fields) == 1 {
		return fields[0], fields[0]
	}
	return fields[0], fields[len(fields)-1]
}
