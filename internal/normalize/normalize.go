// Package normalize turns raw cell values into canonical comparable strings.
package normalize

import (
	"regexp"
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// combiningDiacritics is the Combining Diacritical Marks block (U+0300–U+036F).
var combiningDiacritics = &unicode.RangeTable{
	R16: []unicode.Range16{{Lo: 0x0300, Hi: 0x036f, Stride: 1}},
}

// invisibleSpaces maps non-breaking and zero-width spaces to a plain space.
var invisibleSpaces = strings.NewReplacer("\u00a0", " ", "\u200b", " ")

// emailPattern matches the first local-part@domain.tld in a longer string.
var emailPattern = regexp.MustCompile(`[A-Za-z0-9._%+\-]+@[A-Za-z0-9.\-]+\.[A-Za-z]{2,}`)

// Key trims and lower-cases a value for generic key comparison.
// Accents and inner whitespace are left untouched.
func Key(v string) string {
	return strings.ToLower(strings.TrimSpace(v))
}

// ForComparison is the normalization used for rule matching: invisible
// spaces become plain spaces, the value is trimmed and lower-cased, combining
// diacritics are stripped and whitespace runs collapse to a single space.
// Applying it twice yields the same result.
func ForComparison(v string) string {
	s := invisibleSpaces.Replace(v)
	s = strings.ToLower(strings.TrimSpace(s))
	s = StripDiacritics(s)
	return strings.Join(strings.Fields(s), " ")
}

// StripDiacritics decomposes s and removes the combining marks in
// U+0300–U+036F. The result stays decomposed.
func StripDiacritics(s string) string {
	// Chains carry state, so each call builds its own.
	t := transform.Chain(norm.NFD, runes.Remove(runes.In(combiningDiacritics)))
	out, _, err := transform.String(t, s)
	if err != nil {
		return s
	}
	return out
}

// Email returns the first email address embedded in v, lower-cased, or ""
// when v carries none. CRM key columns sometimes hold composite strings such
// as "Name - email@x.com - email@x.com".
func Email(v string) string {
	m := emailPattern.FindString(v)
	return strings.ToLower(strings.TrimSpace(m))
}

// EmailOrKey prefers an embedded email and falls back to Key.
func EmailOrKey(v string) string {
	if e := Email(v); e != "" {
		return e
	}
	return Key(v)
}

// IsBlank reports whether v is empty once trimmed.
func IsBlank(v string) bool {
	return strings.TrimSpace(v) == ""
}
