package cache

import (
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
	"golang.org/x/text/unicode/norm"
)

// TextKey normalizes free text for use as a cache key: NFC, lowercase,
// trimmed, with inner whitespace runs collapsed to one space. Composed and
// decomposed forms of the same Vietnamese text produce the same key.
func TextKey(s string) string {
	s = norm.NFC.String(s)
	s = cases.Lower(language.Und).String(s)
	return strings.Join(strings.Fields(s), " ")
}

// CountryKey builds the key for a per-country, per-language entry, e.g. "VNM_en"
func CountryKey(code, lang string) string {
	return strings.ToUpper(strings.TrimSpace(code)) + "_" + strings.ToLower(strings.TrimSpace(lang))
}
