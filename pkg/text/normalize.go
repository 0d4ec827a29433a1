// CLAUDE:SUMMARY Case and diacritic folding used to compare hymn titles against search queries.
package text

import (
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// Normalize lowercases s, strips combining accents and trims surrounding
// whitespace (e.g. "  Señor " -> "senor", "Canción" -> "cancion").
// It is idempotent.
func Normalize(s string) string {
	// transform.Chain keeps state between calls, so build one per call.
	t := transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)
	result, _, err := transform.String(t, strings.ToLower(s))
	if err != nil {
		result = strings.ToLower(s)
	}
	return strings.TrimSpace(result)
}
