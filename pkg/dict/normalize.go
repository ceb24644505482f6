// CLAUDE:SUMMARY Text normalization strategies (fold, lowercase+strip-accents, lowercase-only, none) for dictionary keys and address tokens.
package dict

import (
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
	"golang.org/x/text/width"
)

// Normalizer transforms a term before lookup.
type Normalizer func(string) string

var stripAccents = transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)

// StripAccents removes combining marks (Straße stays, Élodie -> Elodie).
func StripAccents(s string) string {
	result, _, _ := transform.String(stripAccents, s)
	return result
}

// NormalizeLowercaseASCII lowercases and strips accents (e.g. AVENUE, Allée -> allee).
func NormalizeLowercaseASCII(s string) string {
	return StripAccents(strings.ToLower(s))
}

// NormalizeLowercaseUTF8 lowercases but preserves accents.
func NormalizeLowercaseUTF8(s string) string {
	return strings.ToLower(s)
}

// NormalizeFold folds full-width forms and compatibility characters (NFKC),
// lowercases and strips accents: "ＳＴ．" -> "st.", "Ⅻ" -> "xii".
func NormalizeFold(s string) string {
	s = norm.NFKC.String(width.Fold.String(s))
	return NormalizeLowercaseASCII(s)
}

// NormalizeNone returns the term unchanged.
func NormalizeNone(s string) string {
	return s
}

// GetNormalizer returns the normalizer for the given mode.
// Default is lowercase_ascii.
func GetNormalizer(mode string) Normalizer {
	switch mode {
	case "lowercase_ascii":
		return NormalizeLowercaseASCII
	case "lowercase_utf8":
		return NormalizeLowercaseUTF8
	case "fold":
		return NormalizeFold
	case "none":
		return NormalizeNone
	default:
		return NormalizeLowercaseASCII
	}
}
