// CLAUDE:SUMMARY Postal code canonicalization: generic trim/fold/uppercase rules plus per-country layouts.
package postal

import (
	"regexp"
	"strings"
	"unicode"

	"golang.org/x/text/width"
)

var (
	spaceRun     = regexp.MustCompile(`\s+`)
	hyphenSpaces = regexp.MustCompile(`\s*-\s*`)
	hyphenRun    = regexp.MustCompile(`-+`)
)

// NormalizePostalCode returns the canonical textual form of a postal code.
// It folds full-width characters, drops punctuation other than hyphens,
// uppercases, and collapses whitespace to single spaces. It never fails and
// NormalizePostalCode(NormalizePostalCode(x)) == NormalizePostalCode(x).
func NormalizePostalCode(raw string) string {
	s := width.Fold.String(raw)
	s = strings.Map(func(r rune) rune {
		switch {
		case r == '-':
			return r
		case unicode.IsSpace(r):
			return ' '
		case unicode.IsPunct(r) || unicode.IsSymbol(r) || unicode.IsControl(r):
			return ' '
		}
		return unicode.ToUpper(r)
	}, s)
	s = spaceRun.ReplaceAllString(s, " ")
	s = hyphenSpaces.ReplaceAllString(s, "-")
	s = hyphenRun.ReplaceAllString(s, "-")
	return strings.Trim(s, " -")
}

// countryFormat rewrites a compact (separator-free) postcode for one country.
type countryFormat struct {
	re     *regexp.Regexp
	layout func(compact string) string
}

func splitAt(n int, sep string) func(string) string {
	return func(s string) string { return s[:n] + sep + s[n:] }
}

func splitFromEnd(n int, sep string) func(string) string {
	return func(s string) string { return s[:len(s)-n] + sep + s[len(s)-n:] }
}

func identity(s string) string { return s }

var countryFormats = map[string][]countryFormat{
	"GB": {{regexp.MustCompile(`^[A-Z]{1,2}[0-9][A-Z0-9]?[0-9][A-Z]{2}$`), splitFromEnd(3, " ")}},
	"CA": {{regexp.MustCompile(`^[A-Z][0-9][A-Z][0-9][A-Z][0-9]$`), splitAt(3, " ")}},
	"NL": {{regexp.MustCompile(`^[0-9]{4}[A-Z]{2}$`), splitAt(4, " ")}},
	"US": {
		{regexp.MustCompile(`^[0-9]{5}$`), identity},
		{regexp.MustCompile(`^[0-9]{9}$`), splitAt(5, "-")},
	},
	"PL": {{regexp.MustCompile(`^[0-9]{5}$`), splitAt(2, "-")}},
	"SE": {{regexp.MustCompile(`^[0-9]{5}$`), splitAt(3, " ")}},
	"PT": {{regexp.MustCompile(`^[0-9]{7}$`), splitAt(4, "-")}},
	"JP": {{regexp.MustCompile(`^[0-9]{7}$`), splitAt(3, "-")}},
	"BR": {{regexp.MustCompile(`^[0-9]{8}$`), splitAt(5, "-")}},
	"DE": {{regexp.MustCompile(`^[0-9]{5}$`), identity}},
	"FR": {{regexp.MustCompile(`^[0-9]{5}$`), identity}},
}

// NormalizePostalCodeFor applies the generic rules and then, if country has a
// known layout that the code matches, rewrites it into that layout.
// Codes that do not match are returned in their generic form.
func NormalizePostalCodeFor(country, raw string) string {
	s := NormalizePostalCode(raw)
	formats, ok := countryFormats[strings.ToUpper(strings.TrimSpace(country))]
	if !ok {
		return s
	}
	compact := strings.NewReplacer(" ", "", "-", "").Replace(s)
	for _, f := range formats {
		if f.re.MatchString(compact) {
			return f.layout(compact)
		}
	}
	return s
}

// NormalizePostalCode canonicalizes raw using the configured country, if any.
func (p *Postal) NormalizePostalCode(raw string) string {
	p.mu.RLock()
	country := p.cfg.Country
	p.mu.RUnlock()
	return NormalizePostalCodeFor(country, raw)
}
