// CLAUDE:SUMMARY Primitive rule-based parser and normalizer used when the address engine is unavailable.
package postal

import (
	"regexp"
	"strings"

	"golang.org/x/text/unicode/norm"
)

var (
	leadingNumber  = regexp.MustCompile(`^(\d+[A-Za-z]?(?:[-/]\d+[A-Za-z]?)?)\s+(.+)$`)
	trailingNumber = regexp.MustCompile(`^(.+?)\s+(\d+[A-Za-z]?(?:[-/]\d+[A-Za-z]?)?)$`)
	postcodeLike   = regexp.MustCompile(`^(?i)(?:[A-Z]{1,2}\d[A-Z\d]?\s?\d[A-Z]{2}|\d{4,6}(?:-\d{3,4})?|[A-Z]\d[A-Z]\s?\d[A-Z]\d|\d{4}\s?[A-Z]{2})$`)
	leadingPost    = regexp.MustCompile(`^(\d{4,6}(?:-\d{3,4})?)\s+(.+)$`)
	trailingPost   = regexp.MustCompile(`^(?i)(.+?)\s+((?:[A-Z]{1,2}\d[A-Z\d]?\s\d[A-Z]{2})|\d{4,6}(?:-\d{3,4})?)$`)
)

// PrimitiveNormalize lowercases s, composes it to NFC and collapses whitespace.
func PrimitiveNormalize(s string) string {
	return strings.Join(strings.Fields(strings.ToLower(norm.NFC.String(s))), " ")
}

// SplitFragments splits an address on commas, semicolons and line breaks and
// drops empty pieces.
func SplitFragments(s string) []string {
	parts := strings.FieldsFunc(s, func(r rune) bool {
		return r == ',' || r == ';' || r == '\n' || r == '\r'
	})
	out := parts[:0]
	for _, p := range parts {
		if p = strings.Join(strings.Fields(p), " "); p != "" {
			out = append(out, p)
		}
	}
	return out
}

// SplitHouseNumber separates a leading or trailing house number from a street
// fragment ("123 Main St", "Hauptstrasse 5"). ok is false when none is found.
func SplitHouseNumber(fragment string) (number, road string, ok bool) {
	if m := leadingNumber.FindStringSubmatch(fragment); m != nil {
		return m[1], m[2], true
	}
	if m := trailingNumber.FindStringSubmatch(fragment); m != nil {
		return m[2], m[1], true
	}
	return "", fragment, false
}

// IsPostcodeLike reports whether s looks like a postal code on its own.
func IsPostcodeLike(s string) bool {
	return postcodeLike.MatchString(strings.TrimSpace(s))
}

// SplitPostcode pulls a postal code off the front ("75001 Paris") or back
// ("IL 62701") of a locality fragment.
func SplitPostcode(fragment string) (postcode, rest string) {
	if IsPostcodeLike(fragment) {
		return fragment, ""
	}
	if m := leadingPost.FindStringSubmatch(fragment); m != nil {
		return m[1], m[2]
	}
	if m := trailingPost.FindStringSubmatch(fragment); m != nil {
		return m[2], m[1]
	}
	return "", fragment
}

// PositionalLabels returns the coarse labels for n locality fragments that
// follow the street fragment, most specific first.
func PositionalLabels(n int) []string {
	switch {
	case n <= 0:
		return nil
	case n == 1:
		return []string{LabelCity}
	case n == 2:
		return []string{LabelCity, LabelState}
	case n == 3:
		return []string{LabelCity, LabelState, LabelCountry}
	}
	labels := make([]string, n)
	for i := 0; i < n-3; i++ {
		labels[i] = LabelSuburb
	}
	copy(labels[n-3:], []string{LabelCity, LabelState, LabelCountry})
	return labels
}

// PrimitiveParse segments input into one coarse LabelMap: the first fragment
// is the street (with its house number), postal codes are picked out of the
// remaining fragments, and the rest is labelled by position.
func PrimitiveParse(input string) (LabelMap, error) {
	if input == "" {
		return nil, &ParseError{Input: input, Reason: "empty input"}
	}
	input = strings.ToValidUTF8(input, "�")

	frags := SplitFragments(input)
	if len(frags) == 0 {
		return degenerate(input), nil
	}

	m := make(LabelMap)
	first := frags[0]
	if number, road, ok := SplitHouseNumber(first); ok {
		m.Add(LabelHouseNumber, number)
		m.Add(LabelRoad, road)
	} else if len(frags) == 1 {
		m.Add(LabelHouse, first)
	} else {
		m.Add(LabelRoad, first)
	}

	var localities []string
	for _, f := range frags[1:] {
		code, rest := SplitPostcode(f)
		if code != "" {
			m.Add(LabelPostcode, code)
		}
		if rest != "" {
			localities = append(localities, rest)
		}
	}

	labels := PositionalLabels(len(localities))
	var suburbs []string
	for i, loc := range localities {
		if labels[i] == LabelSuburb {
			suburbs = append(suburbs, loc)
			continue
		}
		m.Add(labels[i], loc)
	}
	if len(suburbs) > 0 {
		m.Add(LabelSuburb, strings.Join(suburbs, ", "))
	}
	return m, nil
}

// degenerate puts the whole input under the generic house label.
func degenerate(input string) LabelMap {
	v := strings.TrimSpace(input)
	if v == "" {
		v = input
	}
	return LabelMap{LabelHouse: {v}}
}
