package model

import (
	"slices"
	"strings"

	"github.com/hazyhaar/touchstone-postal/pkg/dict"
	"github.com/hazyhaar/touchstone-postal/pkg/postal"

	"golang.org/x/text/unicode/norm"
	"golang.org/x/text/width"
)

// foldText repairs invalid UTF-8, folds full-width forms and composes to NFC.
// Case is kept.
func foldText(s string) string {
	s = strings.ToValidUTF8(s, "�")
	return norm.NFC.String(width.Fold.String(s))
}

// normalizeText is foldText lowercased, the form dictionaries are keyed on.
func normalizeText(s string) string {
	return strings.ToLower(foldText(s))
}

// Expand returns the Cartesian product of every token's alternatives,
// first choices first, deduplicated and capped. Fragments stay comma-separated.
func (m *Model) Expand(text string) ([]string, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if m.reg == nil {
		return nil, ErrNotLoaded
	}

	out := []string{""}
	for fi, frag := range postal.SplitFragments(normalizeText(text)) {
		for ti, tok := range strings.Fields(frag) {
			sep := " "
			switch {
			case fi == 0 && ti == 0:
				sep = ""
			case ti == 0:
				sep = ", "
			}
			out = m.extend(out, sep, m.alternatives(tok))
		}
	}
	if len(out) == 1 && out[0] == "" {
		return nil, nil
	}
	return postal.Dedupe(out), nil
}

func (m *Model) extend(prefixes []string, sep string, alts []string) []string {
	next := make([]string, 0, min(len(prefixes)*len(alts), m.maxExpansions))
	for _, p := range prefixes {
		for _, a := range alts {
			if len(next) == m.maxExpansions {
				return next
			}
			next = append(next, p+sep+a)
		}
	}
	return next
}

// alternatives lists the dictionary expansions of tok (or tok itself) followed
// by their accent-free forms.
func (m *Model) alternatives(tok string) []string {
	alts := m.reg.Expansions(tok)
	if bare := strings.TrimRight(tok, "."); len(alts) == 0 && bare != tok && bare != "" {
		alts = m.reg.Expansions(bare)
	}
	if len(alts) == 0 {
		alts = []string{tok}
	}
	out := make([]string, 0, len(alts)*2)
	out = append(out, alts...)
	for _, a := range alts {
		if s := dict.StripAccents(a); s != a && !slices.Contains(out, s) {
			out = append(out, s)
		}
	}
	return out
}
