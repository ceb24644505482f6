package model

import (
	"fmt"
	"slices"
	"strings"

	"github.com/hazyhaar/touchstone-postal/pkg/postal"
)

// locality is a fragment after the street with the labels the gazetteer
// knows for it, highest rank first. No labels means it is labelled by position.
type locality struct {
	value  string
	labels []string
}

// Parse labels the comma fragments of text. Whole fragments matching a
// dictionary label (unit, po_box, country...) take it; the first fragment is
// the street unless it is a known place; postal codes are split off later
// fragments, which are then resolved against the gazetteer. A place the
// gazetteer knows under several labels forks the result, so Parse may return
// several LabelMaps, most likely first. Lookups use the lowercased text;
// label values keep the caller's casing.
func (m *Model) Parse(text string) ([]postal.LabelMap, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if m.reg == nil {
		return nil, ErrNotLoaded
	}

	frags := postal.SplitFragments(foldText(text))
	if len(frags) == 0 {
		return nil, nil
	}

	base := make(postal.LabelMap)
	var locs []locality
	for i, f := range frags {
		if label, ok := m.reg.Label(strings.ToLower(f)); ok && label != postal.LabelRoad {
			base.Add(label, f)
			continue
		}

		code, rest := postal.SplitPostcode(f)
		if i == 0 {
			if code != "" && rest != "" {
				labels, err := m.placeLabels(rest)
				if err != nil {
					return nil, err
				}
				if len(labels) > 0 {
					base.Add(postal.LabelPostcode, code)
					locs = append(locs, locality{value: rest, labels: labels})
					continue
				}
			}
			if number, road, ok := postal.SplitHouseNumber(f); ok {
				base.Add(postal.LabelHouseNumber, number)
				base.Add(postal.LabelRoad, road)
				continue
			}
			if m.hasRoadToken(f) {
				base.Add(postal.LabelRoad, f)
				continue
			}
			labels, err := m.placeLabels(f)
			if err != nil {
				return nil, err
			}
			if len(labels) == 0 {
				base.Add(postal.LabelHouse, f)
				continue
			}
			locs = append(locs, locality{value: f, labels: labels})
			continue
		}

		base.Add(postal.LabelPostcode, code)
		if rest == "" {
			continue
		}
		labels, err := m.placeLabels(rest)
		if err != nil {
			return nil, err
		}
		locs = append(locs, locality{value: rest, labels: labels})
	}

	return m.fork(base, locs), nil
}

// fork assigns a label to every locality, branching on ambiguous ones.
// A candidate already used in a branch is skipped while others remain.
func (m *Model) fork(base postal.LabelMap, locs []locality) []postal.LabelMap {
	positional := postal.PositionalLabels(len(locs))
	resolved := make(map[string]int)
	for i, l := range locs {
		if len(l.labels) > 0 {
			if _, seen := resolved[l.labels[0]]; !seen {
				resolved[l.labels[0]] = i
			}
		}
	}

	maps := []postal.LabelMap{base}
	for i, l := range locs {
		candidates := l.labels
		if len(candidates) == 0 {
			label := positional[i]
			if at, claimed := resolved[label]; claimed && at > i {
				label = postal.LabelSuburb
			}
			candidates = []string{label}
		}

		next := make([]postal.LabelMap, 0, len(maps))
		for _, mp := range maps {
			avail := slices.DeleteFunc(slices.Clone(candidates), func(c string) bool {
				_, used := mp[c]
				return used
			})
			if len(avail) == 0 {
				avail = candidates
			}
			for _, c := range avail {
				if len(next) == m.maxParses {
					break
				}
				cl := mp.Clone()
				cl.Add(c, l.value)
				next = append(next, cl)
			}
		}
		maps = next
	}
	return maps
}

func (m *Model) hasRoadToken(fragment string) bool {
	for _, tok := range strings.Fields(strings.ToLower(fragment)) {
		if label, ok := m.reg.Label(tok); ok && label == postal.LabelRoad {
			return true
		}
		if bare := strings.TrimRight(tok, "."); bare != tok && bare != "" {
			if label, ok := m.reg.Label(bare); ok && label == postal.LabelRoad {
				return true
			}
		}
	}
	return false
}

func (m *Model) placeLabels(value string) ([]string, error) {
	if m.gaz == nil {
		return nil, nil
	}
	labels, err := m.gaz.Labels(value)
	if err != nil {
		return nil, fmt.Errorf("model: %w", err)
	}
	return labels, nil
}
