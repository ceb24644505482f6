// CLAUDE:SUMMARY Case-insensitive regex matcher assigning component labels (unit, po_box, level...) for pattern dictionaries.
package dict

import (
	"fmt"
	"regexp"
	"strings"
)

// compiledPattern is a single regex tied to a component label.
type compiledPattern struct {
	label string
	re    *regexp.Regexp
}

// patternMatcher holds compiled patterns for a pattern dictionary.
type patternMatcher struct {
	patterns []compiledPattern
}

// compilePatterns builds a patternMatcher from manifest pattern specs.
// Patterns are anchored and case-insensitive.
func compilePatterns(specs []PatternSpec) (*patternMatcher, error) {
	if len(specs) == 0 {
		return nil, fmt.Errorf("no patterns defined")
	}

	pm := &patternMatcher{patterns: make([]compiledPattern, 0, len(specs))}
	for _, spec := range specs {
		if spec.Label == "" {
			return nil, fmt.Errorf("pattern %q: missing label", spec.Regex)
		}
		re, err := regexp.Compile(`(?i)^(?:` + spec.Regex + `)$`)
		if err != nil {
			return nil, fmt.Errorf("pattern %q: %w", spec.Label, err)
		}
		pm.patterns = append(pm.patterns, compiledPattern{label: spec.Label, re: re})
	}
	return pm, nil
}

// match tests a term against all patterns and returns the first matching label.
func (pm *patternMatcher) match(term string) (string, bool) {
	cleaned := strings.Join(strings.Fields(term), " ")
	for _, p := range pm.patterns {
		if p.re.MatchString(cleaned) {
			return p.label, true
		}
	}
	return "", false
}
