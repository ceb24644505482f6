package postal

import (
	"fmt"
	"strings"
)

// Expand returns the normalized lexical variants of input in the engine's
// ranking, without duplicates. When the engine cannot be used and the
// fallback is enabled, the single primitive normalization is returned.
func (p *Postal) Expand(input string) ([]string, error) {
	input = strings.ToValidUTF8(input, "�")

	var out []string
	err := p.withEngine(func(e Engine) error {
		var err error
		out, err = e.Expand(input)
		if err != nil {
			return fmt.Errorf("expand %q: %w", input, err)
		}
		return nil
	})
	if err == nil {
		return Dedupe(out), nil
	}
	if p.canFallback(err) {
		return []string{PrimitiveNormalize(input)}, nil
	}
	return nil, err
}

// Dedupe drops repeated and empty strings, keeping the first occurrence order.
func Dedupe(in []string) []string {
	seen := make(map[string]struct{}, len(in))
	out := make([]string, 0, len(in))
	for _, s := range in {
		if s == "" {
			continue
		}
		if _, dup := seen[s]; dup {
			continue
		}
		seen[s] = struct{}{}
		out = append(out, s)
	}
	return out
}
