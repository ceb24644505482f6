package postal

import (
	"fmt"
	"strings"
)

// ParseOutcome is the full result of Parse.
type ParseOutcome struct {
	// Parsed holds every plausible labelling, engine order preserved. Never empty.
	Parsed []LabelMap `json:"parsed"`
	// NoNormalization labels the raw input, values keep their original spelling.
	NoNormalization LabelMap `json:"nonormalization"`
	// Primitive is true when the primitive fallback produced the result.
	Primitive bool `json:"primitive"`
}

// Parse returns all plausible label assignments for input plus the
// assignment computed on the non-normalized input.
func (p *Postal) Parse(input string) ([]LabelMap, LabelMap, error) {
	out, err := p.ParseDetailed(input)
	if err != nil {
		return nil, nil, err
	}
	return out.Parsed, out.NoNormalization, nil
}

// ParseDetailed is Parse that also reports whether the fallback was used.
func (p *Postal) ParseDetailed(input string) (*ParseOutcome, error) {
	if input == "" {
		return nil, &ParseError{Input: input, Reason: "empty input"}
	}
	input = strings.ToValidUTF8(input, "�")

	var out *ParseOutcome
	err := p.withEngine(func(e Engine) error {
		var err error
		out, err = parseWithEngine(e, input)
		return err
	})
	if err == nil {
		return out, nil
	}
	if !p.canFallback(err) {
		return nil, err
	}

	m, perr := PrimitiveParse(input)
	if perr != nil {
		return nil, perr
	}
	return &ParseOutcome{
		Parsed:          []LabelMap{m},
		NoNormalization: m.Clone(),
		Primitive:       true,
	}, nil
}

// parseWithEngine parses every expansion of input, then the raw input for the
// non-normalized counterpart.
func parseWithEngine(e Engine, input string) (*ParseOutcome, error) {
	expansions, err := e.Expand(input)
	if err != nil {
		return nil, fmt.Errorf("expand %q: %w", input, err)
	}
	expansions = Dedupe(expansions)
	if len(expansions) == 0 {
		expansions = []string{input}
	}

	out := &ParseOutcome{}
	for _, exp := range expansions {
		results, err := e.Parse(exp)
		if err != nil {
			return nil, fmt.Errorf("parse %q: %w", exp, err)
		}
		for _, r := range results {
			if r = prune(r); len(r) > 0 {
				out.Parsed = append(out.Parsed, r)
			}
		}
	}

	raw, err := e.Parse(input)
	if err != nil {
		return nil, fmt.Errorf("parse %q: %w", input, err)
	}
	for _, r := range raw {
		if r = prune(r); len(r) > 0 {
			out.NoNormalization = r
			break
		}
	}

	if len(out.Parsed) == 0 {
		out.Parsed = []LabelMap{degenerate(input)}
	}
	if out.NoNormalization == nil {
		out.NoNormalization = degenerate(input)
	}
	return out, nil
}

// prune copies m without empty values and without labels left empty.
func prune(m LabelMap) LabelMap {
	out := make(LabelMap, len(m))
	for label, values := range m {
		for _, v := range values {
			out.Add(label, v)
		}
	}
	return out
}
