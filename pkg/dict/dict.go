package dict

import (
	"encoding/csv"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"slices"
	"strings"

	"golang.org/x/text/encoding/htmlindex"
	"golang.org/x/text/transform"
)

// Entry is a single dictionary term: its expansions and the component label it signals.
type Entry struct {
	Expansions []string          `json:"expansions,omitempty"`
	Label      string            `json:"label,omitempty"`
	Metadata   map[string]string `json:"metadata,omitempty"`
}

// Dictionary is one loaded dictionary with its manifest and in-memory hashmap.
type Dictionary struct {
	Manifest  *Manifest         `json:"manifest"`
	Entries   map[string]*Entry `json:"-"`
	normalize Normalizer
	patterns  *patternMatcher
}

// LoadDictionary reads a manifest.yaml and loads data from gob, csv, or patterns.
func LoadDictionary(dir string) (*Dictionary, error) {
	manifest, err := LoadManifest(filepath.Join(dir, "manifest.yaml"))
	if err != nil {
		return nil, err
	}

	d := &Dictionary{
		Manifest:  manifest,
		Entries:   make(map[string]*Entry),
		normalize: GetNormalizer(manifest.Format.Normalize),
	}

	// Pattern dictionaries: compile regexes, no data file.
	if manifest.Kind == KindPattern {
		pm, err := compilePatterns(manifest.Patterns)
		if err != nil {
			return nil, fmt.Errorf("dict %s: %w", manifest.ID, err)
		}
		d.patterns = pm
		return d, nil
	}

	// Gob takes priority over CSV.
	gobPath := filepath.Join(dir, "data.gob")
	if _, err := os.Stat(gobPath); err == nil {
		if err := d.loadGob(gobPath); err != nil {
			return nil, fmt.Errorf("dict %s: %w", manifest.ID, err)
		}
		return d, nil
	}

	if err := d.loadCSV(filepath.Join(dir, manifest.DataFile)); err != nil {
		return nil, fmt.Errorf("dict %s: %w", manifest.ID, err)
	}
	return d, nil
}

func (d *Dictionary) loadCSV(path string) error {
	f, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("open data file: %w", err)
	}
	defer f.Close()

	// Transcode non-UTF-8 encodings declared in the manifest.
	var reader io.Reader = f
	if enc := d.Manifest.Format.Encoding; enc != "" && !isUTF8(enc) {
		e, err := htmlindex.Get(enc)
		if err != nil {
			return fmt.Errorf("unsupported encoding %q: %w", enc, err)
		}
		reader = transform.NewReader(f, e.NewDecoder())
	}

	r := csv.NewReader(reader)
	if delim := d.Manifest.Format.Delimiter; delim != "" {
		r.Comma = []rune(delim)[0]
	}
	r.LazyQuotes = true
	r.TrimLeadingSpace = true
	r.FieldsPerRecord = -1

	var header []string
	if d.Manifest.Format.HasHeader {
		header, err = r.Read()
		if err != nil {
			return fmt.Errorf("read header: %w", err)
		}
		for i := range header {
			header[i] = strings.TrimSpace(header[i])
		}
	}

	keyIdx := 0
	if col := d.Manifest.Format.KeyColumn; col != "" && header != nil {
		keyIdx = slices.Index(header, col)
		if keyIdx < 0 {
			return fmt.Errorf("key column %q not found in header %v", col, header)
		}
	}

	// Without a header the second column holds the expansions.
	colIdx := make(map[string]int)
	for _, mc := range d.Manifest.Columns {
		if header != nil {
			if i := slices.Index(header, mc.Column); i >= 0 {
				colIdx[mc.Name] = i
			}
		}
	}
	if header == nil && len(colIdx) == 0 {
		colIdx["canonical"] = 1
	}

	var merged int
	for {
		record, err := r.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return fmt.Errorf("read row: %w", err)
		}
		if keyIdx >= len(record) {
			continue
		}

		key := d.normalize(strings.TrimSpace(record[keyIdx]))
		if key == "" {
			continue
		}

		entry := &Entry{}
		for name, idx := range colIdx {
			if idx >= len(record) {
				continue
			}
			v := strings.TrimSpace(record[idx])
			switch name {
			case "canonical":
				for _, exp := range strings.Split(v, "|") {
					if exp = strings.TrimSpace(exp); exp != "" {
						entry.Expansions = append(entry.Expansions, exp)
					}
				}
			case "label":
				entry.Label = v
			default:
				if entry.Metadata == nil {
					entry.Metadata = make(map[string]string)
				}
				entry.Metadata[name] = v
			}
		}

		// Repeated keys accumulate expansions; "st" is both street and saint.
		if prev, exists := d.Entries[key]; exists {
			merged++
			prev.Expansions = appendMissing(prev.Expansions, entry.Expansions...)
			if prev.Label == "" {
				prev.Label = entry.Label
			}
			continue
		}
		d.Entries[key] = entry
	}

	if merged > 0 {
		slog.Debug("merged repeated dictionary keys", "dict", d.Manifest.ID, "merged", merged)
	}
	return nil
}

// Lookup searches for a term in this dictionary after normalization.
func (d *Dictionary) Lookup(term string) (*Entry, bool) {
	e, ok := d.Entries[d.normalize(term)]
	return e, ok
}

// Classify matches a term against patterns or falls back to lookup.
func (d *Dictionary) Classify(term string) (*Entry, bool) {
	if d.patterns != nil {
		label, ok := d.patterns.match(term)
		if !ok {
			return nil, false
		}
		return &Entry{Label: label}, true
	}
	return d.Lookup(term)
}

func appendMissing(dst []string, values ...string) []string {
	for _, v := range values {
		if !slices.Contains(dst, v) {
			dst = append(dst, v)
		}
	}
	return dst
}

func isUTF8(enc string) bool {
	e := strings.ToLower(strings.ReplaceAll(enc, "-", ""))
	return e == "utf8" || e == ""
}
