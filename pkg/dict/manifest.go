// CLAUDE:SUMMARY Manifest YAML schema for address dictionaries: language, kind, CSV layout and label patterns.
package dict

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// Dictionary kinds.
const (
	KindAbbreviation = "abbreviation"
	KindPattern      = "pattern"
)

// Manifest describes a dictionary: its language, source, format, and how to interpret it.
type Manifest struct {
	ID       string `yaml:"id" json:"id"`
	Version  string `yaml:"version" json:"version"`
	Language string `yaml:"language" json:"language"`
	// Kind is abbreviation (default) or pattern.
	Kind      string           `yaml:"kind" json:"kind"`
	Source    string           `yaml:"source" json:"source"`
	SourceURL string           `yaml:"source_url" json:"source_url,omitempty"`
	License   string           `yaml:"license" json:"license"`
	DataFile  string           `yaml:"data_file" json:"data_file"`
	Format    FormatSpec       `yaml:"format" json:"-"`
	Columns   []MetadataColumn `yaml:"metadata_columns" json:"-"`
	Patterns  []PatternSpec    `yaml:"patterns" json:"patterns,omitempty"`
}

// PatternSpec maps a regex over a single token or fragment to a component label.
type PatternSpec struct {
	Label string `yaml:"label" json:"label"`
	Regex string `yaml:"regex" json:"regex"`
}

// FormatSpec describes the CSV layout.
type FormatSpec struct {
	Delimiter string `yaml:"delimiter"`
	Encoding  string `yaml:"encoding"`
	HasHeader bool   `yaml:"has_header"`
	KeyColumn string `yaml:"key_column"`
	Normalize string `yaml:"normalize"`
}

// MetadataColumn maps a logical name to a CSV column. The names "canonical"
// (|-separated expansions) and "label" fill the corresponding Entry fields.
type MetadataColumn struct {
	Name   string `yaml:"name"`
	Column string `yaml:"column"`
}

// LoadManifest reads and parses a manifest.yaml file.
func LoadManifest(path string) (*Manifest, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read manifest %s: %w", path, err)
	}
	var m Manifest
	if err := yaml.Unmarshal(data, &m); err != nil {
		return nil, fmt.Errorf("parse manifest %s: %w", path, err)
	}
	if m.ID == "" {
		return nil, fmt.Errorf("manifest %s: missing id", path)
	}
	if m.Kind == "" {
		m.Kind = KindAbbreviation
	}
	if m.Kind != KindAbbreviation && m.Kind != KindPattern {
		return nil, fmt.Errorf("manifest %s: unknown kind %q", path, m.Kind)
	}
	if m.DataFile == "" {
		m.DataFile = "data.csv"
	}
	return &m, nil
}
