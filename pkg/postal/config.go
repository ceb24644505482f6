package postal

import (
	"strings"

	"golang.org/x/text/language"
)

// Config is the engine configuration and load policy.
type Config struct {
	GlobalDir  string `yaml:"global_dir" json:"global_dir"`
	CountryDir string `yaml:"country_dir" json:"country_dir"`
	// Country is an ISO 3166-1 alpha-2 code enabling country postcode formats.
	Country   string   `yaml:"country" json:"country,omitempty"`
	Languages []string `yaml:"languages" json:"languages"`

	ReloadPerCall   bool `yaml:"reload_per_call" json:"reload_per_call"`
	EngineEnabled   bool `yaml:"engine_enabled" json:"engine_enabled"`
	FallbackEnabled bool `yaml:"fallback_enabled" json:"fallback_enabled"`
}

// DefaultConfig enables the engine and the primitive fallback, persistent mode.
func DefaultConfig() Config {
	return Config{
		EngineEnabled:   true,
		FallbackEnabled: true,
	}
}

func (c Config) loadOptions() LoadOptions {
	return LoadOptions{
		GlobalDir:  c.GlobalDir,
		CountryDir: c.CountryDir,
		Languages:  append([]string(nil), c.Languages...),
	}
}

// CanonicalLanguage returns the BCP 47 base language of code ("EN-gb" -> "en").
// Codes the language package cannot parse are lowercased and trimmed.
func CanonicalLanguage(code string) string {
	code = strings.TrimSpace(code)
	if code == "" {
		return ""
	}
	tag, err := language.Parse(code)
	if err != nil {
		return strings.ToLower(code)
	}
	base, _ := tag.Base()
	return base.String()
}
