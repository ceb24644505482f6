package postal

// LoadOptions is the configuration an Engine is loaded with.
type LoadOptions struct {
	GlobalDir  string
	CountryDir string
	// Languages restricts language-specific data. Empty means all languages.
	Languages []string
}

// Engine is the address model the Postal lifecycle manager drives.
// Load may be called again after Unload with different options.
type Engine interface {
	Load(opts LoadOptions) error
	Unload()
	// Expand returns normalized variants of text, most likely first.
	Expand(text string) ([]string, error)
	// Parse returns every plausible labelling of text.
	Parse(text string) ([]LabelMap, error)
}

// Reentrant is implemented by engines whose Expand and Parse are safe to
// call concurrently once loaded.
type Reentrant interface {
	Reentrant() bool
}

func isReentrant(e Engine) bool {
	r, ok := e.(Reentrant)
	return ok && r.Reentrant()
}
