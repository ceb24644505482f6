package importer

import (
	"context"
	"fmt"
	"sort"
	"sync"
)

// Adapter kinds: where an adapter's output lands.
const (
	// KindGazetteer adapters fill <country dir>/gazetteer.db.
	KindGazetteer = "gazetteer"
	// KindDictionary adapters write a dictionary directory under <global dir>/dicts.
	KindDictionary = "dictionary"
)

// Options is what an import run needs besides the source URL.
type Options struct {
	// OutputDir is the country data directory for gazetteer adapters and
	// the dicts directory for dictionary adapters.
	OutputDir string
	// Country restricts gazetteer rows to one ISO 3166-1 alpha-2 code. Empty keeps all.
	Country string
	// Language tags dictionary output. Defaults to "en".
	Language string
}

// Adapter defines a data source importer that downloads and transforms model
// data for the local address engine.
type Adapter interface {
	// ID returns the unique identifier of this adapter (e.g. "geonames-cities").
	ID() string
	// Kind returns KindGazetteer or KindDictionary.
	Kind() string
	// Target names what the adapter produces (e.g. "gazetteer.db", "street-types-en").
	Target() string
	// Description returns a human-readable description.
	Description() string
	// DefaultURL returns the default source URL used for seeding the database.
	DefaultURL() string
	// License returns the license identifier for this source (e.g. "CC-BY-4.0", "MIT").
	License() string
	// Import downloads the source from sourceURL and writes its output under opts.OutputDir.
	Import(ctx context.Context, sourceURL string, opts Options) error
}

var (
	registryMu sync.RWMutex
	adapters   = make(map[string]Adapter)
)

// Register adds an adapter to the global registry.
func Register(a Adapter) {
	registryMu.Lock()
	defer registryMu.Unlock()
	adapters[a.ID()] = a
}

// Get returns a registered adapter by ID, or an error if not found.
func Get(id string) (Adapter, error) {
	registryMu.RLock()
	defer registryMu.RUnlock()
	a, ok := adapters[id]
	if !ok {
		return nil, fmt.Errorf("unknown import source: %q", id)
	}
	return a, nil
}

// All returns all registered adapters sorted by ID.
func All() []Adapter {
	registryMu.RLock()
	defer registryMu.RUnlock()
	result := make([]Adapter, 0, len(adapters))
	for _, a := range adapters {
		result = append(result, a)
	}
	sort.Slice(result, func(i, j int) bool { return result[i].ID() < result[j].ID() })
	return result
}
