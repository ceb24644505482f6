package dict

import (
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"sort"
	"strings"
	"sync"
)

// LanguageAll marks a dictionary that applies whatever languages are configured.
const LanguageAll = "all"

// Registry holds the dictionaries of one data directory for a language set.
type Registry struct {
	mu        sync.RWMutex
	dicts     map[string]*Dictionary
	order     []string
	dictsDir  string
	languages []string
}

// NewRegistry creates an empty registry for dictsDir. Only dictionaries whose
// language is in languages (or "all") are loaded; no languages means every one.
func NewRegistry(dictsDir string, languages ...string) *Registry {
	langs := make([]string, 0, len(languages))
	for _, l := range languages {
		langs = append(langs, strings.ToLower(l))
	}
	return &Registry{
		dicts:     make(map[string]*Dictionary),
		dictsDir:  dictsDir,
		languages: langs,
	}
}

// Load scans the dicts directory and loads every dictionary of the configured languages.
func (r *Registry) Load() error {
	entries, err := os.ReadDir(r.dictsDir)
	if err != nil {
		return fmt.Errorf("read dicts dir %s: %w", r.dictsDir, err)
	}

	newDicts := make(map[string]*Dictionary)
	for _, entry := range entries {
		if !entry.IsDir() {
			continue
		}
		dir := filepath.Join(r.dictsDir, entry.Name())
		if _, err := os.Stat(filepath.Join(dir, "manifest.yaml")); err != nil {
			continue
		}
		m, err := LoadManifest(filepath.Join(dir, "manifest.yaml"))
		if err != nil {
			return fmt.Errorf("load dictionary %s: %w", entry.Name(), err)
		}
		if !r.wants(m.Language) {
			continue
		}
		d, err := LoadDictionary(dir)
		if err != nil {
			return fmt.Errorf("load dictionary %s: %w", entry.Name(), err)
		}
		newDicts[d.Manifest.ID] = d
	}

	order := make([]string, 0, len(newDicts))
	for id := range newDicts {
		order = append(order, id)
	}
	sort.Strings(order)

	r.mu.Lock()
	r.dicts = newDicts
	r.order = order
	r.mu.Unlock()
	return nil
}

// Reload reloads all dictionaries from disk.
func (r *Registry) Reload() error {
	return r.Load()
}

func (r *Registry) wants(lang string) bool {
	lang = strings.ToLower(lang)
	if len(r.languages) == 0 || lang == "" || lang == LanguageAll {
		return true
	}
	return slices.Contains(r.languages, lang)
}

// Hit is a single dictionary match for a token.
type Hit struct {
	DictID     string   `json:"dict_id"`
	Language   string   `json:"language"`
	Label      string   `json:"label,omitempty"`
	Expansions []string `json:"expansions,omitempty"`
}

// LookupOptions are optional filters for Lookup.
type LookupOptions struct {
	Languages []string
	Kinds     []string
	Dicts     []string
}

// Lookup matches a token across all (or filtered) dictionaries.
// Dictionaries are visited in sorted ID order so results are deterministic.
func (r *Registry) Lookup(token string, opts *LookupOptions) []Hit {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var hits []Hit
	for _, id := range r.order {
		d := r.dicts[id]
		if opts != nil {
			if len(opts.Languages) > 0 && d.Manifest.Language != LanguageAll && !slices.Contains(opts.Languages, d.Manifest.Language) {
				continue
			}
			if len(opts.Kinds) > 0 && !slices.Contains(opts.Kinds, d.Manifest.Kind) {
				continue
			}
			if len(opts.Dicts) > 0 && !slices.Contains(opts.Dicts, d.Manifest.ID) {
				continue
			}
		}

		entry, ok := d.Classify(token)
		if !ok {
			continue
		}
		hits = append(hits, Hit{
			DictID:     d.Manifest.ID,
			Language:   d.Manifest.Language,
			Label:      entry.Label,
			Expansions: entry.Expansions,
		})
	}
	return hits
}

// Expansions returns the distinct expansions of token across abbreviation
// dictionaries, in dictionary order.
func (r *Registry) Expansions(token string) []string {
	var out []string
	for _, h := range r.Lookup(token, &LookupOptions{Kinds: []string{KindAbbreviation}}) {
		out = appendMissing(out, h.Expansions...)
	}
	return out
}

// Label returns the first component label any dictionary assigns to token.
func (r *Registry) Label(token string) (string, bool) {
	for _, h := range r.Lookup(token, nil) {
		if h.Label != "" {
			return h.Label, true
		}
	}
	return "", false
}

// DictInfo is the public metadata for a loaded dictionary.
type DictInfo struct {
	ID       string `json:"id"`
	Version  string `json:"version"`
	Language string `json:"language"`
	Kind     string `json:"kind"`
	Source   string `json:"source"`
	License  string `json:"license"`
	Entries  int    `json:"entries"`
}

// ListDicts returns metadata for all loaded dictionaries, sorted by ID.
func (r *Registry) ListDicts() []DictInfo {
	r.mu.RLock()
	defer r.mu.RUnlock()

	infos := make([]DictInfo, 0, len(r.dicts))
	for _, id := range r.order {
		d := r.dicts[id]
		infos = append(infos, DictInfo{
			ID:       d.Manifest.ID,
			Version:  d.Manifest.Version,
			Language: d.Manifest.Language,
			Kind:     d.Manifest.Kind,
			Source:   d.Manifest.Source,
			License:  d.Manifest.License,
			Entries:  len(d.Entries),
		})
	}
	return infos
}

// DictCount returns the number of loaded dictionaries.
func (r *Registry) DictCount() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.dicts)
}

// TotalEntries returns the total number of entries across all dictionaries.
func (r *Registry) TotalEntries() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	total := 0
	for _, d := range r.dicts {
		total += len(d.Entries)
	}
	return total
}
