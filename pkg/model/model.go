// CLAUDE:SUMMARY Local address model engine: language dictionaries plus a per-country SQLite gazetteer, loaded and released as one unit.
package model

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sync"

	"github.com/hazyhaar/touchstone-postal/pkg/dict"
	"github.com/hazyhaar/touchstone-postal/pkg/postal"
)

// DictsDir is the dictionaries directory inside the global data directory.
const DictsDir = "dicts"

const (
	defaultMaxExpansions = 32
	defaultMaxParses     = 8
)

// ErrNotLoaded is returned by queries on a model that is not loaded.
var ErrNotLoaded = errors.New("model: not loaded")

// Model implements postal.Engine on top of dict.Registry and Gazetteer.
// Queries are safe for concurrent use once loaded.
type Model struct {
	mu            sync.RWMutex
	reg           *dict.Registry
	gaz           *Gazetteer
	opts          postal.LoadOptions
	logger        *slog.Logger
	maxExpansions int
	maxParses     int
}

// Option configures a Model.
type Option func(*Model)

// WithLogger sets the logger. Defaults to slog.Default().
func WithLogger(l *slog.Logger) Option {
	return func(m *Model) { m.logger = l }
}

// WithMaxExpansions caps the number of variants Expand returns.
func WithMaxExpansions(n int) Option {
	return func(m *Model) {
		if n > 0 {
			m.maxExpansions = n
		}
	}
}

// WithMaxParses caps the number of ambiguous labellings Parse returns.
func WithMaxParses(n int) Option {
	return func(m *Model) {
		if n > 0 {
			m.maxParses = n
		}
	}
}

// New returns an unloaded Model.
func New(opts ...Option) *Model {
	m := &Model{
		maxExpansions: defaultMaxExpansions,
		maxParses:     defaultMaxParses,
	}
	for _, o := range opts {
		o(m)
	}
	if m.logger == nil {
		m.logger = slog.Default()
	}
	return m
}

// Load reads <GlobalDir>/dicts for the requested languages and, when present,
// <CountryDir>/gazetteer.db. A loaded model is released first.
func (m *Model) Load(opts postal.LoadOptions) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.releaseLocked()

	if opts.GlobalDir == "" {
		return fmt.Errorf("model: no global data directory")
	}
	if fi, err := os.Stat(opts.GlobalDir); err != nil {
		return fmt.Errorf("model: global data directory: %w", err)
	} else if !fi.IsDir() {
		return fmt.Errorf("model: global data directory %s is not a directory", opts.GlobalDir)
	}

	reg := dict.NewRegistry(filepath.Join(opts.GlobalDir, DictsDir), opts.Languages...)
	if err := reg.Load(); err != nil {
		return fmt.Errorf("model: %w", err)
	}

	var gaz *Gazetteer
	if opts.CountryDir != "" {
		path := filepath.Join(opts.CountryDir, GazetteerFile)
		if _, err := os.Stat(path); err == nil {
			g, err := OpenGazetteer(path)
			if err != nil {
				return fmt.Errorf("model: %w", err)
			}
			gaz = g
		} else {
			m.logger.Debug("model: no gazetteer", "path", path)
		}
	}

	m.reg = reg
	m.gaz = gaz
	m.opts = opts

	places := 0
	if gaz != nil {
		places, _ = gaz.Count()
	}
	m.logger.Info("model loaded",
		"global_dir", opts.GlobalDir,
		"country_dir", opts.CountryDir,
		"languages", opts.Languages,
		"dicts", reg.DictCount(),
		"entries", reg.TotalEntries(),
		"places", places)
	return nil
}

// Unload releases the dictionaries and closes the gazetteer. Safe to call repeatedly.
func (m *Model) Unload() {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.reg == nil {
		return
	}
	m.releaseLocked()
	m.logger.Debug("model unloaded")
}

func (m *Model) releaseLocked() {
	if m.gaz != nil {
		if err := m.gaz.Close(); err != nil {
			m.logger.Warn("model: close gazetteer", "error", err)
		}
	}
	m.reg = nil
	m.gaz = nil
	m.opts = postal.LoadOptions{}
}

// Reentrant reports that Expand and Parse may run concurrently.
func (m *Model) Reentrant() bool { return true }

// Loaded reports whether dictionaries are in memory.
func (m *Model) Loaded() bool {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.reg != nil
}

// Dicts lists the loaded dictionaries.
func (m *Model) Dicts() []dict.DictInfo {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if m.reg == nil {
		return nil
	}
	return m.reg.ListDicts()
}
