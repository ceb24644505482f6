// CLAUDE:SUMMARY Postal owns the address engine lifecycle: configuration, lazy or per-call loading, invalidation and unloading under one lock.
package postal

import (
	"errors"
	"fmt"
	"log/slog"
	"slices"
	"sync"
)

// Postal drives an Engine according to a Config. It is the only writer of
// the configuration and of the loaded state; all of it sits behind mu.
type Postal struct {
	mu     sync.RWMutex
	cfg    Config
	engine Engine
	loaded bool
	closed bool
	logger *slog.Logger
}

// Option configures a Postal at construction.
type Option func(*Postal)

// WithConfig replaces the default configuration.
func WithConfig(cfg Config) Option {
	return func(p *Postal) {
		cfg.Languages = normalizeLanguages(cfg.Languages)
		p.cfg = cfg
	}
}

// WithLogger sets the logger used for lifecycle events.
func WithLogger(l *slog.Logger) Option {
	return func(p *Postal) {
		if l != nil {
			p.logger = l
		}
	}
}

// New returns an unloaded Postal driving engine. A nil engine can only
// serve the primitive fallback.
func New(engine Engine, opts ...Option) *Postal {
	p := &Postal{
		cfg:    DefaultConfig(),
		engine: engine,
		logger: slog.Default(),
	}
	for _, o := range opts {
		o(p)
	}
	return p
}

// Config returns a copy of the current configuration.
func (p *Postal) Config() Config {
	p.mu.RLock()
	defer p.mu.RUnlock()
	c := p.cfg
	c.Languages = append([]string(nil), p.cfg.Languages...)
	return c
}

// Loaded reports whether the engine currently holds loaded data.
func (p *Postal) Loaded() bool {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.loaded
}

// SetDataDir sets the global and country data directories and unloads the engine.
func (p *Postal) SetDataDir(global, country string) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.cfg.GlobalDir = global
	p.cfg.CountryDir = country
	p.dropLocked("data directories changed")
}

// SetCountryDataDir sets only the country data directory and unloads the engine.
func (p *Postal) SetCountryDataDir(country string) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.cfg.CountryDir = country
	p.dropLocked("country data directory changed")
}

// SetCountry sets the country used for postcode formatting. The engine stays loaded.
func (p *Postal) SetCountry(code string) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.cfg.Country = code
}

// AddLanguage adds a language to the configured set and unloads the engine.
func (p *Postal) AddLanguage(code string) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if lang := CanonicalLanguage(code); lang != "" && !slices.Contains(p.cfg.Languages, lang) {
		p.cfg.Languages = append(p.cfg.Languages, lang)
	}
	p.dropLocked("language added")
}

// ClearLanguages empties the language set (meaning all languages) and unloads the engine.
func (p *Postal) ClearLanguages() {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.cfg.Languages = nil
	p.dropLocked("languages cleared")
}

// Languages returns the configured language set.
func (p *Postal) Languages() []string {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return append([]string(nil), p.cfg.Languages...)
}

// ReloadPerCall reports whether every operation reloads the engine first.
func (p *Postal) ReloadPerCall() bool {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.cfg.ReloadPerCall
}

// SetReloadPerCall makes every operation reload the engine before use.
func (p *Postal) SetReloadPerCall(v bool) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.cfg.ReloadPerCall = v
}

// EngineEnabled reports whether the engine may be loaded and queried.
func (p *Postal) EngineEnabled() bool {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.cfg.EngineEnabled
}

// SetEngineEnabled toggles the engine. Disabling unloads it immediately.
func (p *Postal) SetEngineEnabled(v bool) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.cfg.EngineEnabled = v
	if !v {
		p.dropLocked("engine disabled")
	}
}

// FallbackEnabled reports whether the primitive fallback may answer for an unavailable engine.
func (p *Postal) FallbackEnabled() bool {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.cfg.FallbackEnabled
}

// SetFallbackEnabled allows the primitive fallback when the engine is unavailable.
func (p *Postal) SetFallbackEnabled(v bool) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.cfg.FallbackEnabled = v
}

// EnsureLoaded loads the engine unless it is already loaded in persistent mode.
// A failed load returns a *LoadError and leaves the engine unloaded; the next
// call tries again.
func (p *Postal) EnsureLoaded() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.ensureLoadedLocked()
}

// Reload unloads and loads the engine with the current configuration.
func (p *Postal) Reload() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.dropLocked("reload requested")
	return p.ensureLoadedLocked()
}

// Unload releases the engine data. Unloading an unloaded engine is a no-op.
func (p *Postal) Unload() {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.dropLocked("unload requested")
}

// Close unloads the engine. Later operations fail with ErrClosed.
func (p *Postal) Close() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.dropLocked("closing")
	p.closed = true
	return nil
}

func (p *Postal) ensureLoadedLocked() error {
	if p.closed {
		return ErrClosed
	}
	if !p.cfg.EngineEnabled {
		return ErrEngineDisabled
	}
	if p.loaded && !p.cfg.ReloadPerCall {
		return nil
	}
	if p.loaded {
		p.dropLocked("reload per call")
	}

	opts := p.cfg.loadOptions()
	if p.engine == nil {
		return &LoadError{GlobalDir: opts.GlobalDir, CountryDir: opts.CountryDir, Languages: opts.Languages,
			Err: errors.New("no engine configured")}
	}
	if err := p.engine.Load(opts); err != nil {
		p.logger.Warn("address model load failed", "global_dir", opts.GlobalDir, "country_dir", opts.CountryDir, "error", err)
		return &LoadError{GlobalDir: opts.GlobalDir, CountryDir: opts.CountryDir, Languages: opts.Languages, Err: err}
	}
	p.loaded = true
	p.logger.Debug("address model loaded", "global_dir", opts.GlobalDir, "country_dir", opts.CountryDir, "languages", opts.Languages)
	return nil
}

func (p *Postal) dropLocked(reason string) {
	if !p.loaded {
		return
	}
	p.engine.Unload()
	p.loaded = false
	p.logger.Debug("address model unloaded", "reason", reason)
}

// withEngine runs fn against a loaded engine. Reentrant engines loaded in
// persistent mode are queried under the read lock; everything else is serialized.
func (p *Postal) withEngine(fn func(Engine) error) error {
	p.mu.RLock()
	if !p.closed && p.loaded && p.cfg.EngineEnabled && !p.cfg.ReloadPerCall && isReentrant(p.engine) {
		defer p.mu.RUnlock()
		return fn(p.engine)
	}
	p.mu.RUnlock()

	p.mu.Lock()
	defer p.mu.Unlock()
	if err := p.ensureLoadedLocked(); err != nil {
		return err
	}
	return fn(p.engine)
}

// canFallback reports whether err allows the primitive fallback to answer instead.
func (p *Postal) canFallback(err error) bool {
	if !errors.Is(err, ErrLoad) && !errors.Is(err, ErrEngineDisabled) {
		return false
	}
	if !p.FallbackEnabled() {
		return false
	}
	p.logger.Debug("address engine unavailable, using primitive fallback", "error", err)
	return true
}

func normalizeLanguages(in []string) []string {
	var out []string
	for _, code := range in {
		if lang := CanonicalLanguage(code); lang != "" && !slices.Contains(out, lang) {
			out = append(out, lang)
		}
	}
	return out
}

func (p *Postal) String() string {
	c := p.Config()
	return fmt.Sprintf("postal(global=%q country=%q languages=%v loaded=%t)", c.GlobalDir, c.CountryDir, c.Languages, p.Loaded())
}
