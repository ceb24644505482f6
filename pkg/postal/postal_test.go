package postal

import (
	"errors"
	"fmt"
	"slices"
	"sync"
	"testing"
)

// fakeEngine records lifecycle calls and answers from canned tables.
type fakeEngine struct {
	mu         sync.Mutex
	loads      int
	unloads    int
	loaded     bool
	loadErr    error
	lastOpts   LoadOptions
	expansions map[string][]string
	parses     map[string][]LabelMap
	reentrant  bool
}

func (f *fakeEngine) Load(opts LoadOptions) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.loads++
	f.lastOpts = opts
	if f.loadErr != nil {
		return f.loadErr
	}
	f.loaded = true
	return nil
}

func (f *fakeEngine) Unload() {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.unloads++
	f.loaded = false
}

func (f *fakeEngine) Expand(text string) ([]string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if !f.loaded {
		return nil, errors.New("not loaded")
	}
	return f.expansions[text], nil
}

func (f *fakeEngine) Parse(text string) ([]LabelMap, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if !f.loaded {
		return nil, errors.New("not loaded")
	}
	var out []LabelMap
	for _, m := range f.parses[text] {
		out = append(out, m.Clone())
	}
	return out, nil
}

func (f *fakeEngine) Reentrant() bool { return f.reentrant }

func (f *fakeEngine) counts() (int, int) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.loads, f.unloads
}

func TestEnsureLoaded_Persistent(t *testing.T) {
	eng := &fakeEngine{}
	p := New(eng)

	for i := 0; i < 3; i++ {
		if err := p.EnsureLoaded(); err != nil {
			t.Fatalf("EnsureLoaded #%d: %v", i, err)
		}
	}
	loads, unloads := eng.counts()
	if loads != 1 || unloads != 0 {
		t.Errorf("loads=%d unloads=%d, want 1 and 0", loads, unloads)
	}
	if !p.Loaded() {
		t.Error("Loaded() = false after EnsureLoaded")
	}
}

func TestEnsureLoaded_ReloadPerCall(t *testing.T) {
	eng := &fakeEngine{}
	p := New(eng)
	p.SetReloadPerCall(true)

	for i := 0; i < 3; i++ {
		if err := p.EnsureLoaded(); err != nil {
			t.Fatalf("EnsureLoaded #%d: %v", i, err)
		}
	}
	loads, unloads := eng.counts()
	if loads != 3 || unloads != 2 {
		t.Errorf("loads=%d unloads=%d, want 3 and 2", loads, unloads)
	}
}

func TestConfigChangesInvalidate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Postal)
	}{
		{"AddLanguage", func(p *Postal) { p.AddLanguage("de") }},
		{"AddLanguage duplicate", func(p *Postal) { p.AddLanguage("en") }},
		{"ClearLanguages", func(p *Postal) { p.ClearLanguages() }},
		{"SetDataDir", func(p *Postal) { p.SetDataDir("/g2", "/c2") }},
		{"SetCountryDataDir", func(p *Postal) { p.SetCountryDataDir("/c3") }},
		{"SetEngineEnabled false", func(p *Postal) { p.SetEngineEnabled(false) }},
		{"Unload", func(p *Postal) { p.Unload() }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			eng := &fakeEngine{}
			p := New(eng, WithConfig(Config{GlobalDir: "/g", CountryDir: "/c", Languages: []string{"en"}, EngineEnabled: true}))
			if err := p.EnsureLoaded(); err != nil {
				t.Fatalf("EnsureLoaded: %v", err)
			}
			tt.mutate(p)
			if p.Loaded() {
				t.Error("Loaded() = true after configuration change")
			}
			if _, unloads := eng.counts(); unloads != 1 {
				t.Errorf("unloads = %d, want 1 (eager release)", unloads)
			}
		})
	}
}

func TestReloadUsesNewConfiguration(t *testing.T) {
	eng := &fakeEngine{}
	p := New(eng)
	p.SetDataDir("/global", "/country/fr")
	p.AddLanguage("FR")
	p.AddLanguage("en-GB")

	if err := p.EnsureLoaded(); err != nil {
		t.Fatalf("EnsureLoaded: %v", err)
	}
	if eng.lastOpts.GlobalDir != "/global" || eng.lastOpts.CountryDir != "/country/fr" {
		t.Errorf("dirs = %q %q", eng.lastOpts.GlobalDir, eng.lastOpts.CountryDir)
	}
	if !slices.Equal(eng.lastOpts.Languages, []string{"fr", "en"}) {
		t.Errorf("languages = %v, want [fr en]", eng.lastOpts.Languages)
	}

	p.SetCountryDataDir("/country/de")
	if err := p.EnsureLoaded(); err != nil {
		t.Fatalf("EnsureLoaded after change: %v", err)
	}
	if eng.lastOpts.CountryDir != "/country/de" {
		t.Errorf("CountryDir = %q, want /country/de", eng.lastOpts.CountryDir)
	}
	if loads, _ := eng.counts(); loads != 2 {
		t.Errorf("loads = %d, want 2", loads)
	}
}

func TestLoadFailureIsRetryable(t *testing.T) {
	eng := &fakeEngine{loadErr: errors.New("missing language data")}
	p := New(eng)
	p.SetDataDir("/bad", "")

	err := p.EnsureLoaded()
	if !errors.Is(err, ErrLoad) {
		t.Fatalf("err = %v, want ErrLoad", err)
	}
	var le *LoadError
	if !errors.As(err, &le) || le.GlobalDir != "/bad" {
		t.Errorf("LoadError = %+v", le)
	}
	if p.Loaded() {
		t.Error("Loaded() = true after failed load")
	}

	eng.mu.Lock()
	eng.loadErr = nil
	eng.mu.Unlock()
	if err := p.EnsureLoaded(); err != nil {
		t.Fatalf("retry EnsureLoaded: %v", err)
	}
	if !p.Loaded() {
		t.Error("Loaded() = false after successful retry")
	}
}

func TestUnloadIsIdempotent(t *testing.T) {
	eng := &fakeEngine{}
	p := New(eng)
	p.Unload()
	p.Unload()
	if _, unloads := eng.counts(); unloads != 0 {
		t.Errorf("unloads = %d, want 0 for never-loaded engine", unloads)
	}
	p.EnsureLoaded()
	p.Unload()
	p.Unload()
	if _, unloads := eng.counts(); unloads != 1 {
		t.Errorf("unloads = %d, want 1", unloads)
	}
}

func TestEnsureLoaded_Disabled(t *testing.T) {
	p := New(&fakeEngine{})
	p.SetEngineEnabled(false)
	if err := p.EnsureLoaded(); !errors.Is(err, ErrEngineDisabled) {
		t.Errorf("err = %v, want ErrEngineDisabled", err)
	}
}

func TestNilEngine(t *testing.T) {
	p := New(nil)
	if err := p.EnsureLoaded(); !errors.Is(err, ErrLoad) {
		t.Errorf("err = %v, want ErrLoad", err)
	}
	out, err := p.Expand("Main St")
	if err != nil {
		t.Fatalf("Expand with fallback: %v", err)
	}
	if len(out) != 1 || out[0] != "main st" {
		t.Errorf("Expand = %v, want [main st]", out)
	}
}

func TestClose(t *testing.T) {
	eng := &fakeEngine{}
	p := New(eng)
	p.EnsureLoaded()
	if err := p.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}
	if _, unloads := eng.counts(); unloads != 1 {
		t.Errorf("unloads = %d, want 1", unloads)
	}
	if _, _, err := p.Parse("x"); !errors.Is(err, ErrClosed) {
		t.Errorf("Parse after Close err = %v, want ErrClosed", err)
	}
}

func TestExpand(t *testing.T) {
	eng := &fakeEngine{expansions: map[string][]string{
		"123 Main St": {"123 main street", "123 main saint", "123 main street", ""},
	}}
	p := New(eng)

	got, err := p.Expand("123 Main St")
	if err != nil {
		t.Fatalf("Expand: %v", err)
	}
	want := []string{"123 main street", "123 main saint"}
	if !slices.Equal(got, want) {
		t.Errorf("Expand = %v, want %v", got, want)
	}
}

func TestExpand_Fallback(t *testing.T) {
	p := New(&fakeEngine{})
	p.SetEngineEnabled(false)

	got, err := p.Expand("  123   MAIN\tSt ")
	if err != nil {
		t.Fatalf("Expand: %v", err)
	}
	if !slices.Equal(got, []string{"123 main st"}) {
		t.Errorf("Expand = %v", got)
	}
}

func TestExpand_NoFallback(t *testing.T) {
	eng := &fakeEngine{loadErr: errors.New("boom")}
	p := New(eng)
	p.SetFallbackEnabled(false)

	if _, err := p.Expand("x"); !errors.Is(err, ErrLoad) {
		t.Errorf("err = %v, want ErrLoad", err)
	}

	p.SetEngineEnabled(false)
	if _, err := p.Expand("x"); !errors.Is(err, ErrEngineDisabled) {
		t.Errorf("err = %v, want ErrEngineDisabled", err)
	}
}

func TestParse_UsesExpansionsAndRawInput(t *testing.T) {
	input := "123 Main St, Brooklyn"
	eng := &fakeEngine{
		expansions: map[string][]string{input: {"123 main street brooklyn", "123 main saint brooklyn"}},
		parses: map[string][]LabelMap{
			"123 main street brooklyn": {
				{LabelHouseNumber: {"123"}, LabelRoad: {"main street"}, LabelSuburb: {"brooklyn"}},
				{LabelHouseNumber: {"123"}, LabelRoad: {"main street"}, LabelCityDistrict: {"brooklyn"}},
			},
			"123 main saint brooklyn": {
				{LabelHouseNumber: {"123"}, LabelRoad: {"main saint"}, LabelSuburb: {"brooklyn"}},
			},
			input: {
				{LabelHouseNumber: {"123"}, LabelRoad: {"Main St"}, LabelSuburb: {"Brooklyn"}},
			},
		},
	}
	p := New(eng)

	out, err := p.ParseDetailed(input)
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if out.Primitive {
		t.Error("Primitive = true with a working engine")
	}
	if len(out.Parsed) != 3 {
		t.Fatalf("parsed = %d, want 3", len(out.Parsed))
	}
	if got := out.Parsed[1][LabelCityDistrict]; !slices.Equal(got, []string{"brooklyn"}) {
		t.Errorf("parsed[1] city_district = %v", got)
	}
	if got := out.Parsed[2][LabelRoad]; !slices.Equal(got, []string{"main saint"}) {
		t.Errorf("parsed[2] road = %v", got)
	}
	if got := out.NoNormalization[LabelRoad]; !slices.Equal(got, []string{"Main St"}) {
		t.Errorf("nonormalization road = %v, want [Main St]", got)
	}
}

func TestParse_DegenerateWhenEngineFindsNothing(t *testing.T) {
	p := New(&fakeEngine{})
	parsed, nonorm, err := p.Parse("  somewhere  ")
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if len(parsed) != 1 || !parsed[0].Equal(LabelMap{LabelHouse: {"somewhere"}}) {
		t.Errorf("parsed = %v", parsed)
	}
	if !nonorm.Equal(LabelMap{LabelHouse: {"somewhere"}}) {
		t.Errorf("nonormalization = %v", nonorm)
	}
}

func TestParse_FallbackGuarantee(t *testing.T) {
	p := New(&fakeEngine{})
	p.SetEngineEnabled(false)
	p.SetFallbackEnabled(true)

	out, err := p.ParseDetailed("123 Main St, Springfield")
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if !out.Primitive {
		t.Error("Primitive = false, want true")
	}
	if len(out.Parsed) != 1 {
		t.Fatalf("parsed = %d, want 1", len(out.Parsed))
	}
	if !out.Parsed[0].Equal(out.NoNormalization) {
		t.Errorf("nonormalization %v differs from parsed %v", out.NoNormalization, out.Parsed[0])
	}
	want := LabelMap{LabelHouseNumber: {"123"}, LabelRoad: {"Main St"}, LabelCity: {"Springfield"}}
	if !out.Parsed[0].Equal(want) {
		t.Errorf("parsed = %v, want %v", out.Parsed[0], want)
	}
}

func TestParse_FallbackOnLoadError(t *testing.T) {
	p := New(&fakeEngine{loadErr: errors.New("no data")})
	parsed, _, err := p.Parse("Hauptstrasse 5, 10115 Berlin")
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	want := LabelMap{LabelRoad: {"Hauptstrasse"}, LabelHouseNumber: {"5"}, LabelPostcode: {"10115"}, LabelCity: {"Berlin"}}
	if !parsed[0].Equal(want) {
		t.Errorf("parsed = %v, want %v", parsed[0], want)
	}

	p.SetFallbackEnabled(false)
	if _, _, err := p.Parse("Hauptstrasse 5"); !errors.Is(err, ErrLoad) {
		t.Errorf("err = %v, want ErrLoad", err)
	}
}

func TestParse_EmptyInput(t *testing.T) {
	p := New(&fakeEngine{})
	if _, _, err := p.Parse(""); !errors.Is(err, ErrParse) {
		t.Errorf("err = %v, want ErrParse", err)
	}
}

func TestParse_NonEmpty(t *testing.T) {
	inputs := []string{"a", " ", ",,,", "123", "Main St", "日本東京都", "\xff\xfe"}
	for _, enabled := range []bool{true, false} {
		p := New(&fakeEngine{})
		p.SetEngineEnabled(enabled)
		for _, in := range inputs {
			parsed, _, err := p.Parse(in)
			if err != nil {
				t.Errorf("engine=%t Parse(%q): %v", enabled, in, err)
				continue
			}
			if len(parsed) == 0 {
				t.Errorf("engine=%t Parse(%q) returned no LabelMap", enabled, in)
			}
			for _, m := range parsed {
				for label, values := range m {
					if len(values) == 0 {
						t.Errorf("Parse(%q) label %q has no values", in, label)
					}
				}
			}
		}
	}
}

func TestConcurrentQueries(t *testing.T) {
	for _, reentrant := range []bool{true, false} {
		t.Run(fmt.Sprintf("reentrant=%t", reentrant), func(t *testing.T) {
			eng := &fakeEngine{
				reentrant:  reentrant,
				expansions: map[string][]string{"x": {"x"}},
				parses:     map[string][]LabelMap{"x": {{LabelCity: {"x"}}}},
			}
			p := New(eng)

			var wg sync.WaitGroup
			for i := 0; i < 16; i++ {
				wg.Add(1)
				go func(i int) {
					defer wg.Done()
					if i%4 == 0 {
						p.AddLanguage("en")
					}
					if _, _, err := p.Parse("x"); err != nil {
						t.Errorf("Parse: %v", err)
					}
				}(i)
			}
			wg.Wait()
		})
	}
}
