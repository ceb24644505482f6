package main

import (
	"os"
	"path/filepath"
	"slices"
	"testing"
	"time"

	"github.com/hazyhaar/touchstone-postal/pkg/model"
	"github.com/hazyhaar/touchstone-postal/pkg/remote"
)

func TestReadConfig_Defaults(t *testing.T) {
	cfg, err := readConfig(filepath.Join(t.TempDir(), "missing.yaml"))
	if err != nil {
		t.Fatalf("readConfig: %v", err)
	}
	if cfg.Addr != ":8443" || cfg.Engine != "local" {
		t.Errorf("defaults = %+v", cfg)
	}
	if !cfg.Postal.EngineEnabled || !cfg.Postal.FallbackEnabled || cfg.Postal.ReloadPerCall {
		t.Errorf("postal defaults = %+v", cfg.Postal)
	}
	if cfg.SourcesDB != filepath.Join("data", "sources.db") {
		t.Errorf("SourcesDB = %q, want data/sources.db", cfg.SourcesDB)
	}
}

func TestReadConfig_Overlay(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	os.WriteFile(path, []byte(`addr: ":9443"
engine: remote
remote_url: http://localhost:4400
remote_timeout: 3s
global_dir: /srv/postal
country_dir: /srv/postal/gb
country: GB
languages: [en, cy]
reload_per_call: true
fallback_enabled: false
check_interval: 1h
`), 0o644)

	cfg, err := readConfig(path)
	if err != nil {
		t.Fatalf("readConfig: %v", err)
	}
	if cfg.Addr != ":9443" || cfg.Engine != "remote" || cfg.RemoteURL != "http://localhost:4400" {
		t.Errorf("cfg = %+v", cfg)
	}
	if cfg.RemoteTimeout != 3*time.Second || cfg.CheckInterval != time.Hour {
		t.Errorf("durations = %v, %v", cfg.RemoteTimeout, cfg.CheckInterval)
	}
	pc := cfg.Postal
	if pc.GlobalDir != "/srv/postal" || pc.CountryDir != "/srv/postal/gb" || pc.Country != "GB" {
		t.Errorf("dirs = %+v", pc)
	}
	if !slices.Equal(pc.Languages, []string{"en", "cy"}) {
		t.Errorf("languages = %v", pc.Languages)
	}
	if !pc.ReloadPerCall || pc.FallbackEnabled || !pc.EngineEnabled {
		t.Errorf("flags = %+v", pc)
	}
	if cfg.SourcesDB != filepath.Join("/srv/postal", "sources.db") {
		t.Errorf("SourcesDB = %q", cfg.SourcesDB)
	}
}

func TestReadConfig_Invalid(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	os.WriteFile(path, []byte("addr: [unclosed\n"), 0o644)
	if _, err := readConfig(path); err == nil {
		t.Error("expected error for invalid YAML")
	}
}

func TestNewEngine(t *testing.T) {
	logger := newLogger("error")

	cfg := defaultConfig()
	e, err := newEngine(cfg, logger)
	if err != nil {
		t.Fatalf("local: %v", err)
	}
	if _, ok := e.(*model.Model); !ok {
		t.Errorf("local engine = %T", e)
	}

	cfg.Engine = "remote"
	if _, err := newEngine(cfg, logger); err == nil {
		t.Error("expected error for remote engine without remote_url")
	}
	cfg.RemoteURL = "http://localhost:4400"
	e, err = newEngine(cfg, logger)
	if err != nil {
		t.Fatalf("remote: %v", err)
	}
	if _, ok := e.(*remote.Client); !ok {
		t.Errorf("remote engine = %T", e)
	}

	cfg.Engine = "cgo"
	if _, err := newEngine(cfg, logger); err == nil {
		t.Error("expected error for unknown engine")
	}
}

func TestToolArgs(t *testing.T) {
	got := toolArgs("normalize_postcode", "sw1a1aa", "GB")
	if got["code"] != "sw1a1aa" || got["country"] != "GB" {
		t.Errorf("postcode args = %v", got)
	}
	if _, ok := toolArgs("normalize_postcode", "10001", "")["country"]; ok {
		t.Error("empty country should be omitted")
	}
	if got := toolArgs("parse_address", "10 downing st", ""); got["address"] != "10 downing st" {
		t.Errorf("parse args = %v", got)
	}
}
