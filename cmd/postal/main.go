package main

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/hazyhaar/touchstone-postal/pkg/model"
	"github.com/hazyhaar/touchstone-postal/pkg/postal"
	"github.com/hazyhaar/touchstone-postal/pkg/remote"
	"gopkg.in/yaml.v3"
)

const version = "0.3.0"

type config struct {
	Addr     string `yaml:"addr"`
	CertFile string `yaml:"cert_file"`
	KeyFile  string `yaml:"key_file"`
	MCP      bool   `yaml:"mcp"`
	LogLevel string `yaml:"log_level"`

	// Engine is "local" (dictionaries + gazetteer) or "remote" (libpostal REST).
	Engine        string        `yaml:"engine"`
	RemoteURL     string        `yaml:"remote_url"`
	RemoteTimeout time.Duration `yaml:"remote_timeout"`
	MaxExpansions int           `yaml:"max_expansions"`
	MaxParses     int           `yaml:"max_parses"`

	SourcesDB     string        `yaml:"sources_db"`
	CheckInterval time.Duration `yaml:"check_interval"`

	Postal postal.Config `yaml:",inline"`
}

func defaultConfig() config {
	pc := postal.DefaultConfig()
	pc.GlobalDir = "data"
	pc.Languages = []string{"en"}
	return config{
		Addr:          ":8443",
		MCP:           true,
		LogLevel:      "info",
		Engine:        "local",
		RemoteTimeout: 10 * time.Second,
		CheckInterval: 24 * time.Hour,
		Postal:        pc,
	}
}

func main() {
	if len(os.Args) < 2 {
		usage()
		os.Exit(1)
	}

	switch os.Args[1] {
	case "serve":
		cmdServe(os.Args[2:])
	case "parse":
		cmdParse(os.Args[2:])
	case "expand":
		cmdExpand(os.Args[2:])
	case "postcode":
		cmdPostcode(os.Args[2:])
	case "hierarchy":
		cmdHierarchy(os.Args[2:])
	case "call":
		cmdCall(os.Args[2:])
	case "import":
		cmdImport(os.Args[2:])
	case "version":
		fmt.Println("postal", version)
	default:
		usage()
		os.Exit(1)
	}
}

func usage() {
	fmt.Fprintf(os.Stderr, `Usage: postal <command> [flags]

Commands:
  serve      Start the HTTP + HTTP/3 + MCP-over-QUIC server
  parse      Parse an address into labelled components
  expand     Print the normalized expansions of an address
  postcode   Canonicalize a postal code
  hierarchy  Parse an address and print its hierarchy paths
  call       Call an MCP tool on a running server over QUIC
  import     Download gazetteer and dictionary data
  version    Print the version
`)
}

func newLogger(level string) *slog.Logger {
	var lvl slog.Level
	if err := lvl.UnmarshalText([]byte(level)); err != nil {
		lvl = slog.LevelInfo
	}
	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: lvl}))
}

func loadConfig(path string, logger *slog.Logger) config {
	cfg, err := readConfig(path)
	if err != nil {
		logger.Error("load config", "path", path, "error", err)
		os.Exit(1)
	}
	return cfg
}

// readConfig overlays the YAML file at path on the defaults. A missing file keeps the defaults.
func readConfig(path string) (config, error) {
	cfg := defaultConfig()

	data, err := os.ReadFile(path)
	switch {
	case os.IsNotExist(err):
	case err != nil:
		return cfg, fmt.Errorf("read config: %w", err)
	default:
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return cfg, fmt.Errorf("parse config: %w", err)
		}
	}
	if cfg.SourcesDB == "" {
		cfg.SourcesDB = filepath.Join(cfg.Postal.GlobalDir, "sources.db")
	}
	return cfg, nil
}

// newEngine builds the engine named by cfg.Engine.
func newEngine(cfg config, logger *slog.Logger) (postal.Engine, error) {
	switch strings.ToLower(cfg.Engine) {
	case "", "local":
		opts := []model.Option{model.WithLogger(logger)}
		if cfg.MaxExpansions > 0 {
			opts = append(opts, model.WithMaxExpansions(cfg.MaxExpansions))
		}
		if cfg.MaxParses > 0 {
			opts = append(opts, model.WithMaxParses(cfg.MaxParses))
		}
		return model.New(opts...), nil
	case "remote":
		if cfg.RemoteURL == "" {
			return nil, fmt.Errorf("engine remote: remote_url is required")
		}
		return remote.New(cfg.RemoteURL, remote.WithTimeout(cfg.RemoteTimeout), remote.WithLogger(logger)), nil
	default:
		return nil, fmt.Errorf("unknown engine %q (want local or remote)", cfg.Engine)
	}
}

func newPostal(cfg config, logger *slog.Logger) *postal.Postal {
	engine, err := newEngine(cfg, logger)
	if err != nil {
		logger.Error("engine", "error", err)
		os.Exit(1)
	}
	return postal.New(engine, postal.WithConfig(cfg.Postal), postal.WithLogger(logger))
}
