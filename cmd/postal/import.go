// CLAUDE:SUMMARY CLI subcommand that downloads gazetteer and dictionary data from public sources via import adapters.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/hazyhaar/touchstone-postal/pkg/importer"
	"github.com/hazyhaar/touchstone-postal/pkg/model"
)

func cmdImport(args []string) {
	fs := flag.NewFlagSet("import", flag.ExitOnError)
	cfgPath := fs.String("config", "config.yaml", "path to config file")
	source := fs.String("source", "", "adapter ID to import (e.g. geonames-cities)")
	all := fs.Bool("all", false, "import all available sources")
	setURL := fs.String("set-url", "", "override the stored source URL of -source before importing")
	country := fs.String("country", "", "ISO 3166-1 alpha-2 filter for gazetteer rows (overrides config)")
	languages := fs.String("languages", "", "comma-separated dictionary languages (overrides config)")
	fs.Parse(args)

	cfg := loadConfig(*cfgPath, newLogger("info"))
	if *country != "" {
		cfg.Postal.Country = *country
	}
	if *languages != "" {
		cfg.Postal.Languages = strings.Split(*languages, ",")
	}

	if err := os.MkdirAll(filepath.Dir(cfg.SourcesDB), 0o755); err != nil {
		fail("sources dir", err)
	}
	sdb, err := importer.OpenSourceDB(cfg.SourcesDB)
	if err != nil {
		fail("open sources.db", err)
	}
	defer sdb.Close()

	if err := sdb.Seed(importer.All()); err != nil {
		fail("seed sources", err)
	}

	if !*all && *source == "" {
		listSources(sdb)
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Hour)
	defer cancel()

	if *all {
		failed := 0
		for _, a := range importer.All() {
			if err := runImport(ctx, sdb, a, cfg); err != nil {
				fmt.Fprintf(os.Stderr, "[%s] ERROR: %v\n", a.ID(), err)
				failed++
			}
		}
		if failed > 0 {
			os.Exit(1)
		}
		return
	}

	a, err := importer.Get(*source)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n\nAvailable sources:\n", err)
		for _, a := range importer.All() {
			fmt.Fprintf(os.Stderr, "  %s\n", a.ID())
		}
		os.Exit(1)
	}
	if *setURL != "" {
		if err := sdb.SetURL(a.ID(), *setURL); err != nil {
			fail("set url", err)
		}
	}
	if err := runImport(ctx, sdb, a, cfg); err != nil {
		fmt.Fprintf(os.Stderr, "[%s] ERROR: %v\n", a.ID(), err)
		os.Exit(1)
	}
}

func listSources(sdb *importer.SourceDB) {
	sources, err := sdb.ListSources()
	if err != nil {
		fail("list sources", err)
	}
	fmt.Println("Available sources:")
	fmt.Println()
	for _, src := range sources {
		status := ""
		if src.LastStatus != nil {
			status = fmt.Sprintf("  [%d]", *src.LastStatus)
		}
		if src.LastImport != nil {
			status += "  imported " + time.Unix(*src.LastImport, 0).Format(time.DateOnly)
		}
		fmt.Printf("  %-25s  %-10s  %s  (-> %s)%s\n", src.AdapterID, src.Kind, src.Description, src.Target, status)
	}
	fmt.Println()
	fmt.Println("Usage:")
	fmt.Println("  postal import -source <id> [-set-url <url>] [-country <cc>] [-languages en,fr]")
	fmt.Println("  postal import -all")
}

// runImport probes the source, resolves the output directory for the adapter
// kind and runs it, once per configured language for dictionary adapters.
func runImport(ctx context.Context, sdb *importer.SourceDB, a importer.Adapter, cfg config) error {
	if _, err := importer.NewChecker(sdb, newLogger(cfg.LogLevel), 0).Check(ctx, a.ID()); err != nil {
		return fmt.Errorf("source unreachable: %w", err)
	}
	url, err := sdb.GetURL(a.ID())
	if err != nil {
		return err
	}

	opts := importer.Options{Country: strings.ToUpper(cfg.Postal.Country)}
	langs := []string{""}
	switch a.Kind() {
	case importer.KindGazetteer:
		if cfg.Postal.CountryDir == "" {
			return fmt.Errorf("country_dir is not configured")
		}
		opts.OutputDir = cfg.Postal.CountryDir
	default:
		opts.OutputDir = filepath.Join(cfg.Postal.GlobalDir, model.DictsDir)
		if len(cfg.Postal.Languages) > 0 {
			langs = cfg.Postal.Languages
		}
	}
	if err := os.MkdirAll(opts.OutputDir, 0o755); err != nil {
		return err
	}

	for _, lang := range langs {
		opts.Language = strings.TrimSpace(lang)
		fmt.Printf("[%s] importing %s %s\n", a.ID(), url, opts.Language)
		if err := a.Import(ctx, url, opts); err != nil {
			return err
		}
	}
	if err := sdb.MarkImported(a.ID()); err != nil {
		return err
	}
	fmt.Printf("[%s] OK -> %s\n", a.ID(), opts.OutputDir)
	return nil
}
