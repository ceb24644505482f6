// CLAUDE:SUMMARY One-shot CLI subcommands (parse, expand, postcode, hierarchy) that run the engine in-process and print JSON.
package main

import (
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/hazyhaar/touchstone-postal/pkg/postal"
)

// queryFlags are shared by the in-process subcommands.
type queryFlags struct {
	fs        *flag.FlagSet
	cfgPath   *string
	country   *string
	languages *string
	noEngine  *bool
}

func newQueryFlags(name string) *queryFlags {
	fs := flag.NewFlagSet(name, flag.ExitOnError)
	return &queryFlags{
		fs:        fs,
		cfgPath:   fs.String("config", "config.yaml", "path to config file"),
		country:   fs.String("country", "", "ISO 3166-1 alpha-2 country (overrides config)"),
		languages: fs.String("languages", "", "comma-separated language codes (overrides config)"),
		noEngine:  fs.Bool("primitive", false, "disable the engine and use the primitive parser"),
	}
}

// open parses args and returns the configured Postal and the positional input.
func (q *queryFlags) open(args []string) (*postal.Postal, string) {
	q.fs.Parse(args)
	cfg := loadConfig(*q.cfgPath, newLogger("warn"))
	logger := newLogger(cfg.LogLevel)

	if *q.country != "" {
		cfg.Postal.Country = *q.country
	}
	if *q.languages != "" {
		cfg.Postal.Languages = strings.Split(*q.languages, ",")
	}
	if *q.noEngine {
		cfg.Postal.EngineEnabled = false
		cfg.Postal.FallbackEnabled = true
	}

	input := strings.Join(q.fs.Args(), " ")
	if input == "" {
		fmt.Fprintf(os.Stderr, "Usage: postal %s [flags] <address>\n", q.fs.Name())
		os.Exit(2)
	}
	return newPostal(cfg, logger), input
}

type parseOutput struct {
	Address         string                 `json:"address"`
	Parses          []postal.LabelMap      `json:"parses"`
	Canonical       []postal.CanonicalView `json:"canonical"`
	NoNormalization postal.LabelMap        `json:"nonormalization"`
	Fallback        bool                   `json:"fallback"`
}

func cmdParse(args []string) {
	q := newQueryFlags("parse")
	p, input := q.open(args)
	defer p.Close()

	out, err := p.ParseDetailed(input)
	if err != nil {
		fail("parse", err)
	}
	res := parseOutput{
		Address:         input,
		Parses:          out.Parsed,
		NoNormalization: out.NoNormalization,
		Fallback:        out.Primitive,
	}
	for _, m := range out.Parsed {
		res.Canonical = append(res.Canonical, postal.NewCanonicalView(m))
	}
	printJSON(os.Stdout, res)
}

func cmdExpand(args []string) {
	q := newQueryFlags("expand")
	p, input := q.open(args)
	defer p.Close()

	expansions, err := p.Expand(input)
	if err != nil {
		fail("expand", err)
	}
	for _, e := range expansions {
		fmt.Println(e)
	}
}

func cmdPostcode(args []string) {
	q := newQueryFlags("postcode")
	p, input := q.open(args)
	defer p.Close()
	fmt.Println(p.NormalizePostalCode(input))
}

func cmdHierarchy(args []string) {
	q := newQueryFlags("hierarchy")
	p, input := q.open(args)
	defer p.Close()

	parses, _, err := p.Parse(input)
	if err != nil {
		fail("hierarchy", err)
	}
	paths, postcode := postal.ResultToHierarchy(parses)
	if postcode != "" {
		postcode = p.NormalizePostalCode(postcode)
	}
	printJSON(os.Stdout, map[string]any{
		"paths":    paths,
		"postcode": postcode,
	})
}

func printJSON(w io.Writer, v any) {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	enc.SetEscapeHTML(false)
	if err := enc.Encode(v); err != nil {
		fail("encode", err)
	}
}

func fail(op string, err error) {
	fmt.Fprintf(os.Stderr, "%s: %v\n", op, err)
	os.Exit(1)
}
