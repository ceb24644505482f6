package importer

import (
	"bufio"
	"context"
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"strings"

	"github.com/hazyhaar/touchstone-postal/pkg/dict"
	"github.com/hazyhaar/touchstone-postal/pkg/postal"
)

func init() {
	Register(&libpostalDictAdapter{
		id:    "libpostal-street-types",
		file:  "street_types.txt",
		name:  "street-types",
		label: postal.LabelRoad,
	})
	Register(&libpostalDictAdapter{
		id:   "libpostal-directionals",
		file: "directionals.txt",
		name: "directionals",
	})
	Register(&libpostalDictAdapter{
		id:    "libpostal-unit-types",
		file:  "unit_types_numbered.txt",
		name:  "unit-types",
		label: postal.LabelUnit,
	})
}

const libpostalDictsURL = "https://raw.githubusercontent.com/openvenues/libpostal/master/resources/dictionaries/"

// libpostalDictAdapter turns a libpostal dictionary file ("canonical|abbr|abbr"
// per line) into an abbreviation dictionary.
type libpostalDictAdapter struct {
	id    string
	file  string
	name  string
	label string
}

func (a *libpostalDictAdapter) ID() string     { return a.id }
func (a *libpostalDictAdapter) Kind() string   { return KindDictionary }
func (a *libpostalDictAdapter) Target() string { return a.name + "-{lang}" }
func (a *libpostalDictAdapter) Description() string {
	return "libpostal " + strings.TrimSuffix(a.file, ".txt") + " dictionary"
}
func (a *libpostalDictAdapter) DefaultURL() string { return libpostalDictsURL + "en/" + a.file }
func (a *libpostalDictAdapter) License() string    { return "MIT" }

func (a *libpostalDictAdapter) Import(ctx context.Context, sourceURL string, opts Options) error {
	lang := strings.ToLower(opts.Language)
	if lang == "" {
		lang = "en"
	}
	// The default URL points at the English file; follow the requested language.
	if sourceURL == a.DefaultURL() && lang != "en" {
		sourceURL = libpostalDictsURL + lang + "/" + a.file
	}

	path, cleanup, err := fetch(ctx, sourceURL, opts.OutputDir, "")
	if err != nil {
		return err
	}
	defer cleanup()

	entries, err := parseLibpostalDict(path, a.label)
	if err != nil {
		return fmt.Errorf("parse: %w", err)
	}

	dictID := a.name + "-" + lang
	dictDir := filepath.Join(opts.OutputDir, dictID)
	if err := ensureDir(dictDir); err != nil {
		return err
	}
	if err := dict.SaveGob(entries, filepath.Join(dictDir, "data.gob")); err != nil {
		return fmt.Errorf("save gob: %w", err)
	}
	return writeManifest(dictDir, &dict.Manifest{
		ID:        dictID,
		Version:   "libpostal-master",
		Language:  lang,
		Kind:      dict.KindAbbreviation,
		Source:    "libpostal",
		SourceURL: sourceURL,
		License:   a.License(),
		DataFile:  "data.gob",
		Format:    dict.FormatSpec{Normalize: "lowercase_utf8"},
	})
}

// parseLibpostalDict maps every form on a line (canonical included) to the
// line's canonical form. A form shared by several lines keeps every canonical.
func parseLibpostalDict(path, label string) (map[string]*dict.Entry, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	entries := make(map[string]*dict.Entry)
	sc := bufio.NewScanner(f)
	for sc.Scan() {
		forms := strings.Split(strings.TrimSpace(sc.Text()), "|")
		canonical := strings.TrimSpace(forms[0])
		if canonical == "" || strings.HasPrefix(canonical, "#") {
			continue
		}
		for _, form := range forms {
			key := dict.NormalizeLowercaseUTF8(strings.TrimSpace(form))
			if key == "" {
				continue
			}
			e, ok := entries[key]
			if !ok {
				e = &dict.Entry{Label: label}
				entries[key] = e
			}
			if !slices.Contains(e.Expansions, canonical) {
				e.Expansions = append(e.Expansions, canonical)
			}
		}
	}
	if err := sc.Err(); err != nil {
		return nil, err
	}
	return entries, nil
}
