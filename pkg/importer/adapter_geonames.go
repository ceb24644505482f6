package importer

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"github.com/hazyhaar/touchstone-postal/pkg/model"
	"github.com/hazyhaar/touchstone-postal/pkg/postal"
)

func init() {
	Register(&geonamesCitiesAdapter{})
	Register(&geonamesAdmin1Adapter{})
	Register(&geonamesCountriesAdapter{})
}

// admin1Rank puts first-level divisions below large cities of the same name
// and above small ones.
const admin1Rank = 1_000_000

// geonamesCitiesAdapter loads populated places (cities15000 and friends).
type geonamesCitiesAdapter struct{}

func (a *geonamesCitiesAdapter) ID() string          { return "geonames-cities" }
func (a *geonamesCitiesAdapter) Kind() string        { return KindGazetteer }
func (a *geonamesCitiesAdapter) Target() string      { return model.GazetteerFile }
func (a *geonamesCitiesAdapter) Description() string { return "GeoNames populated places (pop > 15000)" }
func (a *geonamesCitiesAdapter) DefaultURL() string {
	return "https://download.geonames.org/export/dump/cities15000.zip"
}
func (a *geonamesCitiesAdapter) License() string { return "CC-BY-4.0" }

func (a *geonamesCitiesAdapter) Import(ctx context.Context, sourceURL string, opts Options) error {
	path, cleanup, err := fetch(ctx, sourceURL, opts.OutputDir, "")
	if err != nil {
		return err
	}
	defer cleanup()

	places, err := parseGeonamesCities(path, opts.Country)
	if err != nil {
		return fmt.Errorf("parse: %w", err)
	}
	_, err = writePlaces(ctx, opts.OutputDir, places)
	return err
}

// parseGeonamesCities reads the GeoNames main table layout:
// geonameid, name, asciiname, alternatenames, lat, lon, feature class,
// feature code, country code, cc2, admin1..4, population, ...
// Sections of populated places (PPLX) become suburbs.
func parseGeonamesCities(path, country string) ([]model.Place, error) {
	country = strings.ToUpper(country)
	var places []model.Place
	err := scanTSV(path, func(f []string) {
		if field(f, 6) != "P" {
			return
		}
		if country != "" && strings.ToUpper(field(f, 8)) != country {
			return
		}
		label := postal.LabelCity
		if field(f, 7) == "PPLX" {
			label = postal.LabelSuburb
		}
		pop, _ := strconv.ParseInt(field(f, 14), 10, 64)
		for _, name := range []string{field(f, 1), field(f, 2)} {
			if name != "" {
				places = append(places, model.Place{Name: name, Label: label, Rank: pop})
			}
		}
	})
	return places, err
}

// geonamesAdmin1Adapter loads first-level administrative divisions as states.
type geonamesAdmin1Adapter struct{}

func (a *geonamesAdmin1Adapter) ID() string          { return "geonames-admin1" }
func (a *geonamesAdmin1Adapter) Kind() string        { return KindGazetteer }
func (a *geonamesAdmin1Adapter) Target() string      { return model.GazetteerFile }
func (a *geonamesAdmin1Adapter) Description() string { return "GeoNames first-level administrative divisions" }
func (a *geonamesAdmin1Adapter) DefaultURL() string {
	return "https://download.geonames.org/export/dump/admin1CodesASCII.txt"
}
func (a *geonamesAdmin1Adapter) License() string { return "CC-BY-4.0" }

func (a *geonamesAdmin1Adapter) Import(ctx context.Context, sourceURL string, opts Options) error {
	path, cleanup, err := fetch(ctx, sourceURL, opts.OutputDir, "")
	if err != nil {
		return err
	}
	defer cleanup()

	places, err := parseGeonamesAdmin1(path, opts.Country)
	if err != nil {
		return fmt.Errorf("parse: %w", err)
	}
	_, err = writePlaces(ctx, opts.OutputDir, places)
	return err
}

// parseGeonamesAdmin1 reads "CC.CODE  name  asciiname  geonameid" rows.
// Alphabetic codes ("US.NY") also register the bare code as a state.
func parseGeonamesAdmin1(path, country string) ([]model.Place, error) {
	country = strings.ToUpper(country)
	var places []model.Place
	err := scanTSV(path, func(f []string) {
		cc, code, ok := strings.Cut(field(f, 0), ".")
		if !ok || (country != "" && strings.ToUpper(cc) != country) {
			return
		}
		for _, name := range []string{field(f, 1), field(f, 2)} {
			if name != "" {
				places = append(places, model.Place{Name: name, Label: postal.LabelState, Rank: admin1Rank})
			}
		}
		if isAlpha(code) {
			places = append(places, model.Place{Name: code, Label: postal.LabelState, Rank: admin1Rank})
		}
	})
	return places, err
}

// geonamesCountriesAdapter loads country names and ISO codes.
type geonamesCountriesAdapter struct{}

func (a *geonamesCountriesAdapter) ID() string          { return "geonames-countries" }
func (a *geonamesCountriesAdapter) Kind() string        { return KindGazetteer }
func (a *geonamesCountriesAdapter) Target() string      { return model.GazetteerFile }
func (a *geonamesCountriesAdapter) Description() string { return "GeoNames country names and ISO codes" }
func (a *geonamesCountriesAdapter) DefaultURL() string {
	return "https://download.geonames.org/export/dump/countryInfo.txt"
}
func (a *geonamesCountriesAdapter) License() string { return "CC-BY-4.0" }

func (a *geonamesCountriesAdapter) Import(ctx context.Context, sourceURL string, opts Options) error {
	path, cleanup, err := fetch(ctx, sourceURL, opts.OutputDir, "")
	if err != nil {
		return err
	}
	defer cleanup()

	places, err := parseGeonamesCountries(path)
	if err != nil {
		return fmt.Errorf("parse: %w", err)
	}
	_, err = writePlaces(ctx, opts.OutputDir, places)
	return err
}

// parseGeonamesCountries reads countryInfo.txt: ISO, ISO3, ISO-Numeric, fips,
// Country, Capital, Area, Population, ... Every country is kept whatever the
// country filter, since addresses name foreign countries. Alpha-2 codes rank
// lowest so that "CA" stays California where admin1 data is present.
func parseGeonamesCountries(path string) ([]model.Place, error) {
	var places []model.Place
	err := scanTSV(path, func(f []string) {
		name := field(f, 4)
		if name == "" {
			return
		}
		pop, _ := strconv.ParseInt(field(f, 7), 10, 64)
		places = append(places, model.Place{Name: name, Label: postal.LabelCountry, Rank: pop})
		if iso3 := field(f, 1); iso3 != "" {
			places = append(places, model.Place{Name: iso3, Label: postal.LabelCountry, Rank: pop})
		}
		if iso := field(f, 0); iso != "" {
			places = append(places, model.Place{Name: iso, Label: postal.LabelCountry})
		}
	})
	return places, err
}

func isAlpha(s string) bool {
	if s == "" {
		return false
	}
	for _, r := range s {
		if (r < 'A' || r > 'Z') && (r < 'a' || r > 'z') {
			return false
		}
	}
	return true
}
