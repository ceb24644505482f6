package importer

import (
	"context"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"slices"
	"testing"

	"github.com/hazyhaar/touchstone-postal/pkg/model"
)

const citiesTSV = "4250542\tSpringfield\tSpringfield\tSprinfild\t39.8\t-89.6\tP\tPPLA\tUS\t\tIL\t167\t\t\t114394\t\t182\tAmerica/Chicago\t2019-09-05\n" +
	"5128581\tNew York City\tNew York City\tNYC\t40.7\t-74.0\tP\tPPL\tUS\t\tNY\t\t\t\t8804190\t\t10\tAmerica/New_York\t2024-02-12\n" +
	"5125771\tManhattan\tManhattan\t\t40.78\t-73.97\tP\tPPLX\tUS\t\tNY\t061\t\t\t1487536\t\t\tAmerica/New_York\t2023-01-31\n" +
	"2988507\tParis\tParis\t\t48.85\t2.35\tP\tPPLC\tFR\t\t11\t75\t\t\t2138551\t\t42\tEurope/Paris\t2024-01-01\n" +
	"6255148\tEurope\tEurope\t\t48.6\t22.2\tL\tCONT\t\t\t00\t\t\t\t0\t\t\t\t2012-08-14\n"

const admin1TSV = "US.IL\tIllinois\tIllinois\t4896861\n" +
	"US.NY\tNew York\tNew York\t5128638\n" +
	"FR.11\tÎle-de-France\tIle-de-France\t3012874\n"

const countriesTSV = "#ISO\tISO3\tISO-Numeric\tfips\tCountry\tCapital\tArea(in sq km)\tPopulation\n" +
	"US\tUSA\t840\tUS\tUnited States\tWashington\t9629091\t327167434\n" +
	"FR\tFRA\t250\tFR\tFrance\tParis\t547030\t66987244\n"

func writeTemp(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "data.txt")
	os.WriteFile(path, []byte(content), 0o644)
	return path
}

func TestParseGeonamesCities(t *testing.T) {
	places, err := parseGeonamesCities(writeTemp(t, citiesTSV), "us")
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if len(places) != 6 {
		t.Fatalf("places = %d, want 6 (name + asciiname for 3 US places)", len(places))
	}
	if places[0].Name != "Springfield" || places[0].Label != "city" || places[0].Rank != 114394 {
		t.Errorf("first = %+v", places[0])
	}
	if places[4].Name != "Manhattan" || places[4].Label != "suburb" {
		t.Errorf("PPLX = %+v, want suburb", places[4])
	}

	all, _ := parseGeonamesCities(writeTemp(t, citiesTSV), "")
	if len(all) != 8 {
		t.Errorf("unfiltered = %d, want 8 (non-P rows skipped)", len(all))
	}
}

func TestParseGeonamesAdmin1(t *testing.T) {
	places, err := parseGeonamesAdmin1(writeTemp(t, admin1TSV), "US")
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	var names []string
	for _, p := range places {
		if p.Label != "state" {
			t.Errorf("%s label = %q", p.Name, p.Label)
		}
		names = append(names, p.Name)
	}
	want := []string{"Illinois", "Illinois", "IL", "New York", "New York", "NY"}
	if !slices.Equal(names, want) {
		t.Errorf("names = %q, want %q", names, want)
	}

	fr, _ := parseGeonamesAdmin1(writeTemp(t, admin1TSV), "fr")
	if len(fr) != 2 {
		t.Errorf("FR places = %d, want 2 (numeric code not registered)", len(fr))
	}
}

func TestParseGeonamesCountries(t *testing.T) {
	places, err := parseGeonamesCountries(writeTemp(t, countriesTSV))
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if len(places) != 6 {
		t.Fatalf("places = %d, want 6", len(places))
	}
	if places[0].Name != "United States" || places[0].Rank != 327167434 {
		t.Errorf("first = %+v", places[0])
	}
	if places[2].Name != "US" || places[2].Rank != 0 {
		t.Errorf("alpha-2 = %+v, want rank 0", places[2])
	}
}

func TestGeonamesImport_BuildsGazetteer(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/cities15000.zip", func(w http.ResponseWriter, r *http.Request) {
		w.Write(zipBytes(t, "cities15000.txt", citiesTSV))
	})
	mux.HandleFunc("/admin1CodesASCII.txt", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(admin1TSV))
	})
	mux.HandleFunc("/countryInfo.txt", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(countriesTSV))
	})
	ts := httptest.NewServer(mux)
	defer ts.Close()

	dir := filepath.Join(t.TempDir(), "us")
	opts := Options{OutputDir: dir, Country: "US"}
	ctx := context.Background()
	for id, path := range map[string]string{
		"geonames-cities":    "/cities15000.zip",
		"geonames-admin1":    "/admin1CodesASCII.txt",
		"geonames-countries": "/countryInfo.txt",
	} {
		a, err := Get(id)
		if err != nil {
			t.Fatal(err)
		}
		if err := a.Import(ctx, ts.URL+path, opts); err != nil {
			t.Fatalf("%s Import: %v", id, err)
		}
	}

	g, err := model.OpenGazetteer(filepath.Join(dir, model.GazetteerFile))
	if err != nil {
		t.Fatalf("OpenGazetteer: %v", err)
	}
	defer g.Close()

	tests := []struct {
		name string
		want []string
	}{
		{"springfield", []string{"city"}},
		{"New York", []string{"state"}},
		{"new york city", []string{"city"}},
		{"ny", []string{"state"}},
		{"manhattan", []string{"suburb"}},
		{"France", []string{"country"}},
		{"paris", nil},
	}
	for _, tt := range tests {
		got, err := g.Labels(tt.name)
		if err != nil {
			t.Fatalf("Labels(%q): %v", tt.name, err)
		}
		if !slices.Equal(got, tt.want) {
			t.Errorf("Labels(%q) = %v, want %v", tt.name, got, tt.want)
		}
	}
	if _, err := os.Stat(filepath.Join(dir, "_download")); !os.IsNotExist(err) {
		t.Error("download dir left behind")
	}
}
