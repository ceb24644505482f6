package importer

import (
	"archive/zip"
	"bytes"
	"context"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"slices"
	"testing"

	"github.com/hazyhaar/touchstone-postal/pkg/dict"
	"github.com/hazyhaar/touchstone-postal/pkg/model"
)

func TestDownloadFile(t *testing.T) {
	content := "hello world"
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(content))
	}))
	defer ts.Close()

	dest := filepath.Join(t.TempDir(), "test.txt")
	if err := downloadFile(context.Background(), ts.URL, dest); err != nil {
		t.Fatalf("downloadFile: %v", err)
	}

	data, err := os.ReadFile(dest)
	if err != nil {
		t.Fatalf("ReadFile: %v", err)
	}
	if string(data) != content {
		t.Errorf("content = %q, want %q", string(data), content)
	}
}

func TestDownloadFile_Retry(t *testing.T) {
	attempts := 0
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		attempts++
		if attempts < 3 {
			w.WriteHeader(http.StatusInternalServerError)
			return
		}
		w.Write([]byte("ok"))
	}))
	defer ts.Close()

	dest := filepath.Join(t.TempDir(), "retry.txt")
	if err := downloadFile(context.Background(), ts.URL, dest); err != nil {
		t.Fatalf("downloadFile with retries: %v", err)
	}
	if attempts != 3 {
		t.Errorf("attempts = %d, want 3", attempts)
	}
}

func TestDownloadFile_AllFail(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer ts.Close()

	dest := filepath.Join(t.TempDir(), "fail.txt")
	err := downloadFile(context.Background(), ts.URL, dest)
	if err == nil {
		t.Error("expected error after all retries exhausted")
	}
}

func TestWriteManifest(t *testing.T) {
	dir := t.TempDir()
	m := &dict.Manifest{
		ID:       "street-types-fr",
		Version:  "2026-02",
		Language: "fr",
		Kind:     dict.KindAbbreviation,
		Source:   "test",
		License:  "MIT",
		DataFile: "data.gob",
	}

	if err := writeManifest(dir, m); err != nil {
		t.Fatalf("writeManifest: %v", err)
	}

	// Verify the file was written and can be parsed back.
	loaded, err := dict.LoadManifest(filepath.Join(dir, "manifest.yaml"))
	if err != nil {
		t.Fatalf("LoadManifest: %v", err)
	}
	if loaded.ID != "street-types-fr" {
		t.Errorf("ID = %q, want street-types-fr", loaded.ID)
	}
	if loaded.Language != "fr" || loaded.Kind != dict.KindAbbreviation {
		t.Errorf("language/kind = %q/%q", loaded.Language, loaded.Kind)
	}
	if loaded.DataFile != "data.gob" {
		t.Errorf("DataFile = %q, want data.gob", loaded.DataFile)
	}
}

func TestScanTSV(t *testing.T) {
	path := filepath.Join(t.TempDir(), "x.tsv")
	os.WriteFile(path, []byte("# comment\na\tb\tc\n\nd\t\tf\n"), 0o644)

	var rows [][]string
	if err := scanTSV(path, func(f []string) { rows = append(rows, f) }); err != nil {
		t.Fatalf("scanTSV: %v", err)
	}
	if len(rows) != 2 {
		t.Fatalf("rows = %d, want 2", len(rows))
	}
	if field(rows[1], 1) != "" || field(rows[1], 2) != "f" || field(rows[1], 9) != "" {
		t.Errorf("row = %q", rows[1])
	}
}

func zipBytes(t *testing.T, name, content string) []byte {
	t.Helper()
	var buf bytes.Buffer
	zw := zip.NewWriter(&buf)
	w, err := zw.Create(name)
	if err != nil {
		t.Fatal(err)
	}
	w.Write([]byte(content))
	if err := zw.Close(); err != nil {
		t.Fatal(err)
	}
	return buf.Bytes()
}

func TestFetch_Zip(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write(zipBytes(t, "cities.txt", "payload"))
	}))
	defer ts.Close()

	dir := t.TempDir()
	path, cleanup, err := fetch(context.Background(), ts.URL+"/cities.zip", dir, "cities.txt")
	if err != nil {
		t.Fatalf("fetch: %v", err)
	}
	data, _ := os.ReadFile(path)
	if string(data) != "payload" {
		t.Errorf("content = %q", data)
	}
	cleanup()
	if _, err := os.Stat(filepath.Join(dir, "_download")); !os.IsNotExist(err) {
		t.Error("download dir not removed by cleanup")
	}

	if _, _, err := fetch(context.Background(), ts.URL+"/cities.zip", dir, "other.txt"); err == nil {
		t.Error("expected error for missing archive member")
	}
}

func TestWritePlaces(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "us")
	places := []model.Place{
		{Name: "Springfield", Label: "city", Rank: 100},
		{Name: "SPRINGFIELD", Label: "city", Rank: 50},
		{Name: "Illinois", Label: "state", Rank: 10},
		{Name: "", Label: "city"},
	}
	n, err := writePlaces(context.Background(), dir, places)
	if err != nil {
		t.Fatalf("writePlaces: %v", err)
	}
	if n != 3 {
		t.Errorf("written = %d, want 3", n)
	}

	g, err := model.OpenGazetteer(filepath.Join(dir, model.GazetteerFile))
	if err != nil {
		t.Fatalf("OpenGazetteer: %v", err)
	}
	defer g.Close()
	if count, _ := g.Count(); count != 2 {
		t.Errorf("rows = %d, want 2 (same name and label merged)", count)
	}
	labels, _ := g.Labels("springfield")
	if !slices.Equal(labels, []string{"city"}) {
		t.Errorf("labels = %v", labels)
	}
}
