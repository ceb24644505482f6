// CLAUDE:SUMMARY Shared import utilities: HTTP download with retries, ZIP extraction, GeoNames TSV scanning, batched gazetteer writes, manifest YAML writer.
package importer

import (
	"archive/zip"
	"bufio"
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/hazyhaar/touchstone-postal/pkg/dict"
	"github.com/hazyhaar/touchstone-postal/pkg/model"
	"gopkg.in/yaml.v3"
)

const insertBatch = 5000

// downloadFile downloads url to dest with retries and timeout.
func downloadFile(ctx context.Context, url, dest string) error {
	client := &http.Client{Timeout: 10 * time.Minute}

	var lastErr error
	for attempt := 0; attempt < 3; attempt++ {
		if attempt > 0 {
			backoff := time.Duration(1<<uint(attempt)) * time.Second
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(backoff):
			}
		}

		req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
		if err != nil {
			return fmt.Errorf("create request: %w", err)
		}

		resp, err := client.Do(req)
		if err != nil {
			lastErr = err
			continue
		}

		if resp.StatusCode != http.StatusOK {
			resp.Body.Close()
			lastErr = fmt.Errorf("HTTP %d for %s", resp.StatusCode, url)
			continue
		}

		f, err := os.Create(dest)
		if err != nil {
			resp.Body.Close()
			return fmt.Errorf("create file: %w", err)
		}

		_, copyErr := io.Copy(f, resp.Body)
		resp.Body.Close()
		closeErr := f.Close()

		if copyErr != nil {
			lastErr = copyErr
			continue
		}
		if closeErr != nil {
			return closeErr
		}
		return nil
	}
	return fmt.Errorf("download %s failed after 3 attempts: %w", url, lastErr)
}

// unzipFile extracts a ZIP archive to destDir and returns the list of extracted file paths.
func unzipFile(src, destDir string) ([]string, error) {
	r, err := zip.OpenReader(src)
	if err != nil {
		return nil, fmt.Errorf("open zip: %w", err)
	}
	defer r.Close()

	var paths []string
	for _, f := range r.File {
		if f.FileInfo().IsDir() {
			continue
		}

		destPath := filepath.Join(destDir, filepath.Base(f.Name))
		rc, err := f.Open()
		if err != nil {
			return nil, fmt.Errorf("open zip entry %s: %w", f.Name, err)
		}

		out, err := os.Create(destPath)
		if err != nil {
			rc.Close()
			return nil, fmt.Errorf("create %s: %w", destPath, err)
		}

		if _, err := io.Copy(out, rc); err != nil {
			rc.Close()
			out.Close()
			return nil, fmt.Errorf("extract %s: %w", f.Name, err)
		}
		rc.Close()
		out.Close()
		paths = append(paths, destPath)
	}
	return paths, nil
}

// writeManifest writes a Manifest as YAML to dir/manifest.yaml.
func writeManifest(dir string, m *dict.Manifest) error {
	data, err := yaml.Marshal(m)
	if err != nil {
		return fmt.Errorf("marshal manifest: %w", err)
	}
	return os.WriteFile(filepath.Join(dir, "manifest.yaml"), data, 0o644)
}

// ensureDir creates a directory if it doesn't exist.
func ensureDir(path string) error {
	return os.MkdirAll(path, 0o755)
}

// scanTSV calls fn with the tab-separated fields of every non-empty line of
// path. Lines starting with '#' are comments.
func scanTSV(path string, fn func(fields []string)) error {
	f, err := os.Open(path)
	if err != nil {
		return err
	}
	defer f.Close()

	sc := bufio.NewScanner(f)
	sc.Buffer(make([]byte, 0, 64*1024), 16*1024*1024)
	for sc.Scan() {
		line := sc.Text()
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		fn(strings.Split(line, "\t"))
	}
	return sc.Err()
}

// field returns the trimmed i-th field or "".
func field(fields []string, i int) string {
	if i < len(fields) {
		return strings.TrimSpace(fields[i])
	}
	return ""
}

// writePlaces upserts places into <dir>/gazetteer.db in batches.
func writePlaces(ctx context.Context, dir string, places []model.Place) (int, error) {
	if err := ensureDir(dir); err != nil {
		return 0, err
	}
	g, err := model.CreateGazetteer(filepath.Join(dir, model.GazetteerFile))
	if err != nil {
		return 0, err
	}
	defer g.Close()

	total := 0
	for start := 0; start < len(places); start += insertBatch {
		end := min(start+insertBatch, len(places))
		n, err := g.Insert(ctx, places[start:end])
		total += n
		if err != nil {
			return total, err
		}
	}
	slog.Info("gazetteer updated", "path", g.Path(), "places", total)
	return total, nil
}

// fetch downloads sourceURL into a scratch directory under dir, unzipping
// .zip archives, and returns the path of the file named want (or the download
// itself when want is empty) plus a cleanup func.
func fetch(ctx context.Context, sourceURL, dir, want string) (string, func(), error) {
	dlDir := filepath.Join(dir, "_download")
	if err := ensureDir(dlDir); err != nil {
		return "", nil, err
	}
	cleanup := func() { os.RemoveAll(dlDir) }

	dest := filepath.Join(dlDir, filepath.Base(strings.SplitN(sourceURL, "?", 2)[0]))
	slog.Info("downloading", "url", sourceURL)
	if err := downloadFile(ctx, sourceURL, dest); err != nil {
		cleanup()
		return "", nil, fmt.Errorf("download: %w", err)
	}
	if !strings.HasSuffix(strings.ToLower(dest), ".zip") {
		return dest, cleanup, nil
	}

	files, err := unzipFile(dest, dlDir)
	if err != nil {
		cleanup()
		return "", nil, err
	}
	for _, f := range files {
		if want == "" || filepath.Base(f) == want {
			return f, cleanup, nil
		}
	}
	cleanup()
	return "", nil, fmt.Errorf("%s not found in %s", want, sourceURL)
}
