package importer

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"time"
)

// Checker HEAD-probes the gazetteer and dictionary sources recorded in a
// SourceDB and persists the outcome, so a moved GeoNames dump or libpostal
// file shows up before the next import.
type Checker struct {
	sources  *SourceDB
	logger   *slog.Logger
	interval time.Duration
	client   *http.Client
}

// CheckSummary counts the outcome of one CheckAll pass.
type CheckSummary struct {
	Total  int
	OK     int
	Failed map[string]int // by adapter kind
}

// NewChecker creates a Checker that will verify source URLs every interval.
func NewChecker(sources *SourceDB, logger *slog.Logger, interval time.Duration) *Checker {
	if logger == nil {
		logger = slog.Default()
	}
	return &Checker{
		sources:  sources,
		logger:   logger,
		interval: interval,
		client: &http.Client{
			Timeout: 30 * time.Second,
			CheckRedirect: func(*http.Request, []*http.Request) error {
				return http.ErrUseLastResponse
			},
		},
	}
}

// Start runs an immediate check then repeats every interval until ctx is cancelled.
func (c *Checker) Start(ctx context.Context) {
	c.CheckAll(ctx)

	ticker := time.NewTicker(c.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			c.CheckAll(ctx)
		}
	}
}

// CheckAll probes every source and persists each result.
func (c *Checker) CheckAll(ctx context.Context) CheckSummary {
	sum := CheckSummary{Failed: make(map[string]int)}

	sources, err := c.sources.ListSources()
	if err != nil {
		c.logger.Error("source check: cannot list sources", "error", err)
		return sum
	}

	for _, src := range sources {
		if ctx.Err() != nil {
			break
		}
		status, checkErr := c.record(ctx, src.AdapterID, src.SourceURL)
		sum.Total++
		if reachable(status) {
			sum.OK++
			continue
		}
		sum.Failed[src.Kind]++
		c.logger.Warn("source inaccessible",
			"adapter", src.AdapterID,
			"kind", src.Kind,
			"url", src.SourceURL,
			"status", status,
			"error", checkErr,
		)
	}

	if sum.Total > 0 {
		c.logger.Info("source check complete",
			"total", sum.Total,
			"ok", sum.OK,
			"failed_gazetteer", sum.Failed[KindGazetteer],
			"failed_dictionary", sum.Failed[KindDictionary],
		)
	}
	return sum
}

// Check probes one adapter's current source URL and persists the result.
// The returned error is non-nil when the source is unreachable.
func (c *Checker) Check(ctx context.Context, adapterID string) (int, error) {
	url, err := c.sources.GetURL(adapterID)
	if err != nil {
		return 0, err
	}
	status, checkErr := c.record(ctx, adapterID, url)
	if checkErr != nil {
		return status, checkErr
	}
	if !reachable(status) {
		return status, fmt.Errorf("HEAD %s: status %d", url, status)
	}
	return status, nil
}

func (c *Checker) record(ctx context.Context, adapterID, url string) (int, error) {
	status, checkErr := c.head(ctx, url)
	errMsg := ""
	if checkErr != nil {
		errMsg = checkErr.Error()
	}
	if err := c.sources.UpdateCheck(adapterID, status, errMsg); err != nil {
		c.logger.Error("source check: update failed", "adapter", adapterID, "error", err)
	}
	return status, checkErr
}

// head returns the HTTP status of a HEAD request, 0 on network error.
func (c *Checker) head(ctx context.Context, url string) (int, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodHead, url, nil)
	if err != nil {
		return 0, fmt.Errorf("build request: %w", err)
	}
	resp, err := c.client.Do(req)
	if err != nil {
		return 0, fmt.Errorf("HEAD %s: %w", url, err)
	}
	resp.Body.Close()
	return resp.StatusCode, nil
}

// reachable treats redirects as reachable: the downloader follows them.
func reachable(status int) bool {
	return status >= 200 && status < 400
}
