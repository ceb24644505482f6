// CLAUDE:SUMMARY Address model engine backed by a libpostal REST server (/parse, /expand), probed on Load.
package remote

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/hazyhaar/touchstone-postal/pkg/postal"
)

// ErrNotLoaded is returned by queries before a successful Load.
var ErrNotLoaded = errors.New("remote: not loaded")

const (
	defaultTimeout = 10 * time.Second
	probeAddress   = "1 main street"
	maxBody        = 4 << 20
)

// Component is one labelled span in a /parse response.
type Component struct {
	Label string `json:"label"`
	Value string `json:"value"`
}

// Client implements postal.Engine against a libpostal REST server.
type Client struct {
	baseURL string
	http    *http.Client
	timeout time.Duration
	logger  *slog.Logger

	mu        sync.RWMutex
	loaded    bool
	languages []string
}

// Option configures a Client.
type Option func(*Client)

// WithHTTPClient replaces the HTTP client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.http = hc }
}

// WithTimeout bounds every request. Defaults to 10s.
func WithTimeout(d time.Duration) Option {
	return func(c *Client) {
		if d > 0 {
			c.timeout = d
		}
	}
}

// WithLogger sets the logger. Defaults to slog.Default().
func WithLogger(l *slog.Logger) Option {
	return func(c *Client) { c.logger = l }
}

// New returns an unloaded client for the server at baseURL (e.g. http://localhost:8080).
func New(baseURL string, opts ...Option) *Client {
	c := &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		timeout: defaultTimeout,
	}
	for _, o := range opts {
		o(c)
	}
	if c.http == nil {
		c.http = &http.Client{}
	}
	if c.logger == nil {
		c.logger = slog.Default()
	}
	return c
}

// Load probes the server with a parse request. The data directories are the
// server's concern; only the languages are kept and forwarded on each query.
func (c *Client) Load(opts postal.LoadOptions) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.loaded = false

	if c.baseURL == "" {
		return fmt.Errorf("remote: no server URL")
	}
	var probe []Component
	if err := c.get("/parse", probeAddress, opts.Languages, &probe); err != nil {
		return fmt.Errorf("remote: probe %s: %w", c.baseURL, err)
	}
	c.loaded = true
	c.languages = append([]string(nil), opts.Languages...)
	c.logger.Info("remote engine loaded", "url", c.baseURL, "languages", opts.Languages)
	return nil
}

// Unload forgets the probe result.
func (c *Client) Unload() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.loaded = false
	c.languages = nil
}

// Reentrant reports that queries may run concurrently.
func (c *Client) Reentrant() bool { return true }

// Expand calls /expand.
func (c *Client) Expand(text string) ([]string, error) {
	langs, err := c.state()
	if err != nil {
		return nil, err
	}
	var forms []string
	if err := c.get("/expand", text, langs, &forms); err != nil {
		return nil, fmt.Errorf("remote: expand: %w", err)
	}
	return forms, nil
}

// Parse calls /parse. The server returns a single labelling; repeated labels
// become multi-valued entries.
func (c *Client) Parse(text string) ([]postal.LabelMap, error) {
	langs, err := c.state()
	if err != nil {
		return nil, err
	}
	var parts []Component
	if err := c.get("/parse", text, langs, &parts); err != nil {
		return nil, fmt.Errorf("remote: parse: %w", err)
	}
	if len(parts) == 0 {
		return nil, nil
	}
	m := make(postal.LabelMap, len(parts))
	for _, p := range parts {
		m.Add(p.Label, p.Value)
	}
	return []postal.LabelMap{m}, nil
}

func (c *Client) state() ([]string, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if !c.loaded {
		return nil, ErrNotLoaded
	}
	return c.languages, nil
}

func (c *Client) get(path, address string, languages []string, out any) error {
	q := url.Values{"address": {address}}
	if len(languages) > 0 {
		q.Set("languages", strings.Join(languages, ","))
	}

	ctx, cancel := context.WithTimeout(context.Background(), c.timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+path+"?"+q.Encode(), nil)
	if err != nil {
		return err
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBody))
	if err != nil {
		return fmt.Errorf("read body: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("status %d: %s", resp.StatusCode, strings.TrimSpace(string(body)))
	}
	if err := json.Unmarshal(body, out); err != nil {
		return fmt.Errorf("decode %s response: %w", path, err)
	}
	return nil
}
