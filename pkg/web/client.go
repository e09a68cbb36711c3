package web

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"github.com/teslashibe/go-classroom/internal/httpc"
	"github.com/teslashibe/go-classroom/pkg/aggregate"
)

// Client calls the dashboard REST API of a running monitor.
type Client struct {
	base string
	http *http.Client
}

// NewClient creates a client for the dashboard at base, for example
// "localhost:8080" or "http://10.0.0.5:8080".
func NewClient(base string) (*Client, error) {
	if !strings.Contains(base, "://") {
		base = "http://" + base
	}
	u, err := url.Parse(base)
	if err != nil {
		return nil, fmt.Errorf("web: parse dashboard address: %w", err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return nil, fmt.Errorf("web: unsupported scheme %q", u.Scheme)
	}
	if u.Host == "" {
		return nil, fmt.Errorf("web: missing host in %q", base)
	}
	return &Client{base: strings.TrimSuffix(u.String(), "/"), http: httpc.Client}, nil
}

// Status fetches /api/status.
func (c *Client) Status(ctx context.Context) (Status, error) {
	var st Status
	err := c.do(ctx, http.MethodGet, "/api/status", http.StatusOK, &st)
	return st, err
}

// Recent fetches up to limit records, newest first.
func (c *Client) Recent(ctx context.Context, limit int) ([]aggregate.Record, error) {
	var recs []aggregate.Record
	path := "/api/records?limit=" + strconv.Itoa(limit)
	if err := c.do(ctx, http.MethodGet, path, http.StatusOK, &recs); err != nil {
		return nil, err
	}
	return recs, nil
}

// Stop asks the monitor to stop after its current frame.
func (c *Client) Stop(ctx context.Context) error {
	return c.do(ctx, http.MethodPost, "/api/stop", http.StatusAccepted, nil)
}

func (c *Client) do(ctx context.Context, method, path string, want int, out any) error {
	req, err := http.NewRequestWithContext(ctx, method, c.base+path, nil)
	if err != nil {
		return fmt.Errorf("web: build request: %w", err)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("web: %s %s: %w", method, path, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != want {
		var body struct {
			Error string `json:"error"`
		}
		json.NewDecoder(resp.Body).Decode(&body)
		if body.Error != "" {
			return fmt.Errorf("web: %s %s: %s: %s", method, path, resp.Status, body.Error)
		}
		return fmt.Errorf("web: %s %s: %s", method, path, resp.Status)
	}

	if out == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("web: decode %s: %w", path, err)
	}
	return nil
}
