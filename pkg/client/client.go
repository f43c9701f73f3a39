// Package client calls the stratad API over its Unix domain socket. It
// returns the response types of pkg/api.
package client

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net"
	"net/http"
	"net/url"
	"strconv"

	"github.com/lc/strata/internal/socket"
	"github.com/lc/strata/pkg/api"
)

// Client holds an http.Client wired to a Unix socket.
type Client struct {
	hc   *http.Client
	base string // placeholder scheme and host for request URLs
}

// New returns a Client that dials the socket at socketPath, waiting for the
// daemon while it starts.
func New(socketPath string) *Client {
	dial := func(ctx context.Context, _, _ string) (net.Conn, error) {
		return socket.ConnectContext(ctx, socketPath)
	}
	return NewWithTransport(&http.Transport{DialContext: dial}, "http://unix")
}

// NewWithTransport returns a Client sending requests to base through rt.
func NewWithTransport(rt http.RoundTripper, base string) *Client {
	return &Client{hc: &http.Client{Transport: rt}, base: base}
}

// Query holds the optional parameters of Get. Nil fields use the daemon's
// settings.
type Query struct {
	Environment string
	Default     *string
	Throw       *bool
	EnvVars     *bool
}

// Get resolves path on the daemon.
func (c *Client) Get(ctx context.Context, path string, q Query) (api.ValueResponse, error) {
	params := url.Values{"path": {path}}
	if q.Environment != "" {
		params.Set("env", q.Environment)
	}
	if q.Default != nil {
		params.Set("default", *q.Default)
	}
	if q.Throw != nil {
		params.Set("throw", strconv.FormatBool(*q.Throw))
	}
	if q.EnvVars != nil {
		params.Set("envvars", strconv.FormatBool(*q.EnvVars))
	}

	var out api.ValueResponse
	err := c.do(ctx, http.MethodGet, "/v1/value?"+params.Encode(), &out)
	return out, err
}

// Reload asks the daemon to re-read its configuration files.
func (c *Client) Reload(ctx context.Context) (api.ReloadResponse, error) {
	var out api.ReloadResponse
	err := c.do(ctx, http.MethodPost, "/v1/reload", &out)
	return out, err
}

// Status retrieves the daemon status.
func (c *Client) Status(ctx context.Context) (api.StatusResponse, error) {
	var out api.StatusResponse
	err := c.do(ctx, http.MethodGet, "/v1/status", &out)
	return out, err
}

// Environment retrieves the resolved configuration of one environment.
func (c *Client) Environment(ctx context.Context, name string) (map[string]any, error) {
	var out map[string]any
	err := c.do(ctx, http.MethodGet, "/v1/environments/"+url.PathEscape(name), &out)
	return out, err
}

// Error is returned when the daemon answers with a non-2xx status.
type Error struct {
	Status  int
	Message string
}

func (e *Error) Error() string {
	return fmt.Sprintf("daemon returned %d: %s", e.Status, e.Message)
}

// IsNotFound reports whether err is a 404 from the daemon.
func IsNotFound(err error) bool {
	var e *Error
	return errors.As(err, &e) && e.Status == http.StatusNotFound
}

func (c *Client) do(ctx context.Context, method, path string, v any) error {
	req, err := http.NewRequestWithContext(ctx, method, c.base+path, nil)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}

	resp, err := c.hc.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 300 {
		var body api.ErrorResponse
		if err := json.NewDecoder(resp.Body).Decode(&body); err != nil || body.Error == "" {
			body.Error = resp.Status
		}
		return &Error{Status: resp.StatusCode, Message: body.Error}
	}
	return json.NewDecoder(resp.Body).Decode(v)
}
