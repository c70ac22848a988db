// Package integration is an HTTP client for the kd query service.
package integration

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"

	"github.com/go-sod/kd/internal/httputil"
)

type prefixRoundTripper struct {
	addr string
	rt   http.RoundTripper
}

func (p *prefixRoundTripper) RoundTrip(r *http.Request) (*http.Response, error) {
	u := r.URL
	if u.Scheme == "" {
		u.Scheme = "http"
	}
	if u.Host == "" {
		u.Host = p.addr
	}

	return p.rt.RoundTrip(r)
}

// NewClient talks to the service at addr (host:port) with the credentials
// of cfg.
func NewClient(addr string, cfg httputil.HTTPClientConfig) (*Client, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	rt, err := httputil.NewRoundTripperFromConfig(cfg, false)
	if err != nil {
		return nil, fmt.Errorf("create round tripper: %w", err)
	}
	return &Client{client: &http.Client{Transport: &prefixRoundTripper{addr: addr, rt: rt}, Timeout: cfg.Timeout}}, nil
}

type Client struct {
	client *http.Client
}

func (c *Client) do(ctx context.Context, method, path string, body, out interface{}) error {
	var reader io.Reader
	if body != nil {
		b, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("unable marshal %s request: %w", path, err)
		}
		reader = bytes.NewReader(b)
	}

	req, err := http.NewRequestWithContext(ctx, method, path, reader)
	if err != nil {
		return fmt.Errorf("create new request: %w", err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.client.Do(req)
	if err != nil {
		return fmt.Errorf("error with sending request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		apiErr := &APIError{Status: resp.StatusCode}
		if err := json.NewDecoder(resp.Body).Decode(apiErr); err != nil {
			apiErr.Message = http.StatusText(resp.StatusCode)
		}
		return apiErr
	}
	if out == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode %s response: %w", path, err)
	}
	return nil
}

func (c *Client) Health(ctx context.Context) error {
	return c.do(ctx, http.MethodGet, "/health", nil, nil)
}

func (c *Client) Build(ctx context.Context, r BuildRequest) (*IndexInfo, error) {
	var info IndexInfo
	if err := c.do(ctx, http.MethodPost, "/index", &r, &info); err != nil {
		return nil, err
	}
	return &info, nil
}

func (c *Client) Indexes(ctx context.Context) ([]IndexInfo, error) {
	var infos []IndexInfo
	if err := c.do(ctx, http.MethodGet, "/index", nil, &infos); err != nil {
		return nil, err
	}
	return infos, nil
}

func (c *Client) Drop(ctx context.Context, name string) error {
	return c.do(ctx, http.MethodDelete, "/index?name="+url.QueryEscape(name), nil, nil)
}

func (c *Client) Nearest(ctx context.Context, r NearestRequest) (*NearestResponse, error) {
	var resp NearestResponse
	if err := c.do(ctx, http.MethodPost, "/nearest", &r, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

func (c *Client) Nearests(ctx context.Context, r NearestsRequest) (*HitsResponse, error) {
	var resp HitsResponse
	if err := c.do(ctx, http.MethodPost, "/nearests", &r, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

func (c *Client) Within(ctx context.Context, r WithinRequest) (*HitsResponse, error) {
	var resp HitsResponse
	if err := c.do(ctx, http.MethodPost, "/within", &r, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

func (c *Client) WithinBox(ctx context.Context, r WithinBoxRequest) (*ItemsResponse, error) {
	var resp ItemsResponse
	if err := c.do(ctx, http.MethodPost, "/within-box", &r, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}
