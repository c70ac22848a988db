package httputil

import (
	"net/http"
	"strings"
	"time"
)

const defaultUserAgent = "kd-client"

// NewClientFromConfig returns a client for the kd service. Requests carry
// the configured credentials and user agent.
func NewClientFromConfig(cfg HTTPClientConfig, disableKeepAlives bool) (*http.Client, error) {
	rt, err := NewRoundTripperFromConfig(cfg, disableKeepAlives)
	if err != nil {
		return nil, err
	}
	return &http.Client{Transport: rt, Timeout: cfg.Timeout}, nil
}

func NewRoundTripperFromConfig(cfg HTTPClientConfig, disableKeepAlives bool) (http.RoundTripper, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	var rt http.RoundTripper = &http.Transport{
		Proxy:                 http.ProxyFromEnvironment,
		MaxIdleConns:          100,
		MaxIdleConnsPerHost:   100,
		DisableKeepAlives:     disableKeepAlives,
		IdleConnTimeout:       5 * time.Minute,
		TLSHandshakeTimeout:   10 * time.Second,
		ExpectContinueTimeout: 1 * time.Second,
		ResponseHeaderTimeout: 30 * time.Second,
	}

	switch {
	case cfg.BearerToken != "":
		rt = NewBearerAuthRoundTripper(cfg.BearerToken, rt)
	case cfg.BasicAuth != nil:
		rt = NewBasicAuthRoundTripper(cfg.BasicAuth.Username, cfg.BasicAuth.Password, rt)
	}

	agent := cfg.UserAgent
	if agent == "" {
		agent = defaultUserAgent
	}
	return &headerRoundTripper{rt: rt, set: func(req *http.Request) {
		req.Header.Set("User-Agent", agent)
	}}, nil
}

// headerRoundTripper applies set to a clone of every request. A request is
// never modified in place.
type headerRoundTripper struct {
	rt  http.RoundTripper
	set func(req *http.Request)
}

func (rt *headerRoundTripper) RoundTrip(req *http.Request) (*http.Response, error) {
	req = req.Clone(req.Context())
	rt.set(req)
	return rt.rt.RoundTrip(req)
}

// NewBearerAuthRoundTripper adds the bearer token unless the request already
// carries an Authorization header.
func NewBearerAuthRoundTripper(token string, rt http.RoundTripper) http.RoundTripper {
	return &headerRoundTripper{rt: rt, set: func(req *http.Request) {
		if req.Header.Get("Authorization") == "" {
			req.Header.Set("Authorization", "Bearer "+token)
		}
	}}
}

// NewBasicAuthRoundTripper is NewBearerAuthRoundTripper for basic auth.
func NewBasicAuthRoundTripper(username, password string, rt http.RoundTripper) http.RoundTripper {
	return &headerRoundTripper{rt: rt, set: func(req *http.Request) {
		if req.Header.Get("Authorization") == "" {
			req.SetBasicAuth(username, strings.TrimSpace(password))
		}
	}}
}
