package httputil

import (
	"errors"
	"time"
)

type HTTPClientConfig struct {
	BasicAuth   *BasicAuth    `json:"basicAuth,omitempty"`
	BearerToken string        `json:"bearerToken,omitempty"`
	UserAgent   string        `json:"userAgent,omitempty"`
	Timeout     time.Duration `json:"timeout,omitempty"`
}

func (c *HTTPClientConfig) Validate() error {
	if c.BasicAuth != nil && c.BearerToken != "" {
		return errors.New("at most one of basic auth and bearer token must be configured")
	}
	if c.Timeout < 0 {
		return errors.New("timeout must not be negative")
	}
	return nil
}

type BasicAuth struct {
	Username string `json:"username"`
	Password string `json:"password,omitempty"`
}
