package utils

import (
	"time"

	"github.com/go-resty/resty/v2"
)

// HTTPClient is a wrapper around the resty.Client HTTP client.
// It embeds *resty.Client to expose all of its methods directly.
//
// The blob migrator downloads remote objects with it and syncctl talks to the
// daemon's control API with it.
type HTTPClient struct {
	*resty.Client
}

// HTTPClientOption customizes an [HTTPClient] at construction.
type HTTPClientOption func(*resty.Client)

// WithBaseURL sets the base URL that relative request paths are resolved against.
func WithBaseURL(baseURL string) HTTPClientOption {
	return func(c *resty.Client) {
		c.SetBaseURL(baseURL)
	}
}

// WithTimeout bounds every request made by the client.
func WithTimeout(timeout time.Duration) HTTPClientOption {
	return func(c *resty.Client) {
		if timeout > 0 {
			c.SetTimeout(timeout)
		}
	}
}

// NewHTTPClient creates and returns a new HTTPClient instance.
//
// Each call returns an independent client instance with its own
// configuration, connection pool, and state.
//
// Example usage:
//
//	client := utils.NewHTTPClient(utils.WithBaseURL("http://localhost:7420"))
//	resp, err := client.R().
//	    SetHeader("Accept", "application/json").
//	    Get("/api/status")
func NewHTTPClient(opts ...HTTPClientOption) *HTTPClient {
	client := resty.New()
	for _, opt := range opts {
		opt(client)
	}
	return &HTTPClient{Client: client}
}
