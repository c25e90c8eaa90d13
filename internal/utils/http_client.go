package utils

import (
	"time"

	"github.com/go-resty/resty/v2"
)

// HTTPClient is a wrapper around the resty.Client HTTP client.
// It embeds *resty.Client to expose all of its methods directly.
//
// Example usage:
//
//	client := utils.NewHTTPClient("http://localhost:3000")
//	resp, err := client.R().Get("/api/v1/tours")
type HTTPClient struct {
	*resty.Client
}

// NewHTTPClient creates a client for the API rooted at baseURL that sends
// and accepts JSON.
func NewHTTPClient(baseURL string) *HTTPClient {
	c := resty.New().
		SetBaseURL(baseURL).
		SetHeader("Accept", "application/json").
		SetTimeout(10 * time.Second)
	return &HTTPClient{Client: c}
}

// WithToken returns a copy of the client that authenticates with token.
func (c *HTTPClient) WithToken(token string) *HTTPClient {
	clone := resty.New().
		SetBaseURL(c.BaseURL).
		SetHeaders(map[string]string{"Accept": "application/json"}).
		SetTimeout(c.GetClient().Timeout).
		SetAuthToken(token)
	return &HTTPClient{Client: clone}
}
