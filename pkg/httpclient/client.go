package httpclient

import (
	"net/http"
	"time"
)

// DefaultUserAgent identifies outbound webhook calls
const DefaultUserAgent = "getmentor-escrow/1.0"

// DefaultTimeout bounds a single outbound request. Retries are handled by the caller.
const DefaultTimeout = 10 * time.Second

// Client sends outbound HTTP requests.
// Event trigger delivery depends on this interface so tests can substitute it.
type Client interface {
	Do(req *http.Request) (*http.Response, error)
}

// StandardHTTPClient wraps the standard http.Client
type StandardHTTPClient struct {
	client    *http.Client
	userAgent string
}

// NewStandardClient creates a client with the default timeout and user agent
func NewStandardClient() Client {
	return New(DefaultTimeout, DefaultUserAgent)
}

// New creates a client with the given per-request timeout
func New(timeout time.Duration, userAgent string) *StandardHTTPClient {
	return &StandardHTTPClient{
		client: &http.Client{
			Timeout: timeout,
			// Webhook targets must answer directly
			CheckRedirect: func(*http.Request, []*http.Request) error {
				return http.ErrUseLastResponse
			},
		},
		userAgent: userAgent,
	}
}

// Do executes an HTTP request, setting the User-Agent when the caller did not
func (c *StandardHTTPClient) Do(req *http.Request) (*http.Response, error) {
	if c.userAgent != "" && req.Header.Get("User-Agent") == "" {
		req.Header.Set("User-Agent", c.userAgent)
	}
	return c.client.Do(req)
}
