package sdk

import (
	"fmt"
	"runtime"
	"strings"
	"time"

	"github.com/imroc/req/v3"

	"github.com/urpagin/wallsync/internal/version"
)

const (
	defaultTimeout       = 60 * time.Second
	defaultRetryCount    = 3
	defaultRetryInterval = 1 * time.Second
)

var userAgent = fmt.Sprintf("WallSync/%s (%s; %s; %s)", version.Version, version.Revision, runtime.GOOS, runtime.GOARCH)

// Client talks to a wallsync server. Authentication is plain HTTP basic
// auth, terminated by the edge proxy in front of the server.
type Client struct {
	http    *req.Client
	baseURL string
}

type Option func(*Client)

// WithBasicAuth sets the credentials forwarded to the edge proxy.
func WithBasicAuth(user, password string) Option {
	return func(c *Client) {
		if user != "" {
			c.http.SetCommonBasicAuth(user, password)
		}
	}
}

// WithTimeout bounds every request the client makes.
func WithTimeout(d time.Duration) Option {
	return func(c *Client) {
		c.http.SetTimeout(d)
	}
}

func New(baseURL string, opts ...Option) (*Client, error) {
	baseURL = strings.TrimRight(strings.TrimSpace(baseURL), "/")
	if baseURL == "" {
		return nil, ErrNoServerURL
	}
	if !strings.HasPrefix(baseURL, "http://") && !strings.HasPrefix(baseURL, "https://") {
		return nil, fmt.Errorf("%w: %q", ErrInvalidServerURL, baseURL)
	}

	httpClient := req.C().
		SetBaseURL(baseURL).
		SetTimeout(defaultTimeout).
		SetCommonRetryCount(defaultRetryCount).
		SetCommonRetryFixedInterval(defaultRetryInterval).
		SetCommonErrorResult(&APIError{}).
		SetUserAgent(userAgent)

	c := &Client{
		http:    httpClient,
		baseURL: baseURL,
	}
	for _, opt := range opts {
		opt(c)
	}

	return c, nil
}

// BaseURL returns the server url this client is bound to.
func (c *Client) BaseURL() string {
	return c.baseURL
}

// Close releases idle connections.
func (c *Client) Close() {
	c.http.GetClient().CloseIdleConnections()
}
