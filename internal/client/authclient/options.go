package authclient

import (
	"log/slog"
	"net/http"
	"time"
)

const (
	DefaultRefreshPath    = "/api/auth/refresh-token"
	DefaultQueueTimeout   = 30 * time.Second
	DefaultRefreshTimeout = 10 * time.Second
	DefaultRedirectDelay  = 2 * time.Second
)

// Option configures a Client.
type Option func(*Client)

// WithHTTPClient sets the underlying HTTP client. A cookie jar is attached
// to a copy of it when it has none.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) {
		if hc != nil {
			c.http = hc
		}
	}
}

func WithRefreshPath(path string) Option {
	return func(c *Client) {
		if path != "" {
			c.refreshPath = path
		}
	}
}

// WithQueueTimeout bounds how long a caller waits for another caller's refresh.
func WithQueueTimeout(d time.Duration) Option {
	return func(c *Client) {
		if d > 0 {
			c.queueTimeout = d
		}
	}
}

func WithRefreshTimeout(d time.Duration) Option {
	return func(c *Client) {
		if d > 0 {
			c.refreshTimeout = d
		}
	}
}

func WithRedirectDelay(d time.Duration) Option {
	return func(c *Client) {
		if d >= 0 {
			c.redirectDelay = d
		}
	}
}

// WithSignInRedirect registers the callback run after the session expired.
func WithSignInRedirect(fn func()) Option {
	return func(c *Client) {
		c.redirect = fn
	}
}

func WithLogger(logger *slog.Logger) Option {
	return func(c *Client) {
		if logger != nil {
			c.logger = logger
		}
	}
}
