package authclient

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/cookiejar"
	"strings"
	"sync"
	"time"

	domainerrors "authgate/internal/domain/errors"

	"github.com/pkg/errors"
	"golang.org/x/net/publicsuffix"
)

var (
	// ErrSessionExpired is returned when the refresh token was rejected.
	ErrSessionExpired = errors.New("session expired")
	// ErrQueueTimeout is returned when a queued caller waited too long for a refresh.
	ErrQueueTimeout = errors.New("timed out waiting for session refresh")
)

const sessionExpiredMessage = "Your session has expired. Please sign in again."

// Client sends requests on behalf of a signed-in user and keeps the
// session alive across access token expiry.
type Client struct {
	baseURL        string
	http           *http.Client
	refreshPath    string
	queueTimeout   time.Duration
	refreshTimeout time.Duration
	redirectDelay  time.Duration
	redirect       func()
	logger         *slog.Logger

	mu         sync.Mutex
	refreshing bool
	queue      []chan error

	subMu       sync.Mutex
	nextSubID   int
	subscribers map[int]func(SessionEvent)
}

// New creates a Client for the server at baseURL.
func New(baseURL string, opts ...Option) (*Client, error) {
	if baseURL == "" {
		return nil, errors.New("base url is required")
	}

	c := &Client{
		baseURL:        strings.TrimRight(baseURL, "/"),
		refreshPath:    DefaultRefreshPath,
		queueTimeout:   DefaultQueueTimeout,
		refreshTimeout: DefaultRefreshTimeout,
		redirectDelay:  DefaultRedirectDelay,
		logger:         slog.New(slog.DiscardHandler),
		subscribers:    make(map[int]func(SessionEvent)),
	}
	for _, opt := range opts {
		opt(c)
	}

	hc := http.Client{}
	if c.http != nil {
		hc = *c.http
	}
	if hc.Jar == nil {
		jar, err := cookiejar.New(&cookiejar.Options{PublicSuffixList: publicsuffix.List})
		if err != nil {
			return nil, errors.Wrap(err, "failed to create cookie jar")
		}
		hc.Jar = jar
	}
	c.http = &hc

	return c, nil
}

// Jar exposes the cookie jar holding the session cookies.
func (c *Client) Jar() http.CookieJar {
	return c.http.Jar
}

// Do sends req and, when the access token has expired, refreshes the
// session and replays req once. Any other response is returned as is.
func (c *Client) Do(req *http.Request) (*http.Response, error) {
	body, err := bufferBody(req)
	if err != nil {
		return nil, err
	}

	resp, err := c.send(req, body)
	if err != nil {
		return nil, err
	}

	expired, err := accessTokenExpired(resp)
	if err != nil {
		return nil, err
	}
	if !expired {
		return resp, nil
	}
	discard(resp)

	if err := c.awaitRefresh(req.Context()); err != nil {
		return nil, err
	}

	return c.send(req, body)
}

// Get issues a GET for path relative to the base URL.
func (c *Client) Get(ctx context.Context, path string) (*http.Response, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.url(path), http.NoBody)
	if err != nil {
		return nil, errors.Wrap(err, "failed to build request")
	}

	return c.Do(req)
}

// PostJSON marshals payload and POSTs it to path relative to the base URL.
func (c *Client) PostJSON(ctx context.Context, path string, payload any) (*http.Response, error) {
	raw, err := json.Marshal(payload)
	if err != nil {
		return nil, errors.Wrap(err, "failed to encode payload")
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.url(path), bytes.NewReader(raw))
	if err != nil {
		return nil, errors.Wrap(err, "failed to build request")
	}
	req.Header.Set("Content-Type", "application/json")

	return c.Do(req)
}

func (c *Client) url(path string) string {
	if strings.HasPrefix(path, "http://") || strings.HasPrefix(path, "https://") {
		return path
	}
	if !strings.HasPrefix(path, "/") {
		path = "/" + path
	}

	return c.baseURL + path
}

// awaitRefresh makes the caller either the refresh leader or a queued follower.
func (c *Client) awaitRefresh(ctx context.Context) error {
	c.mu.Lock()
	if c.refreshing {
		wait := make(chan error, 1)
		c.queue = append(c.queue, wait)
		c.mu.Unlock()

		timer := time.NewTimer(c.queueTimeout)
		defer timer.Stop()

		select {
		case err := <-wait:
			return err
		case <-ctx.Done():
			return ctx.Err()
		case <-timer.C:
			return ErrQueueTimeout
		}
	}
	c.refreshing = true
	c.mu.Unlock()

	refreshErr := c.refresh(ctx)

	c.mu.Lock()
	c.refreshing = false
	waiting := c.queue
	c.queue = nil
	c.mu.Unlock()

	var result error
	if refreshErr != nil {
		result = ErrSessionExpired
	}
	// Waiters that already gave up left a buffered channel behind.
	for _, wait := range waiting {
		wait <- result
	}

	if refreshErr != nil {
		c.logger.Warn("Session refresh rejected", slog.Any("error", refreshErr), slog.Int("queued", len(waiting)))
		c.expireSession()

		return ErrSessionExpired
	}

	c.logger.Debug("Session refreshed", slog.Int("queued", len(waiting)))
	c.publish(SessionEvent{Kind: EventRefreshed})

	return nil
}

// refresh calls the refresh endpoint. It outlives the leader's own
// cancellation so that queued callers are not failed by it.
func (c *Client) refresh(parent context.Context) error {
	ctx, cancel := context.WithTimeout(context.WithoutCancel(parent), c.refreshTimeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.url(c.refreshPath), http.NoBody)
	if err != nil {
		return errors.Wrap(err, "failed to build refresh request")
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return errors.Wrap(err, "refresh request failed")
	}
	defer discard(resp)

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return errors.Errorf("refresh rejected with status %d", resp.StatusCode)
	}

	return nil
}

func (c *Client) expireSession() {
	c.publish(SessionEvent{Kind: EventSessionExpired, Message: sessionExpiredMessage})

	if c.redirect != nil {
		time.AfterFunc(c.redirectDelay, c.redirect)
	}
}

func (c *Client) send(req *http.Request, body []byte) (*http.Response, error) {
	out := req.Clone(req.Context())
	if body != nil {
		out.Body = io.NopCloser(bytes.NewReader(body))
		out.GetBody = func() (io.ReadCloser, error) {
			return io.NopCloser(bytes.NewReader(body)), nil
		}
		out.ContentLength = int64(len(body))
	}

	resp, err := c.http.Do(out)
	if err != nil {
		return nil, errors.Wrapf(err, "%s %s", req.Method, req.URL.Path)
	}

	return resp, nil
}

func bufferBody(req *http.Request) ([]byte, error) {
	if req.Body == nil || req.Body == http.NoBody {
		return nil, nil
	}
	defer req.Body.Close()

	body, err := io.ReadAll(req.Body)
	if err != nil {
		return nil, errors.Wrap(err, "failed to buffer request body")
	}

	return body, nil
}

type errorEnvelope struct {
	Error *struct {
		Code    string `json:"code"`
		Message string `json:"message"`
	} `json:"error"`
	Message string `json:"message"`
}

// accessTokenExpired reports whether resp signals an expired access token.
// The body is restored so the caller can still read it.
func accessTokenExpired(resp *http.Response) (bool, error) {
	if resp.StatusCode != http.StatusUnauthorized {
		return false, nil
	}

	raw, err := io.ReadAll(resp.Body)
	resp.Body.Close()
	if err != nil {
		return false, errors.Wrap(err, "failed to read response body")
	}
	resp.Body = io.NopCloser(bytes.NewReader(raw))

	var envelope errorEnvelope
	if err := json.Unmarshal(raw, &envelope); err != nil {
		return false, nil
	}

	if envelope.Error != nil {
		if envelope.Error.Code == domainerrors.CodeAccessTokenExpired ||
			envelope.Error.Message == domainerrors.MessageAccessExpired {
			return true, nil
		}
	}

	return envelope.Message == domainerrors.MessageAccessExpired, nil
}

func discard(resp *http.Response) {
	_, _ = io.Copy(io.Discard, resp.Body)
	_ = resp.Body.Close()
}
