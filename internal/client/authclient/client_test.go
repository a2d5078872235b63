package authclient

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	domainerrors "authgate/internal/domain/errors"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/sync/errgroup"
)

const freshToken = "fresh"

// fakeAPI rejects requests until the refresh endpoint has issued a fresh
// access cookie.
type fakeAPI struct {
	refreshCalls  atomic.Int32
	refreshStatus int
	// beforeRefresh runs inside the refresh handler before it answers.
	beforeRefresh func()
}

func (f *fakeAPI) handler() http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc("POST "+DefaultRefreshPath, func(w http.ResponseWriter, r *http.Request) {
		f.refreshCalls.Add(1)
		if f.beforeRefresh != nil {
			f.beforeRefresh()
		}
		if f.refreshStatus != 0 && f.refreshStatus != http.StatusOK {
			writeError(w, f.refreshStatus, "REFRESH_TOKEN_INVALID", "Invalid refresh token")
			return
		}
		http.SetCookie(w, &http.Cookie{Name: "access_token", Value: freshToken, Path: "/"})
		w.Header().Set("Content-Type", "application/json")
		_, _ = io.WriteString(w, `{"data":{"message":"Token refreshed successfully"}}`)
	})

	mux.HandleFunc("/api/data", func(w http.ResponseWriter, r *http.Request) {
		if !hasFreshCookie(r) {
			writeError(w, http.StatusUnauthorized, domainerrors.CodeAccessTokenExpired, domainerrors.MessageAccessExpired)
			return
		}
		_, _ = io.WriteString(w, "ok")
	})

	mux.HandleFunc("/api/echo", func(w http.ResponseWriter, r *http.Request) {
		body, _ := io.ReadAll(r.Body)
		if !hasFreshCookie(r) {
			writeError(w, http.StatusUnauthorized, domainerrors.CodeAccessTokenExpired, domainerrors.MessageAccessExpired)
			return
		}
		_, _ = w.Write(body)
	})

	mux.HandleFunc("/api/legacy", func(w http.ResponseWriter, r *http.Request) {
		if !hasFreshCookie(r) {
			w.WriteHeader(http.StatusUnauthorized)
			_, _ = io.WriteString(w, `{"message":"Access token expired"}`)
			return
		}
		_, _ = io.WriteString(w, "ok")
	})

	mux.HandleFunc("/api/invalid", func(w http.ResponseWriter, r *http.Request) {
		writeError(w, http.StatusUnauthorized, "ACCESS_TOKEN_INVALID", "Invalid access token")
	})

	mux.HandleFunc("/api/broken", func(w http.ResponseWriter, r *http.Request) {
		writeError(w, http.StatusInternalServerError, "INTERNAL_ERROR", "Internal server error")
	})

	return mux
}

func hasFreshCookie(r *http.Request) bool {
	cookie, err := r.Cookie("access_token")
	return err == nil && cookie.Value == freshToken
}

func writeError(w http.ResponseWriter, status int, code, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_, _ = fmt.Fprintf(w, `{"error":{"code":%q,"message":%q},"meta":{"request_id":"test"}}`, code, message)
}

func newTestClient(t *testing.T, api *fakeAPI, opts ...Option) *Client {
	t.Helper()

	srv := httptest.NewServer(api.handler())
	t.Cleanup(srv.Close)

	c, err := New(srv.URL, opts...)
	require.NoError(t, err)

	return c
}

func (c *Client) queued() int {
	c.mu.Lock()
	defer c.mu.Unlock()

	return len(c.queue)
}

func (c *Client) inFlight() bool {
	c.mu.Lock()
	defer c.mu.Unlock()

	return c.refreshing
}

func readBody(t *testing.T, resp *http.Response) string {
	t.Helper()
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)

	return string(body)
}

type eventRecorder struct {
	mu     sync.Mutex
	events []SessionEvent
}

func (r *eventRecorder) record(event SessionEvent) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, event)
}

func (r *eventRecorder) count(kind EventKind) int {
	r.mu.Lock()
	defer r.mu.Unlock()

	n := 0
	for _, event := range r.events {
		if event.Kind == kind {
			n++
		}
	}

	return n
}

func TestNew(t *testing.T) {
	_, err := New("")
	require.Error(t, err)

	own := &http.Client{Timeout: time.Second}
	c, err := New("http://localhost:8080/", WithHTTPClient(own))
	require.NoError(t, err)

	assert.Nil(t, own.Jar, "caller's client must not be mutated")
	assert.NotNil(t, c.Jar())
	assert.Equal(t, time.Second, c.http.Timeout)
	assert.Equal(t, "http://localhost:8080/api/data", c.url("/api/data"))
	assert.Equal(t, "http://localhost:8080/api/data", c.url("api/data"))
	assert.Equal(t, DefaultRefreshPath, c.refreshPath)
	assert.Equal(t, DefaultQueueTimeout, c.queueTimeout)
}

func TestDo_RefreshesOnceForConcurrentCallers(t *testing.T) {
	const callers = 8

	api := &fakeAPI{}
	recorder := &eventRecorder{}
	c := newTestClient(t, api)
	c.Subscribe(recorder.record)

	api.beforeRefresh = func() {
		assert.Eventually(t, func() bool { return c.queued() == callers-1 }, 5*time.Second, 5*time.Millisecond)
	}

	g, ctx := errgroup.WithContext(context.Background())
	for range callers {
		g.Go(func() error {
			resp, err := c.Get(ctx, "/api/data")
			if err != nil {
				return err
			}
			defer resp.Body.Close()
			if resp.StatusCode != http.StatusOK {
				return fmt.Errorf("unexpected status %d", resp.StatusCode)
			}
			return nil
		})
	}
	require.NoError(t, g.Wait())

	assert.Equal(t, int32(1), api.refreshCalls.Load())
	assert.Equal(t, 1, recorder.count(EventRefreshed))
	assert.Equal(t, 0, recorder.count(EventSessionExpired))
	assert.False(t, c.inFlight())
	assert.Zero(t, c.queued())
}

func TestDo_ReplaysRequestBody(t *testing.T) {
	api := &fakeAPI{}
	c := newTestClient(t, api)

	resp, err := c.PostJSON(context.Background(), "/api/echo", map[string]string{"name": "hamburger"})
	require.NoError(t, err)

	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.JSONEq(t, `{"name":"hamburger"}`, readBody(t, resp))
	assert.Equal(t, int32(1), api.refreshCalls.Load())
}

func TestDo_LegacyExpiredMessage(t *testing.T) {
	api := &fakeAPI{}
	c := newTestClient(t, api)

	resp, err := c.Get(context.Background(), "/api/legacy")
	require.NoError(t, err)

	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "ok", readBody(t, resp))
	assert.Equal(t, int32(1), api.refreshCalls.Load())
}

func TestDo_PassesThroughOtherResponses(t *testing.T) {
	tests := []struct {
		name       string
		path       string
		wantStatus int
		wantCode   string
	}{
		{name: "invalid token", path: "/api/invalid", wantStatus: http.StatusUnauthorized, wantCode: "ACCESS_TOKEN_INVALID"},
		{name: "server error", path: "/api/broken", wantStatus: http.StatusInternalServerError, wantCode: "INTERNAL_ERROR"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			api := &fakeAPI{}
			c := newTestClient(t, api)

			resp, err := c.Get(context.Background(), tt.path)
			require.NoError(t, err)
			assert.Equal(t, tt.wantStatus, resp.StatusCode)

			var envelope errorEnvelope
			require.NoError(t, json.Unmarshal([]byte(readBody(t, resp)), &envelope))
			require.NotNil(t, envelope.Error)
			assert.Equal(t, tt.wantCode, envelope.Error.Code)
			assert.Zero(t, api.refreshCalls.Load())
		})
	}
}

func TestDo_SessionExpired(t *testing.T) {
	api := &fakeAPI{refreshStatus: http.StatusUnauthorized}
	recorder := &eventRecorder{}
	redirected := make(chan struct{}, 2)

	c := newTestClient(t, api,
		WithRedirectDelay(10*time.Millisecond),
		WithSignInRedirect(func() { redirected <- struct{}{} }),
	)
	c.Subscribe(recorder.record)

	api.beforeRefresh = func() {
		assert.Eventually(t, func() bool { return c.queued() == 1 }, 5*time.Second, 5*time.Millisecond)
	}

	var g errgroup.Group
	errs := make([]error, 2)
	for i := range errs {
		g.Go(func() error {
			resp, err := c.Get(context.Background(), "/api/data")
			if resp != nil {
				resp.Body.Close()
			}
			errs[i] = err
			return nil
		})
	}
	require.NoError(t, g.Wait())

	for _, err := range errs {
		require.ErrorIs(t, err, ErrSessionExpired)
	}

	select {
	case <-redirected:
	case <-time.After(2 * time.Second):
		t.Fatal("sign-in redirect was not scheduled")
	}

	assert.Equal(t, 1, recorder.count(EventSessionExpired))
	assert.Equal(t, 0, recorder.count(EventRefreshed))
	assert.Equal(t, sessionExpiredMessage, recorder.events[0].Message)
	assert.Equal(t, int32(1), api.refreshCalls.Load())
	assert.Empty(t, redirected)
}

func TestDo_QueuedCallerTimesOut(t *testing.T) {
	release := make(chan struct{})
	api := &fakeAPI{beforeRefresh: func() { <-release }}
	c := newTestClient(t, api, WithQueueTimeout(50*time.Millisecond))

	leader := make(chan error, 1)
	go func() {
		resp, err := c.Get(context.Background(), "/api/data")
		if err == nil {
			resp.Body.Close()
		}
		leader <- err
	}()

	require.Eventually(t, c.inFlight, 5*time.Second, 5*time.Millisecond)

	_, err := c.Get(context.Background(), "/api/data")
	require.ErrorIs(t, err, ErrQueueTimeout)

	close(release)
	require.NoError(t, <-leader)
	assert.Equal(t, int32(1), api.refreshCalls.Load())
}

func TestDo_QueuedCallerCancelled(t *testing.T) {
	release := make(chan struct{})
	api := &fakeAPI{beforeRefresh: func() { <-release }}
	c := newTestClient(t, api)

	leader := make(chan error, 1)
	go func() {
		resp, err := c.Get(context.Background(), "/api/data")
		if err == nil {
			resp.Body.Close()
		}
		leader <- err
	}()

	require.Eventually(t, c.inFlight, 5*time.Second, 5*time.Millisecond)

	ctx, cancel := context.WithCancel(context.Background())
	go func() {
		assert.Eventually(t, func() bool { return c.queued() == 1 }, 5*time.Second, 5*time.Millisecond)
		cancel()
	}()

	_, err := c.Get(ctx, "/api/data")
	require.ErrorIs(t, err, context.Canceled)

	close(release)
	require.NoError(t, <-leader)
}

func TestSubscribe_Unsubscribe(t *testing.T) {
	api := &fakeAPI{}
	recorder := &eventRecorder{}
	c := newTestClient(t, api)

	unsubscribe := c.Subscribe(recorder.record)
	unsubscribe()

	resp, err := c.Get(context.Background(), "/api/data")
	require.NoError(t, err)
	resp.Body.Close()

	assert.Zero(t, recorder.count(EventRefreshed))
}

func TestEventKind_String(t *testing.T) {
	assert.Equal(t, "refreshed", EventRefreshed.String())
	assert.Equal(t, "session_expired", EventSessionExpired.String())
	assert.Equal(t, "unknown", EventKind(0).String())
}
