package middleware

import (
	"bytes"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"authgate/config"
	deliverycontext "authgate/internal/delivery/context"
	domainerrors "authgate/internal/domain/errors"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRequestIDMiddleware(t *testing.T) {
	tests := []struct {
		name     string
		incoming string
		reuse    bool
	}{
		{name: "reuses client id", incoming: "abc-123", reuse: true},
		{name: "generates when missing"},
		{name: "rejects whitespace", incoming: "bad id"},
		{name: "rejects oversized", incoming: strings.Repeat("a", maxRequestIDLength+1)},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			e := echo.New()
			req := httptest.NewRequest(http.MethodGet, "/", nil)
			if tt.incoming != "" {
				req.Header.Set(deliverycontext.HeaderXRequestID, tt.incoming)
			}
			rec := httptest.NewRecorder()
			c := e.NewContext(req, rec)

			var seen string
			handler := NewRequestIDMiddleware(slog.Default()).Process(func(c echo.Context) error {
				seen = deliverycontext.GetRequestIDFromContext(c.Request().Context())
				assert.NotNil(t, deliverycontext.GetLogger(c.Request().Context()))

				return nil
			})
			require.NoError(t, handler(c))

			assert.Equal(t, seen, rec.Header().Get(deliverycontext.HeaderXRequestID))
			if tt.reuse {
				assert.Equal(t, tt.incoming, seen)

				return
			}
			_, err := uuid.Parse(seen)
			assert.NoError(t, err)
		})
	}
}

func TestLoggerMiddleware_LevelsFollowStatus(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(slog.NewTextHandler(&buf, nil))

	cfg := &config.Config{}
	cfg.Env.Debug = true
	mw := NewLoggerMiddleware(logger, cfg)

	e := echo.New()
	c := e.NewContext(httptest.NewRequest(http.MethodPost, "/api/auth/signin", nil), httptest.NewRecorder())

	err := mw.Handle(func(echo.Context) error {
		return domainerrors.ErrInvalidCredentials
	})(c)
	require.Error(t, err)

	out := buf.String()
	assert.Contains(t, out, "level=WARN")
	assert.Contains(t, out, "status=401")
	assert.Contains(t, out, "uri=/api/auth/signin")
}

func TestLoggerMiddleware_SilentWithoutDebug(t *testing.T) {
	var buf bytes.Buffer
	mw := NewLoggerMiddleware(slog.New(slog.NewTextHandler(&buf, nil)), &config.Config{})

	e := echo.New()
	c := e.NewContext(httptest.NewRequest(http.MethodGet, "/", nil), httptest.NewRecorder())
	require.NoError(t, mw.Handle(func(c echo.Context) error { return c.NoContent(http.StatusOK) })(c))

	assert.Empty(t, buf.String())
}
