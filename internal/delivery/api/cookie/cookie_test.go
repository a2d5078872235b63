package cookie

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"authgate/internal/domain/entity"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func cookiesByName(rec *httptest.ResponseRecorder) map[string]*http.Cookie {
	out := make(map[string]*http.Cookie)
	for _, ck := range rec.Result().Cookies() {
		out[ck.Name] = ck
	}

	return out
}

func TestSetSession(t *testing.T) {
	e := echo.New()
	rec := httptest.NewRecorder()
	c := e.NewContext(httptest.NewRequest(http.MethodPost, "/", nil), rec)

	now := time.Now().Truncate(time.Second)
	creds := entity.Credentials{
		Access:  entity.Token{Value: "access", ExpiresAt: now.Add(15 * time.Minute)},
		Refresh: entity.Token{Value: "refresh", ExpiresAt: now.Add(7 * 24 * time.Hour)},
	}
	SetSession(c, creds, true)

	cookies := cookiesByName(rec)
	require.Contains(t, cookies, AccessTokenName)
	require.Contains(t, cookies, RefreshTokenName)

	access := cookies[AccessTokenName]
	assert.Equal(t, "access", access.Value)
	assert.True(t, access.Expires.Equal(creds.Access.ExpiresAt))
	assert.True(t, access.HttpOnly)
	assert.True(t, access.Secure)
	assert.Equal(t, http.SameSiteLaxMode, access.SameSite)
	assert.Equal(t, "/", access.Path)

	refresh := cookies[RefreshTokenName]
	assert.Equal(t, "refresh", refresh.Value)
	assert.True(t, refresh.Expires.Equal(creds.Refresh.ExpiresAt))
}

func TestClearSession(t *testing.T) {
	e := echo.New()
	rec := httptest.NewRecorder()
	c := e.NewContext(httptest.NewRequest(http.MethodGet, "/", nil), rec)

	ClearSession(c, false)

	cookies := cookiesByName(rec)
	for _, name := range []string{AccessTokenName, RefreshTokenName} {
		require.Contains(t, cookies, name)
		assert.Empty(t, cookies[name].Value)
		assert.Equal(t, -1, cookies[name].MaxAge)
		assert.False(t, cookies[name].Secure)
	}
}

func TestReadTokens(t *testing.T) {
	e := echo.New()
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.AddCookie(&http.Cookie{Name: RefreshTokenName, Value: "r"})
	c := e.NewContext(req, httptest.NewRecorder())

	assert.Equal(t, "r", RefreshToken(c))
	assert.Empty(t, AccessToken(c))
}
