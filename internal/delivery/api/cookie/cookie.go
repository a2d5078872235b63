// Package cookie writes and clears the session cookie pair.
package cookie

import (
	"net/http"
	"time"

	"authgate/internal/domain/entity"

	"github.com/labstack/echo/v4"
)

const (
	AccessTokenName  = "access_token"
	RefreshTokenName = "refresh_token"
)

// SetSession writes both tokens as HttpOnly cookies expiring with the tokens themselves.
func SetSession(c echo.Context, creds entity.Credentials, secure bool) {
	c.SetCookie(newCookie(AccessTokenName, creds.Access.Value, creds.Access.ExpiresAt, secure))
	c.SetCookie(newCookie(RefreshTokenName, creds.Refresh.Value, creds.Refresh.ExpiresAt, secure))
}

// ClearSession expires both cookies.
func ClearSession(c echo.Context, secure bool) {
	for _, name := range []string{AccessTokenName, RefreshTokenName} {
		ck := newCookie(name, "", time.Unix(0, 0), secure)
		ck.MaxAge = -1
		c.SetCookie(ck)
	}
}

// RefreshToken returns the refresh cookie value, or "".
func RefreshToken(c echo.Context) string {
	return value(c, RefreshTokenName)
}

// AccessToken returns the access cookie value, or "".
func AccessToken(c echo.Context) string {
	return value(c, AccessTokenName)
}

func value(c echo.Context, name string) string {
	ck, err := c.Cookie(name)
	if err != nil {
		return ""
	}

	return ck.Value
}

func newCookie(name, value string, expires time.Time, secure bool) *http.Cookie {
	return &http.Cookie{
		Name:     name,
		Value:    value,
		Path:     "/",
		Expires:  expires,
		HttpOnly: true,
		Secure:   secure,
		SameSite: http.SameSiteLaxMode,
	}
}
