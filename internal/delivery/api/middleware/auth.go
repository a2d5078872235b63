package middleware

import (
	"log/slog"
	"strings"

	"authgate/internal/delivery/api/cookie"
	deliverycontext "authgate/internal/delivery/context"
	domainerrors "authgate/internal/domain/errors"
	"authgate/internal/domain/service"
	"authgate/internal/errors"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
)

// KeyUserID is the echo.Context key holding the authenticated user ID.
const KeyUserID = "userID"

// AuthMiddleware verifies access tokens on protected routes.
type AuthMiddleware struct {
	tokenSvc service.TokenService
}

// NewAuthMiddleware is the constructor for AuthMiddleware.
func NewAuthMiddleware(tokenSvc service.TokenService) *AuthMiddleware {
	return &AuthMiddleware{tokenSvc: tokenSvc}
}

// Authenticate accepts the access_token cookie, or a Bearer header when the cookie is absent.
//
//	missing           -> 401 ACCESS_TOKEN_MISSING
//	expired           -> 401 ACCESS_TOKEN_EXPIRED, the client's cue to refresh
//	any other failure -> 403 ACCESS_TOKEN_INVALID
func (m *AuthMiddleware) Authenticate(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		token := accessToken(c)
		if token == "" {
			return domainerrors.ErrAccessTokenMissing
		}

		userID, err := m.tokenSvc.ValidateAccessToken(token)
		if err != nil {
			if errors.Is(err, service.ErrTokenExpired) {
				return domainerrors.ErrAccessTokenExpired
			}

			return domainerrors.ErrAccessTokenInvalid
		}

		c.Set(KeyUserID, userID)

		ctx := deliverycontext.WithSubject(c.Request().Context(), userID)
		if logger := deliverycontext.GetLogger(ctx); logger != nil {
			ctx = deliverycontext.WithLogger(ctx, logger.With(slog.String("user_id", userID.String())))
		}
		c.SetRequest(c.Request().WithContext(ctx))

		return next(c)
	}
}

// GetUserID returns the user ID set by Authenticate.
func GetUserID(c echo.Context) (uuid.UUID, bool) {
	userID, ok := c.Get(KeyUserID).(uuid.UUID)

	return userID, ok
}

func accessToken(c echo.Context) string {
	if token := cookie.AccessToken(c); token != "" {
		return token
	}

	header := c.Request().Header.Get(echo.HeaderAuthorization)
	scheme, token, found := strings.Cut(header, " ")
	if !found || !strings.EqualFold(scheme, "Bearer") {
		return ""
	}

	return strings.TrimSpace(token)
}
