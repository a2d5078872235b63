package service

import (
	"errors"

	"authgate/internal/domain/entity"

	"github.com/google/uuid"
)

var (
	// ErrTokenExpired is returned for a well-signed access token past its expiry.
	ErrTokenExpired = errors.New("token expired")

	// ErrTokenInvalid is returned for a malformed, tampered or wrongly signed access token.
	ErrTokenInvalid = errors.New("token invalid")
)

// TokenService issues and checks session credentials.
//
// Access tokens are self-contained and never stored, so revoking a session
// only takes effect once the outstanding access token expires.
type TokenService interface {
	// GenerateAccessToken creates a short-lived signed token whose subject is userID.
	GenerateAccessToken(userID uuid.UUID) (entity.Token, error)

	// GenerateRefreshToken creates an opaque random token for the refresh cookie.
	GenerateRefreshToken() (entity.Token, error)

	// GenerateResetToken creates an opaque random single-use password reset token.
	GenerateResetToken() (entity.Token, error)

	// ValidateAccessToken returns the token subject, or ErrTokenExpired / ErrTokenInvalid.
	ValidateAccessToken(token string) (uuid.UUID, error)
}
