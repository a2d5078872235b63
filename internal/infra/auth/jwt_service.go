// Package auth provides concrete implementations for authentication-related domain services.
package auth

import (
	"crypto/rand"
	"encoding/hex"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"authgate/config"
	"authgate/internal/domain/entity"
	"authgate/internal/domain/service"
	"authgate/internal/errors"
)

const (
	// AccessTokenTTL bounds how long a revoked session can still call protected routes.
	AccessTokenTTL = 15 * time.Minute

	// RefreshTokenTTL is the lifetime of the session cookie and its stored token.
	RefreshTokenTTL = 7 * 24 * time.Hour

	refreshTokenBytes = 40
	resetTokenBytes   = 32
)

// jwtService signs HS256 access tokens and mints opaque refresh and reset tokens.
type jwtService struct {
	accessSecret []byte
	resetTTL     time.Duration
	now          func() time.Time
}

// NewJWTService is the constructor for jwtService.
func NewJWTService(cfg *config.Config) (service.TokenService, error) {
	resetTTL := time.Hour
	if cfg.PasswordReset != nil && cfg.PasswordReset.TokenTTL > 0 {
		resetTTL = cfg.PasswordReset.TokenTTL
	}

	return newJWTService(cfg.SecretKey.Access, resetTTL, time.Now)
}

func newJWTService(secret string, resetTTL time.Duration, now func() time.Time) (*jwtService, error) {
	if secret == "" {
		return nil, errors.New("jwt secret must be provided")
	}

	return &jwtService{
		accessSecret: []byte(secret),
		resetTTL:     resetTTL,
		now:          now,
	}, nil
}

// GenerateAccessToken creates a JWT carrying only sub, iat and exp.
func (s *jwtService) GenerateAccessToken(userID uuid.UUID) (entity.Token, error) {
	// JWT NumericDate has second precision; truncating keeps exp and the cookie expiry identical.
	issuedAt := s.now().Truncate(time.Second)
	expiresAt := issuedAt.Add(AccessTokenTTL)

	claims := jwt.RegisteredClaims{
		Subject:   userID.String(),
		IssuedAt:  jwt.NewNumericDate(issuedAt),
		ExpiresAt: jwt.NewNumericDate(expiresAt),
	}

	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(s.accessSecret)
	if err != nil {
		return entity.Token{}, errors.Wrap(err, "sign access token")
	}

	return entity.Token{Value: signed, ExpiresAt: expiresAt}, nil
}

func (s *jwtService) GenerateRefreshToken() (entity.Token, error) {
	return s.opaqueToken(refreshTokenBytes, RefreshTokenTTL)
}

func (s *jwtService) GenerateResetToken() (entity.Token, error) {
	return s.opaqueToken(resetTokenBytes, s.resetTTL)
}

// ValidateAccessToken accepts only HS256 tokens signed with the access secret.
func (s *jwtService) ValidateAccessToken(tokenString string) (uuid.UUID, error) {
	claims := &jwt.RegisteredClaims{}

	_, err := jwt.ParseWithClaims(tokenString, claims, func(token *jwt.Token) (any, error) {
		return s.accessSecret, nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(s.now),
	)
	if err != nil {
		// The signature is checked before exp, so an expired token here is authentic.
		if errors.Is(err, jwt.ErrTokenExpired) {
			return uuid.Nil, errors.Wrap(service.ErrTokenExpired, err.Error())
		}

		return uuid.Nil, errors.Wrap(service.ErrTokenInvalid, err.Error())
	}

	userID, err := uuid.Parse(claims.Subject)
	if err != nil {
		return uuid.Nil, errors.Wrap(service.ErrTokenInvalid, "subject is not a user id")
	}

	return userID, nil
}

func (s *jwtService) opaqueToken(size int, ttl time.Duration) (entity.Token, error) {
	buf := make([]byte, size)
	if _, err := rand.Read(buf); err != nil {
		return entity.Token{}, errors.Wrap(err, "read random bytes")
	}

	return entity.Token{
		Value:     hex.EncodeToString(buf),
		ExpiresAt: s.now().Truncate(time.Second).Add(ttl),
	}, nil
}
