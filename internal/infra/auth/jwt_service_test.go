package auth

import (
	"strings"
	"testing"
	"time"

	"authgate/config"
	"authgate/internal/domain/service"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testSecret = "test_access_secret_key_very_long_for_testing"

type fakeClock struct {
	t time.Time
}

func (c *fakeClock) Now() time.Time { return c.t }

func newTestJWTService(t *testing.T, clock *fakeClock) *jwtService {
	t.Helper()

	svc, err := newJWTService(testSecret, time.Hour, clock.Now)
	require.NoError(t, err)

	return svc
}

func TestNewJWTService_RequiresSecret(t *testing.T) {
	_, err := NewJWTService(&config.Config{})
	assert.Error(t, err)

	cfg := &config.Config{}
	cfg.SecretKey.Access = testSecret
	svc, err := NewJWTService(cfg)
	require.NoError(t, err)
	assert.NotNil(t, svc)
}

func TestJWTService_AccessTokenRoundTrip(t *testing.T) {
	clock := &fakeClock{t: time.Date(2026, 3, 1, 10, 0, 0, 500_000_000, time.UTC)}
	svc := newTestJWTService(t, clock)
	userID := uuid.New()

	token, err := svc.GenerateAccessToken(userID)
	require.NoError(t, err)
	assert.Equal(t, time.Date(2026, 3, 1, 10, 15, 0, 0, time.UTC), token.ExpiresAt)

	got, err := svc.ValidateAccessToken(token.Value)
	require.NoError(t, err)
	assert.Equal(t, userID, got)

	claims := jwt.MapClaims{}
	_, _, err = jwt.NewParser().ParseUnverified(token.Value, claims)
	require.NoError(t, err)
	assert.Len(t, claims, 3, "access token carries only sub, iat and exp")

	exp, err := claims.GetExpirationTime()
	require.NoError(t, err)
	assert.True(t, exp.Equal(token.ExpiresAt))
}

func TestJWTService_ExpiredAccessToken(t *testing.T) {
	clock := &fakeClock{t: time.Now()}
	svc := newTestJWTService(t, clock)

	token, err := svc.GenerateAccessToken(uuid.New())
	require.NoError(t, err)

	clock.t = clock.t.Add(AccessTokenTTL + time.Second)

	_, err = svc.ValidateAccessToken(token.Value)
	assert.ErrorIs(t, err, service.ErrTokenExpired)
}

func TestJWTService_InvalidAccessTokens(t *testing.T) {
	clock := &fakeClock{t: time.Now()}
	svc := newTestJWTService(t, clock)
	userID := uuid.New()

	valid, err := svc.GenerateAccessToken(userID)
	require.NoError(t, err)

	claims := jwt.RegisteredClaims{
		Subject:   userID.String(),
		ExpiresAt: jwt.NewNumericDate(clock.t.Add(time.Minute)),
	}

	otherSecret, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte("another-secret"))
	require.NoError(t, err)

	hs512, err := jwt.NewWithClaims(jwt.SigningMethodHS512, claims).SignedString([]byte(testSecret))
	require.NoError(t, err)

	none, err := jwt.NewWithClaims(jwt.SigningMethodNone, claims).SignedString(jwt.UnsafeAllowNoneSignatureType)
	require.NoError(t, err)

	noExp, err := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.RegisteredClaims{Subject: userID.String()}).SignedString([]byte(testSecret))
	require.NoError(t, err)

	badSubject, err := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.RegisteredClaims{
		Subject:   "not-a-uuid",
		ExpiresAt: jwt.NewNumericDate(clock.t.Add(time.Minute)),
	}).SignedString([]byte(testSecret))
	require.NoError(t, err)

	parts := strings.Split(valid.Value, ".")
	tampered := parts[0] + "." + parts[1] + "." + strings.Repeat("A", len(parts[2]))

	tests := map[string]string{
		"garbage":       "clearly-not-a-jwt-token-format",
		"empty":         "",
		"other secret":  otherSecret,
		"wrong alg":     hs512,
		"none alg":      none,
		"missing exp":   noExp,
		"bad subject":   badSubject,
		"bad signature": tampered,
	}

	for name, token := range tests {
		t.Run(name, func(t *testing.T) {
			_, err := svc.ValidateAccessToken(token)
			assert.ErrorIs(t, err, service.ErrTokenInvalid)
			assert.NotErrorIs(t, err, service.ErrTokenExpired)
		})
	}
}

func TestJWTService_ExpiredTokenWithBadSignatureIsInvalid(t *testing.T) {
	clock := &fakeClock{t: time.Now()}
	svc := newTestJWTService(t, clock)

	forged, err := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.RegisteredClaims{
		Subject:   uuid.NewString(),
		ExpiresAt: jwt.NewNumericDate(clock.t.Add(-time.Hour)),
	}).SignedString([]byte("another-secret"))
	require.NoError(t, err)

	_, err = svc.ValidateAccessToken(forged)
	assert.ErrorIs(t, err, service.ErrTokenInvalid)
}

func TestJWTService_OpaqueTokens(t *testing.T) {
	clock := &fakeClock{t: time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)}
	svc := newTestJWTService(t, clock)

	refresh, err := svc.GenerateRefreshToken()
	require.NoError(t, err)
	assert.Len(t, refresh.Value, refreshTokenBytes*2)
	assert.Equal(t, clock.t.Add(RefreshTokenTTL), refresh.ExpiresAt)

	another, err := svc.GenerateRefreshToken()
	require.NoError(t, err)
	assert.NotEqual(t, refresh.Value, another.Value)

	reset, err := svc.GenerateResetToken()
	require.NoError(t, err)
	assert.Len(t, reset.Value, resetTokenBytes*2)
	assert.Equal(t, clock.t.Add(time.Hour), reset.ExpiresAt)
}
