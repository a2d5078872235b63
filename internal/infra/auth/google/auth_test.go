package google

import (
	"context"
	"io"
	"log/slog"
	"testing"

	"authgate/config"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/api/idtoken"
)

func newTestVerifier(validate validateFunc) *Verifier {
	return &Verifier{
		clientID: "test_client_id",
		validate: validate,
		logger:   slog.New(slog.NewTextHandler(io.Discard, nil)),
	}
}

func TestNewVerifier_RequiresClientID(t *testing.T) {
	_, err := NewVerifier(&config.Config{}, slog.Default())
	assert.Error(t, err)

	cfg := &config.Config{OAuth: &config.OAuthConfig{ClientID: "test_client_id"}}
	verifier, err := NewVerifier(cfg, slog.Default())
	require.NoError(t, err)
	assert.Equal(t, "google", verifier.Provider())
}

func TestVerifier_VerifyIDToken(t *testing.T) {
	var gotAudience string
	verifier := newTestVerifier(func(_ context.Context, idToken, audience string) (*idtoken.Payload, error) {
		gotAudience = audience

		return &idtoken.Payload{
			Subject: "google-sub-123",
			Claims: map[string]any{
				"email":          "ada@example.com",
				"name":           "Ada Lovelace",
				"picture":        "https://example.com/ada.png",
				"email_verified": true,
			},
		}, nil
	})

	profile, err := verifier.VerifyIDToken(context.Background(), "token")
	require.NoError(t, err)

	assert.Equal(t, "test_client_id", gotAudience)
	assert.Equal(t, "google-sub-123", profile.Subject)
	assert.Equal(t, "ada@example.com", profile.Email)
	assert.Equal(t, "Ada Lovelace", profile.Name)
	assert.Equal(t, "https://example.com/ada.png", profile.Picture)
	assert.True(t, profile.EmailVerified)
}

func TestVerifier_VerifyIDToken_Rejected(t *testing.T) {
	verifier := newTestVerifier(func(context.Context, string, string) (*idtoken.Payload, error) {
		return nil, errors.New("idtoken: audience provided does not match aud claim in the JWT")
	})

	profile, err := verifier.VerifyIDToken(context.Background(), "token")
	assert.Error(t, err)
	assert.Nil(t, profile)
	assert.Contains(t, err.Error(), "validate google id token")
}

func TestProfileFromClaims(t *testing.T) {
	profile := profileFromClaims("sub", map[string]any{
		"email":          "ada@example.com",
		"email_verified": "true",
		"name":           42,
	})

	assert.Equal(t, "ada@example.com", profile.Email)
	assert.True(t, profile.EmailVerified)
	assert.Empty(t, profile.Name)
	assert.Empty(t, profile.Picture)

	assert.False(t, profileFromClaims("sub", map[string]any{}).EmailVerified)
}
