// Package google verifies Google Sign-In ID tokens.
package google

import (
	"context"
	"log/slog"

	"authgate/config"
	"authgate/internal/domain/service"
	"authgate/internal/errors"

	"google.golang.org/api/idtoken"
)

const providerName = "google"

type validateFunc func(ctx context.Context, idToken, audience string) (*idtoken.Payload, error)

// Verifier checks ID token signatures against Google's published keys and
// that the audience is the configured client ID.
type Verifier struct {
	clientID string
	validate validateFunc
	logger   *slog.Logger
}

// NewVerifier creates a Google ID token verifier.
func NewVerifier(cfg *config.Config, logger *slog.Logger) (service.OAuthVerifier, error) {
	if cfg.OAuth == nil || cfg.OAuth.ClientID == "" {
		return nil, errors.New("oauth.clientId is required for the google provider")
	}

	return &Verifier{
		clientID: cfg.OAuth.ClientID,
		validate: idtoken.Validate,
		logger:   logger,
	}, nil
}

// VerifyIDToken implements service.OAuthVerifier.
func (v *Verifier) VerifyIDToken(ctx context.Context, idToken string) (*service.OAuthProfile, error) {
	payload, err := v.validate(ctx, idToken, v.clientID)
	if err != nil {
		v.logger.Warn("Google ID token rejected", slog.Any("error", err))

		return nil, errors.Wrap(err, "validate google id token")
	}

	profile := profileFromClaims(payload.Subject, payload.Claims)

	v.logger.Debug("Google ID token verified",
		slog.String("subject", profile.Subject),
		slog.String("email", profile.Email))

	return profile, nil
}

func (v *Verifier) Provider() string {
	return providerName
}

// profileFromClaims maps standard OIDC claims. Missing or mistyped claims are left empty.
func profileFromClaims(subject string, claims map[string]any) *service.OAuthProfile {
	profile := &service.OAuthProfile{Subject: subject}

	profile.Email, _ = claims["email"].(string)
	profile.Name, _ = claims["name"].(string)
	profile.Picture, _ = claims["picture"].(string)

	switch verified := claims["email_verified"].(type) {
	case bool:
		profile.EmailVerified = verified
	case string:
		profile.EmailVerified = verified == "true"
	}

	return profile
}
