// Package firebase verifies Firebase Authentication ID tokens.
package firebase

import (
	"context"
	"fmt"
	"log/slog"

	"authgate/config"
	"authgate/internal/domain/service"

	firebase "firebase.google.com/go/v4"
	"firebase.google.com/go/v4/auth"
	"google.golang.org/api/option"
)

const providerName = "firebase"

// idTokenVerifier is the subset of *auth.Client used here.
type idTokenVerifier interface {
	VerifyIDToken(ctx context.Context, idToken string) (*auth.Token, error)
}

type firebaseVerifier struct {
	client idTokenVerifier
	logger *slog.Logger
}

// NewVerifier initializes a Firebase app and its auth client.
func NewVerifier(ctx context.Context, cfg *config.Config, logger *slog.Logger) (service.OAuthVerifier, error) {
	var opts []option.ClientOption
	var appCfg *firebase.Config

	if cfg.OAuth != nil {
		if cfg.OAuth.CredentialsPath != "" {
			opts = append(opts, option.WithCredentialsFile(cfg.OAuth.CredentialsPath))
		}
		if cfg.OAuth.ProjectID != "" {
			appCfg = &firebase.Config{ProjectID: cfg.OAuth.ProjectID}
		}
	}

	app, err := firebase.NewApp(ctx, appCfg, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize Firebase app: %w", err)
	}

	client, err := app.Auth(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to get auth client: %w", err)
	}

	return &firebaseVerifier{
		client: client,
		logger: logger,
	}, nil
}

func (v *firebaseVerifier) VerifyIDToken(ctx context.Context, idToken string) (*service.OAuthProfile, error) {
	token, err := v.client.VerifyIDToken(ctx, idToken)
	if err != nil {
		v.logger.Warn("Firebase ID token rejected", slog.Any("error", err))

		return nil, fmt.Errorf("failed to verify firebase id token: %w", err)
	}

	return profileFromToken(token), nil
}

func (v *firebaseVerifier) Provider() string {
	return providerName
}

func profileFromToken(token *auth.Token) *service.OAuthProfile {
	profile := &service.OAuthProfile{Subject: token.UID}

	profile.Email, _ = token.Claims["email"].(string)
	profile.Name, _ = token.Claims["name"].(string)
	profile.Picture, _ = token.Claims["picture"].(string)
	profile.EmailVerified, _ = token.Claims["email_verified"].(bool)

	return profile
}
