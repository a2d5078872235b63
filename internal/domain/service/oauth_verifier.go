package service

import (
	"context"
)

// OAuthProfile is the identity asserted by a verified ID token.
type OAuthProfile struct {
	Subject       string // Provider-specific user ID ('sub' claim)
	Email         string
	Name          string
	Picture       string
	EmailVerified bool
}

// OAuthVerifier verifies ID tokens posted by clients that completed a
// provider sign-in flow in the browser.
type OAuthVerifier interface {
	VerifyIDToken(ctx context.Context, idToken string) (*OAuthProfile, error)

	// Provider names the token issuer, e.g. "google" or "firebase".
	Provider() string
}
