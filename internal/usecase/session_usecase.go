// Package usecase contains the application-specific business rules.
// It orchestrates the domain layer to perform tasks.
package usecase

import (
	"context"

	"authgate/internal/domain/entity"
)

// --- Input DTOs ---

// SignUpInput defines the data required to create an account.
type SignUpInput struct {
	Username string
	Email    string
	Password string
}

// SignInInput defines the data required for a password sign-in.
type SignInInput struct {
	Email    string
	Password string
}

// OAuthSignInInput carries what the browser posts after a provider sign-in.
// IDToken is verified when a provider is configured; the profile fields are
// only trusted when none is.
type OAuthSignInInput struct {
	IDToken string
	Email   string
	Name    string
	Photo   string
}

// --- Output DTOs ---

// SessionOutput is a freshly issued session for User.
type SessionOutput struct {
	User        *entity.User
	Credentials entity.Credentials
}

// SessionUsecase issues, rotates and revokes dual-token sessions.
type SessionUsecase interface {
	SignUp(ctx context.Context, input *SignUpInput) (*entity.User, error)
	SignIn(ctx context.Context, input *SignInInput) (*SessionOutput, error)
	OAuthSignIn(ctx context.Context, input *OAuthSignInInput) (*SessionOutput, error)

	// Refresh exchanges a live refresh token for a new pair. The presented
	// token stops working whether or not the caller receives the response.
	Refresh(ctx context.Context, refreshToken string) (*SessionOutput, error)

	// SignOut revokes the session holding refreshToken. It always succeeds from
	// the caller's point of view.
	SignOut(ctx context.Context, refreshToken string)
}
