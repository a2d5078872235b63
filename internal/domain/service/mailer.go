package service

import "context"

// Mailer delivers password reset mail.
type Mailer interface {
	SendPasswordReset(ctx context.Context, to, username, resetURL string) error
	SendPasswordResetConfirmation(ctx context.Context, to, username string) error
}
