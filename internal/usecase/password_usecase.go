package usecase

import "context"

// ResetPasswordInput defines the data required to complete a password reset.
type ResetPasswordInput struct {
	Token           string
	Password        string
	ConfirmPassword string
}

// PasswordUsecase drives the emailed reset-link flow.
type PasswordUsecase interface {
	// RequestPasswordReset mails a reset link. Unknown emails succeed silently.
	RequestPasswordReset(ctx context.Context, email string) error

	// VerifyResetToken returns the email of the account a live token belongs to.
	VerifyResetToken(ctx context.Context, token string) (string, error)

	ResetPassword(ctx context.Context, input *ResetPasswordInput) error
}
