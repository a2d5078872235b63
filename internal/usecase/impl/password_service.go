package impl

import (
	"context"
	"log/slog"
	"net/url"
	"strings"
	"time"

	"authgate/config"
	deliverycontext "authgate/internal/delivery/context"
	"authgate/internal/domain/entity"
	domainerrors "authgate/internal/domain/errors"
	"authgate/internal/domain/repository"
	"authgate/internal/domain/service"
	"authgate/internal/usecase"

	"github.com/pkg/errors"
	"go.uber.org/fx"
)

const (
	defaultFrontendURL = "http://localhost:5173"
	resetPasswordPath  = "/reset-password"
)

// passwordService implements the PasswordUsecase interface.
type passwordService struct {
	userRepo     repository.UserRepository
	hasher       service.PasswordHasher
	tokenService service.TokenService
	mailer       service.Mailer
	publisher    service.EventPublisher
	frontendURL  string
	logger       *slog.Logger
	now          func() time.Time
}

// PasswordServiceParams holds dependencies for PasswordService, injected by Fx.
type PasswordServiceParams struct {
	fx.In

	UserRepo     repository.UserRepository
	Hasher       service.PasswordHasher
	TokenService service.TokenService
	Mailer       service.Mailer
	Publisher    service.EventPublisher
	Config       *config.Config
	Logger       *slog.Logger
}

// NewPasswordService is the constructor for passwordService.
func NewPasswordService(params PasswordServiceParams) usecase.PasswordUsecase {
	frontendURL := defaultFrontendURL
	if params.Config != nil && params.Config.PasswordReset != nil && params.Config.PasswordReset.FrontendURL != "" {
		frontendURL = params.Config.PasswordReset.FrontendURL
	}

	return &passwordService{
		userRepo:     params.UserRepo,
		hasher:       params.Hasher,
		tokenService: params.TokenService,
		mailer:       params.Mailer,
		publisher:    params.Publisher,
		frontendURL:  strings.TrimRight(frontendURL, "/"),
		logger:       params.Logger,
		now:          time.Now,
	}
}

func (srv *passwordService) log(ctx context.Context) *slog.Logger {
	return deliverycontext.GetLoggerOrDefault(ctx, srv.logger)
}

// RequestPasswordReset stores a fresh reset token and mails the link. A
// token whose mail could not be sent is cleared again.
func (srv *passwordService) RequestPasswordReset(ctx context.Context, email string) error {
	email = normalizeEmail(email)
	if email == "" {
		return errors.Wrap(domainerrors.ErrValidationFailed.WithDetails("email is required"), "password reset request failed")
	}

	user, err := srv.userRepo.FindByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, repository.ErrUserNotFound) {
			// Same response as a known account.
			srv.log(ctx).Info("Password reset requested for unknown email")

			return nil
		}

		return errors.Wrap(err, "failed to find user by email")
	}

	token, err := srv.tokenService.GenerateResetToken()
	if err != nil {
		return errors.Wrap(err, "failed to generate reset token")
	}

	if err := srv.userRepo.SaveResetToken(ctx, user.ID, token.Value, token.ExpiresAt); err != nil {
		return errors.Wrap(err, "failed to save reset token")
	}

	if err := srv.mailer.SendPasswordReset(ctx, user.Email, user.Username, srv.resetURL(token.Value)); err != nil {
		srv.log(ctx).Error("Failed to send password reset mail", slog.Any("user_id", user.ID), slog.Any("error", err))

		if clearErr := srv.userRepo.ClearResetToken(ctx, user.ID); clearErr != nil {
			srv.log(ctx).Error("Failed to clear undelivered reset token", slog.Any("user_id", user.ID), slog.Any("error", clearErr))
		}

		return errors.Wrap(domainerrors.ErrMailDeliveryFailed, "password reset request failed")
	}
	srv.log(ctx).Info("Password reset mail sent", slog.Any("user_id", user.ID))

	publishAuthEvent(ctx, srv.publisher, srv.log(ctx), entity.AuthEventPasswordResetRequested, user, srv.now())

	return nil
}

// VerifyResetToken returns the email of the live token's holder.
func (srv *passwordService) VerifyResetToken(ctx context.Context, token string) (string, error) {
	if token == "" {
		return "", errors.Wrap(domainerrors.ErrResetTokenInvalid, "verify reset token failed")
	}

	user, err := srv.userRepo.FindByResetToken(ctx, token, srv.now())
	if err != nil {
		if errors.Is(err, repository.ErrResetTokenNotFound) {
			return "", errors.Wrap(domainerrors.ErrResetTokenInvalid, "verify reset token failed")
		}

		return "", errors.Wrap(err, "failed to find user by reset token")
	}

	return user.Email, nil
}

// ResetPassword sets a new password if the token is still live and clears it.
func (srv *passwordService) ResetPassword(ctx context.Context, input *usecase.ResetPasswordInput) error {
	if input.Token == "" || input.Password == "" || input.ConfirmPassword == "" {
		return errors.Wrap(
			domainerrors.ErrValidationFailed.WithDetails("token, password and confirmPassword are required"),
			"password reset failed",
		)
	}

	if input.Password != input.ConfirmPassword {
		return errors.Wrap(domainerrors.ErrPasswordMismatch, "password reset failed")
	}

	if err := srv.hasher.ValidatePasswordStrength(input.Password); err != nil {
		return errors.Wrap(err, "password reset failed")
	}

	hash, err := srv.hasher.Hash(input.Password)
	if err != nil {
		return errors.Wrap(err, "failed to hash password")
	}

	user, err := srv.userRepo.ConsumeResetToken(ctx, input.Token, srv.now(), hash)
	if err != nil {
		if errors.Is(err, repository.ErrResetTokenNotFound) {
			return errors.Wrap(domainerrors.ErrResetTokenInvalid, "password reset failed")
		}

		return errors.Wrap(err, "failed to consume reset token")
	}
	srv.log(ctx).Info("Password reset", slog.Any("user_id", user.ID))

	if err := srv.mailer.SendPasswordResetConfirmation(ctx, user.Email, user.Username); err != nil {
		srv.log(ctx).Warn("Failed to send password reset confirmation", slog.Any("user_id", user.ID), slog.Any("error", err))
	}

	publishAuthEvent(ctx, srv.publisher, srv.log(ctx), entity.AuthEventPasswordReset, user, srv.now())

	return nil
}

func (srv *passwordService) resetURL(token string) string {
	return srv.frontendURL + resetPasswordPath + "?token=" + url.QueryEscape(token)
}
