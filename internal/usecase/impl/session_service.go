// Package impl contains the application-specific business rules implementations.
package impl

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"log/slog"
	"strings"
	"time"
	"unicode"

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
	defaultUsernameRetries = 5
	usernameSuffixLength   = 8
	unusablePasswordBytes  = 24
	base36Alphabet         = "0123456789abcdefghijklmnopqrstuvwxyz"
)

// sessionService implements the SessionUsecase interface.
type sessionService struct {
	userRepo        repository.UserRepository
	hasher          service.PasswordHasher
	tokenService    service.TokenService
	oauthVerifier   service.OAuthVerifier
	publisher       service.EventPublisher
	usernameRetries int
	logger          *slog.Logger
	now             func() time.Time
}

// SessionServiceParams holds dependencies for SessionService, injected by Fx.
type SessionServiceParams struct {
	fx.In

	UserRepo      repository.UserRepository
	Hasher        service.PasswordHasher
	TokenService  service.TokenService
	OAuthVerifier service.OAuthVerifier `optional:"true"`
	Publisher     service.EventPublisher
	Config        *config.Config
	Logger        *slog.Logger
}

// NewSessionService is the constructor for sessionService.
func NewSessionService(params SessionServiceParams) usecase.SessionUsecase {
	retries := defaultUsernameRetries
	if params.Config != nil && params.Config.OAuth != nil && params.Config.OAuth.UsernameRetries > 0 {
		retries = params.Config.OAuth.UsernameRetries
	}

	return &sessionService{
		userRepo:        params.UserRepo,
		hasher:          params.Hasher,
		tokenService:    params.TokenService,
		oauthVerifier:   params.OAuthVerifier,
		publisher:       params.Publisher,
		usernameRetries: retries,
		logger:          params.Logger,
		now:             time.Now,
	}
}

// log returns a request-scoped logger if available, otherwise falls back to the service's logger.
func (srv *sessionService) log(ctx context.Context) *slog.Logger {
	return deliverycontext.GetLoggerOrDefault(ctx, srv.logger)
}

// SignUp creates an account. It does not start a session.
func (srv *sessionService) SignUp(ctx context.Context, input *usecase.SignUpInput) (*entity.User, error) {
	email := normalizeEmail(input.Email)
	srv.log(ctx).Debug("Starting sign up", slog.String("email", email))

	if err := srv.hasher.ValidatePasswordStrength(input.Password); err != nil {
		return nil, errors.Wrap(err, "sign up failed")
	}

	hash, err := srv.hasher.Hash(input.Password)
	if err != nil {
		return nil, errors.Wrap(err, "failed to hash password")
	}

	user := &entity.User{
		Username:       strings.TrimSpace(input.Username),
		Email:          email,
		PasswordHash:   hash,
		ProfilePicture: entity.DefaultProfilePicture,
	}

	if err := srv.userRepo.Create(ctx, user); err != nil {
		if isDuplicateUser(err) {
			srv.log(ctx).Info("Sign up rejected, account exists", slog.String("email", email))

			return nil, errors.Wrap(domainerrors.ErrUserAlreadyExists, "sign up failed")
		}

		return nil, errors.Wrap(err, "failed to create user")
	}
	srv.log(ctx).Info("User signed up", slog.Any("user_id", user.ID))

	publishAuthEvent(ctx, srv.publisher, srv.log(ctx), entity.AuthEventSignedUp, user, srv.now())

	return user, nil
}

// SignIn checks a password and starts a new session, replacing any previous one.
func (srv *sessionService) SignIn(ctx context.Context, input *usecase.SignInInput) (*usecase.SessionOutput, error) {
	email := normalizeEmail(input.Email)
	srv.log(ctx).Debug("Starting sign in", slog.String("email", email))

	user, err := srv.userRepo.FindByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, repository.ErrUserNotFound) {
			srv.log(ctx).Warn("Sign in failed", slog.String("email", email), slog.Any("error", err))

			return nil, errors.Wrap(domainerrors.ErrUserNotFound, "sign in failed")
		}

		return nil, errors.Wrap(err, "failed to find user by email")
	}

	// bcrypt is CPU-bound; no store call is held open across it.
	if !srv.hasher.Check(input.Password, user.PasswordHash) {
		srv.log(ctx).Warn("Sign in failed", slog.String("email", email), slog.Any("error", domainerrors.ErrInvalidCredentials))

		return nil, errors.Wrap(domainerrors.ErrInvalidCredentials, "sign in failed")
	}

	creds, err := srv.startSession(ctx, user)
	if err != nil {
		return nil, err
	}
	srv.log(ctx).Info("User signed in", slog.Any("user_id", user.ID))

	publishAuthEvent(ctx, srv.publisher, srv.log(ctx), entity.AuthEventSignedIn, user, srv.now())

	return &usecase.SessionOutput{User: user, Credentials: creds}, nil
}

// OAuthSignIn signs in the account matching a provider identity, provisioning it on first use.
func (srv *sessionService) OAuthSignIn(ctx context.Context, input *usecase.OAuthSignInInput) (*usecase.SessionOutput, error) {
	profile, err := srv.resolveOAuthProfile(ctx, input)
	if err != nil {
		return nil, err
	}

	user, err := srv.findOrProvisionOAuthUser(ctx, profile)
	if err != nil {
		return nil, err
	}

	creds, err := srv.startSession(ctx, user)
	if err != nil {
		return nil, err
	}
	srv.log(ctx).Info("User signed in with OAuth", slog.Any("user_id", user.ID))

	publishAuthEvent(ctx, srv.publisher, srv.log(ctx), entity.AuthEventSignedIn, user, srv.now())

	return &usecase.SessionOutput{User: user, Credentials: creds}, nil
}

func (srv *sessionService) resolveOAuthProfile(ctx context.Context, input *usecase.OAuthSignInInput) (*service.OAuthProfile, error) {
	if srv.oauthVerifier == nil {
		srv.log(ctx).Warn("No OAuth verifier configured, trusting client-supplied profile")

		email := normalizeEmail(input.Email)
		if email == "" {
			return nil, errors.Wrap(domainerrors.ErrValidationFailed.WithDetails("email is required"), "oauth sign in failed")
		}

		return &service.OAuthProfile{
			Email:         email,
			Name:          input.Name,
			Picture:       input.Photo,
			EmailVerified: true,
		}, nil
	}

	if input.IDToken == "" {
		return nil, errors.Wrap(domainerrors.ErrValidationFailed.WithDetails("idToken is required"), "oauth sign in failed")
	}

	profile, err := srv.oauthVerifier.VerifyIDToken(ctx, input.IDToken)
	if err != nil {
		srv.log(ctx).Warn("ID token rejected",
			slog.String("provider", srv.oauthVerifier.Provider()),
			slog.Any("error", err),
		)

		return nil, errors.Wrap(domainerrors.ErrOAuthTokenInvalid, "oauth sign in failed")
	}

	if !profile.EmailVerified || profile.Email == "" {
		return nil, errors.Wrap(domainerrors.ErrOAuthTokenInvalid.WithDetails("email is not verified"), "oauth sign in failed")
	}
	profile.Email = normalizeEmail(profile.Email)

	return profile, nil
}

func (srv *sessionService) findOrProvisionOAuthUser(ctx context.Context, profile *service.OAuthProfile) (*entity.User, error) {
	existing, err := srv.userRepo.FindByEmail(ctx, profile.Email)
	if err == nil {
		return existing, nil
	}

	if !errors.Is(err, repository.ErrUserNotFound) {
		return nil, errors.Wrap(err, "failed to find user by email")
	}

	password, err := randomHex(unusablePasswordBytes)
	if err != nil {
		return nil, errors.Wrap(err, "failed to generate password")
	}

	hash, err := srv.hasher.Hash(password)
	if err != nil {
		return nil, errors.Wrap(err, "failed to hash password")
	}

	picture := profile.Picture
	if picture == "" {
		picture = entity.DefaultProfilePicture
	}

	base := usernameBase(profile.Name, profile.Email)

	for attempt := 1; attempt <= srv.usernameRetries; attempt++ {
		suffix, err := randomBase36(usernameSuffixLength)
		if err != nil {
			return nil, errors.Wrap(err, "failed to generate username")
		}

		user := &entity.User{
			Username:       base + suffix,
			Email:          profile.Email,
			PasswordHash:   hash,
			ProfilePicture: picture,
		}

		err = srv.userRepo.Create(ctx, user)
		switch {
		case err == nil:
			srv.log(ctx).Info("Provisioned OAuth user", slog.Any("user_id", user.ID))
			publishAuthEvent(ctx, srv.publisher, srv.log(ctx), entity.AuthEventSignedUp, user, srv.now())

			return user, nil
		case errors.Is(err, repository.ErrEmailTaken), errors.Is(err, repository.ErrDuplicateUser):
			// Lost a race with another provision for the same email, or the
			// store could not say which key collided.
			existing, findErr := srv.userRepo.FindByEmail(ctx, profile.Email)
			if findErr == nil {
				return existing, nil
			}

			if !errors.Is(findErr, repository.ErrUserNotFound) {
				return nil, errors.Wrap(findErr, "failed to find user by email")
			}
		case errors.Is(err, repository.ErrUsernameTaken):
		default:
			return nil, errors.Wrap(err, "failed to create user")
		}

		srv.log(ctx).Debug("Username collision, retrying", slog.Int("attempt", attempt))
	}

	return nil, errors.Wrap(domainerrors.ErrUserAlreadyExists, "exhausted username retries")
}

// startSession issues a pair and persists the refresh token, overwriting the previous one.
func (srv *sessionService) startSession(ctx context.Context, user *entity.User) (entity.Credentials, error) {
	access, err := srv.tokenService.GenerateAccessToken(user.ID)
	if err != nil {
		return entity.Credentials{}, errors.Wrap(err, "failed to generate access token")
	}

	refresh, err := srv.tokenService.GenerateRefreshToken()
	if err != nil {
		return entity.Credentials{}, errors.Wrap(err, "failed to generate refresh token")
	}

	if err := srv.userRepo.SaveRefreshToken(ctx, user.ID, refresh.Value, refresh.ExpiresAt); err != nil {
		return entity.Credentials{}, errors.Wrap(err, "failed to save refresh token")
	}

	return entity.Credentials{Access: access, Refresh: refresh}, nil
}

// Refresh rotates the presented refresh token in one conditional store update.
func (srv *sessionService) Refresh(ctx context.Context, refreshToken string) (*usecase.SessionOutput, error) {
	if refreshToken == "" {
		return nil, errors.Wrap(domainerrors.ErrRefreshTokenMissing, "refresh failed")
	}

	next, err := srv.tokenService.GenerateRefreshToken()
	if err != nil {
		return nil, errors.Wrap(err, "failed to generate refresh token")
	}

	user, err := srv.userRepo.RotateRefreshToken(ctx, refreshToken, next.Value, next.ExpiresAt, srv.now())
	if err != nil {
		if errors.Is(err, repository.ErrRefreshTokenNotFound) {
			srv.log(ctx).Warn("Refresh rejected, token unknown, expired or already rotated")

			return nil, errors.Wrap(domainerrors.ErrRefreshTokenInvalid, "refresh failed")
		}

		srv.log(ctx).Error("Failed to rotate refresh token", slog.Any("error", err))

		return nil, errors.Wrap(err, "failed to rotate refresh token")
	}

	access, err := srv.tokenService.GenerateAccessToken(user.ID)
	if err != nil {
		return nil, errors.Wrap(err, "failed to generate access token")
	}
	srv.log(ctx).Debug("Session refreshed", slog.Any("user_id", user.ID))

	publishAuthEvent(ctx, srv.publisher, srv.log(ctx), entity.AuthEventRefreshed, user, srv.now())

	return &usecase.SessionOutput{
		User:        user,
		Credentials: entity.Credentials{Access: access, Refresh: next},
	}, nil
}

// SignOut clears the stored refresh token. Store failures are logged and swallowed.
func (srv *sessionService) SignOut(ctx context.Context, refreshToken string) {
	if refreshToken == "" {
		return
	}

	matched, err := srv.userRepo.ClearRefreshToken(ctx, refreshToken)
	if err != nil {
		srv.log(ctx).Error("Failed to clear refresh token", slog.Any("error", err))

		return
	}

	if !matched {
		srv.log(ctx).Debug("Sign out with unknown refresh token")

		return
	}
	srv.log(ctx).Info("User signed out")

	publishAuthEvent(ctx, srv.publisher, srv.log(ctx), entity.AuthEventSignedOut, nil, srv.now())
}

func isDuplicateUser(err error) bool {
	return errors.Is(err, repository.ErrEmailTaken) ||
		errors.Is(err, repository.ErrUsernameTaken) ||
		errors.Is(err, repository.ErrDuplicateUser)
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// usernameBase is the lowercased display name without whitespace, or the
// email local part when the name has no usable characters.
func usernameBase(name, email string) string {
	base := strings.Map(func(r rune) rune {
		if unicode.IsSpace(r) {
			return -1
		}

		return unicode.ToLower(r)
	}, name)

	if base == "" {
		base, _, _ = strings.Cut(email, "@")
	}

	return base
}

func randomBase36(n int) (string, error) {
	buf := make([]byte, n)
	if _, err := rand.Read(buf); err != nil {
		return "", errors.Wrap(err, "read random bytes")
	}

	for i, b := range buf {
		buf[i] = base36Alphabet[int(b)%len(base36Alphabet)]
	}

	return string(buf), nil
}

func randomHex(n int) (string, error) {
	buf := make([]byte, n)
	if _, err := rand.Read(buf); err != nil {
		return "", errors.Wrap(err, "read random bytes")
	}

	return hex.EncodeToString(buf), nil
}
