package impl

import (
	"context"
	"io"
	"log/slog"
	"testing"

	"authgate/config"
	"authgate/internal/domain/entity"
	"authgate/internal/domain/repository"
	"authgate/internal/domain/service"
	"authgate/internal/infra/auth"
	"authgate/internal/infra/persistence/memory"

	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

func newDiscardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func newTestConfig() *config.Config {
	cfg := &config.Config{
		Auth:             &config.AuthConfig{BcryptCost: bcrypt.MinCost},
		PasswordStrength: &config.PasswordStrengthConfig{MinLength: 6, MaxLength: 72},
		PasswordReset:    &config.PasswordResetConfig{FrontendURL: "https://app.example.com/"},
		OAuth:            &config.OAuthConfig{UsernameRetries: 3},
	}
	cfg.SecretKey.Access = "test-secret"

	return cfg
}

type mockMailer struct {
	mock.Mock
}

func (m *mockMailer) SendPasswordReset(ctx context.Context, to, username, resetURL string) error {
	args := m.Called(ctx, to, username, resetURL)

	return args.Error(0)
}

func (m *mockMailer) SendPasswordResetConfirmation(ctx context.Context, to, username string) error {
	args := m.Called(ctx, to, username)

	return args.Error(0)
}

type mockPublisher struct {
	mock.Mock
}

func (m *mockPublisher) PublishAuthEvent(ctx context.Context, event *entity.AuthEvent) error {
	args := m.Called(ctx, event)

	return args.Error(0)
}

func (m *mockPublisher) Close() error {
	return nil
}

func eventOfType(eventType entity.AuthEventType) any {
	return mock.MatchedBy(func(event *entity.AuthEvent) bool {
		return event.Type == eventType
	})
}

// stubVerifier returns a fixed profile or error for every ID token.
type stubVerifier struct {
	profile *service.OAuthProfile
	err     error
}

func (v *stubVerifier) VerifyIDToken(_ context.Context, _ string) (*service.OAuthProfile, error) {
	return v.profile, v.err
}

func (v *stubVerifier) Provider() string {
	return "stub"
}

type serviceFixtures struct {
	cfg       *config.Config
	repo      repository.UserRepository
	hasher    service.PasswordHasher
	tokens    service.TokenService
	mailer    *mockMailer
	publisher *mockPublisher
}

func newServiceFixtures(t *testing.T) *serviceFixtures {
	t.Helper()

	cfg := newTestConfig()
	tokens, err := auth.NewJWTService(cfg)
	require.NoError(t, err)

	f := &serviceFixtures{
		cfg:       cfg,
		repo:      memory.NewUserRepository(),
		hasher:    auth.NewBcryptHasher(cfg),
		tokens:    tokens,
		mailer:    &mockMailer{},
		publisher: &mockPublisher{},
	}
	t.Cleanup(func() {
		f.mailer.AssertExpectations(t)
		f.publisher.AssertExpectations(t)
	})

	return f
}

// allowAnyEvent accepts events the test does not assert on.
func (f *serviceFixtures) allowAnyEvent() {
	f.publisher.On("PublishAuthEvent", mock.Anything, mock.Anything).Return(nil).Maybe()
}

func (f *serviceFixtures) sessionService(verifier service.OAuthVerifier) *sessionService {
	return NewSessionService(SessionServiceParams{
		UserRepo:      f.repo,
		Hasher:        f.hasher,
		TokenService:  f.tokens,
		OAuthVerifier: verifier,
		Publisher:     f.publisher,
		Config:        f.cfg,
		Logger:        newDiscardLogger(),
	}).(*sessionService)
}

func (f *serviceFixtures) passwordService() *passwordService {
	return NewPasswordService(PasswordServiceParams{
		UserRepo:     f.repo,
		Hasher:       f.hasher,
		TokenService: f.tokens,
		Mailer:       f.mailer,
		Publisher:    f.publisher,
		Config:       f.cfg,
		Logger:       newDiscardLogger(),
	}).(*passwordService)
}

// seedUser stores an account whose password is "password123".
func (f *serviceFixtures) seedUser(t *testing.T, username, email string) *entity.User {
	t.Helper()

	hash, err := f.hasher.Hash("password123")
	require.NoError(t, err)

	user := &entity.User{Username: username, Email: email, PasswordHash: hash}
	require.NoError(t, f.repo.Create(context.Background(), user))

	return user
}
