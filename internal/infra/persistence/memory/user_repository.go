// Package memory is an in-process user store for development and tests.
// State is lost on restart.
package memory

import (
	"context"
	"sync"
	"time"

	"authgate/internal/domain/entity"
	"authgate/internal/domain/repository"
	"authgate/internal/errors"

	"github.com/google/uuid"
)

type userRepository struct {
	mu    sync.Mutex
	users map[uuid.UUID]*entity.User
	now   func() time.Time
}

// NewUserRepository returns an empty store.
func NewUserRepository() repository.UserRepository {
	return &userRepository{
		users: make(map[uuid.UUID]*entity.User),
		now:   time.Now,
	}
}

func (r *userRepository) FindByID(_ context.Context, id uuid.UUID) (*entity.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	user, ok := r.users[id]
	if !ok {
		return nil, repository.ErrUserNotFound
	}

	return cloneUser(user), nil
}

func (r *userRepository) FindByEmail(_ context.Context, email string) (*entity.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	user := r.find(func(u *entity.User) bool { return u.Email == email })
	if user == nil {
		return nil, repository.ErrUserNotFound
	}

	return cloneUser(user), nil
}

func (r *userRepository) FindByResetToken(_ context.Context, token string, now time.Time) (*entity.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	user := r.find(func(u *entity.User) bool { return u.HasLiveResetToken(token, now) })
	if user == nil {
		return nil, repository.ErrResetTokenNotFound
	}

	return cloneUser(user), nil
}

func (r *userRepository) Create(_ context.Context, user *entity.User) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.find(func(u *entity.User) bool { return u.Email == user.Email }) != nil {
		return repository.ErrEmailTaken
	}

	if r.find(func(u *entity.User) bool { return u.Username == user.Username }) != nil {
		return repository.ErrUsernameTaken
	}

	if user.ID == uuid.Nil {
		id, err := uuid.NewV7()
		if err != nil {
			return errors.Wrap(err, "generate user id")
		}
		user.ID = id
	} else if _, exists := r.users[user.ID]; exists {
		return repository.ErrDuplicateUser
	}

	now := r.now()
	if user.CreatedAt.IsZero() {
		user.CreatedAt = now
	}
	user.UpdatedAt = now

	r.users[user.ID] = cloneUser(user)

	return nil
}

func (r *userRepository) SaveRefreshToken(_ context.Context, userID uuid.UUID, token string, expiresAt time.Time) error {
	return r.mutateByID(userID, func(u *entity.User) {
		u.RefreshToken = &token
		u.RefreshTokenExpiresAt = &expiresAt
	})
}

// RotateRefreshToken compares and swaps under the store lock.
func (r *userRepository) RotateRefreshToken(_ context.Context, presented, next string, nextExpiresAt, now time.Time) (*entity.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	user := r.find(func(u *entity.User) bool { return u.HasLiveRefreshToken(presented, now) })
	if user == nil {
		return nil, repository.ErrRefreshTokenNotFound
	}

	user.RefreshToken = &next
	user.RefreshTokenExpiresAt = &nextExpiresAt
	user.UpdatedAt = r.now()

	return cloneUser(user), nil
}

func (r *userRepository) ClearRefreshToken(_ context.Context, token string) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	user := r.find(func(u *entity.User) bool { return u.RefreshToken != nil && *u.RefreshToken == token })
	if user == nil {
		return false, nil
	}

	user.RefreshToken = nil
	user.RefreshTokenExpiresAt = nil
	user.UpdatedAt = r.now()

	return true, nil
}

func (r *userRepository) SaveResetToken(_ context.Context, userID uuid.UUID, token string, expiresAt time.Time) error {
	return r.mutateByID(userID, func(u *entity.User) {
		u.ResetPasswordToken = &token
		u.ResetPasswordExpiresAt = &expiresAt
	})
}

func (r *userRepository) ClearResetToken(_ context.Context, userID uuid.UUID) error {
	return r.mutateByID(userID, func(u *entity.User) {
		u.ResetPasswordToken = nil
		u.ResetPasswordExpiresAt = nil
	})
}

func (r *userRepository) ConsumeResetToken(_ context.Context, token string, now time.Time, passwordHash string) (*entity.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	user := r.find(func(u *entity.User) bool { return u.HasLiveResetToken(token, now) })
	if user == nil {
		return nil, repository.ErrResetTokenNotFound
	}

	user.PasswordHash = passwordHash
	user.ResetPasswordToken = nil
	user.ResetPasswordExpiresAt = nil
	user.UpdatedAt = r.now()

	return cloneUser(user), nil
}

// find must be called with r.mu held.
func (r *userRepository) find(match func(*entity.User) bool) *entity.User {
	for _, user := range r.users {
		if match(user) {
			return user
		}
	}

	return nil
}

func (r *userRepository) mutateByID(userID uuid.UUID, mutate func(*entity.User)) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	user, ok := r.users[userID]
	if !ok {
		return repository.ErrUserNotFound
	}

	mutate(user)
	user.UpdatedAt = r.now()

	return nil
}

// cloneUser copies the user and its optional fields so callers cannot alias store state.
func cloneUser(u *entity.User) *entity.User {
	c := *u
	c.RefreshToken = clonePtr(u.RefreshToken)
	c.RefreshTokenExpiresAt = clonePtr(u.RefreshTokenExpiresAt)
	c.ResetPasswordToken = clonePtr(u.ResetPasswordToken)
	c.ResetPasswordExpiresAt = clonePtr(u.ResetPasswordExpiresAt)

	return &c
}

func clonePtr[T any](p *T) *T {
	if p == nil {
		return nil
	}
	v := *p

	return &v
}
