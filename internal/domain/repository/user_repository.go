// Package repository defines the interfaces for the persistence layer.
// These interfaces act as a contract between the domain/application layers and the infrastructure layer.
package repository

import (
	"context"
	"errors"
	"time"

	"authgate/internal/domain/entity"

	"github.com/google/uuid"
)

var (
	// ErrUserNotFound is returned when no user matches a lookup.
	ErrUserNotFound = errors.New("user not found")

	// ErrEmailTaken and ErrUsernameTaken report which unique key a Create collided on.
	ErrEmailTaken    = errors.New("email already taken")
	ErrUsernameTaken = errors.New("username already taken")

	// ErrDuplicateUser is returned when a store cannot tell which unique key collided.
	ErrDuplicateUser = errors.New("duplicate user")

	// ErrRefreshTokenNotFound is returned when no user holds the presented, unexpired refresh token.
	ErrRefreshTokenNotFound = errors.New("refresh token not found")

	// ErrResetTokenNotFound is returned when no user holds the presented, unexpired reset token.
	ErrResetTokenNotFound = errors.New("reset token not found")
)

// UserRepository persists accounts and their session state. Every mutation
// that depends on the current token value is a single conditional update,
// so concurrent callers presenting the same token cannot both succeed.
type UserRepository interface {
	FindByID(ctx context.Context, id uuid.UUID) (*entity.User, error)
	FindByEmail(ctx context.Context, email string) (*entity.User, error)

	// Create persists a new user. ID and timestamps are filled in when zero.
	Create(ctx context.Context, user *entity.User) error

	// SaveRefreshToken overwrites the user's refresh token unconditionally.
	SaveRefreshToken(ctx context.Context, userID uuid.UUID, token string, expiresAt time.Time) error

	// RotateRefreshToken swaps presented for next if presented is the live
	// token of some user at now, and returns that user after the update.
	RotateRefreshToken(ctx context.Context, presented, next string, nextExpiresAt, now time.Time) (*entity.User, error)

	// ClearRefreshToken removes token from whichever user holds it and reports
	// whether a user matched. No match is not an error.
	ClearRefreshToken(ctx context.Context, token string) (bool, error)

	SaveResetToken(ctx context.Context, userID uuid.UUID, token string, expiresAt time.Time) error
	ClearResetToken(ctx context.Context, userID uuid.UUID) error

	// FindByResetToken returns the holder of a live reset token.
	FindByResetToken(ctx context.Context, token string, now time.Time) (*entity.User, error)

	// ConsumeResetToken sets passwordHash and clears the reset fields if token
	// is live at now. It returns the updated user.
	ConsumeResetToken(ctx context.Context, token string, now time.Time, passwordHash string) (*entity.User, error)
}
