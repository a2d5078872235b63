// Package entity contains the core business objects of the project,
// each representing a unique, identifiable concept within the domain.
package entity

import (
	"time"

	"github.com/google/uuid"
)

// DefaultProfilePicture is assigned to accounts created without a picture.
const DefaultProfilePicture = "https://img.freepik.com/premium-vector/man-avatar-profile-picture-vector-illustration_268834-538.jpg"

// User is an account together with its single live session and any
// pending password reset. A user holds at most one refresh token; every
// issuance overwrites the previous one.
type User struct {
	ID                     uuid.UUID  // Stable account identifier, used as the access token subject.
	Username               string     // Unique handle.
	Email                  string     // Unique login identifier.
	PasswordHash           string     // bcrypt hash. OAuth-provisioned users get a random unusable one.
	ProfilePicture         string     // Avatar URL.
	RefreshToken           *string    // Live refresh token, nil when signed out.
	RefreshTokenExpiresAt  *time.Time // Expiry of RefreshToken, persisted with it.
	ResetPasswordToken     *string    // Set only while a reset is pending.
	ResetPasswordExpiresAt *time.Time
	CreatedAt              time.Time
	UpdatedAt              time.Time
}

// PublicUser is the view of a User safe to return to clients.
type PublicUser struct {
	ID             uuid.UUID `json:"id"`
	Username       string    `json:"username"`
	Email          string    `json:"email"`
	ProfilePicture string    `json:"profilePicture"`
	CreatedAt      time.Time `json:"createdAt"`
	UpdatedAt      time.Time `json:"updatedAt"`
}

// Public strips secrets and session state.
func (u *User) Public() *PublicUser {
	if u == nil {
		return nil
	}

	return &PublicUser{
		ID:             u.ID,
		Username:       u.Username,
		Email:          u.Email,
		ProfilePicture: u.ProfilePicture,
		CreatedAt:      u.CreatedAt,
		UpdatedAt:      u.UpdatedAt,
	}
}

// HasLiveRefreshToken reports whether token is the user's current, unexpired refresh token.
func (u *User) HasLiveRefreshToken(token string, now time.Time) bool {
	if u.RefreshToken == nil || u.RefreshTokenExpiresAt == nil {
		return false
	}

	return *u.RefreshToken == token && u.RefreshTokenExpiresAt.After(now)
}

// HasLiveResetToken reports whether token is the user's pending, unexpired reset token.
func (u *User) HasLiveResetToken(token string, now time.Time) bool {
	if u.ResetPasswordToken == nil || u.ResetPasswordExpiresAt == nil {
		return false
	}

	return *u.ResetPasswordToken == token && u.ResetPasswordExpiresAt.After(now)
}
