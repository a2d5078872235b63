// Package model holds the gorm persistence models.
package model

import (
	"time"

	"github.com/google/uuid"
)

// UserModel mirrors the 'users' table created by the goose migrations.
type UserModel struct {
	ID                     uuid.UUID `gorm:"type:uuid;primaryKey"`
	Username               string    `gorm:"type:varchar(100);uniqueIndex:users_username_key;not null"`
	Email                  string    `gorm:"type:varchar(255);uniqueIndex:users_email_key;not null"`
	PasswordHash           string    `gorm:"type:varchar(255);not null"`
	ProfilePicture         string    `gorm:"type:text;not null"`
	RefreshToken           *string   `gorm:"type:varchar(128)"`
	RefreshTokenExpiresAt  *time.Time
	ResetPasswordToken     *string `gorm:"type:varchar(128)"`
	ResetPasswordExpiresAt *time.Time
	CreatedAt              time.Time
	UpdatedAt              time.Time
}

// TableName explicitly sets the table name for GORM.
func (UserModel) TableName() string {
	return "users"
}
