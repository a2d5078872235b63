// Package postgres contains the concrete implementation of the persistence layer using GORM and PostgreSQL.
package postgres

import (
	"context"
	"time"

	"authgate/internal/domain/entity"
	domainerrors "authgate/internal/domain/errors"
	"authgate/internal/domain/repository"
	"authgate/internal/infra/persistence/model"

	"github.com/google/uuid"
	"github.com/pkg/errors"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// userRepository implements repository.UserRepository with GORM.
type userRepository struct {
	db *gorm.DB
}

// NewUserRepository is the constructor for userRepository.
func NewUserRepository(db *gorm.DB) repository.UserRepository {
	return &userRepository{db: db}
}

func (repo *userRepository) FindByID(ctx context.Context, id uuid.UUID) (*entity.User, error) {
	return repo.first(ctx, "failed to find user by id", "id = ?", id)
}

func (repo *userRepository) FindByEmail(ctx context.Context, email string) (*entity.User, error) {
	return repo.first(ctx, "failed to find user by email", "email = ?", email)
}

func (repo *userRepository) FindByResetToken(ctx context.Context, token string, now time.Time) (*entity.User, error) {
	user, err := repo.first(ctx, "failed to find user by reset token",
		"reset_password_token = ? AND reset_password_expires_at > ?", token, now)
	if errors.Is(err, repository.ErrUserNotFound) {
		return nil, repository.ErrResetTokenNotFound
	}

	return user, err
}

func (repo *userRepository) Create(ctx context.Context, user *entity.User) error {
	if user.ID == uuid.Nil {
		id, err := uuid.NewV7()
		if err != nil {
			return errors.Wrap(err, "generate user id")
		}
		user.ID = id
	}

	userM := fromUserDomain(user)

	if err := repo.db.WithContext(ctx).Create(userM).Error; err != nil {
		if dup := uniqueViolation(err); dup != nil {
			return dup
		}

		return domainerrors.NewUpstreamError(err, "failed to create user")
	}

	user.CreatedAt = userM.CreatedAt
	user.UpdatedAt = userM.UpdatedAt

	return nil
}

func (repo *userRepository) SaveRefreshToken(ctx context.Context, userID uuid.UUID, token string, expiresAt time.Time) error {
	return repo.updateByID(ctx, userID, map[string]any{
		"refresh_token":            token,
		"refresh_token_expires_at": expiresAt,
	}, "failed to save refresh token")
}

// RotateRefreshToken is a single UPDATE ... RETURNING, so of two callers
// presenting the same token only one can match the WHERE clause.
func (repo *userRepository) RotateRefreshToken(ctx context.Context, presented, next string, nextExpiresAt, now time.Time) (*entity.User, error) {
	var userM model.UserModel

	result := repo.db.WithContext(ctx).
		Model(&userM).
		Clauses(clause.Returning{}).
		Where("refresh_token = ? AND refresh_token_expires_at > ?", presented, now).
		Updates(map[string]any{
			"refresh_token":            next,
			"refresh_token_expires_at": nextExpiresAt,
		})
	if result.Error != nil {
		return nil, domainerrors.NewUpstreamError(result.Error, "failed to rotate refresh token")
	}

	if result.RowsAffected == 0 {
		return nil, repository.ErrRefreshTokenNotFound
	}

	return toUserDomain(&userM), nil
}

func (repo *userRepository) ClearRefreshToken(ctx context.Context, token string) (bool, error) {
	result := repo.db.WithContext(ctx).
		Model(&model.UserModel{}).
		Where("refresh_token = ?", token).
		Updates(map[string]any{
			"refresh_token":            nil,
			"refresh_token_expires_at": nil,
		})
	if result.Error != nil {
		return false, domainerrors.NewUpstreamError(result.Error, "failed to clear refresh token")
	}

	return result.RowsAffected > 0, nil
}

func (repo *userRepository) SaveResetToken(ctx context.Context, userID uuid.UUID, token string, expiresAt time.Time) error {
	return repo.updateByID(ctx, userID, map[string]any{
		"reset_password_token":      token,
		"reset_password_expires_at": expiresAt,
	}, "failed to save reset token")
}

func (repo *userRepository) ClearResetToken(ctx context.Context, userID uuid.UUID) error {
	return repo.updateByID(ctx, userID, map[string]any{
		"reset_password_token":      nil,
		"reset_password_expires_at": nil,
	}, "failed to clear reset token")
}

func (repo *userRepository) ConsumeResetToken(ctx context.Context, token string, now time.Time, passwordHash string) (*entity.User, error) {
	var userM model.UserModel

	result := repo.db.WithContext(ctx).
		Model(&userM).
		Clauses(clause.Returning{}).
		Where("reset_password_token = ? AND reset_password_expires_at > ?", token, now).
		Updates(map[string]any{
			"password_hash":             passwordHash,
			"reset_password_token":      nil,
			"reset_password_expires_at": nil,
		})
	if result.Error != nil {
		return nil, domainerrors.NewUpstreamError(result.Error, "failed to consume reset token")
	}

	if result.RowsAffected == 0 {
		return nil, repository.ErrResetTokenNotFound
	}

	return toUserDomain(&userM), nil
}

func (repo *userRepository) first(ctx context.Context, failure string, query string, args ...any) (*entity.User, error) {
	var userM model.UserModel

	if err := repo.db.WithContext(ctx).Where(query, args...).First(&userM).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, repository.ErrUserNotFound
		}

		return nil, domainerrors.NewUpstreamError(err, failure)
	}

	return toUserDomain(&userM), nil
}

func (repo *userRepository) updateByID(ctx context.Context, userID uuid.UUID, values map[string]any, failure string) error {
	result := repo.db.WithContext(ctx).
		Model(&model.UserModel{}).
		Where("id = ?", userID).
		Updates(values)
	if result.Error != nil {
		return domainerrors.NewUpstreamError(result.Error, failure)
	}

	if result.RowsAffected == 0 {
		return repository.ErrUserNotFound
	}

	return nil
}

// --- Mapper Functions ---

func toUserDomain(data *model.UserModel) *entity.User {
	if data == nil {
		return nil
	}

	return &entity.User{
		ID:                     data.ID,
		Username:               data.Username,
		Email:                  data.Email,
		PasswordHash:           data.PasswordHash,
		ProfilePicture:         data.ProfilePicture,
		RefreshToken:           data.RefreshToken,
		RefreshTokenExpiresAt:  data.RefreshTokenExpiresAt,
		ResetPasswordToken:     data.ResetPasswordToken,
		ResetPasswordExpiresAt: data.ResetPasswordExpiresAt,
		CreatedAt:              data.CreatedAt,
		UpdatedAt:              data.UpdatedAt,
	}
}

func fromUserDomain(data *entity.User) *model.UserModel {
	if data == nil {
		return nil
	}

	return &model.UserModel{
		ID:                     data.ID,
		Username:               data.Username,
		Email:                  data.Email,
		PasswordHash:           data.PasswordHash,
		ProfilePicture:         data.ProfilePicture,
		RefreshToken:           data.RefreshToken,
		RefreshTokenExpiresAt:  data.RefreshTokenExpiresAt,
		ResetPasswordToken:     data.ResetPasswordToken,
		ResetPasswordExpiresAt: data.ResetPasswordExpiresAt,
		CreatedAt:              data.CreatedAt,
		UpdatedAt:              data.UpdatedAt,
	}
}
