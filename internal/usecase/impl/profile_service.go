package impl

import (
	"context"
	"log/slog"

	deliverycontext "authgate/internal/delivery/context"
	"authgate/internal/domain/entity"
	domainerrors "authgate/internal/domain/errors"
	"authgate/internal/domain/repository"
	"authgate/internal/usecase"

	"github.com/google/uuid"
	"github.com/pkg/errors"
)

// profileService implements the UserUsecase interface.
type profileService struct {
	userRepo repository.UserRepository
	logger   *slog.Logger
}

// NewProfileService is the constructor for profileService.
func NewProfileService(
	userRepo repository.UserRepository,
	logger *slog.Logger,
) usecase.UserUsecase {
	return &profileService{
		userRepo: userRepo,
		logger:   logger,
	}
}

// GetProfile retrieves the account of the authenticated caller.
func (srv *profileService) GetProfile(ctx context.Context, userID uuid.UUID) (*entity.User, error) {
	deliverycontext.GetLoggerOrDefault(ctx, srv.logger).Debug("Getting user profile", slog.Any("user_id", userID))

	user, err := srv.userRepo.FindByID(ctx, userID)
	if err != nil {
		if errors.Is(err, repository.ErrUserNotFound) {
			return nil, errors.Wrap(domainerrors.ErrUserNotFound, "failed to get user profile")
		}

		return nil, errors.Wrap(err, "failed to get user profile")
	}

	return user, nil
}
