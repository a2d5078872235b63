package usecase

import (
	"context"

	"authgate/internal/domain/entity"

	"github.com/google/uuid"
)

// UserUsecase defines the interface for account reads by an authenticated caller.
// This is the contract that the delivery layer (e.g., API handlers) will depend on.
type UserUsecase interface {
	GetProfile(ctx context.Context, userID uuid.UUID) (*entity.User, error)
}
