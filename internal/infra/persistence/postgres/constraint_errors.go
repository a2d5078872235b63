package postgres

import (
	"authgate/internal/domain/repository"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/pkg/errors"
	"gorm.io/gorm"
)

const (
	pgUniqueViolation = "23505"

	constraintUsersEmail    = "users_email_key"
	constraintUsersUsername = "users_username_key"
)

// uniqueViolation maps a unique constraint failure on users to the
// repository sentinel for the colliding key. It returns nil for other errors.
func uniqueViolation(err error) error {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == pgUniqueViolation {
		switch pgErr.ConstraintName {
		case constraintUsersEmail:
			return repository.ErrEmailTaken
		case constraintUsersUsername:
			return repository.ErrUsernameTaken
		default:
			return repository.ErrDuplicateUser
		}
	}

	// With TranslateError enabled gorm drops the constraint name.
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return repository.ErrDuplicateUser
	}

	return nil
}
