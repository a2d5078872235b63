package auth

import (
	"unicode/utf8"

	"golang.org/x/crypto/bcrypt"

	"authgate/config"
	domainerrors "authgate/internal/domain/errors"
	"authgate/internal/domain/service"
	"authgate/internal/errors"
)

// bcrypt ignores input past 72 bytes.
const bcryptMaxPasswordBytes = 72

// bcryptHasher is a concrete implementation of the PasswordHasher interface using bcrypt.
type bcryptHasher struct {
	cost      int
	minLength int
	maxLength int
}

// NewBcryptHasher is the constructor for bcryptHasher.
// It returns the implementation as a service.PasswordHasher interface.
func NewBcryptHasher(cfg *config.Config) service.PasswordHasher {
	h := &bcryptHasher{
		cost:      bcrypt.DefaultCost,
		minLength: 6,
		maxLength: bcryptMaxPasswordBytes,
	}

	if cfg.Auth != nil && cfg.Auth.BcryptCost >= bcrypt.MinCost && cfg.Auth.BcryptCost <= bcrypt.MaxCost {
		h.cost = cfg.Auth.BcryptCost
	}

	if ps := cfg.PasswordStrength; ps != nil {
		if ps.MinLength > 0 {
			h.minLength = ps.MinLength
		}
		if ps.MaxLength > 0 && ps.MaxLength <= bcryptMaxPasswordBytes {
			h.maxLength = ps.MaxLength
		}
	}

	return h
}

// Hash generates a salted hash from a plaintext password using bcrypt.
func (h *bcryptHasher) Hash(password string) (string, error) {
	bytes, err := bcrypt.GenerateFromPassword([]byte(password), h.cost)
	if err != nil {
		return "", errors.Wrap(err, "bcrypt hash")
	}

	return string(bytes), nil
}

// Check compares a plaintext password with a bcrypt hash.
func (h *bcryptHasher) Check(password, hash string) bool {
	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(password)) == nil
}

// ValidatePasswordStrength checks length in characters and the bcrypt byte limit.
func (h *bcryptHasher) ValidatePasswordStrength(password string) error {
	if n := utf8.RuneCountInString(password); n < h.minLength {
		return domainerrors.ErrPasswordStrength.WithDetails("password is too short")
	}

	if len(password) > h.maxLength {
		return domainerrors.ErrPasswordStrength.WithDetails("password is too long")
	}

	return nil
}
