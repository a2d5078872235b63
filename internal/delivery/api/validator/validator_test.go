package validator

import (
	"testing"

	domainerrors "authgate/internal/domain/errors"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type signUpRequest struct {
	Username string `json:"username" validate:"required,max=32"`
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

func TestValidator_Validate(t *testing.T) {
	v := New()

	require.NoError(t, v.Validate(&signUpRequest{Username: "ada", Email: "ada@example.com", Password: "secret1"}))

	err := v.Validate(&signUpRequest{Email: "not-an-email"})
	require.Error(t, err)
	assert.True(t, domainerrors.HasCode(err, domainerrors.ErrValidationFailed))

	appErr, ok := err.(domainerrors.AppError)
	require.True(t, ok)
	assert.Contains(t, appErr.Details(), "username is required")
	assert.Contains(t, appErr.Details(), "email must be a valid email address")
	assert.Contains(t, appErr.Details(), "password is required")
}
