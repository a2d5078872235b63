package auth

import (
	"strings"
	"testing"

	"authgate/config"
	domainerrors "authgate/internal/domain/errors"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

func newTestHasher() *bcryptHasher {
	cfg := &config.Config{
		Auth:             &config.AuthConfig{BcryptCost: bcrypt.MinCost},
		PasswordStrength: &config.PasswordStrengthConfig{MinLength: 6, MaxLength: 72},
	}

	return NewBcryptHasher(cfg).(*bcryptHasher)
}

func TestBcryptHasher_HashAndCheck(t *testing.T) {
	hasher := newTestHasher()

	hash, err := hasher.Hash("secret1")
	require.NoError(t, err)
	assert.NotEqual(t, "secret1", hash)

	cost, err := bcrypt.Cost([]byte(hash))
	require.NoError(t, err)
	assert.Equal(t, bcrypt.MinCost, cost)

	assert.True(t, hasher.Check("secret1", hash))
	assert.False(t, hasher.Check("secret2", hash))
	assert.False(t, hasher.Check("", hash))
	assert.False(t, hasher.Check("secret1", "not-a-hash"))
}

func TestBcryptHasher_DefaultsWhenUnconfigured(t *testing.T) {
	hasher := NewBcryptHasher(&config.Config{}).(*bcryptHasher)

	assert.Equal(t, bcrypt.DefaultCost, hasher.cost)
	assert.Equal(t, 6, hasher.minLength)
	assert.Equal(t, bcryptMaxPasswordBytes, hasher.maxLength)
}

func TestBcryptHasher_ValidatePasswordStrength(t *testing.T) {
	hasher := newTestHasher()

	tests := []struct {
		name     string
		password string
		wantErr  bool
	}{
		{name: "minimum length", password: "abcdef"},
		{name: "multibyte counted as characters", password: "密碼密碼密碼"},
		{name: "too short", password: "abc", wantErr: true},
		{name: "empty", password: "", wantErr: true},
		{name: "over bcrypt limit", password: strings.Repeat("a", 73), wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := hasher.ValidatePasswordStrength(tt.password)
			if !tt.wantErr {
				assert.NoError(t, err)

				return
			}

			assert.True(t, domainerrors.HasCode(err, domainerrors.ErrPasswordStrength))
		})
	}
}
