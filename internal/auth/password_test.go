package auth_test

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aelexs/auth-gateway/internal/auth"
	"github.com/aelexs/auth-gateway/internal/domain"
)

func TestHashPassword(t *testing.T) {
	t.Run("hash verifies against original password", func(t *testing.T) {
		hash, err := auth.HashPassword("secret123")
		require.NoError(t, err)
		assert.NotEqual(t, "secret123", hash)

		assert.NoError(t, auth.VerifyPassword(hash, "secret123"))
	})

	t.Run("wrong password fails with invalid credentials", func(t *testing.T) {
		hash, err := auth.HashPassword("secret123")
		require.NoError(t, err)

		err = auth.VerifyPassword(hash, "wrong-password")
		assert.True(t, errors.Is(err, domain.ErrInvalidCredentials))
	})

	t.Run("short password is rejected", func(t *testing.T) {
		_, err := auth.HashPassword("short")
		assert.True(t, errors.Is(err, domain.ErrInvalidInput))
	})

	t.Run("malformed stored hash fails closed", func(t *testing.T) {
		err := auth.VerifyPassword("not-a-bcrypt-hash", "secret123")
		assert.True(t, errors.Is(err, domain.ErrInvalidCredentials))
	})

	t.Run("hashes are salted", func(t *testing.T) {
		first, err := auth.HashPassword("secret123")
		require.NoError(t, err)
		second, err := auth.HashPassword("secret123")
		require.NoError(t, err)
		assert.NotEqual(t, first, second)
	})
}
