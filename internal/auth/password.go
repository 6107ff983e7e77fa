package auth

import (
	"fmt"

	"golang.org/x/crypto/bcrypt"

	"github.com/aelexs/auth-gateway/internal/domain"
)

// HashPassword hashes a plaintext password using bcrypt.
func HashPassword(password string) (string, error) {
	if len(password) < domain.MinPasswordLength {
		return "", fmt.Errorf("password shorter than %d characters: %w",
			domain.MinPasswordLength, domain.ErrInvalidInput)
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return "", fmt.Errorf("hash password: %w", err)
	}

	return string(hash), nil
}

// VerifyPassword compares a plaintext password with a stored bcrypt hash.
// Any mismatch or malformed hash maps to domain.ErrInvalidCredentials so
// callers cannot distinguish the failure modes.
func VerifyPassword(hash, password string) error {
	if err := bcrypt.CompareHashAndPassword([]byte(hash), []byte(password)); err != nil {
		return domain.ErrInvalidCredentials
	}
	return nil
}
