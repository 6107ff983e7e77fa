package auth

import (
	"context"
	"fmt"

	"github.com/aelexs/auth-gateway/internal/domain"
)

// SecretSource provides the symmetric signing secret. Implementations load
// it from configuration (local) or AWS Secrets Manager (production). The
// secret is resolved once at startup into a read-only value; there is no
// in-place rotation - a future rotation scheme would go through a
// generation-tagged lookup, not mutation.
type SecretSource interface {
	// SigningSecret returns the secret used for HMAC signing and
	// verification.
	SigningSecret(ctx context.Context) (domain.SecretBytes, error)
}

// StaticSecret is a SecretSource backed by an in-memory value. Used for
// local development and tests.
type StaticSecret struct {
	secret domain.SecretBytes
}

// NewStaticSecret creates a StaticSecret from raw key material.
func NewStaticSecret(secret []byte) *StaticSecret {
	return &StaticSecret{secret: domain.SecretBytes(secret)}
}

// SigningSecret returns the configured secret.
func (s *StaticSecret) SigningSecret(_ context.Context) (domain.SecretBytes, error) {
	if s.secret.IsEmpty() {
		return nil, fmt.Errorf("static secret: %w", domain.ErrConfigRequired)
	}
	return s.secret, nil
}

var _ SecretSource = (*StaticSecret)(nil)
