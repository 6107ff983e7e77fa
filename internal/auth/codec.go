// Package auth implements the token codec: stateless issuance and
// verification of signed claims over a process-wide symmetric secret.
package auth

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"github.com/aelexs/auth-gateway/internal/domain"
)

// ErrTokenExpired is returned when a validly signed token has expired.
// Callers use errors.Is to check for this condition without importing
// the JWT library directly. The middleware reacts to expiry differently
// from any other verification failure.
var ErrTokenExpired = jwt.ErrTokenExpired

// ErrTokenInvalid is returned for every verification failure that is not
// a clean expiry: bad signature, malformed structure, wrong issuer, wrong
// signing method.
var ErrTokenInvalid = errors.New("token invalid")

// IssueResult holds the result of issuing a token.
type IssueResult struct {
	Token     string
	TokenID   string
	ExpiresAt time.Time
}

// Codec encodes and decodes signed claims using a shared HMAC-SHA256
// secret. It is stateless; the secret is read-only after construction.
type Codec struct {
	secret     domain.SecretBytes
	issuer     string
	accessTTL  time.Duration
	refreshTTL time.Duration
	clock      domain.Clock
}

// CodecConfig holds configuration for creating a Codec.
type CodecConfig struct {
	Secret     domain.SecretBytes
	Issuer     string
	AccessTTL  time.Duration
	RefreshTTL time.Duration
	Clock      domain.Clock
}

// NewCodec creates a token codec from cfg.
func NewCodec(cfg CodecConfig) *Codec {
	return &Codec{
		secret:     cfg.Secret,
		issuer:     cfg.Issuer,
		accessTTL:  cfg.AccessTTL,
		refreshTTL: cfg.RefreshTTL,
		clock:      cfg.Clock,
	}
}

// IssueAccess mints a signed access token for the given subject with a
// fresh token ID and expiry = now + access TTL. Fails only on signing
// error, which callers treat as internal.
func (c *Codec) IssueAccess(subject string) (IssueResult, error) {
	return c.issue(subject, KindAccess, c.accessTTL)
}

// IssueRefresh mints the signed refresh token carried in the session
// cookie. Same subject, its own token ID, refresh TTL.
func (c *Codec) IssueRefresh(subject string) (IssueResult, error) {
	return c.issue(subject, KindRefresh, c.refreshTTL)
}

func (c *Codec) issue(subject, kind string, ttl time.Duration) (IssueResult, error) {
	now := c.clock.Now().UTC()
	tokenID := uuid.NewString()
	expiresAt := now.Add(ttl)

	claims := Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   subject,
			Issuer:    c.issuer,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(expiresAt),
			ID:        tokenID,
		},
		TokenKind: kind,
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, &claims)
	signed, err := token.SignedString(c.secret.Expose())
	if err != nil {
		return IssueResult{}, fmt.Errorf("sign %s token: %w", kind, err)
	}

	return IssueResult{
		Token:     signed,
		TokenID:   tokenID,
		ExpiresAt: expiresAt,
	}, nil
}

// Verify parses and validates a token string. A validly signed token past
// its expiry fails with ErrTokenExpired; every other failure maps to
// ErrTokenInvalid. The two are never surfaced to clients with different
// wording - only the middleware uses the distinction to pick the refresh
// path.
func (c *Codec) Verify(tokenString string) (*Claims, error) {
	var claims Claims

	opts := []jwt.ParserOption{
		jwt.WithIssuer(c.issuer),
		jwt.WithValidMethods([]string{"HS256"}),
		jwt.WithTimeFunc(c.clock.Now),
		jwt.WithExpirationRequired(),
	}

	_, err := jwt.ParseWithClaims(tokenString, &claims, c.keyFunc, opts...)
	if err != nil {
		if onlyExpiredError(err) {
			return nil, fmt.Errorf("verify token: %w", ErrTokenExpired)
		}
		return nil, fmt.Errorf("verify token: %w: %w", ErrTokenInvalid, err)
	}

	return &claims, nil
}

func (c *Codec) keyFunc(token *jwt.Token) (any, error) {
	if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
		return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
	}
	return c.secret.Expose(), nil
}

// onlyExpiredError returns true if err contains ErrTokenExpired
// and no other JWT validation errors.
func onlyExpiredError(err error) bool {
	if !errors.Is(err, jwt.ErrTokenExpired) {
		return false
	}
	return !errors.Is(err, jwt.ErrTokenMalformed) &&
		!errors.Is(err, jwt.ErrTokenUnverifiable) &&
		!errors.Is(err, jwt.ErrTokenSignatureInvalid) &&
		!errors.Is(err, jwt.ErrTokenNotValidYet) &&
		!errors.Is(err, jwt.ErrTokenInvalidIssuer) &&
		!errors.Is(err, jwt.ErrTokenRequiredClaimMissing) &&
		!errors.Is(err, jwt.ErrTokenUsedBeforeIssued)
}
