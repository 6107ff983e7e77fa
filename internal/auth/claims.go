package auth

import "github.com/golang-jwt/jwt/v5"

// Claims is the signed payload carried by both access and refresh tokens.
// Subject holds the string-encoded user ID, ID the per-issuance token ID,
// and ExpiresAt the absolute expiry. Token kind distinguishes an access
// token from the cookie-carried refresh token.
type Claims struct {
	jwt.RegisteredClaims
	TokenKind string `json:"tkn,omitempty"`
}

// Token kinds. The refresh token is verified by the same codec as the
// access token; the kind claim keeps one from standing in for the other.
const (
	KindAccess  = "access"
	KindRefresh = "refresh"
)
