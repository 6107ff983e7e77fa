package domain

import "time"

// Compiled defaults. Each of these can be overridden via configuration;
// the values here are what a bare local deployment runs with.
const (
	// Token configuration
	AccessTokenLifetime  = 60 * time.Minute // JWT access token validity
	RefreshTokenLifetime = 24 * time.Hour   // refresh token validity
	TokenIssuer          = "auth-gateway"   // iss claim on every token

	// Rate limiting. The default limiter is a single shared window across
	// all callers, not per-client.
	RateLimitRequests = 100              // requests allowed per window
	RateLimitWindow   = 60 * time.Second // fixed window duration

	// Request handling
	RequestTimeout = 10 * time.Second // hard per-request deadline

	// Credential rules
	MinPasswordLength = 8
	MaxUsernameLength = 64

	// Timeout contracts for infrastructure calls
	DynamoDBTimeout = 5 * time.Second // max time for DynamoDB operations
	RedisTimeout    = 2 * time.Second // max time for Redis operations

	// Graceful shutdown
	ShutdownDrainDelay      = 2 * time.Second  // let LB propagate endpoint removal
	ShutdownHTTPTimeout     = 15 * time.Second // max time to drain HTTP
	ShutdownOTELTimeout     = 5 * time.Second  // max time to flush telemetry
	GracefulShutdownTimeout = 25 * time.Second // full drain budget end to end
)

// HSTSHeaderValue is injected by the security header middleware when the
// response does not already carry a Strict-Transport-Security header.
const HSTSHeaderValue = "max-age=31536000; includeSubDomains"

// Session cookie names. The three cookies are set together on signup and
// login; the auth middleware reads only the refresh token cookie, the other
// two exist for the client's benefit.
const (
	RefreshCookieName  = "refresh_token"
	UsernameCookieName = "username"
	UserIDCookieName   = "user_id"
)
