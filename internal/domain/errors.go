package domain

import "errors"

// Sentinel errors for domain error conditions.
// Use errors.Is() for matching - never compare error strings.
var (
	// Resource errors
	ErrNotFound      = errors.New("resource not found")
	ErrAlreadyExists = errors.New("resource already exists")

	// Authentication errors
	ErrUnauthorized       = errors.New("authentication required")
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrMissingSession     = errors.New("session cookie missing")

	// Validation errors
	ErrInvalidInput = errors.New("invalid input")

	// Operational errors
	ErrRateLimited = errors.New("rate limit exceeded")
	ErrTimeout     = errors.New("request deadline exceeded")
	ErrUnavailable = errors.New("service temporarily unavailable")
	ErrInternal    = errors.New("internal error")

	// Configuration errors
	ErrConfigRequired = errors.New("required configuration key missing")
)

// IsRetryable returns true if the error represents a transient condition
// that may succeed on retry.
func IsRetryable(err error) bool {
	return errors.Is(err, ErrUnavailable) ||
		errors.Is(err, ErrRateLimited) ||
		errors.Is(err, ErrTimeout)
}

// clientErrors enumerates all domain errors that represent client-side issues.
var clientErrors = []error{
	ErrInvalidInput,
	ErrNotFound,
	ErrAlreadyExists,
	ErrUnauthorized,
	ErrInvalidCredentials,
	ErrMissingSession,
}

// IsClientError returns true if the error represents a client-side issue
// that will not succeed on retry without client-side changes.
func IsClientError(err error) bool {
	for _, target := range clientErrors {
		if errors.Is(err, target) {
			return true
		}
	}
	return false
}

// IsUnauthorized returns true if the error represents a failed
// authentication, regardless of which step rejected it.
func IsUnauthorized(err error) bool {
	return errors.Is(err, ErrUnauthorized) ||
		errors.Is(err, ErrInvalidCredentials)
}
