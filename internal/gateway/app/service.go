// Package app orchestrates the gateway auth flows: signup, login,
// session issuance, and principal resolution for the middleware.
package app

import (
	"context"
	"log/slog"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/metric"

	"github.com/aelexs/auth-gateway/internal/auth"
	"github.com/aelexs/auth-gateway/internal/domain"
)

var tracer = otel.Tracer("gateway/app")

var (
	signupsTotal      metric.Int64Counter
	tokensMintedTotal metric.Int64Counter
	authFailuresTotal metric.Int64Counter
)

func init() {
	m := otel.Meter("gateway/app")

	signupsTotal, _ = m.Int64Counter("auth_signups_total",
		metric.WithDescription("Total completed signups"))
	tokensMintedTotal, _ = m.Int64Counter("auth_token_minted_total",
		metric.WithDescription("Total tokens minted"))
	authFailuresTotal, _ = m.Int64Counter("security_auth_failures_total",
		metric.WithDescription("Total authentication failures"))
}

// UserRecord represents a user stored in the users table.
type UserRecord struct {
	UserID       int64
	Name         string
	PasswordHash string
	CreatedAt    string
}

// NewUserRecord holds the fields for creating a user.
type NewUserRecord struct {
	Name         string
	PasswordHash string
}

// UserStore persists and retrieves user records.
type UserStore interface {
	GetByID(ctx context.Context, userID int64) (*UserRecord, error)
	FindByName(ctx context.Context, name string) (*UserRecord, error)
	// Insert creates a new user, failing with domain.ErrAlreadyExists if
	// the name is taken. The uniqueness check and the write are one
	// atomic operation - two concurrent signups for the same name can
	// never both succeed.
	Insert(ctx context.Context, record NewUserRecord) (*UserRecord, error)
}

// AuthServiceConfig holds the dependencies for AuthService.
type AuthServiceConfig struct {
	Users  UserStore
	Codec  *auth.Codec
	Clock  domain.Clock
	Logger *slog.Logger
}

// AuthService orchestrates signup, login, and session issuance.
type AuthService struct {
	users  UserStore
	codec  *auth.Codec
	clock  domain.Clock
	logger *slog.Logger
}

// NewAuthService creates a new AuthService with the given dependencies.
func NewAuthService(cfg AuthServiceConfig) *AuthService {
	return &AuthService{
		users:  cfg.Users,
		codec:  cfg.Codec,
		clock:  cfg.Clock,
		logger: cfg.Logger,
	}
}
