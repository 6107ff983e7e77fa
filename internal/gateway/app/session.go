package app

import (
	"context"
	"fmt"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"

	"github.com/aelexs/auth-gateway/internal/domain"
)

// SessionResult is the full session bundle produced on signup and login.
// The access token goes to the client in the response body; the refresh
// token and the principal fields travel in the cookie set. Both flows
// produce exactly this shape.
type SessionResult struct {
	Principal domain.Principal

	AccessToken     string
	AccessExpiresAt time.Time

	RefreshToken     string
	RefreshExpiresAt time.Time
}

// IssueSession mints an access token and a refresh token for an already
// authenticated principal. It fails only if signing fails, which callers
// treat as internal; the principal itself is never re-validated here.
func (s *AuthService) IssueSession(ctx context.Context, principal domain.Principal) (*SessionResult, error) {
	_, span := tracer.Start(ctx, "auth.issue_session")
	defer span.End()

	access, err := s.codec.IssueAccess(principal.Subject())
	if err != nil {
		return nil, fmt.Errorf("issue access token: %w", err)
	}

	refresh, err := s.codec.IssueRefresh(principal.Subject())
	if err != nil {
		return nil, fmt.Errorf("issue refresh token: %w", err)
	}

	tokensMintedTotal.Add(ctx, 2, metric.WithAttributes(attribute.String("flow", "session")))

	return &SessionResult{
		Principal:        principal,
		AccessToken:      access.Token,
		AccessExpiresAt:  access.ExpiresAt,
		RefreshToken:     refresh.Token,
		RefreshExpiresAt: refresh.ExpiresAt,
	}, nil
}
