package app

import (
	"context"
	"errors"
	"fmt"

	"github.com/aelexs/auth-gateway/internal/domain"
)

// ResolvePrincipal maps a verified token subject to the live principal.
// A subject that no longer matches a user record fails with
// domain.ErrUnauthorized - a signed token is not enough on its own once
// the account is gone.
func (s *AuthService) ResolvePrincipal(ctx context.Context, subject string) (domain.Principal, error) {
	userID, err := domain.ParseSubject(subject)
	if err != nil {
		return domain.Principal{}, fmt.Errorf("token subject %q: %w", subject, domain.ErrUnauthorized)
	}

	record, err := s.users.GetByID(ctx, userID)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return domain.Principal{}, fmt.Errorf("subject %q has no user record: %w", subject, domain.ErrUnauthorized)
		}
		return domain.Principal{}, fmt.Errorf("get user by id: %w", err)
	}

	return domain.Principal{UserID: record.UserID, Name: record.Name}, nil
}
