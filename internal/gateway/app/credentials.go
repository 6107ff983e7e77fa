package app

import (
	"context"
	"errors"
	"fmt"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/metric"

	"github.com/aelexs/auth-gateway/internal/auth"
	"github.com/aelexs/auth-gateway/internal/domain"
	"github.com/aelexs/auth-gateway/internal/observability"
)

// VerifyCredentials checks a username/password pair and returns the
// authenticated principal.
//
// The response never distinguishes "user not found" from "no password set"
// from "wrong password" - all three map to domain.ErrInvalidCredentials to
// avoid username enumeration. The audit log records which one it was.
func (s *AuthService) VerifyCredentials(ctx context.Context, username, password string) (domain.Principal, error) {
	ctx, span := tracer.Start(ctx, "auth.verify_credentials")
	defer span.End()

	logger := observability.WithTraceID(ctx, s.logger)

	record, err := s.users.FindByName(ctx, username)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			authFailuresTotal.Add(ctx, 1, metric.WithAttributes(attribute.String("reason", "unknown_user")))
			logger.WarnContext(ctx, "audit.login_failed", "reason", "unknown_user", "username", username)
			span.SetStatus(codes.Error, "unknown user")
			return domain.Principal{}, domain.ErrInvalidCredentials
		}
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return domain.Principal{}, fmt.Errorf("find user: %w", err)
	}

	if record.PasswordHash == "" {
		authFailuresTotal.Add(ctx, 1, metric.WithAttributes(attribute.String("reason", "no_password")))
		logger.WarnContext(ctx, "audit.login_failed", "reason", "no_password_set", "username", username)
		span.SetStatus(codes.Error, "no password set")
		return domain.Principal{}, domain.ErrInvalidCredentials
	}

	if err := auth.VerifyPassword(record.PasswordHash, password); err != nil {
		authFailuresTotal.Add(ctx, 1, metric.WithAttributes(attribute.String("reason", "bad_password")))
		logger.WarnContext(ctx, "audit.login_failed", "reason", "password_mismatch", "username", username)
		span.SetStatus(codes.Error, "password mismatch")
		return domain.Principal{}, domain.ErrInvalidCredentials
	}

	logger.InfoContext(ctx, "audit.login_succeeded", "user_id", record.UserID, "username", record.Name)

	return domain.Principal{UserID: record.UserID, Name: record.Name}, nil
}
