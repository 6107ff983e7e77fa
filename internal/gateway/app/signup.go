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

// Signup creates a new user and issues the initial session. A taken
// username fails with domain.ErrAlreadyExists and writes nothing - the
// store's conditional insert makes the rejection idempotent, so calling
// twice with the same name can never create two records.
func (s *AuthService) Signup(ctx context.Context, username, password string) (*SessionResult, error) {
	ctx, span := tracer.Start(ctx, "auth.signup")
	defer span.End()

	logger := observability.WithTraceID(ctx, s.logger)

	if err := validateUsername(username); err != nil {
		span.SetStatus(codes.Error, "invalid username")
		return nil, err
	}

	hash, err := auth.HashPassword(password)
	if err != nil {
		span.SetStatus(codes.Error, "invalid password")
		return nil, err
	}

	record, err := s.users.Insert(ctx, NewUserRecord{
		Name:         username,
		PasswordHash: hash,
	})
	if err != nil {
		if errors.Is(err, domain.ErrAlreadyExists) {
			authFailuresTotal.Add(ctx, 1, metric.WithAttributes(attribute.String("reason", "username_taken")))
			logger.WarnContext(ctx, "audit.signup_rejected", "reason", "username_taken", "username", username)
			span.SetStatus(codes.Error, "username taken")
			return nil, fmt.Errorf("signup: %w", domain.ErrAlreadyExists)
		}
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return nil, fmt.Errorf("insert user: %w", err)
	}

	signupsTotal.Add(ctx, 1)
	logger.InfoContext(ctx, "audit.signup_succeeded", "user_id", record.UserID, "username", record.Name)

	return s.IssueSession(ctx, domain.Principal{UserID: record.UserID, Name: record.Name})
}

// Login authenticates an existing user and issues a fresh session.
func (s *AuthService) Login(ctx context.Context, username, password string) (*SessionResult, error) {
	ctx, span := tracer.Start(ctx, "auth.login")
	defer span.End()

	principal, err := s.VerifyCredentials(ctx, username, password)
	if err != nil {
		return nil, err
	}

	return s.IssueSession(ctx, principal)
}

func validateUsername(username string) error {
	if username == "" {
		return fmt.Errorf("username empty: %w", domain.ErrInvalidInput)
	}
	if len(username) > domain.MaxUsernameLength {
		return fmt.Errorf("username longer than %d characters: %w",
			domain.MaxUsernameLength, domain.ErrInvalidInput)
	}
	return nil
}
