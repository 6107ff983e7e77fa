package middleware

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"strings"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"

	"github.com/aelexs/auth-gateway/internal/auth"
	"github.com/aelexs/auth-gateway/internal/domain"
	"github.com/aelexs/auth-gateway/internal/errmap"
	"github.com/aelexs/auth-gateway/internal/observability"
)

// TokenCodec is the slice of the token codec the auth layer needs.
// The *auth.Codec satisfies it.
type TokenCodec interface {
	Verify(token string) (*auth.Claims, error)
	IssueAccess(subject string) (auth.IssueResult, error)
}

// PrincipalResolver maps a verified token subject to a live principal.
// The *app.AuthService satisfies it.
type PrincipalResolver interface {
	ResolvePrincipal(ctx context.Context, subject string) (domain.Principal, error)
}

// AuthConfig holds the auth middleware's dependencies and policy knobs.
type AuthConfig struct {
	Codec    TokenCodec
	Resolver PrincipalResolver
	Logger   *slog.Logger

	// MissingSessionInternal reports a missing refresh cookie as an
	// internal error instead of 401. Off by default; exists only for
	// clients that still depend on the legacy status code.
	MissingSessionInternal bool
}

type ctxKey int

const principalKey ctxKey = iota

// ContextWithPrincipal returns a context carrying the authenticated principal.
func ContextWithPrincipal(ctx context.Context, p domain.Principal) context.Context {
	return context.WithValue(ctx, principalKey, p)
}

// PrincipalFromContext returns the principal attached by the auth
// middleware, and whether one was attached.
func PrincipalFromContext(ctx context.Context) (domain.Principal, bool) {
	p, ok := ctx.Value(principalKey).(domain.Principal)
	return p, ok
}

// Auth guards a route group with bearer token verification and silent
// refresh. Requests need both an Authorization bearer token and the
// refresh cookie. A valid access token passes through with the principal
// attached. An expired access token with a valid refresh cookie gets a new
// access token minted inline: the request proceeds as authenticated and
// the response carries the replacement in its Authorization header, so the
// client swaps tokens without an explicit refresh round trip.
//
// The client can never tell an expired token from a tampered one; both are
// a plain 401.
func Auth(cfg AuthConfig) Middleware {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx, span := tracer.Start(r.Context(), "middleware.auth")
			defer span.End()
			r = r.WithContext(ctx)

			logger := observability.WithTraceID(ctx, cfg.Logger)

			token, ok := bearerToken(r)
			if !ok {
				reject(w, r, logger, "missing_bearer", domain.ErrUnauthorized)
				return
			}

			cookie, err := r.Cookie(domain.RefreshCookieName)
			if err != nil {
				if cfg.MissingSessionInternal {
					reject(w, r, logger, "missing_session_cookie", domain.ErrInternal)
					return
				}
				reject(w, r, logger, "missing_session_cookie", domain.ErrMissingSession)
				return
			}

			claims, err := cfg.Codec.Verify(token)
			switch {
			case err == nil:
				if claims.TokenKind != auth.KindAccess {
					reject(w, r, logger, "wrong_token_kind", domain.ErrUnauthorized)
					return
				}
				principal, err := cfg.Resolver.ResolvePrincipal(ctx, claims.Subject)
				if err != nil {
					reject(w, r, logger, "unresolvable_subject", err)
					return
				}
				next.ServeHTTP(w, r.WithContext(ContextWithPrincipal(ctx, principal)))

			case errors.Is(err, auth.ErrTokenExpired):
				refreshAndContinue(w, r, cfg, logger, cookie.Value, next)

			default:
				reject(w, r, logger, "invalid_token", domain.ErrUnauthorized)
			}
		})
	}
}

// refreshAndContinue is the silent refresh path: the access token expired,
// so the refresh cookie decides whether a replacement is minted.
func refreshAndContinue(
	w http.ResponseWriter,
	r *http.Request,
	cfg AuthConfig,
	logger *slog.Logger,
	refreshToken string,
	next http.Handler,
) {
	ctx := r.Context()

	refreshClaims, err := cfg.Codec.Verify(refreshToken)
	if err != nil {
		reject(w, r, logger, "refresh_token_rejected", domain.ErrUnauthorized)
		return
	}
	if refreshClaims.TokenKind != auth.KindRefresh {
		reject(w, r, logger, "refresh_wrong_token_kind", domain.ErrUnauthorized)
		return
	}

	principal, err := cfg.Resolver.ResolvePrincipal(ctx, refreshClaims.Subject)
	if err != nil {
		reject(w, r, logger, "refresh_unresolvable_subject", err)
		return
	}

	minted, err := cfg.Codec.IssueAccess(refreshClaims.Subject)
	if err != nil {
		logger.ErrorContext(ctx, "minting replacement access token failed", "error", err)
		errmap.WriteError(w, domain.ErrInternal)
		return
	}

	silentRefreshTotal.Add(ctx, 1)
	logger.InfoContext(ctx, "access token silently refreshed",
		"user_id", principal.UserID, "token_id", minted.TokenID)

	// Header must be set before the handler writes the response.
	w.Header().Set("Authorization", "Bearer "+minted.Token)

	next.ServeHTTP(w, r.WithContext(ContextWithPrincipal(ctx, principal)))
}

func reject(w http.ResponseWriter, r *http.Request, logger *slog.Logger, reason string, err error) {
	authRejectionsTotal.Add(r.Context(), 1, metric.WithAttributes(attribute.String("reason", reason)))
	logger.WarnContext(r.Context(), "request rejected by auth middleware",
		"reason", reason, "path", r.URL.Path)
	errmap.WriteError(w, err)
}

func bearerToken(r *http.Request) (string, bool) {
	header := r.Header.Get("Authorization")
	const prefix = "Bearer "
	if !strings.HasPrefix(header, prefix) {
		return "", false
	}
	token := strings.TrimSpace(header[len(prefix):])
	return token, token != ""
}
