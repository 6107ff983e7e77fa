package middleware

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/aelexs/auth-gateway/internal/domain"
	"github.com/aelexs/auth-gateway/internal/errmap"
)

// RateLimiter is the capability the rate limit layer needs: one atomic
// check-and-consume per request. The in-process and Redis limiters in the
// adapter package both satisfy it.
type RateLimiter interface {
	Allow(ctx context.Context, key string) (bool, error)
}

// rateLimitKey is the single shared window all requests draw from. The
// Redis adapter keys per replica group automatically since every replica
// uses the same key.
const rateLimitKey = "ratelimit:global"

// RateLimit rejects requests over the quota with 429 before any other
// layer runs. Limiter errors also deny: an unreachable limiter must not
// turn into an unlimited gateway.
func RateLimit(limiter RateLimiter, logger *slog.Logger) Middleware {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			allowed, err := limiter.Allow(r.Context(), rateLimitKey)
			if err != nil {
				logger.ErrorContext(r.Context(), "rate limiter unavailable, denying request", "error", err)
				rateLimitHitsTotal.Add(r.Context(), 1)
				errmap.WriteError(w, domain.ErrRateLimited)
				return
			}
			if !allowed {
				// The trace layer sits inside this one, so the rejection
				// must be logged here or not at all.
				logger.WarnContext(r.Context(), "rate limit exceeded",
					slog.String("path", r.URL.Path))
				rateLimitHitsTotal.Add(r.Context(), 1)
				errmap.WriteError(w, domain.ErrRateLimited)
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}
