package adapter

import (
	"context"
	"fmt"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"

	redisclient "github.com/aelexs/auth-gateway/internal/redis"
)

// rateLimitScript atomically increments a counter and sets a TTL on the
// first write. A MULTI/EXEC pair cannot conditionally EXPIRE only on the
// first increment, and EXPIRE ... NX needs Redis 7.0+, so the script is
// the portable way to get a fixed window.
const rateLimitScript = `
local count = redis.call('INCR', KEYS[1])
if count == 1 then
  redis.call('EXPIRE', KEYS[1], ARGV[1])
end
return count
`

// RedisRateLimiter implements fixed-window rate limiting backed by Redis,
// shared across gateway replicas. Redis errors result in denial, never a
// silent allow.
type RedisRateLimiter struct {
	cmd    redisclient.Cmdable
	limit  int
	window int
}

// NewRedisRateLimiter creates a limiter allowing limit requests per
// windowSeconds for each key.
func NewRedisRateLimiter(cmd redisclient.Cmdable, limit, windowSeconds int) *RedisRateLimiter {
	return &RedisRateLimiter{cmd: cmd, limit: limit, window: windowSeconds}
}

// Allow atomically increments the counter for key and reports whether the
// request fits in the current window. Returns (false, err) on Redis
// failure so callers fail closed.
func (r *RedisRateLimiter) Allow(ctx context.Context, key string) (bool, error) {
	ctx, span := tracer.Start(ctx, "redis.ratelimit.allow")
	defer span.End()
	span.SetAttributes(
		attribute.String("db.system", "redis"),
		attribute.String("db.operation", "EVAL"),
	)

	count, err := r.cmd.Eval(ctx, rateLimitScript, []string{key}, r.window).Int64()
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return false, fmt.Errorf("rate limit check %q: %w", key, err)
	}

	return count <= int64(r.limit), nil
}
