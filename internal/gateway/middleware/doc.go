// Package middleware implements the gateway's request pipeline: rate
// limiting, timeouts, security headers, tracing, and token authentication
// with silent refresh.
package middleware

import (
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/metric"
)

var tracer = otel.Tracer("gateway/middleware")

var (
	rateLimitHitsTotal  metric.Int64Counter
	silentRefreshTotal  metric.Int64Counter
	authRejectionsTotal metric.Int64Counter
)

func init() {
	m := otel.Meter("gateway/middleware")

	rateLimitHitsTotal, _ = m.Int64Counter("gateway_ratelimit_hits_total",
		metric.WithDescription("Requests rejected by the rate limiter"))
	silentRefreshTotal, _ = m.Int64Counter("auth_silent_refresh_total",
		metric.WithDescription("Access tokens minted on the silent refresh path"))
	authRejectionsTotal, _ = m.Int64Counter("security_auth_rejections_total",
		metric.WithDescription("Requests rejected by the auth middleware"))
}
