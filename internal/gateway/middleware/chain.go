package middleware

import "net/http"

// Middleware wraps an http.Handler with additional behavior.
type Middleware func(http.Handler) http.Handler

// Chain composes middlewares so the first argument is outermost: a request
// passes through mws[0] first, then mws[1], and so on down to the handler.
func Chain(mws ...Middleware) Middleware {
	return func(next http.Handler) http.Handler {
		for i := len(mws) - 1; i >= 0; i-- {
			next = mws[i](next)
		}
		return next
	}
}

// PipelineConfig holds the shared layers applied to every route.
type PipelineConfig struct {
	RateLimit Middleware
	Timeout   Middleware
	Headers   Middleware
	Trace     Middleware
}

// Pipeline composes the fixed request pipeline: rate limit, then timeout,
// then security headers, then trace. The order is load-bearing: the rate
// limiter runs before everything else, so a rejected request never reaches
// token verification or the user store. Auth wraps individual route groups
// inside the pipeline, not here.
func Pipeline(cfg PipelineConfig) Middleware {
	return Chain(cfg.RateLimit, cfg.Timeout, cfg.Headers, cfg.Trace)
}
