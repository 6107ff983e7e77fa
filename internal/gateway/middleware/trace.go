package middleware

import (
	"log/slog"
	"net/http"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"

	"github.com/aelexs/auth-gateway/internal/observability"
)

// Trace opens a span per request and emits one structured log line with
// method, path, status, and latency. Rate-limited responses log at warn so
// quota pressure stands out without scanning every access log line.
func Trace(logger *slog.Logger) Middleware {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx, span := tracer.Start(r.Context(), "http "+r.Method+" "+r.URL.Path)
			defer span.End()

			span.SetAttributes(
				attribute.String("http.method", r.Method),
				attribute.String("http.target", r.URL.Path),
			)

			start := time.Now()
			sw := &statusWriter{ResponseWriter: w}

			next.ServeHTTP(sw, r.WithContext(ctx))

			status := sw.Status()
			latency := time.Since(start)

			span.SetAttributes(attribute.Int("http.status_code", status))
			if status >= http.StatusInternalServerError {
				span.SetStatus(codes.Error, http.StatusText(status))
			}

			reqLogger := observability.WithTraceID(ctx, logger)
			attrs := []any{
				"method", r.Method,
				"path", r.URL.Path,
				"status", status,
				"latency_ms", latency.Milliseconds(),
			}

			switch {
			case status == http.StatusTooManyRequests:
				reqLogger.WarnContext(ctx, "request rate limited", attrs...)
			case status >= http.StatusInternalServerError:
				reqLogger.ErrorContext(ctx, "request failed", attrs...)
			default:
				reqLogger.InfoContext(ctx, "request handled", attrs...)
			}
		})
	}
}

// statusWriter records the response status for the access log.
type statusWriter struct {
	http.ResponseWriter
	status int
}

func (sw *statusWriter) WriteHeader(status int) {
	if sw.status == 0 {
		sw.status = status
	}
	sw.ResponseWriter.WriteHeader(status)
}

func (sw *statusWriter) Write(p []byte) (int, error) {
	if sw.status == 0 {
		sw.status = http.StatusOK
	}
	return sw.ResponseWriter.Write(p)
}

// Status returns the recorded status, defaulting to 200 when the handler
// never called WriteHeader explicitly.
func (sw *statusWriter) Status() int {
	if sw.status == 0 {
		return http.StatusOK
	}
	return sw.status
}
