package middleware

import (
	"net/http"

	"github.com/aelexs/auth-gateway/internal/domain"
)

// SecurityHeaders injects Strict-Transport-Security on every response that
// does not already carry one. A handler that sets its own HSTS value wins.
func SecurityHeaders() Middleware {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			next.ServeHTTP(&hstsWriter{ResponseWriter: w}, r)
		})
	}
}

// hstsWriter adds the HSTS header at write time, after the handler has had
// its chance to set one.
type hstsWriter struct {
	http.ResponseWriter
	wroteHeader bool
}

func (hw *hstsWriter) WriteHeader(status int) {
	if !hw.wroteHeader {
		hw.wroteHeader = true
		if hw.Header().Get("Strict-Transport-Security") == "" {
			hw.Header().Set("Strict-Transport-Security", domain.HSTSHeaderValue)
		}
	}
	hw.ResponseWriter.WriteHeader(status)
}

func (hw *hstsWriter) Write(p []byte) (int, error) {
	if !hw.wroteHeader {
		hw.WriteHeader(http.StatusOK)
	}
	return hw.ResponseWriter.Write(p)
}
