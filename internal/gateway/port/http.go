// Package port exposes the gateway's HTTP surface. Handlers translate
// JSON requests into app-layer calls and map errors through errmap;
// they never pick status codes themselves.
package port

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/aelexs/auth-gateway/internal/domain"
	"github.com/aelexs/auth-gateway/internal/errmap"
	"github.com/aelexs/auth-gateway/internal/gateway/app"
	"github.com/aelexs/auth-gateway/internal/gateway/middleware"
)

// authService is a narrow, consumer-defined interface for the auth flows
// the handlers require. The *app.AuthService satisfies this.
type authService interface {
	Signup(ctx context.Context, username, password string) (*app.SessionResult, error)
	Login(ctx context.Context, username, password string) (*app.SessionResult, error)
}

// Handler implements the gateway's HTTP endpoints.
type Handler struct {
	svc    authService
	logger *slog.Logger
}

// NewHandler creates a Handler backed by the given AuthService.
func NewHandler(svc *app.AuthService, logger *slog.Logger) *Handler {
	return &Handler{svc: svc, logger: logger}
}

// Register mounts all routes on mux. The auth middleware wraps only the
// protected group; signup, login, and the public greeting stay outside it.
func (h *Handler) Register(mux *http.ServeMux, authn middleware.Middleware) {
	mux.HandleFunc("POST /signup", h.signup)
	mux.HandleFunc("POST /login", h.login)
	mux.HandleFunc("GET /hello", h.hello)
	mux.Handle("GET /hello/protected", authn(http.HandlerFunc(h.helloProtected)))
}

// credentialsRequest is the JSON body shared by signup and login.
type credentialsRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

// tokenResponse carries the access token; the rest of the session rides
// in cookies.
type tokenResponse struct {
	Token string `json:"token"`
}

func (h *Handler) signup(w http.ResponseWriter, r *http.Request) {
	req, err := decodeCredentials(r)
	if err != nil {
		errmap.WriteError(w, err)
		return
	}

	session, err := h.svc.Signup(r.Context(), req.Username, req.Password)
	if err != nil {
		errmap.WriteError(w, err)
		return
	}

	h.writeSession(w, session)
}

func (h *Handler) login(w http.ResponseWriter, r *http.Request) {
	req, err := decodeCredentials(r)
	if err != nil {
		errmap.WriteError(w, err)
		return
	}

	session, err := h.svc.Login(r.Context(), req.Username, req.Password)
	if err != nil {
		errmap.WriteError(w, err)
		return
	}

	h.writeSession(w, session)
}

func (h *Handler) hello(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"message": "hello"})
}

func (h *Handler) helloProtected(w http.ResponseWriter, r *http.Request) {
	principal, ok := middleware.PrincipalFromContext(r.Context())
	if !ok {
		// The auth middleware attaches the principal before this handler
		// runs; reaching here without one is a wiring bug.
		errmap.WriteError(w, domain.ErrInternal)
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"message": fmt.Sprintf("hello, %s", principal.Name),
		"user_id": principal.UserID,
	})
}

// writeSession sets the session cookie bundle and returns the access token.
// Cookies go first: headers must be complete before the body is written.
func (h *Handler) writeSession(w http.ResponseWriter, session *app.SessionResult) {
	setSessionCookies(w, session)
	writeJSON(w, http.StatusOK, tokenResponse{Token: session.AccessToken})
}

func decodeCredentials(r *http.Request) (credentialsRequest, error) {
	var req credentialsRequest

	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	if err := dec.Decode(&req); err != nil {
		return credentialsRequest{}, fmt.Errorf("decode request body: %w", domain.ErrInvalidInput)
	}
	return req, nil
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}
