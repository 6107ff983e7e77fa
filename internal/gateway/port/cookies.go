package port

import (
	"net/http"
	"strconv"

	"github.com/aelexs/auth-gateway/internal/domain"
	"github.com/aelexs/auth-gateway/internal/gateway/app"
)

// setSessionCookies writes the three-cookie session bundle. The bundle is
// atomic with the response: either the handler succeeds and all three are
// set, or it fails and none are. Only the refresh token is HttpOnly; the
// username and user_id cookies exist so browser clients can render who is
// signed in without decoding the token.
func setSessionCookies(w http.ResponseWriter, session *app.SessionResult) {
	http.SetCookie(w, &http.Cookie{
		Name:     domain.RefreshCookieName,
		Value:    session.RefreshToken,
		Path:     "/",
		Expires:  session.RefreshExpiresAt,
		HttpOnly: true,
		Secure:   true,
		SameSite: http.SameSiteStrictMode,
	})

	http.SetCookie(w, &http.Cookie{
		Name:     domain.UsernameCookieName,
		Value:    session.Principal.Name,
		Path:     "/",
		Expires:  session.RefreshExpiresAt,
		SameSite: http.SameSiteStrictMode,
	})

	http.SetCookie(w, &http.Cookie{
		Name:     domain.UserIDCookieName,
		Value:    strconv.FormatInt(session.Principal.UserID, 10),
		Path:     "/",
		Expires:  session.RefreshExpiresAt,
		SameSite: http.SameSiteStrictMode,
	})
}
