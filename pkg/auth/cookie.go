package auth

import (
	"net/http"
	"time"

	"github.com/patitas-pets/patitas-backend/pkg/config"
)

// SessionCookieName carries the signed session token.
const SessionCookieName = "auth-session"

// legacyCookieNames are older session artifacts from previous deploys. Logout
// expires every name in the list so stale cookies cannot linger.
var legacyCookieNames = []string{"auth-token", "auth-user"}

// SetSessionCookie attaches the signed token to the response.
func SetSessionCookie(w http.ResponseWriter, cfg config.SessionConfig, token string) {
	http.SetCookie(w, &http.Cookie{
		Name:     SessionCookieName,
		Value:    token,
		Path:     "/",
		Domain:   cfg.CookieDomain,
		MaxAge:   int(cfg.TTL() / time.Second),
		HttpOnly: true,
		Secure:   cfg.CookieSecure,
		SameSite: http.SameSiteLaxMode,
	})
}

// ClearSessionCookies expires the session cookie and every legacy name.
func ClearSessionCookies(w http.ResponseWriter, cfg config.SessionConfig) {
	for _, name := range append([]string{SessionCookieName}, legacyCookieNames...) {
		http.SetCookie(w, &http.Cookie{
			Name:     name,
			Value:    "",
			Path:     "/",
			Domain:   cfg.CookieDomain,
			MaxAge:   -1,
			HttpOnly: true,
			Secure:   cfg.CookieSecure,
			SameSite: http.SameSiteLaxMode,
		})
	}
}

// SessionTokenFromRequest extracts the raw token from the request cookie.
// A missing cookie returns the empty string.
func SessionTokenFromRequest(r *http.Request) string {
	cookie, err := r.Cookie(SessionCookieName)
	if err != nil {
		return ""
	}
	return cookie.Value
}
