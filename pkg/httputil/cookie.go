package httputil

import (
	"errors"
	"net/http"
	"strings"
	"time"
)

// CookieSpec describes one cookie the session library may have set.
type CookieSpec struct {
	Name   string
	Secure bool
}

const (
	SessionCookieName       = "next-auth.session-token"
	SecureSessionCookieName = "__Secure-next-auth.session-token"
)

// SessionCookies is every session-related cookie, legacy and secure variants.
// All of them are scrubbed whenever access is denied.
var SessionCookies = []CookieSpec{
	{Name: SessionCookieName},
	{Name: SecureSessionCookieName, Secure: true},
	{Name: "next-auth.callback-url"},
	{Name: "__Secure-next-auth.callback-url", Secure: true},
	{Name: "next-auth.csrf-token"},
	{Name: "__Host-next-auth.csrf-token", Secure: true},
}

var ErrNoToken = errors.New("no session token in cookie or header")

// SetSessionCookie stores the signed session token. Production uses the
// __Secure- name so the browser refuses it over plain HTTP.
func SetSessionCookie(w http.ResponseWriter, token string, maxAge time.Duration, production bool) {
	cookie := &http.Cookie{
		Name:     SessionCookieName,
		Value:    token,
		Path:     "/",
		MaxAge:   int(maxAge.Seconds()),
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	}
	if production {
		cookie.Name = SecureSessionCookieName
		cookie.Secure = true
	}
	http.SetCookie(w, cookie)
}

// ClearSessionCookies emits a deletion for every entry of SessionCookies.
// Deleting a cookie the client never had is a no-op on its side.
func ClearSessionCookies(w http.ResponseWriter) {
	for _, spec := range SessionCookies {
		http.SetCookie(w, &http.Cookie{
			Name:     spec.Name,
			Value:    "",
			Path:     "/",
			Expires:  time.Unix(0, 0),
			MaxAge:   -1,
			HttpOnly: true,
			Secure:   spec.Secure,
		})
	}
}

// GetTokenFromRequest returns the session token from either cookie variant,
// falling back to an Authorization header.
func GetTokenFromRequest(r *http.Request) (string, error) {
	for _, name := range []string{SecureSessionCookieName, SessionCookieName} {
		if c, err := r.Cookie(name); err == nil && c.Value != "" {
			return c.Value, nil
		}
	}

	authHeader := r.Header.Get("Authorization")
	if authHeader != "" {
		if token, ok := strings.CutPrefix(authHeader, "Bearer "); ok {
			return token, nil
		}
		return authHeader, nil
	}

	return "", ErrNoToken
}
