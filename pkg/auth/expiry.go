package auth

import (
	"net/url"
	"time"
)

const (
	// DefaultEdgeMaxAge bounds a session as seen by the request guard.
	DefaultEdgeMaxAge = 6 * time.Hour
	// DefaultClientMaxAge bounds a session as seen by the page watchdog.
	DefaultClientMaxAge = 24 * time.Hour
	// DefaultWatchInterval is the watchdog's polling period.
	DefaultWatchInterval = 60 * time.Second
)

// LoginPath is where every denied or expired session is sent.
const LoginPath = "/login"

// Reason tells the login page why the user landed there.
type Reason string

const (
	ReasonNoSession       Reason = "no-session"
	ReasonExpired         Reason = "expired"
	ReasonMiddlewareError Reason = "middleware-error"
)

// SessionAge is the time elapsed since a session began.
func SessionAge(now, issued time.Time) time.Duration {
	return now.Sub(issued)
}

// ExpiryPolicy decides staleness for one layer. The guard and the watchdog
// each hold their own instance.
type ExpiryPolicy struct {
	MaxAge time.Duration
}

// Expired reports whether a session issued at issued is older than MaxAge at now.
// A session exactly MaxAge old is still valid.
func (p ExpiryPolicy) Expired(now, issued time.Time) bool {
	return SessionAge(now, issued) > p.MaxAge
}

// LoginRedirectURL builds the login redirect for a denial. callbackURL is
// omitted when empty.
func LoginRedirectURL(reason Reason, callbackURL string) string {
	q := url.Values{}
	if callbackURL != "" {
		q.Set("callbackUrl", callbackURL)
	}
	q.Set("reason", string(reason))
	return LoginPath + "?" + q.Encode()
}
