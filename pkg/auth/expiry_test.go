package auth

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestExpiryPolicy(t *testing.T) {
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	p := ExpiryPolicy{MaxAge: DefaultEdgeMaxAge}

	tests := []struct {
		name   string
		issued time.Time
		want   bool
	}{
		{"fresh", now, false},
		{"exactly max age", now.Add(-6 * time.Hour), false},
		{"one second over", now.Add(-6*time.Hour - time.Second), true},
		{"seven hours", now.Add(-7 * time.Hour), true},
		{"issued in the future", now.Add(time.Minute), false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, p.Expired(now, tt.issued))
		})
	}
}

func TestSessionAge(t *testing.T) {
	now := time.Unix(1_000_000, 0)
	assert.Equal(t, 25*time.Hour, SessionAge(now, now.Add(-25*time.Hour)))
}

func TestLoginRedirectURL(t *testing.T) {
	assert.Equal(t, "/login?callbackUrl=%2Ffavorites&reason=no-session", LoginRedirectURL(ReasonNoSession, "/favorites"))
	assert.Equal(t, "/login?reason=expired", LoginRedirectURL(ReasonExpired, ""))
	assert.Equal(t, "/login?callbackUrl=%2Fdashboard%3Ftab%3D2&reason=middleware-error", LoginRedirectURL(ReasonMiddlewareError, "/dashboard?tab=2"))
}
