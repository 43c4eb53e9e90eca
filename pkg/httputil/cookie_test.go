package httputil

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSessionCookies_ExactSet(t *testing.T) {
	var names []string
	for _, c := range SessionCookies {
		names = append(names, c.Name)
	}
	assert.ElementsMatch(t, []string{
		"next-auth.session-token",
		"__Secure-next-auth.session-token",
		"next-auth.callback-url",
		"__Secure-next-auth.callback-url",
		"next-auth.csrf-token",
		"__Host-next-auth.csrf-token",
	}, names)
}

func TestClearSessionCookies(t *testing.T) {
	rec := httptest.NewRecorder()
	ClearSessionCookies(rec)

	cookies := rec.Result().Cookies()
	require.Len(t, cookies, len(SessionCookies))
	for i, c := range cookies {
		assert.Equal(t, SessionCookies[i].Name, c.Name)
		assert.Equal(t, -1, c.MaxAge)
		assert.Equal(t, "/", c.Path)
		assert.Equal(t, SessionCookies[i].Secure, c.Secure)
	}
}

func TestSetSessionCookie(t *testing.T) {
	rec := httptest.NewRecorder()
	SetSessionCookie(rec, "tok", time.Hour, false)
	c := rec.Result().Cookies()[0]
	assert.Equal(t, SessionCookieName, c.Name)
	assert.False(t, c.Secure)

	rec = httptest.NewRecorder()
	SetSessionCookie(rec, "tok", time.Hour, true)
	c = rec.Result().Cookies()[0]
	assert.Equal(t, SecureSessionCookieName, c.Name)
	assert.True(t, c.Secure)
	assert.Equal(t, 3600, c.MaxAge)
}

func TestGetTokenFromRequest(t *testing.T) {
	r := httptest.NewRequest(http.MethodGet, "/", nil)
	_, err := GetTokenFromRequest(r)
	assert.ErrorIs(t, err, ErrNoToken)

	r.AddCookie(&http.Cookie{Name: SessionCookieName, Value: "plain"})
	tok, err := GetTokenFromRequest(r)
	require.NoError(t, err)
	assert.Equal(t, "plain", tok)

	r.AddCookie(&http.Cookie{Name: SecureSessionCookieName, Value: "secure"})
	tok, _ = GetTokenFromRequest(r)
	assert.Equal(t, "secure", tok)

	r = httptest.NewRequest(http.MethodGet, "/", nil)
	r.Header.Set("Authorization", "Bearer hdr")
	tok, _ = GetTokenFromRequest(r)
	assert.Equal(t, "hdr", tok)
}
