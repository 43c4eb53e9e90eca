package http

import (
	"context"
	"crypto/subtle"
	"errors"
	"net/http"
	"net/url"
	"time"

	"github.com/gorilla/securecookie"
	"github.com/rs/zerolog/hlog"
	"golang.org/x/oauth2"

	"github.com/iamasit07/wishplace/backend/internal/config"
	"github.com/iamasit07/wishplace/backend/internal/service/session"
	"github.com/iamasit07/wishplace/backend/pkg/auth"
	"github.com/iamasit07/wishplace/backend/pkg/httputil"
)

const (
	oauthStateCookie = "oauth_state"
	oauthStateMaxAge = 10 * time.Minute
)

// GoogleProvider runs the OAuth code flow against Google.
type GoogleProvider interface {
	AuthCodeURL(state string) string
	Identity(ctx context.Context, code string) (*session.GoogleIdentity, error)
}

type googleProvider struct {
	cfg *oauth2.Config
}

func NewGoogleProvider(cfg *oauth2.Config) GoogleProvider {
	return &googleProvider{cfg: cfg}
}

func (p *googleProvider) AuthCodeURL(state string) string {
	return p.cfg.AuthCodeURL(state, oauth2.AccessTypeOnline)
}

func (p *googleProvider) Identity(ctx context.Context, code string) (*session.GoogleIdentity, error) {
	token, err := p.cfg.Exchange(ctx, code)
	if err != nil {
		return nil, err
	}
	u, err := config.GetGoogleUserInfo(ctx, p.cfg, token)
	if err != nil {
		return nil, err
	}
	return &session.GoogleIdentity{
		ID:            u.ID,
		Email:         u.Email,
		VerifiedEmail: u.VerifiedEmail,
		Name:          u.Name,
		Picture:       u.Picture,
	}, nil
}

type OAuthHandler struct {
	Provider    GoogleProvider
	Auth        Authenticator
	FrontendURL string
	TokenTTL    time.Duration
	Production  bool

	state *securecookie.SecureCookie
}

// NewOAuthHandler signs the state cookie with stateKey.
func NewOAuthHandler(p GoogleProvider, a Authenticator, frontendURL string, tokenTTL time.Duration, production bool, stateKey []byte) *OAuthHandler {
	sc := securecookie.New(stateKey, nil)
	sc.SetSerializer(securecookie.JSONEncoder{})
	sc.MaxAge(int(oauthStateMaxAge.Seconds()))
	return &OAuthHandler{
		Provider:    p,
		Auth:        a,
		FrontendURL: frontendURL,
		TokenTTL:    tokenTTL,
		Production:  production,
		state:       sc,
	}
}

// GoogleLogin redirects the user to Google with a state bound to a cookie.
func (h *OAuthHandler) GoogleLogin(w http.ResponseWriter, r *http.Request) {
	state, err := auth.GenerateState()
	if err != nil {
		writeError(w, r, http.StatusInternalServerError, "Failed to start sign-in", err)
		return
	}
	encoded, err := h.state.Encode(oauthStateCookie, state)
	if err != nil {
		writeError(w, r, http.StatusInternalServerError, "Failed to start sign-in", err)
		return
	}
	http.SetCookie(w, &http.Cookie{
		Name:     oauthStateCookie,
		Value:    encoded,
		Path:     "/api/auth/google",
		MaxAge:   int(oauthStateMaxAge.Seconds()),
		HttpOnly: true,
		Secure:   h.Production,
		SameSite: http.SameSiteLaxMode,
	})
	http.Redirect(w, r, h.Provider.AuthCodeURL(state), http.StatusTemporaryRedirect)
}

func (h *OAuthHandler) fail(w http.ResponseWriter, r *http.Request, code string, err error) {
	hlog.FromRequest(r).Warn().Err(err).Str("error_code", code).Msg("google sign-in failed")
	http.Redirect(w, r, h.FrontendURL+"/login?error="+code, http.StatusTemporaryRedirect)
}

// GoogleCallback finishes the code flow, starts a session and hands the
// login instant to the page so it can seed its local store.
func (h *OAuthHandler) GoogleCallback(w http.ResponseWriter, r *http.Request) {
	if err := h.checkState(r); err != nil {
		h.fail(w, r, "invalid_state", err)
		return
	}
	http.SetCookie(w, &http.Cookie{Name: oauthStateCookie, Path: "/api/auth/google", MaxAge: -1})

	identity, err := h.Provider.Identity(r.Context(), r.URL.Query().Get("code"))
	if err != nil {
		h.fail(w, r, "auth_failed", err)
		return
	}

	res, err := h.Auth.LoginWithGoogle(r.Context(), *identity, clientMeta(r))
	if err != nil {
		h.fail(w, r, "server_error", err)
		return
	}

	httputil.SetSessionCookie(w, res.Token, h.TokenTTL, h.Production)
	q := url.Values{"loginTime": {res.LoginAt.UTC().Format(time.RFC3339Nano)}}
	http.Redirect(w, r, h.FrontendURL+"/auth/complete?"+q.Encode(), http.StatusTemporaryRedirect)
}

var errStateMismatch = errors.New("oauth state mismatch")

func (h *OAuthHandler) checkState(r *http.Request) error {
	c, err := r.Cookie(oauthStateCookie)
	if err != nil {
		return err
	}
	var want string
	if err := h.state.Decode(oauthStateCookie, c.Value, &want); err != nil {
		return err
	}
	got := r.URL.Query().Get("state")
	if got == "" || subtle.ConstantTimeCompare([]byte(want), []byte(got)) != 1 {
		return errStateMismatch
	}
	return nil
}
