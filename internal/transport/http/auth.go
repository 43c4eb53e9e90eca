package http

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/rs/zerolog/hlog"

	"github.com/iamasit07/wishplace/backend/internal/domain"
	"github.com/iamasit07/wishplace/backend/internal/service/session"
	"github.com/iamasit07/wishplace/backend/pkg/auth"
	"github.com/iamasit07/wishplace/backend/pkg/httputil"
	"github.com/iamasit07/wishplace/backend/pkg/useragent"
)

// Authenticator is the slice of session.AuthService the handlers use.
type Authenticator interface {
	Register(ctx context.Context, in session.RegisterInput, meta session.ClientMeta) (*session.LoginResult, error)
	Login(ctx context.Context, identifier, password string, meta session.ClientMeta) (*session.LoginResult, error)
	LoginWithGoogle(ctx context.Context, g session.GoogleIdentity, meta session.ClientMeta) (*session.LoginResult, error)
	Logout(ctx context.Context, sessionID string) error
	ValidateToken(ctx context.Context, token string) (*auth.Claims, error)
	GetUser(ctx context.Context, userID int64) (*domain.User, error)
	TouchSession(ctx context.Context, sessionID string) error
	GetUserSessionHistory(ctx context.Context, userID int64, limit int) ([]domain.UserSession, error)
}

type AuthHandler struct {
	Auth       Authenticator
	Cache      session.CacheRepository // Optional, can be nil
	TokenTTL   time.Duration
	Production bool
}

func NewAuthHandler(a Authenticator, cache session.CacheRepository, tokenTTL time.Duration, production bool) *AuthHandler {
	return &AuthHandler{Auth: a, Cache: cache, TokenTTL: tokenTTL, Production: production}
}

func clientMeta(r *http.Request) session.ClientMeta {
	return session.ClientMeta{
		DeviceInfo: useragent.ExtractDeviceInfo(r),
		IPAddress:  useragent.ExtractIPAddress(r),
	}
}

// loginResponse is what the page persists: loginTime goes to local storage,
// the token is already in the cookie.
type loginResponse struct {
	Token     string       `json:"token"`
	LoginTime string       `json:"loginTime"`
	User      *domain.User `json:"user"`
}

func (h *AuthHandler) completeLogin(w http.ResponseWriter, status int, res *session.LoginResult) {
	httputil.SetSessionCookie(w, res.Token, h.TokenTTL, h.Production)
	writeJSON(w, status, loginResponse{
		Token:     res.Token,
		LoginTime: res.LoginAt.UTC().Format(time.RFC3339Nano),
		User:      res.User,
	})
}

func (h *AuthHandler) Register(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Username string `json:"username"`
		Name     string `json:"name"`
		Email    string `json:"email"`
		Password string `json:"password"`
	}
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, r, http.StatusBadRequest, "Invalid input", err)
		return
	}

	res, err := h.Auth.Register(r.Context(), session.RegisterInput{
		Username: req.Username,
		Name:     req.Name,
		Email:    req.Email,
		Password: req.Password,
	}, clientMeta(r))
	switch {
	case errors.Is(err, session.ErrInvalidInput):
		writeError(w, r, http.StatusBadRequest, err.Error(), err)
		return
	case errors.Is(err, session.ErrUserExists):
		writeError(w, r, http.StatusConflict, "Username or email already taken", err)
		return
	case err != nil:
		writeError(w, r, http.StatusInternalServerError, "Failed to create user", err)
		return
	}

	h.completeLogin(w, http.StatusCreated, res)
}

func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Username string `json:"username"`
		Password string `json:"password"`
	}
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, r, http.StatusBadRequest, "Invalid input", err)
		return
	}

	res, err := h.Auth.Login(r.Context(), req.Username, req.Password, clientMeta(r))
	if errors.Is(err, session.ErrInvalidCredentials) {
		writeError(w, r, http.StatusUnauthorized, "Invalid credentials", err)
		return
	}
	if err != nil {
		writeError(w, r, http.StatusInternalServerError, "Failed to sign in", err)
		return
	}

	h.completeLogin(w, http.StatusOK, res)
}

// Logout ends the server session when the token still decodes, and always
// scrubs the session cookies.
func (h *AuthHandler) Logout(w http.ResponseWriter, r *http.Request) {
	if token, err := httputil.GetTokenFromRequest(r); err == nil {
		if claims, err := h.Auth.ValidateToken(r.Context(), token); err == nil {
			if err := h.Auth.Logout(r.Context(), claims.SessionID); err != nil {
				hlog.FromRequest(r).Warn().Err(err).Msg("failed to end session on logout")
			}
			if h.Cache != nil {
				h.Cache.Del(r.Context(), profileCacheKey(claims.UserID))
			}
		}
	}

	httputil.ClearSessionCookies(w)
	writeJSON(w, http.StatusOK, map[string]bool{"ok": true})
}

func profileCacheKey(userID int64) string {
	return fmt.Sprintf("user_profile:%d", userID)
}

func (h *AuthHandler) Me(w http.ResponseWriter, r *http.Request) {
	claims, ok := requireClaims(w, r)
	if !ok {
		return
	}

	if err := h.Auth.TouchSession(r.Context(), claims.SessionID); err != nil {
		hlog.FromRequest(r).Warn().Err(err).Msg("failed to update session activity")
	}

	if h.Cache != nil {
		cached, err := h.Cache.Get(r.Context(), profileCacheKey(claims.UserID))
		if err == nil && cached != "" {
			var user domain.User
			if err := json.Unmarshal([]byte(cached), &user); err == nil {
				w.Header().Set("X-Cache", "HIT")
				writeJSON(w, http.StatusOK, map[string]any{"user": &user})
				return
			}
		}
	}

	user, err := h.Auth.GetUser(r.Context(), claims.UserID)
	if err != nil {
		writeError(w, r, http.StatusInternalServerError, "Failed to load user", err)
		return
	}
	if user == nil {
		writeError(w, r, http.StatusNotFound, "User not found", nil)
		return
	}

	if h.Cache != nil {
		if data, err := json.Marshal(user); err == nil {
			h.Cache.Set(r.Context(), profileCacheKey(claims.UserID), data, time.Hour)
		}
	}

	w.Header().Set("X-Cache", "MISS")
	writeJSON(w, http.StatusOK, map[string]any{"user": user})
}

// SessionHistory lists the caller's recent logins.
func (h *AuthHandler) SessionHistory(w http.ResponseWriter, r *http.Request) {
	claims, ok := requireClaims(w, r)
	if !ok {
		return
	}
	sessions, err := h.Auth.GetUserSessionHistory(r.Context(), claims.UserID, 10)
	if err != nil {
		writeError(w, r, http.StatusInternalServerError, "Failed to fetch session history", err)
		return
	}
	writeJSON(w, http.StatusOK, sessions)
}
