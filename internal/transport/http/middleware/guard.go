package middleware

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/rs/zerolog"

	"github.com/iamasit07/wishplace/backend/pkg/auth"
	"github.com/iamasit07/wishplace/backend/pkg/httputil"
)

// Verifier decodes the session token carried by a request. Errors wrapping
// auth.ErrNoSession mean "not signed in"; anything else is a verifier fault.
type Verifier interface {
	Verify(ctx context.Context, r *http.Request) (*auth.Claims, error)
}

type TokenValidator interface {
	ValidateToken(ctx context.Context, token string) (*auth.Claims, error)
}

// TokenVerifier reads the token from the session cookie or Authorization
// header and hands it to a validator.
type TokenVerifier struct {
	Validator TokenValidator
}

func (v TokenVerifier) Verify(ctx context.Context, r *http.Request) (*auth.Claims, error) {
	token, err := httputil.GetTokenFromRequest(r)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", auth.ErrNoSession, err)
	}
	return v.Validator.ValidateToken(ctx, token)
}

// Decision is the guard's verdict for one request.
type Decision struct {
	Allow       bool
	Class       PathClass
	Reason      auth.Reason
	RedirectURL string
	Claims      *auth.Claims
	Err         error
}

type GuardConfig struct {
	Classifier PathClassifier
	MaxAge     time.Duration
	Now        func() time.Time
	Logger     zerolog.Logger
	// Decisions, when set, counts protected-path outcomes by the "outcome"
	// label: "allow" or the deny reason.
	Decisions *prometheus.CounterVec
}

// Guard gates every protected path behind a valid session token no older
// than MaxAge, and scrubs the session cookies on every denial.
type Guard struct {
	verifier   Verifier
	classifier PathClassifier
	policy     auth.ExpiryPolicy
	now        func() time.Time
	log        zerolog.Logger
	decisions  *prometheus.CounterVec
}

func NewGuard(verifier Verifier, cfg GuardConfig) *Guard {
	if cfg.MaxAge <= 0 {
		cfg.MaxAge = auth.DefaultEdgeMaxAge
	}
	if cfg.Now == nil {
		cfg.Now = time.Now
	}
	return &Guard{
		verifier:   verifier,
		classifier: cfg.Classifier,
		policy:     auth.ExpiryPolicy{MaxAge: cfg.MaxAge},
		now:        cfg.Now,
		log:        cfg.Logger.With().Str("component", "guard").Logger(),
		decisions:  cfg.Decisions,
	}
}

func deny(class PathClass, reason auth.Reason, callbackURL string, err error) Decision {
	return Decision{
		Class:       class,
		Reason:      reason,
		RedirectURL: auth.LoginRedirectURL(reason, callbackURL),
		Err:         err,
	}
}

// Evaluate classifies the path and, for protected paths, decodes the token
// and compares its age. It stops at the first denial and never panics.
func (g *Guard) Evaluate(r *http.Request) (d Decision) {
	p := cleanPath(r.URL.Path)
	class := g.classifier.Classify(p)
	if class != PathProtected {
		return Decision{Allow: true, Class: class}
	}

	defer func() {
		if rec := recover(); rec != nil {
			d = deny(class, auth.ReasonMiddlewareError, p, fmt.Errorf("guard panic: %v", rec))
		}
	}()

	claims, err := g.verifier.Verify(r.Context(), r)
	switch {
	case errors.Is(err, auth.ErrNoSession):
		return deny(class, auth.ReasonNoSession, p, err)
	case err != nil:
		return deny(class, auth.ReasonMiddlewareError, p, err)
	case claims == nil || claims.Subject == "":
		return deny(class, auth.ReasonNoSession, p, errors.New("token has no subject"))
	}

	if g.policy.Expired(g.now(), claims.IssuedInstant()) {
		return deny(class, auth.ReasonExpired, "", nil)
	}
	return Decision{Allow: true, Class: class, Claims: claims}
}

// Handler applies Evaluate. Denials become a redirect to the login page plus
// deletion of every session cookie; allowed requests pass through with the
// claims on their context.
func (g *Guard) Handler(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		d := g.Evaluate(r)
		g.count(d)
		if d.Allow {
			if d.Claims != nil {
				g.log.Debug().
					Str("path", r.URL.Path).
					Int64("user_id", d.Claims.UserID).
					Msg("access granted")
				r = r.WithContext(WithClaims(r.Context(), d.Claims))
			}
			next.ServeHTTP(w, r)
			return
		}

		ev := g.log.Info()
		if d.Reason == auth.ReasonMiddlewareError {
			ev = g.log.Error()
		}
		ev.Err(d.Err).
			Str("path", r.URL.Path).
			Str("reason", string(d.Reason)).
			Msg("access denied")

		httputil.ClearSessionCookies(w)
		http.Redirect(w, r, d.RedirectURL, http.StatusTemporaryRedirect)
	})
}

func (g *Guard) count(d Decision) {
	if g.decisions == nil || d.Class != PathProtected {
		return
	}
	outcome := "allow"
	if !d.Allow {
		outcome = string(d.Reason)
	}
	g.decisions.WithLabelValues(outcome).Inc()
}

type claimsKey struct{}

func WithClaims(ctx context.Context, c *auth.Claims) context.Context {
	return context.WithValue(ctx, claimsKey{}, c)
}

// ClaimsFromContext returns the claims the guard attached, if any.
func ClaimsFromContext(ctx context.Context) (*auth.Claims, bool) {
	c, ok := ctx.Value(claimsKey{}).(*auth.Claims)
	return c, ok && c != nil
}
