// Package watchdog re-checks a page's locally stored login instant and forces
// a logout once it is older than the client max age. Mount, timer,
// visibility and focus signals all feed one queue drained by Run, so the
// logout runs at most once per watchdog.
package watchdog

import (
	"context"
	"fmt"
	"strconv"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/iamasit07/wishplace/backend/pkg/auth"
)

// Status mirrors the session library's view of the user.
type Status int

const (
	StatusLoading Status = iota
	StatusAuthenticated
	StatusUnauthenticated
)

func (s Status) String() string {
	switch s {
	case StatusAuthenticated:
		return "authenticated"
	case StatusUnauthenticated:
		return "unauthenticated"
	default:
		return "loading"
	}
}

// ParseStatus maps the session library's status strings.
func ParseStatus(s string) Status {
	switch s {
	case "authenticated":
		return StatusAuthenticated
	case "unauthenticated":
		return StatusUnauthenticated
	default:
		return StatusLoading
	}
}

type Trigger int

const (
	TriggerMount Trigger = iota
	TriggerTimer
	TriggerVisible
	TriggerFocus
	// TriggerStatus re-reads the session status; it never checks expiry itself.
	TriggerStatus
)

func (t Trigger) String() string {
	return [...]string{"mount", "timer", "visible", "focus", "status"}[t]
}

// SessionLibrary is the third-party session client.
type SessionLibrary interface {
	Status() Status
	SignOut(ctx context.Context, redirect bool) error
}

// Logouter is the application-level logout. It may fail.
type Logouter interface {
	Logout(ctx context.Context) error
}

type Navigator interface {
	Navigate(ctx context.Context, url string) error
}

type Config struct {
	MaxAge   time.Duration
	Interval time.Duration
	Now      func() time.Time
	Logger   zerolog.Logger
}

type Watchdog struct {
	store   Store
	session SessionLibrary
	logout  Logouter
	nav     Navigator
	policy  auth.ExpiryPolicy
	cfg     Config
	log     zerolog.Logger

	events     chan Trigger
	logoutOnce sync.Once
	loggedOut  chan struct{}
}

func New(cfg Config, store Store, session SessionLibrary, logout Logouter, nav Navigator) *Watchdog {
	if cfg.MaxAge <= 0 {
		cfg.MaxAge = auth.DefaultClientMaxAge
	}
	if cfg.Interval <= 0 {
		cfg.Interval = auth.DefaultWatchInterval
	}
	if cfg.Now == nil {
		cfg.Now = time.Now
	}
	return &Watchdog{
		store:     store,
		session:   session,
		logout:    logout,
		nav:       nav,
		policy:    auth.ExpiryPolicy{MaxAge: cfg.MaxAge},
		cfg:       cfg,
		log:       cfg.Logger.With().Str("component", "watchdog").Logger(),
		events:    make(chan Trigger, 8),
		loggedOut: make(chan struct{}),
	}
}

// Notify queues a trigger without blocking. A full queue already holds a
// pending check, so dropping is harmless.
func (w *Watchdog) Notify(t Trigger) {
	select {
	case w.events <- t:
	default:
		w.log.Debug().Stringer("trigger", t).Msg("trigger queue full, dropping")
	}
}

// Done is closed once the forced logout has completed.
func (w *Watchdog) Done() <-chan struct{} {
	return w.loggedOut
}

// Expired reports whether the stored login instant is older than MaxAge.
// With nothing stored there is no session to expire.
func (w *Watchdog) Expired(now time.Time) bool {
	raw, ok := w.store.Get(StorageKeyLoginTime)
	if !ok || raw == "" {
		return false
	}
	loginAt, err := ParseLoginTime(raw)
	if err != nil {
		w.log.Warn().Err(err).Str("value", raw).Msg("unreadable login time")
		return false
	}
	return w.policy.Expired(now, loginAt)
}

// ParseLoginTime accepts RFC 3339 timestamps and unix milliseconds.
func ParseLoginTime(raw string) (time.Time, error) {
	if ms, err := strconv.ParseInt(raw, 10, 64); err == nil {
		return time.UnixMilli(ms), nil
	}
	t, err := time.Parse(time.RFC3339Nano, raw)
	if err != nil {
		return time.Time{}, fmt.Errorf("parse login time: %w", err)
	}
	return t, nil
}

// Run drains triggers until ctx ends, the session is no longer
// authenticated, or a forced logout completes. The ticker lives only inside
// Run, so nothing keeps firing after it returns.
func (w *Watchdog) Run(ctx context.Context) {
	for w.session.Status() != StatusAuthenticated {
		select {
		case <-ctx.Done():
			return
		case t := <-w.events:
			if t == TriggerStatus && w.session.Status() == StatusUnauthenticated {
				return
			}
		}
	}

	ticker := time.NewTicker(w.cfg.Interval)
	defer ticker.Stop()

	w.log.Debug().Dur("interval", w.cfg.Interval).Msg("watching session")
	if w.check(ctx, TriggerMount) {
		return
	}

	for {
		var t Trigger
		select {
		case <-ctx.Done():
			return
		case <-w.loggedOut:
			return
		case <-ticker.C:
			t = TriggerTimer
		case t = <-w.events:
		}

		if w.session.Status() != StatusAuthenticated {
			w.log.Debug().Stringer("status", w.session.Status()).Msg("session ended, releasing watchers")
			return
		}
		if t == TriggerStatus {
			continue
		}
		if w.check(ctx, t) {
			return
		}
	}
}

func (w *Watchdog) check(ctx context.Context, t Trigger) bool {
	if !w.Expired(w.cfg.Now()) {
		return false
	}
	w.log.Info().Stringer("trigger", t).Msg("session expired, forcing logout")
	w.ForceLogout(ctx)
	return true
}

// ForceLogout logs the user out and sends them to the login page. It runs at
// most once; concurrent callers wait for the first to finish. When the
// primary logout fails the local keys are cleared and the session library
// signs out without redirecting. Either way the user lands on the login page.
func (w *Watchdog) ForceLogout(ctx context.Context) {
	w.logoutOnce.Do(func() {
		defer close(w.loggedOut)

		if err := w.primaryLogout(ctx); err != nil {
			w.log.Warn().Err(err).Msg("logout failed, clearing local session")
			if err := w.fallbackLogout(ctx); err != nil {
				w.log.Warn().Err(err).Msg("session library sign-out failed")
			}
		}

		target := auth.LoginRedirectURL(auth.ReasonExpired, "")
		if err := w.nav.Navigate(ctx, target); err != nil {
			w.log.Error().Err(err).Str("url", target).Msg("navigation to login failed")
		}
	})
}

func (w *Watchdog) primaryLogout(ctx context.Context) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("logout panicked: %v", r)
		}
	}()
	return w.logout.Logout(ctx)
}

func (w *Watchdog) fallbackLogout(ctx context.Context) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("fallback logout panicked: %v", r)
		}
	}()
	w.store.Remove(SessionStorageKeys...)
	return w.session.SignOut(ctx, false)
}
