package websocket

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"

	"github.com/rs/zerolog"

	"github.com/iamasit07/wishplace/backend/internal/metrics"
	"github.com/iamasit07/wishplace/backend/internal/watchdog"
)

var errNoServerSession = errors.New("no server session for this connection")

// pageStore mirrors the page's local storage. Removals are forwarded so the
// page drops the same keys.
type pageStore struct {
	mem  *watchdog.MemoryStore
	conn *Conn
	log  zerolog.Logger
}

func (s *pageStore) Get(key string) (string, bool) {
	return s.mem.Get(key)
}

func (s *pageStore) Remove(keys ...string) {
	s.mem.Remove(keys...)
	if err := s.conn.Send(ServerMessage{Type: MsgClearStorage, Keys: keys}); err != nil {
		s.log.Warn().Err(err).Strs("keys", keys).Msg("failed to forward storage removal")
	}
}

// pageSession is the page's session library as reported over the socket.
type pageSession struct {
	conn   *Conn
	status atomic.Int32
}

func (s *pageSession) Status() watchdog.Status {
	return watchdog.Status(s.status.Load())
}

func (s *pageSession) set(st watchdog.Status) {
	s.status.Store(int32(st))
}

func (s *pageSession) SignOut(_ context.Context, redirect bool) error {
	s.set(watchdog.StatusUnauthenticated)
	return s.conn.Send(ServerMessage{Type: MsgSignOut, Redirect: &redirect})
}

// SessionEnder ends server-side sessions.
type SessionEnder interface {
	Logout(ctx context.Context, sessionID string) error
}

// pageLogout is the application logout: end the server session, then have
// the page drop its stored keys and sign out of the session library.
type pageLogout struct {
	ender   SessionEnder
	store   watchdog.Store
	session *pageSession
	metrics *metrics.Metrics // Optional, can be nil

	mu        sync.Mutex
	sessionID string
}

func (l *pageLogout) setSessionID(id string) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.sessionID = id
}

func (l *pageLogout) currentSessionID() string {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.sessionID
}

func (l *pageLogout) Logout(ctx context.Context) (err error) {
	defer func() {
		if l.metrics == nil {
			return
		}
		path := metrics.LogoutPrimary
		if err != nil {
			path = metrics.LogoutFallback
		}
		l.metrics.ForcedLogouts.WithLabelValues(path).Inc()
	}()

	sessionID := l.currentSessionID()
	if sessionID == "" {
		return errNoServerSession
	}
	if err := l.ender.Logout(ctx, sessionID); err != nil {
		return err
	}
	l.store.Remove(watchdog.SessionStorageKeys...)
	return l.session.SignOut(ctx, false)
}

// pageNavigator tells the page where to go next.
type pageNavigator struct {
	conn *Conn
}

func (n pageNavigator) Navigate(_ context.Context, url string) error {
	return n.conn.Send(ServerMessage{Type: MsgNavigate, URL: url})
}
