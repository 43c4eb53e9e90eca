// Package websocket carries browser lifecycle events to a per-page watchdog
// and carries its logout instructions back to the page.
package websocket

import (
	"context"
	"encoding/json"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/hlog"

	"github.com/iamasit07/wishplace/backend/internal/metrics"
	"github.com/iamasit07/wishplace/backend/internal/watchdog"
	"github.com/iamasit07/wishplace/backend/pkg/auth"
	"github.com/iamasit07/wishplace/backend/pkg/httputil"
)

const helloWait = 10 * time.Second

// Authenticator resolves the connecting page's session and ends it on
// forced logout.
type Authenticator interface {
	ValidateToken(ctx context.Context, token string) (*auth.Claims, error)
	SessionEnder
}

type Handler struct {
	// Metrics, when set, tracks connected pages and forced logouts.
	Metrics *metrics.Metrics

	auth     Authenticator
	cfg      watchdog.Config
	upgrader websocket.Upgrader
	log      zerolog.Logger
}

// NewHandler builds the /ws/watchdog endpoint. An empty allowedOrigins list
// accepts any origin.
func NewHandler(a Authenticator, cfg watchdog.Config, allowedOrigins []string, logger zerolog.Logger) *Handler {
	allowed := make(map[string]bool, len(allowedOrigins))
	for _, o := range allowedOrigins {
		allowed[o] = true
	}
	return &Handler{
		auth: a,
		cfg:  cfg,
		log:  logger.With().Str("component", "ws").Logger(),
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin: func(r *http.Request) bool {
				origin := r.Header.Get("Origin")
				return origin == "" || len(allowed) == 0 || allowed[origin]
			},
		},
	}
}

// sessionID returns the server session behind the request's cookie, or ""
// when the page has none. The watchdog then falls back to a local logout.
func (h *Handler) sessionID(r *http.Request) string {
	token, err := httputil.GetTokenFromRequest(r)
	if err != nil {
		return ""
	}
	return h.resolveSession(r.Context(), hlog.FromRequest(r), token)
}

func (h *Handler) resolveSession(ctx context.Context, log *zerolog.Logger, token string) string {
	claims, err := h.auth.ValidateToken(ctx, token)
	if err != nil {
		log.Debug().Err(err).Msg("watchdog socket without a valid session")
		return ""
	}
	return claims.SessionID
}

func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	sessionID := h.sessionID(r)

	ws, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.log.Warn().Err(err).Msg("upgrade failed")
		return
	}
	conn := newConn(ws)
	defer conn.Close()

	ws.SetReadDeadline(time.Now().Add(helloWait))
	var hello ClientMessage
	if err := ws.ReadJSON(&hello); err != nil || hello.Type != MsgHello {
		h.log.Debug().Err(err).Str("type", hello.Type).Msg("expected hello")
		return
	}

	ctx, cancel := context.WithCancel(r.Context())
	defer cancel()

	if h.Metrics != nil {
		h.Metrics.WatchdogPages.Inc()
		defer h.Metrics.WatchdogPages.Dec()
	}

	log := h.log.With().Str("session_id", sessionID).Logger()
	b := newBridge(ctx, h.cfg, conn, h.auth, sessionID, hello, log)
	b.logout.metrics = h.Metrics
	b.resolve = func(token string) string {
		return h.resolveSession(ctx, &log, token)
	}

	conn.watchPongs()
	go conn.keepAlive()
	b.start()

	for {
		var msg ClientMessage
		if err := ws.ReadJSON(&msg); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				log.Debug().Err(err).Msg("page disconnected")
			}
			return
		}
		b.handle(msg)
	}
}

// bridge owns one page's watchdog. A watchdog whose Run returned because
// the user signed out is replaced when the page reports a new sign-in; one
// that forced a logout is never replaced.
type bridge struct {
	ctx     context.Context
	cfg     watchdog.Config
	store   *pageStore
	session *pageSession
	logout  *pageLogout
	nav     pageNavigator
	log     zerolog.Logger
	// resolve maps a token sent after sign-in to its server session id.
	resolve func(token string) string

	mu      sync.Mutex
	wd      *watchdog.Watchdog
	running bool
}

func newBridge(ctx context.Context, cfg watchdog.Config, conn *Conn, ender SessionEnder, sessionID string, hello ClientMessage, log zerolog.Logger) *bridge {
	cfg.Logger = log
	store := &pageStore{mem: watchdog.NewMemoryStore(hello.Storage), conn: conn, log: log}
	session := &pageSession{conn: conn}
	session.set(watchdog.ParseStatus(hello.Status))
	return &bridge{
		ctx:     ctx,
		cfg:     cfg,
		store:   store,
		session: session,
		logout:  &pageLogout{ender: ender, sessionID: sessionID, store: store, session: session},
		nav:     pageNavigator{conn: conn},
		log:     log,
	}
}

func (b *bridge) start() {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.startLocked()
}

func (b *bridge) startLocked() {
	if b.running || b.ctx.Err() != nil {
		return
	}
	wd := watchdog.New(b.cfg, b.store, b.session, b.logout, b.nav)
	b.wd = wd
	b.running = true
	go func() {
		wd.Run(b.ctx)
		b.mu.Lock()
		defer b.mu.Unlock()
		b.running = false
		select {
		case <-wd.Done():
			return
		default:
		}
		if b.session.Status() == watchdog.StatusAuthenticated {
			b.startLocked()
		}
	}()
}

func (b *bridge) handle(msg ClientMessage) {
	b.mu.Lock()
	defer b.mu.Unlock()

	switch msg.Type {
	case MsgStatus:
		if msg.Storage != nil {
			b.store.mem.Reset(msg.Storage)
		}
		if msg.Token != "" && b.resolve != nil {
			id := b.resolve(msg.Token)
			b.logout.setSessionID(id)
			b.log.Debug().Str("new_session_id", id).Msg("page session refreshed")
		}
		st := watchdog.ParseStatus(msg.Status)
		b.session.set(st)
		if b.running {
			b.wd.Notify(watchdog.TriggerStatus)
		} else if st == watchdog.StatusAuthenticated && !b.loggedOutLocked() {
			b.startLocked()
		}
	case MsgVisibility:
		if msg.Visible && b.running {
			b.wd.Notify(watchdog.TriggerVisible)
		}
	case MsgFocus:
		if b.running {
			b.wd.Notify(watchdog.TriggerFocus)
		}
	case MsgHello:
		b.log.Debug().Msg("duplicate hello ignored")
	default:
		raw, _ := json.Marshal(msg)
		b.log.Debug().RawJSON("message", raw).Msg("unknown message")
	}
}

func (b *bridge) loggedOutLocked() bool {
	if b.wd == nil {
		return false
	}
	select {
	case <-b.wd.Done():
		return true
	default:
		return false
	}
}
