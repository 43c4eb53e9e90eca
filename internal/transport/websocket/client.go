package websocket

import (
	"sync"
	"time"

	"github.com/gorilla/websocket"
)

const (
	writeWait  = 10 * time.Second
	pongWait   = 60 * time.Second
	pingPeriod = 30 * time.Second
)

// Conn serializes writes to one socket. gorilla allows a single concurrent
// writer, and the watchdog, the pinger and the read loop all write.
type Conn struct {
	ws      *websocket.Conn
	writeMu sync.Mutex
	closed  chan struct{}
	once    sync.Once
}

func newConn(ws *websocket.Conn) *Conn {
	return &Conn{ws: ws, closed: make(chan struct{})}
}

func (c *Conn) Send(msg ServerMessage) error {
	c.writeMu.Lock()
	defer c.writeMu.Unlock()
	c.ws.SetWriteDeadline(time.Now().Add(writeWait))
	return c.ws.WriteJSON(msg)
}

func (c *Conn) ping() error {
	c.writeMu.Lock()
	defer c.writeMu.Unlock()
	return c.ws.WriteControl(websocket.PingMessage, nil, time.Now().Add(writeWait))
}

// watchPongs arms the read deadline and extends it on every pong. Call it
// from the reading goroutine before keepAlive starts.
func (c *Conn) watchPongs() {
	c.ws.SetReadDeadline(time.Now().Add(pongWait))
	c.ws.SetPongHandler(func(string) error {
		return c.ws.SetReadDeadline(time.Now().Add(pongWait))
	})
}

// keepAlive pings until the connection closes. Missing pongs let the read
// deadline set by watchPongs expire, which ends the read loop.
func (c *Conn) keepAlive() {
	ticker := time.NewTicker(pingPeriod)
	defer ticker.Stop()
	for {
		select {
		case <-c.closed:
			return
		case <-ticker.C:
			if err := c.ping(); err != nil {
				return
			}
		}
	}
}

func (c *Conn) Close() {
	c.once.Do(func() {
		close(c.closed)
		c.ws.Close()
	})
}
