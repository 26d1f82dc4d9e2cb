package realtime

import (
	"encoding/json"
	"errors"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/gorilla/websocket"
)

const writeWait = 10 * time.Second

var errConnClosed = errors.New("connection closed")

// Conn is one live push connection owned by a user. A user may hold any
// number of Conns at once (multi-device).
type Conn struct {
	userID uint64
	ws     *websocket.Conn

	writeMu sync.Mutex
	alive   atomic.Bool
	closed  atomic.Bool
}

// NewConn wraps an upgraded websocket connection for the given user.
func NewConn(userID uint64, ws *websocket.Conn) *Conn {
	c := &Conn{userID: userID, ws: ws}
	c.alive.Store(true)
	ws.SetPongHandler(func(string) error {
		c.alive.Store(true)
		return nil
	})
	return c
}

// UserID returns the owning user's id.
func (c *Conn) UserID() uint64 {
	return c.userID
}

// Send marshals the event and writes it to the transport.
func (c *Conn) Send(event Event) error {
	data, err := json.Marshal(event)
	if err != nil {
		return err
	}
	return c.write(data)
}

func (c *Conn) write(data []byte) error {
	if c.closed.Load() {
		return errConnClosed
	}
	c.writeMu.Lock()
	defer c.writeMu.Unlock()
	_ = c.ws.SetWriteDeadline(time.Now().Add(writeWait))
	return c.ws.WriteMessage(websocket.TextMessage, data)
}

// ping sends a liveness probe. WriteControl is safe to call concurrently
// with WriteMessage.
func (c *Conn) ping() error {
	return c.ws.WriteControl(websocket.PingMessage, nil, time.Now().Add(writeWait))
}

// Close tears down the transport. Safe to call more than once.
func (c *Conn) Close() {
	if c.closed.CompareAndSwap(false, true) {
		_ = c.ws.Close()
	}
}

// ReadLoop consumes inbound messages until the connection drops, then
// unregisters the connection. The only meaningful client message is the
// keep-alive PING; unknown types are ignored and malformed payloads dropped.
func (c *Conn) ReadLoop(hub *Hub) {
	defer func() {
		hub.Unregister(c)
		c.Close()
	}()

	for {
		_, data, err := c.ws.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				slog.Debug("push connection read failed", "user_id", c.userID, "error", err)
			}
			return
		}
		c.alive.Store(true)

		var msg struct {
			Type string `json:"type"`
		}
		if err := json.Unmarshal(data, &msg); err != nil {
			continue
		}
		if msg.Type == MessagePing {
			if err := c.Send(Event{Type: MessagePong}); err != nil {
				return
			}
		}
	}
}
