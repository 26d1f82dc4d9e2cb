// Package pushclient maintains a device's push connection to a taskboard
// server, delivering task events in arrival order and reconnecting with
// linear backoff after unexpected loss.
package pushclient

import (
	"encoding/json"
	"errors"
	"net/url"
	"sync"
	"sync/atomic"
	"time"

	"github.com/gorilla/websocket"
)

// State is the controller's connection state.
type State int32

const (
	StateIdle State = iota
	StateConnecting
	StateOpen
	StateClosed
)

func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateConnecting:
		return "connecting"
	case StateOpen:
		return "open"
	case StateClosed:
		return "closed"
	}
	return "unknown"
}

// Protocol message types mirrored from the server envelope.
const (
	messageConnected = "CONNECTED"
	messagePing      = "PING"
	messagePong      = "PONG"
)

// Event is one application-level push message. Task is left raw so callers
// decode into their own view model.
type Event struct {
	Type   string          `json:"type"`
	Task   json.RawMessage `json:"task,omitempty"`
	TaskID uint64          `json:"task_id,omitempty"`
}

const (
	defaultBaseBackoff  = 2 * time.Second
	defaultMaxRetries   = 3
	defaultPingInterval = 25 * time.Second
)

var ErrNoCredential = errors.New("no credential available")

// Options configures a Client.
type Options struct {
	// URL is the push endpoint, e.g. "ws://host/ws".
	URL string
	// Token is the bearer credential carried on the connection URI.
	Token string
	// OnEvent receives application events in arrival order. Protocol
	// messages (CONNECTED, PONG) are filtered out. Must not be nil.
	OnEvent func(Event)
	// BaseBackoff is the unit of the linear reconnect delay (attempt n
	// waits n*BaseBackoff). Defaults to 2s.
	BaseBackoff time.Duration
	// MaxRetries bounds reconnection attempts per disconnection streak.
	// Defaults to 3.
	MaxRetries int
	// PingInterval is the keep-alive cadence. Defaults to 25s.
	PingInterval time.Duration
}

// Client is the reconnection controller for one device session. Once it
// reaches StateClosed (clean shutdown, missing credential, or exhausted
// retries) it stays closed for the session.
type Client struct {
	opts Options

	state    atomic.Int32
	attempts int

	mu   sync.Mutex
	conn *websocket.Conn

	done      chan struct{}
	closeOnce sync.Once
	stopped   chan struct{}
}

// New creates a Client in StateIdle.
func New(opts Options) *Client {
	if opts.BaseBackoff <= 0 {
		opts.BaseBackoff = defaultBaseBackoff
	}
	if opts.MaxRetries <= 0 {
		opts.MaxRetries = defaultMaxRetries
	}
	if opts.PingInterval <= 0 {
		opts.PingInterval = defaultPingInterval
	}
	return &Client{
		opts:    opts,
		done:    make(chan struct{}),
		stopped: make(chan struct{}),
	}
}

// State returns the current connection state.
func (c *Client) State() State {
	return State(c.state.Load())
}

// Connect starts the connection lifecycle. It fails immediately when no
// credential is available.
func (c *Client) Connect() error {
	if c.opts.Token == "" {
		c.state.Store(int32(StateClosed))
		return ErrNoCredential
	}
	go c.run()
	return nil
}

// Close performs a clean shutdown and suppresses any further reconnection.
func (c *Client) Close() {
	c.closeOnce.Do(func() {
		close(c.done)
		c.mu.Lock()
		if c.conn != nil {
			deadline := time.Now().Add(time.Second)
			_ = c.conn.WriteControl(websocket.CloseMessage,
				websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""), deadline)
			_ = c.conn.Close()
		}
		c.mu.Unlock()
		c.state.Store(int32(StateClosed))
	})
}

// Done is closed when the controller has permanently stopped.
func (c *Client) Done() <-chan struct{} {
	return c.stopped
}

func (c *Client) run() {
	defer close(c.stopped)
	defer c.state.Store(int32(StateClosed))

	for {
		c.state.Store(int32(StateConnecting))

		conn, _, err := websocket.DefaultDialer.Dial(c.dialURL(), nil)
		if err != nil {
			if !c.waitRetry() {
				return
			}
			continue
		}

		c.mu.Lock()
		c.conn = conn
		c.mu.Unlock()

		c.state.Store(int32(StateOpen))
		c.attempts = 0

		clean := c.readLoop(conn)

		c.mu.Lock()
		c.conn = nil
		c.mu.Unlock()

		if clean || c.isDone() {
			return
		}
		if !c.waitRetry() {
			return
		}
	}
}

func (c *Client) dialURL() string {
	u, err := url.Parse(c.opts.URL)
	if err != nil {
		return c.opts.URL
	}
	q := u.Query()
	q.Set("token", c.opts.Token)
	u.RawQuery = q.Encode()
	return u.String()
}

// readLoop consumes events until the connection drops. It reports whether
// the closure was a clean, intentional shutdown.
func (c *Client) readLoop(conn *websocket.Conn) bool {
	pingStop := make(chan struct{})
	defer close(pingStop)
	go c.keepAlive(conn, pingStop)

	for {
		_, data, err := conn.ReadMessage()
		if err != nil {
			return websocket.IsCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway)
		}

		var event Event
		if err := json.Unmarshal(data, &event); err != nil {
			continue
		}
		switch event.Type {
		case messageConnected, messagePong:
			// protocol-internal, not surfaced
		default:
			c.opts.OnEvent(event)
		}
	}
}

func (c *Client) keepAlive(conn *websocket.Conn, stop <-chan struct{}) {
	ticker := time.NewTicker(c.opts.PingInterval)
	defer ticker.Stop()

	payload, _ := json.Marshal(Event{Type: messagePing})
	for {
		select {
		case <-stop:
			return
		case <-c.done:
			return
		case <-ticker.C:
			_ = conn.SetWriteDeadline(time.Now().Add(5 * time.Second))
			if err := conn.WriteMessage(websocket.TextMessage, payload); err != nil {
				return
			}
		}
	}
}

// waitRetry counts an attempt and sleeps the linear backoff. It reports
// false when the retry budget is spent or the client was closed.
func (c *Client) waitRetry() bool {
	c.attempts++
	if c.attempts > c.opts.MaxRetries {
		return false
	}

	delay := time.Duration(c.attempts) * c.opts.BaseBackoff
	select {
	case <-c.done:
		return false
	case <-time.After(delay):
		return true
	}
}

func (c *Client) isDone() bool {
	select {
	case <-c.done:
		return true
	default:
		return false
	}
}
