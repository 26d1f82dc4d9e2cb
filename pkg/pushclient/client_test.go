package pushclient

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var testUpgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool { return true },
}

func wsURL(srv *httptest.Server) string {
	return "ws" + strings.TrimPrefix(srv.URL, "http")
}

func waitDone(t *testing.T, c *Client) {
	t.Helper()
	select {
	case <-c.Done():
	case <-time.After(5 * time.Second):
		t.Fatal("client did not stop in time")
	}
}

// eventSink collects delivered events across goroutines.
type eventSink struct {
	mu     sync.Mutex
	events []Event
}

func (s *eventSink) add(e Event) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.events = append(s.events, e)
}

func (s *eventSink) all() []Event {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]Event(nil), s.events...)
}

func TestConnect_NoCredential(t *testing.T) {
	c := New(Options{
		URL:     "ws://localhost/ws",
		OnEvent: func(Event) {},
	})

	err := c.Connect()
	assert.ErrorIs(t, err, ErrNoCredential)
	assert.Equal(t, StateClosed, c.State())
}

func TestConnect_SendsTokenOnURI(t *testing.T) {
	tokens := make(chan string, 1)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		tokens <- r.URL.Query().Get("token")
		ws, err := testUpgrader.Upgrade(w, r, nil)
		if err != nil {
			return
		}
		deadline := time.Now().Add(time.Second)
		ws.WriteControl(websocket.CloseMessage,
			websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""), deadline)
		ws.Close()
	}))
	defer srv.Close()

	c := New(Options{
		URL:     wsURL(srv),
		Token:   "session-token",
		OnEvent: func(Event) {},
	})
	require.NoError(t, c.Connect())
	waitDone(t, c)

	select {
	case token := <-tokens:
		assert.Equal(t, "session-token", token)
	default:
		t.Fatal("server never saw the handshake")
	}
}

func TestCleanServerClose_NoReconnect(t *testing.T) {
	var dials atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		dials.Add(1)
		ws, err := testUpgrader.Upgrade(w, r, nil)
		if err != nil {
			return
		}
		ws.WriteJSON(Event{Type: "CONNECTED"})
		deadline := time.Now().Add(time.Second)
		ws.WriteControl(websocket.CloseMessage,
			websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""), deadline)
		ws.Close()
	}))
	defer srv.Close()

	sink := &eventSink{}
	c := New(Options{
		URL:         wsURL(srv),
		Token:       "tok",
		OnEvent:     sink.add,
		BaseBackoff: 10 * time.Millisecond,
	})
	require.NoError(t, c.Connect())
	waitDone(t, c)

	assert.Equal(t, int32(1), dials.Load())
	assert.Equal(t, StateClosed, c.State())
	assert.Empty(t, sink.all())
}

func TestReconnect_RetryBudgetAndLinearBackoff(t *testing.T) {
	var dials atomic.Int32
	var dropped atomic.Bool
	var droppedAt time.Time
	var mu sync.Mutex

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		dials.Add(1)
		if dropped.Load() {
			// Refuse the handshake so every retry burns budget.
			http.Error(w, "unavailable", http.StatusServiceUnavailable)
			return
		}
		ws, err := testUpgrader.Upgrade(w, r, nil)
		if err != nil {
			return
		}
		mu.Lock()
		droppedAt = time.Now()
		mu.Unlock()
		dropped.Store(true)
		ws.Close() // abnormal: no close frame
	}))
	defer srv.Close()

	base := 20 * time.Millisecond
	c := New(Options{
		URL:         wsURL(srv),
		Token:       "tok",
		OnEvent:     func(Event) {},
		BaseBackoff: base,
		MaxRetries:  3,
	})
	require.NoError(t, c.Connect())
	waitDone(t, c)

	// One successful dial plus exactly three refused retries.
	assert.Equal(t, int32(4), dials.Load())
	assert.Equal(t, StateClosed, c.State())

	// Linear backoff: the streak waits 1x, 2x, 3x the base unit.
	mu.Lock()
	elapsed := time.Since(droppedAt)
	mu.Unlock()
	assert.GreaterOrEqual(t, elapsed, 6*base)
}

func TestReconnect_SucceedsWithinBudget(t *testing.T) {
	var dials atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if dials.Add(1) <= 2 {
			http.Error(w, "unavailable", http.StatusServiceUnavailable)
			return
		}
		ws, err := testUpgrader.Upgrade(w, r, nil)
		if err != nil {
			return
		}
		ws.WriteJSON(Event{Type: "CONNECTED"})
		// Hold the connection until the client disconnects.
		for {
			if _, _, err := ws.ReadMessage(); err != nil {
				return
			}
		}
	}))
	defer srv.Close()

	c := New(Options{
		URL:         wsURL(srv),
		Token:       "tok",
		OnEvent:     func(Event) {},
		BaseBackoff: 10 * time.Millisecond,
		MaxRetries:  3,
	})
	require.NoError(t, c.Connect())

	require.Eventually(t, func() bool {
		return c.State() == StateOpen
	}, 2*time.Second, 10*time.Millisecond)
	assert.Equal(t, int32(3), dials.Load())

	c.Close()
	waitDone(t, c)
	assert.Equal(t, StateClosed, c.State())
	assert.Equal(t, int32(3), dials.Load())
}

func TestReadLoop_FiltersProtocolMessages(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ws, err := testUpgrader.Upgrade(w, r, nil)
		if err != nil {
			return
		}
		ws.WriteJSON(Event{Type: "CONNECTED"})
		ws.WriteJSON(Event{Type: "PONG"})
		ws.WriteJSON(Event{Type: "TASK_UPDATED", TaskID: 11})
		ws.WriteJSON(Event{Type: "TASK_DELETED", TaskID: 12})
		deadline := time.Now().Add(time.Second)
		ws.WriteControl(websocket.CloseMessage,
			websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""), deadline)
		ws.Close()
	}))
	defer srv.Close()

	sink := &eventSink{}
	c := New(Options{
		URL:     wsURL(srv),
		Token:   "tok",
		OnEvent: sink.add,
	})
	require.NoError(t, c.Connect())
	waitDone(t, c)

	events := sink.all()
	require.Len(t, events, 2)
	assert.Equal(t, "TASK_UPDATED", events[0].Type)
	assert.Equal(t, uint64(11), events[0].TaskID)
	assert.Equal(t, "TASK_DELETED", events[1].Type)
	assert.Equal(t, uint64(12), events[1].TaskID)
}

func TestKeepAlive_SendsPing(t *testing.T) {
	pings := make(chan struct{}, 1)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ws, err := testUpgrader.Upgrade(w, r, nil)
		if err != nil {
			return
		}
		var msg Event
		if err := ws.ReadJSON(&msg); err == nil && msg.Type == "PING" {
			pings <- struct{}{}
		}
		deadline := time.Now().Add(time.Second)
		ws.WriteControl(websocket.CloseMessage,
			websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""), deadline)
		ws.Close()
	}))
	defer srv.Close()

	c := New(Options{
		URL:          wsURL(srv),
		Token:        "tok",
		OnEvent:      func(Event) {},
		PingInterval: 20 * time.Millisecond,
	})
	require.NoError(t, c.Connect())
	defer c.Close()

	select {
	case <-pings:
	case <-time.After(2 * time.Second):
		t.Fatal("server never received a keep-alive ping")
	}
	waitDone(t, c)
}
