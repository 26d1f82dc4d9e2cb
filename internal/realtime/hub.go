package realtime

import (
	"context"
	"encoding/json"
	"log/slog"
	"sync"
	"time"

	"github.com/sourcegraph/conc"
)

// DefaultSweepInterval is how often the hub probes tracked connections.
const DefaultSweepInterval = 30 * time.Second

// Hub is the connection registry: it maps each user id to the set of that
// user's live push connections. Register/Unregister/send are safe to call
// from concurrent request handlers and the sweep timer.
type Hub struct {
	mu            sync.RWMutex
	conns         map[uint64]map[*Conn]struct{}
	sweepInterval time.Duration
}

// NewHub creates an empty hub sweeping at DefaultSweepInterval.
func NewHub() *Hub {
	return &Hub{
		conns:         make(map[uint64]map[*Conn]struct{}),
		sweepInterval: DefaultSweepInterval,
	}
}

// Register adds a connection to its owner's set.
func (h *Hub) Register(c *Conn) {
	h.mu.Lock()
	defer h.mu.Unlock()

	set, ok := h.conns[c.userID]
	if !ok {
		set = make(map[*Conn]struct{})
		h.conns[c.userID] = set
	}
	set[c] = struct{}{}
	slog.Debug("push connection registered", "user_id", c.userID, "connections", len(set))
}

// Unregister removes a connection. Empty per-user sets are evicted.
func (h *Hub) Unregister(c *Conn) {
	h.mu.Lock()
	defer h.mu.Unlock()

	set, ok := h.conns[c.userID]
	if !ok {
		return
	}
	if _, ok := set[c]; !ok {
		return
	}
	delete(set, c)
	if len(set) == 0 {
		delete(h.conns, c.userID)
	}
	slog.Debug("push connection unregistered", "user_id", c.userID)
}

// SendToUser serializes the event once and delivers it to every open
// connection in the user's set. Connections that fail to accept the write
// are skipped; their close handler will reconcile membership.
func (h *Hub) SendToUser(userID uint64, event Event) {
	data, err := json.Marshal(event)
	if err != nil {
		slog.Error("failed to marshal push event", "type", event.Type, "error", err)
		return
	}

	for _, c := range h.snapshot(userID) {
		if err := c.write(data); err != nil {
			slog.Debug("skipping stale push connection", "user_id", userID, "error", err)
		}
	}
}

// BroadcastAll delivers the event to every open connection across all users.
// Task mutations never use this; it exists for process-wide notices.
func (h *Hub) BroadcastAll(event Event) {
	data, err := json.Marshal(event)
	if err != nil {
		slog.Error("failed to marshal push event", "type", event.Type, "error", err)
		return
	}

	for _, c := range h.snapshotAll() {
		if err := c.write(data); err != nil {
			slog.Debug("skipping stale push connection", "user_id", c.userID, "error", err)
		}
	}
}

// UserConnectionCount returns how many live connections a user holds.
func (h *Hub) UserConnectionCount(userID uint64) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.conns[userID])
}

// Run sweeps tracked connections on a fixed interval until ctx is done.
func (h *Hub) Run(ctx context.Context) {
	ticker := time.NewTicker(h.sweepInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			h.closeAll()
			return
		case <-ticker.C:
			h.sweep()
		}
	}
}

// sweep terminates connections that have not answered the previous probe,
// then arms a fresh probe on the survivors. A terminated connection goes
// through the same cleanup path as a client-initiated close.
func (h *Hub) sweep() {
	var dead []*Conn
	for _, c := range h.snapshotAll() {
		if !c.alive.Load() {
			dead = append(dead, c)
			continue
		}
		c.alive.Store(false)
		if err := c.ping(); err != nil {
			dead = append(dead, c)
		}
	}

	if len(dead) == 0 {
		return
	}

	var wg conc.WaitGroup
	for _, c := range dead {
		c := c
		wg.Go(func() {
			slog.Info("terminating unresponsive push connection", "user_id", c.userID)
			h.Unregister(c)
			c.Close()
		})
	}
	wg.Wait()
}

func (h *Hub) closeAll() {
	for _, c := range h.snapshotAll() {
		h.Unregister(c)
		c.Close()
	}
}

func (h *Hub) snapshot(userID uint64) []*Conn {
	h.mu.RLock()
	defer h.mu.RUnlock()

	set := h.conns[userID]
	out := make([]*Conn, 0, len(set))
	for c := range set {
		out = append(out, c)
	}
	return out
}

func (h *Hub) snapshotAll() []*Conn {
	h.mu.RLock()
	defer h.mu.RUnlock()

	var out []*Conn
	for _, set := range h.conns {
		for c := range set {
			out = append(out, c)
		}
	}
	return out
}
