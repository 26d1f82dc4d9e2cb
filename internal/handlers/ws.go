package handlers

import (
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/croftbit/taskboard/internal/realtime"
	"github.com/croftbit/taskboard/internal/services"
	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	// Cross-origin is handled by the deployment's proxy layer.
	CheckOrigin: func(r *http.Request) bool { return true },
}

// WSHandler performs the push handshake: it extracts the credential from the
// connection request, verifies it, registers the connection, and starts the
// read loop.
type WSHandler struct {
	hub    *realtime.Hub
	tokens *services.TokenService
}

// NewWSHandler creates a new WSHandler.
func NewWSHandler(hub *realtime.Hub, tokens *services.TokenService) *WSHandler {
	return &WSHandler{
		hub:    hub,
		tokens: tokens,
	}
}

// Serve upgrades the request and runs the connection lifecycle.
func (h *WSHandler) Serve(c *gin.Context) {
	ws, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		slog.Debug("websocket upgrade failed", "error", err)
		return
	}

	defer func() {
		if r := recover(); r != nil {
			slog.Error("panic during push handshake", "panic", r)
			closeWith(ws, websocket.CloseInternalServerErr, "Internal error")
		}
	}()

	token := c.Query("token")
	if token == "" {
		closeWith(ws, websocket.ClosePolicyViolation, "Token required")
		return
	}

	user, err := h.tokens.Verify(token)
	if err != nil {
		switch {
		case errors.Is(err, services.ErrUserNotFound):
			closeWith(ws, websocket.ClosePolicyViolation, "User not found")
		case errors.Is(err, services.ErrInvalidToken):
			closeWith(ws, websocket.ClosePolicyViolation, "Invalid token")
		default:
			closeWith(ws, websocket.CloseInternalServerErr, "Internal error")
		}
		return
	}

	conn := realtime.NewConn(user.ID, ws)
	h.hub.Register(conn)

	if err := conn.Send(realtime.Event{Type: realtime.MessageConnected}); err != nil {
		h.hub.Unregister(conn)
		conn.Close()
		return
	}

	conn.ReadLoop(h.hub)
}

func closeWith(ws *websocket.Conn, code int, reason string) {
	deadline := time.Now().Add(time.Second)
	_ = ws.WriteControl(websocket.CloseMessage, websocket.FormatCloseMessage(code, reason), deadline)
	_ = ws.Close()
}
